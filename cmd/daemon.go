package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/config"
	"github.com/theirongolddev/budgetplanner/internal/daemon"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const stopTimeout = 8 * time.Second

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch the budget in the background and serve it over HTTP/SSE",
	Long: `Polls the budget service on an interval and exposes the latest figures
and a change feed on a local HTTP API:

  GET /healthz     liveness
  GET /v1/status   poll counters and current summary
  GET /v1/events   recent change events
  GET /v1/stream   server-sent events`,
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is running and what it last saw",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.DataDir(), "budgetd.pid"), "Runtime file holding the daemon pid")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.DataDir(), "budgetd.log"), "Log file for detached mode")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Change events kept in memory")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Start in the background and return")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: set on the detached process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	lock := daemonLock{path: flagDaemonPIDFile}
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("--detach and --child are mutually exclusive")
	case flagDaemonDetach:
		return startDetached(lock)
	default:
		return runForeground(lock)
	}
}

func startDetached(lock daemonLock) error {
	if st, ok := lock.running(); ok {
		return fmt.Errorf("daemon already running (pid %d)", st.PID)
	}

	// The child has no terminal to prompt on.
	c, err := openClient(context.Background(), false)
	if err != nil {
		return err
	}
	_, err = c.requireSession()
	c.Close()
	if err != nil {
		return err
	}

	args := append(filterDetachArg(os.Args[1:]), "--child")
	pid, err := spawnDetached(args, flagDaemonLogFile)
	if err != nil {
		return err
	}

	addr, _ := daemonSettings(loadConfigOrDefault())
	fmt.Printf("  Started daemon (pid %d)\n", pid)
	fmt.Printf("  API: http://%s/v1/status\n", addr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runForeground(lock daemonLock) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, err := openClient(ctx, true)
	if err != nil {
		return err
	}
	defer c.Close()
	if _, err := c.requireSession(); err != nil {
		return err
	}

	addr, interval := daemonSettings(c.cfg)
	release, err := lock.acquire(daemonRuntime{
		PID:       os.Getpid(),
		Addr:      addr,
		StartedAt: time.Now(),
		ServerURL: c.gw.BaseURL(),
	})
	if err != nil {
		return err
	}
	defer release()

	if flagDaemonChild && !flagQuiet {
		log.SetLevel(log.InfoLevel)
	}

	svc := daemon.New(daemon.Config{
		ServerURL:    c.gw.BaseURL(),
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: flagDaemonEventsBuffer,
		Logger:       log.StandardLogger(),
	}, c.budget)

	log.WithFields(log.Fields{"addr": addr, "server": c.gw.BaseURL(), "interval": interval}).Info("daemon starting")
	if !flagDaemonChild {
		fmt.Printf("  Listening on http://%s, polling every %s\n", addr, interval)
		fmt.Printf("  Stop with Ctrl+C or: budget daemon stop --pid-file %s\n", flagDaemonPIDFile)
	}

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// daemonSettings resolves listen address and poll interval, flags first.
func daemonSettings(cfg config.Config) (string, time.Duration) {
	addr := flagDaemonAddr
	if addr == "" {
		addr = cfg.Daemon.Addr
	}
	if addr == "" {
		addr = config.DefaultDaemonAddr
	}
	interval := flagDaemonInterval
	if interval <= 0 {
		interval = cfg.Daemon.Interval()
	}
	return addr, interval
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	lock := daemonLock{path: flagDaemonPIDFile}
	st, ok := lock.running()
	if !ok {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if st.Addr == "" {
		st.Addr, _ = daemonSettings(loadConfigOrDefault())
	}

	rows := [][]string{
		{"PID", strconv.Itoa(st.PID)},
		{"Address", "http://" + st.Addr},
		{"Started", st.StartedAt.Local().Format(time.RFC3339)},
	}

	status, err := fetchDaemonStatus(cmd.Context(), st.Addr)
	if err != nil {
		rows = append(rows, []string{"API", err.Error()})
	} else {
		lastPoll := "pending"
		if !status.LastPollAt.IsZero() {
			lastPoll = status.LastPollAt.Local().Format(time.RFC3339)
		}
		s := status.Summary
		rows = append(rows,
			[]string{"Server", status.ServerURL},
			[]string{"Last poll", lastPoll},
			[]string{"Polls", strconv.FormatInt(status.PollCount, 10)},
			[]string{"---"},
			[]string{"Income", fmt.Sprintf("%s (%d)", cli.FormatMoney(s.TotalIncome), s.Incomes)},
			[]string{"Expenses", fmt.Sprintf("%s (%d)", cli.FormatMoney(s.TotalExpenses), s.Expenses)},
			[]string{"Remaining", cli.FormatMoney(s.RemainingBudget)},
			[]string{"Saved", fmt.Sprintf("%s of %s (%d goals)", cli.FormatMoney(s.TotalSaved), cli.FormatMoney(s.TotalTarget), s.Goals)},
		)
		if status.LastError != "" {
			rows = append(rows, []string{"Last error", status.LastError})
		}
	}

	fmt.Println(cli.RenderTable(cli.Table{Title: "Daemon", Rows: rows, LeftCols: 2}))
	return nil
}

func fetchDaemonStatus(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed status: %w", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	lock := daemonLock{path: flagDaemonPIDFile}
	st, ok := lock.running()
	if !ok {
		return errors.New("daemon is not running")
	}
	if err := signalProcess(st.PID, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon: %w", err)
	}

	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(stopTimeout)
	for {
		select {
		case <-deadline:
			return fmt.Errorf("daemon (pid %d) did not exit within %s", st.PID, stopTimeout)
		case <-ticker.C:
			if processAlive(st.PID) {
				continue
			}
			lock.clear()
			fmt.Printf("  Stopped daemon (pid %d)\n", st.PID)
			return nil
		}
	}
}

func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}
