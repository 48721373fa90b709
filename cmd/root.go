// Package cmd implements the budget CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/config"
	"github.com/theirongolddev/budgetplanner/internal/gateway"
	"github.com/theirongolddev/budgetplanner/internal/model"
	"github.com/theirongolddev/budgetplanner/internal/session"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagServer  string
	flagTimeout time.Duration
	flagVerbose bool
	flagQuiet   bool
)

// errNotSignedIn is returned by commands that need a session.
var errNotSignedIn = errors.New("not signed in; run `budget login` first")

var rootCmd = &cobra.Command{
	Use:   "budget",
	Short: "Personal budget planner",
	Long:  "Track income, expenses and savings goals stored on a budget server.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Budget server URL (overrides config and "+config.EnvServerURL+")")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Per-request timeout (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	switch {
	case flagVerbose:
		log.SetLevel(log.DebugLevel)
	case flagQuiet:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

// client bundles the collaborators every command works through.
type client struct {
	cfg      config.Config
	gw       *gateway.Client
	store    *session.SQLiteStore
	sessions *session.Manager
	budget   *budget.Manager
}

// openClient loads config, opens the session store and wires the session to
// the budget manager. With autoLoad the manager fetches data on every
// sign-in; one-shot commands pass false and call load so failures surface.
func openClient(ctx context.Context, autoLoad bool) (*client, error) {
	return openClientWith(ctx, autoLoad, true)
}

func openClientWith(ctx context.Context, autoLoad, restore bool) (*client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	serverURL := config.ServerURL(cfg)
	if flagServer != "" {
		serverURL = flagServer
	}
	timeout := cfg.Server.Timeout()
	if flagTimeout > 0 {
		timeout = flagTimeout
	}

	store, err := session.OpenStore(config.SessionDBPath())
	if err != nil {
		return nil, err
	}

	logger := log.StandardLogger()
	c := &client{cfg: cfg, store: store}
	c.gw = gateway.NewClient(serverURL,
		gateway.WithTimeout(timeout),
		gateway.WithTokenSource(func() string { return c.sessions.Token() }),
		gateway.WithLogger(logger),
	)
	c.sessions = session.NewManager(store, c.gw)
	c.budget = budget.NewManager(c.gw, c.sessions,
		budget.WithLogger(logger),
		budget.WithUnauthorizedHandler(func() {
			log.Warn("server rejected the session token, signing out")
			_ = c.sessions.Logout()
		}),
	)

	c.sessions.Subscribe(func(s *model.Session) {
		if autoLoad {
			c.budget.HandleSessionChange(context.Background(), s)
			return
		}
		c.budget.Reset()
	})

	if restore {
		if err := c.sessions.Restore(ctx); err != nil {
			log.WithError(err).Warn("stored session unreadable")
		}
	}
	return c, nil
}

// Close releases the session store.
func (c *client) Close() {
	if err := c.store.Close(); err != nil {
		log.WithError(err).Debug("closing session store")
	}
}

// requireSession returns the signed-in session or errNotSignedIn.
func (c *client) requireSession() (model.Session, error) {
	s, ok := c.sessions.Current()
	if !ok || !s.Valid() {
		return model.Session{}, errNotSignedIn
	}
	return s, nil
}

// load fetches all budget data for the signed-in user.
func (c *client) load(ctx context.Context) error {
	if _, err := c.requireSession(); err != nil {
		return err
	}
	res := c.budget.LoadAll(ctx)
	if err := res.AsError(); err != nil {
		return sessionAware(c, err)
	}
	return nil
}

// sessionAware replaces an error that ended the session with a sign-in hint.
func sessionAware(c *client, err error) error {
	if errors.Is(err, gateway.ErrUnauthorized) {
		if _, ok := c.sessions.Current(); !ok {
			return fmt.Errorf("%w (session expired)", errNotSignedIn)
		}
	}
	return err
}

// withClient runs fn with an open client and a context bound to the command.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := openClient(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

// withBudget is withClient plus an initial load.
func withBudget(cmd *cobra.Command, fn func(ctx context.Context, c *client) error) error {
	return withClient(cmd, func(ctx context.Context, c *client) error {
		if err := c.load(ctx); err != nil {
			return err
		}
		return fn(ctx, c)
	})
}
