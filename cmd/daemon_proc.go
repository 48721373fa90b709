package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// daemonRuntime is what a running daemon records about itself.
type daemonRuntime struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	ServerURL string    `json:"server_url"`
}

// daemonLock is the runtime file that marks a live daemon. The file holds a
// JSON daemonRuntime; a bare pid is accepted too.
type daemonLock struct {
	path string
}

func (l daemonLock) read() (daemonRuntime, error) {
	var rt daemonRuntime
	//nolint:gosec // path is configured by the local user
	data, err := os.ReadFile(l.path)
	if err != nil {
		return rt, err
	}
	if jsonErr := json.Unmarshal(data, &rt); jsonErr != nil {
		pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
		if convErr != nil {
			return rt, fmt.Errorf("unreadable runtime file %s", l.path)
		}
		rt = daemonRuntime{PID: pid}
	}
	if rt.PID <= 0 {
		return rt, fmt.Errorf("invalid pid in %s", l.path)
	}
	return rt, nil
}

func (l daemonLock) write(rt daemonRuntime) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create runtime directory: %w", err)
	}
	data, err := json.MarshalIndent(rt, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, append(data, '\n'), 0o600)
}

// running returns the recorded runtime when its process is alive. A stale
// file is removed.
func (l daemonLock) running() (daemonRuntime, bool) {
	rt, err := l.read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.clear()
		}
		return rt, false
	}
	if !processAlive(rt.PID) {
		l.clear()
		return rt, false
	}
	return rt, true
}

// acquire records rt unless another daemon is alive. The returned func
// removes the file.
func (l daemonLock) acquire(rt daemonRuntime) (func(), error) {
	if other, ok := l.running(); ok && other.PID != rt.PID {
		return nil, fmt.Errorf("daemon already running (pid %d)", other.PID)
	}
	if err := l.write(rt); err != nil {
		return nil, err
	}
	return l.clear, nil
}

func (l daemonLock) clear() { _ = os.Remove(l.path) }

// spawnDetached re-executes the current binary with args, output appended to
// logPath, and returns the child pid without waiting.
func spawnDetached(args []string, logPath string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return 0, fmt.Errorf("create log directory: %w", err)
	}
	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open daemon log: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // re-exec of this binary
	child.Stdout, child.Stderr = logf, logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return 0, fmt.Errorf("start detached daemon: %w", err)
	}
	pid := child.Process.Pid
	_ = child.Process.Release()
	return pid, nil
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func signalProcess(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}

func processAlive(pid int) bool {
	err := signalProcess(pid, syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
