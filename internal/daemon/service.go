// Package daemon provides the long-running budget watcher and its HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Source is what the daemon polls. *budget.Manager satisfies it.
type Source interface {
	LoadAll(ctx context.Context) budget.Result
	Summary() model.Summary
}

// Config controls the daemon runtime behavior.
type Config struct {
	ServerURL    string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       log.FieldLogger
}

// Snapshot is the budget state carried by status and event payloads.
type Snapshot struct {
	At              time.Time       `json:"at"`
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	RemainingBudget decimal.Decimal `json:"remaining_budget"`
	OverBudget      bool            `json:"over_budget"`
	TotalSaved      decimal.Decimal `json:"total_saved"`
	TotalTarget     decimal.Decimal `json:"total_target"`
	Incomes         int             `json:"incomes"`
	Expenses        int             `json:"expenses"`
	Goals           int             `json:"goals"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalSaved    decimal.Decimal `json:"total_saved"`
	Incomes       int             `json:"incomes"`
	Expenses      int             `json:"expenses"`
	Goals         int             `json:"goals"`
	// OverBudgetChanged is set when the over-budget flag flipped.
	OverBudgetChanged bool `json:"over_budget_changed,omitempty"`
}

func (d Delta) isZero() bool {
	return d.TotalIncome.IsZero() &&
		d.TotalExpenses.IsZero() &&
		d.TotalSaved.IsZero() &&
		d.Incomes == 0 &&
		d.Expenses == 0 &&
		d.Goals == 0 &&
		!d.OverBudgetChanged
}

// Event is emitted whenever the budget snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventDelta    = "budget_delta"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	ServerURL       string    `json:"server_url"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service polls a Source and serves what it sees.
type Service struct {
	cfg  Config
	src  Source
	log  log.FieldLogger
	feed *feed

	mu        sync.RWMutex
	startedAt time.Time
	polled    time.Time
	polls     int64
	lastErr   string
	current   *Snapshot
}

// New returns a service polling src. Zero config fields get defaults.
func New(cfg Config, src Source) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	return &Service{
		cfg:       cfg,
		src:       src,
		log:       cfg.Logger.WithField("component", "daemon"),
		feed:      newFeed(cfg.EventsBuffer),
		startedAt: time.Now(),
	}
}

// Run serves the HTTP API and polls until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()
	s.log.WithField("addr", s.cfg.Addr).Info("daemon listening")

	s.pollOnce(ctx)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("daemon http server: %w", err)
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}

// pollOnce loads the budget and emits a snapshot on the first success and a
// delta whenever the figures move after that. Failures keep the last snapshot.
func (s *Service) pollOnce(ctx context.Context) {
	res := s.src.LoadAll(ctx)
	now := time.Now()

	s.mu.Lock()
	s.polled = now
	s.polls++
	if !res.Success {
		s.lastErr = res.Message
		s.mu.Unlock()
		s.log.WithError(res.Err).Warn("poll failed")
		return
	}
	snap := snapshotFromSummary(s.src.Summary(), now)
	prev := s.current
	s.current = &snap
	s.lastErr = ""
	s.mu.Unlock()

	ev := Event{Type: EventSnapshot, Timestamp: now, Snapshot: snap}
	if prev != nil {
		ev.Type = EventDelta
		ev.Delta = diffSnapshots(*prev, snap)
		if ev.Delta.isZero() {
			return
		}
	}
	ev = s.feed.next(ev)
	s.log.WithFields(log.Fields{"event": ev.Type, "id": ev.ID}).Debug("budget changed")
	s.feed.publish(ev)
}

func snapshotFromSummary(sum model.Summary, at time.Time) Snapshot {
	return Snapshot{
		At:              at,
		TotalIncome:     sum.TotalIncome,
		TotalExpenses:   sum.TotalExpenses,
		RemainingBudget: sum.RemainingBudget,
		OverBudget:      sum.OverBudget,
		TotalSaved:      sum.TotalSaved,
		TotalTarget:     sum.TotalTarget,
		Incomes:         sum.IncomeCount,
		Expenses:        sum.ExpenseCount,
		Goals:           sum.GoalCount,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		TotalIncome:       curr.TotalIncome.Sub(prev.TotalIncome),
		TotalExpenses:     curr.TotalExpenses.Sub(prev.TotalExpenses),
		TotalSaved:        curr.TotalSaved.Sub(prev.TotalSaved),
		Incomes:           curr.Incomes - prev.Incomes,
		Expenses:          curr.Expenses - prev.Expenses,
		Goals:             curr.Goals - prev.Goals,
		OverBudgetChanged: curr.OverBudget != prev.OverBudget,
	}
}

// Status reports poll counters and the latest snapshot.
func (s *Service) Status() Status {
	events, subs := s.feed.counts()
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.polled,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.polls,
		ServerURL:       s.cfg.ServerURL,
		LastError:       s.lastErr,
		EventCount:      events,
		SubscriberCount: subs,
	}
	if s.current != nil {
		st.Summary = *s.current
	}
	return st
}
