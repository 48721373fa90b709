package budget

import (
	"context"
	"errors"
	"sync"

	"github.com/theirongolddev/budgetplanner/internal/gateway"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Gateway is the subset of the remote service the manager needs.
// *gateway.Client satisfies it.
type Gateway interface {
	GetIncomes(ctx context.Context, userID int64) ([]gateway.IncomeRecord, error)
	CreateIncome(ctx context.Context, rec gateway.IncomeRecord) (gateway.IncomeRecord, error)
	DeleteIncome(ctx context.Context, userID, incomeID int64) error

	GetExpenses(ctx context.Context, userID int64) ([]gateway.ExpenseRecord, error)
	CreateExpense(ctx context.Context, rec gateway.ExpenseRecord) (gateway.ExpenseRecord, error)
	DeleteExpense(ctx context.Context, userID, expenseID int64) error

	GetSavingsGoals(ctx context.Context, userID int64) ([]gateway.GoalRecord, error)
	CreateSavingsGoal(ctx context.Context, rec gateway.GoalRecord) (gateway.GoalRecord, error)
	AddAmountToGoal(ctx context.Context, userID, goalID int64, amount decimal.Decimal) error
	DeleteSavingsGoal(ctx context.Context, userID, goalID int64) error
}

// SessionSource reports the active session. *session.Manager satisfies it.
type SessionSource interface {
	Current() (model.Session, bool)
}

// Manager owns the budget state. Network calls run without holding the lock;
// each completed call commits through a single Apply under it.
type Manager struct {
	gw       Gateway
	sessions SessionSource
	log      log.FieldLogger

	onUnauthorized func()

	mu    sync.RWMutex
	state State
	epoch uint64
	loads int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

// WithUnauthorizedHandler sets the callback run when the service rejects the
// session token.
func WithUnauthorizedHandler(fn func()) Option {
	return func(m *Manager) { m.onUnauthorized = fn }
}

// NewManager creates a manager with empty state.
func NewManager(gw Gateway, sessions SessionSource, opts ...Option) *Manager {
	m := &Manager{
		gw:       gw,
		sessions: sessions,
		log:      log.StandardLogger(),
		state:    NewState(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Loading reports whether a load is in flight.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Loading
}

// TotalIncome sums the current income entries.
func (m *Manager) TotalIncome() decimal.Decimal { return TotalIncome(m.Snapshot()) }

// TotalExpenses sums the current expense entries.
func (m *Manager) TotalExpenses() decimal.Decimal { return TotalExpenses(m.Snapshot()) }

// RemainingBudget is income minus expenses.
func (m *Manager) RemainingBudget() decimal.Decimal { return RemainingBudget(m.Snapshot()) }

// IsOverBudget reports whether expenses exceed income.
func (m *Manager) IsOverBudget() bool { return RemainingBudget(m.Snapshot()).IsNegative() }

// ExpensesByCategory sums the current expenses per category.
func (m *Manager) ExpensesByCategory() map[string]decimal.Decimal {
	return ExpensesByCategory(m.Snapshot())
}

// Summary returns every derived figure for the current state.
func (m *Manager) Summary() model.Summary { return Summarize(m.Snapshot()) }

// Reset empties the state and invalidates every operation still in flight.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.state = Apply(m.state, Reset{})
	m.state = Apply(m.state, SetLoading{Loading: m.loads > 0})
}

// HandleSessionChange follows the session lifecycle: a valid session starts a
// fresh load, anything else clears the state.
func (m *Manager) HandleSessionChange(ctx context.Context, s *model.Session) {
	m.Reset()
	if !s.Valid() {
		return
	}
	m.LoadAll(ctx)
}

// LoadAll fetches the three collections concurrently and replaces them
// together. If any fetch fails nothing is replaced.
func (m *Manager) LoadAll(ctx context.Context) Result {
	sess, epoch, err := m.begin()
	if err != nil {
		return m.fail("load", err, "Failed to load budget data")
	}
	userID := sess.User.ID

	m.startLoad()
	defer m.endLoad()

	var (
		incomes  []gateway.IncomeRecord
		expenses []gateway.ExpenseRecord
		goals    []gateway.GoalRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = m.gw.GetIncomes(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = m.gw.GetExpenses(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = m.gw.GetSavingsGoals(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return m.fail("load", err, "Failed to load budget data")
	}

	cmd := ReplaceAll{}
	if cmd.Income, err = convertAll(incomes, incomeFromRecord); err != nil {
		return m.fail("load", err, "Failed to load budget data")
	}
	if cmd.Expenses, err = convertAll(expenses, expenseFromRecord); err != nil {
		return m.fail("load", err, "Failed to load budget data")
	}
	if cmd.SavingsGoals, err = convertAll(goals, goalFromRecord); err != nil {
		return m.fail("load", err, "Failed to load budget data")
	}
	if !m.commit(epoch, cmd) {
		return m.fail("load", ErrSessionChanged, "")
	}

	m.log.WithFields(log.Fields{
		"user_id":  userID,
		"incomes":  len(cmd.Income),
		"expenses": len(cmd.Expenses),
		"goals":    len(cmd.SavingsGoals),
	}).Debug("budget loaded")
	return succeeded()
}

// AddIncome creates an income entry and appends what the service returns.
// An empty frequency defaults to One-time.
func (m *Manager) AddIncome(ctx context.Context, in model.Income) Result {
	const fallback = "Failed to add income"
	sess, epoch, err := m.begin()
	if err != nil {
		return m.fail("add_income", err, fallback)
	}
	if in.Amount.IsNegative() {
		return m.fail("add_income", ErrInvalidAmount, fallback)
	}
	if in.Frequency == "" {
		in.Frequency = model.FrequencyOneTime
	}

	rec, err := m.gw.CreateIncome(ctx, incomeRecord(in, sess.User.ID))
	if err != nil {
		return m.fail("add_income", err, fallback)
	}
	created := adoptCreated(m.log.WithField("op", "add_income"), in, rec.ID,
		func() (model.Income, error) { return incomeFromRecord(rec) },
		func(v *model.Income, id int64) { v.ID = id })
	if !m.commit(epoch, AppendIncome{Income: created}) {
		return m.fail("add_income", ErrSessionChanged, fallback)
	}
	return succeeded()
}

// AddExpense creates an expense entry and appends what the service returns.
func (m *Manager) AddExpense(ctx context.Context, e model.Expense) Result {
	const fallback = "Failed to add expense"
	sess, epoch, err := m.begin()
	if err != nil {
		return m.fail("add_expense", err, fallback)
	}
	if e.Amount.IsNegative() {
		return m.fail("add_expense", ErrInvalidAmount, fallback)
	}

	rec, err := m.gw.CreateExpense(ctx, expenseRecord(e, sess.User.ID))
	if err != nil {
		return m.fail("add_expense", err, fallback)
	}
	created := adoptCreated(m.log.WithField("op", "add_expense"), e, rec.ID,
		func() (model.Expense, error) { return expenseFromRecord(rec) },
		func(v *model.Expense, id int64) { v.ID = id })
	if !m.commit(epoch, AppendExpense{Expense: created}) {
		return m.fail("add_expense", ErrSessionChanged, fallback)
	}
	return succeeded()
}

// AddSavingsGoal creates a goal. The target must be positive and the starting
// amount must not be negative.
func (m *Manager) AddSavingsGoal(ctx context.Context, g model.SavingsGoal) Result {
	const fallback = "Failed to add savings goal"
	sess, epoch, err := m.begin()
	if err != nil {
		return m.fail("add_goal", err, fallback)
	}
	if !g.TargetAmount.IsPositive() || g.CurrentAmount.IsNegative() {
		return m.fail("add_goal", ErrInvalidAmount, fallback)
	}

	rec, err := m.gw.CreateSavingsGoal(ctx, goalRecord(g, sess.User.ID))
	if err != nil {
		return m.fail("add_goal", err, fallback)
	}
	created := adoptCreated(m.log.WithField("op", "add_goal"), g, rec.ID,
		func() (model.SavingsGoal, error) { return goalFromRecord(rec) },
		func(v *model.SavingsGoal, id int64) { v.ID = id })
	if !m.commit(epoch, AppendSavingsGoal{Goal: created}) {
		return m.fail("add_goal", ErrSessionChanged, fallback)
	}
	return succeeded()
}

// DeleteIncome removes an income entry remotely, then locally.
func (m *Manager) DeleteIncome(ctx context.Context, id int64) Result {
	return m.mutate("delete_income", "Failed to delete income",
		func(userID int64) error { return m.gw.DeleteIncome(ctx, userID, id) },
		RemoveIncome{ID: id})
}

// DeleteExpense removes an expense entry remotely, then locally.
func (m *Manager) DeleteExpense(ctx context.Context, id int64) Result {
	return m.mutate("delete_expense", "Failed to delete expense",
		func(userID int64) error { return m.gw.DeleteExpense(ctx, userID, id) },
		RemoveExpense{ID: id})
}

// DeleteSavingsGoal removes a goal remotely, then locally.
func (m *Manager) DeleteSavingsGoal(ctx context.Context, id int64) Result {
	return m.mutate("delete_goal", "Failed to delete savings goal",
		func(userID int64) error { return m.gw.DeleteSavingsGoal(ctx, userID, id) },
		RemoveSavingsGoal{ID: id})
}

// AddAmountToSavingsGoal adds amount (which may be negative) to a goal. The
// delta is applied to whatever the goal holds when the call completes, so
// overlapping deposits all land.
func (m *Manager) AddAmountToSavingsGoal(ctx context.Context, id int64, amount decimal.Decimal) Result {
	return m.mutate("add_to_goal", "Failed to update savings goal",
		func(userID int64) error { return m.gw.AddAmountToGoal(ctx, userID, id, amount) },
		AddToSavingsGoal{ID: id, Delta: amount})
}

// mutate runs call and commits cmd once it succeeds. Used by every operation
// whose local effect does not depend on the response body.
func (m *Manager) mutate(op, fallback string, call func(userID int64) error, cmd Command) Result {
	sess, epoch, err := m.begin()
	if err != nil {
		return m.fail(op, err, fallback)
	}
	if err := call(sess.User.ID); err != nil {
		return m.fail(op, err, fallback)
	}
	if !m.commit(epoch, cmd) {
		return m.fail(op, ErrSessionChanged, fallback)
	}
	return succeeded()
}

// begin captures the epoch the operation belongs to, then checks the session.
// The epoch is read first so a reset racing the session read still fails the
// commit.
func (m *Manager) begin() (model.Session, uint64, error) {
	m.mu.RLock()
	epoch := m.epoch
	m.mu.RUnlock()
	s, ok := m.sessions.Current()
	if !ok || !s.Valid() {
		return model.Session{}, 0, ErrNotAuthenticated
	}
	return s, epoch, nil
}

// adoptCreated picks the value to append after a create. The service's record
// wins when it converts; otherwise the submitted value is kept, carrying the
// service id when there is one, since the record already exists remotely.
func adoptCreated[M any](l log.FieldLogger, submitted M, id int64, convert func() (M, error), setID func(*M, int64)) M {
	if id == 0 {
		l.Warn("service returned no record, keeping submitted values")
		return submitted
	}
	got, err := convert()
	if err != nil {
		l.WithField("id", id).WithError(err).Warn("service record unreadable, keeping submitted values")
		setID(&submitted, id)
		return submitted
	}
	return got
}

// commit applies cmd unless a reset happened since epoch was captured.
func (m *Manager) commit(epoch uint64, cmd Command) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return false
	}
	m.state = Apply(m.state, cmd)
	return true
}

func (m *Manager) startLoad() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	m.state = Apply(m.state, SetLoading{Loading: true})
}

func (m *Manager) endLoad() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads--
	m.state = Apply(m.state, SetLoading{Loading: m.loads > 0})
}

func (m *Manager) fail(op string, err error, fallback string) Result {
	entry := m.log.WithField("op", op).WithError(err)
	switch {
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrInvalidAmount):
		entry.Debug("operation rejected")
	case errors.Is(err, ErrSessionChanged):
		entry.Info("session ended, result discarded")
	default:
		entry.Error("operation failed")
	}
	if errors.Is(err, gateway.ErrUnauthorized) && m.onUnauthorized != nil {
		m.onUnauthorized()
	}
	return failed(err, fallback)
}
