package budget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/gateway"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	mu    sync.Mutex
	calls int

	incomes  []gateway.IncomeRecord
	expenses []gateway.ExpenseRecord
	goals    []gateway.GoalRecord

	err     error
	goalErr error
	nextID  int64

	sentGoal gateway.GoalRecord
	sentInc  gateway.IncomeRecord

	// echoDate, when set, replaces the date on every created record.
	echoDate string

	// entered receives the amount of each AddAmountToGoal call as it starts;
	// release, when set, holds the call until its amount is sent back.
	entered chan string
	release map[string]chan struct{}
}

func (s *stubGateway) record() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubGateway) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubGateway) id() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return 100 + s.nextID
}

func (s *stubGateway) GetIncomes(context.Context, int64) ([]gateway.IncomeRecord, error) {
	return s.incomes, s.record()
}

func (s *stubGateway) CreateIncome(_ context.Context, rec gateway.IncomeRecord) (gateway.IncomeRecord, error) {
	if err := s.record(); err != nil {
		return gateway.IncomeRecord{}, err
	}
	s.sentInc = rec
	rec.ID = s.id()
	if s.echoDate != "" {
		rec.Date = s.echoDate
	}
	return rec, nil
}

func (s *stubGateway) DeleteIncome(context.Context, int64, int64) error { return s.record() }

func (s *stubGateway) GetExpenses(context.Context, int64) ([]gateway.ExpenseRecord, error) {
	return s.expenses, s.record()
}

func (s *stubGateway) CreateExpense(_ context.Context, rec gateway.ExpenseRecord) (gateway.ExpenseRecord, error) {
	if err := s.record(); err != nil {
		return gateway.ExpenseRecord{}, err
	}
	rec.ID = s.id()
	if s.echoDate != "" {
		rec.Date = s.echoDate
	}
	return rec, nil
}

func (s *stubGateway) DeleteExpense(context.Context, int64, int64) error { return s.record() }

func (s *stubGateway) GetSavingsGoals(context.Context, int64) ([]gateway.GoalRecord, error) {
	if err := s.record(); err != nil {
		return nil, err
	}
	return s.goals, s.goalErr
}

func (s *stubGateway) CreateSavingsGoal(_ context.Context, rec gateway.GoalRecord) (gateway.GoalRecord, error) {
	if err := s.record(); err != nil {
		return gateway.GoalRecord{}, err
	}
	s.sentGoal = rec
	rec.ID = s.id()
	if s.echoDate != "" {
		rec.DeadlineDate = s.echoDate
	}
	return rec, nil
}

func (s *stubGateway) AddAmountToGoal(_ context.Context, _, _ int64, amount decimal.Decimal) error {
	if s.entered != nil {
		s.entered <- amount.String()
	}
	if ch, ok := s.release[amount.String()]; ok {
		<-ch
	}
	return s.record()
}

func (s *stubGateway) DeleteSavingsGoal(context.Context, int64, int64) error { return s.record() }

type stubSession struct {
	mu sync.Mutex
	s  *model.Session
}

func (s *stubSession) Current() (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.s == nil {
		return model.Session{}, false
	}
	return *s.s, true
}

func (s *stubSession) set(sess *model.Session) {
	s.mu.Lock()
	s.s = sess
	s.mu.Unlock()
}

func loggedIn() *stubSession {
	return &stubSession{s: &model.Session{User: model.User{ID: 7, Username: "ann"}, Token: "tok"}}
}

func quietLogger() log.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func newTestManager(gw *stubGateway, sessions SessionSource, opts ...Option) *Manager {
	return NewManager(gw, sessions, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func seeded() *stubGateway {
	return &stubGateway{
		incomes: []gateway.IncomeRecord{
			{ID: 1, Source: "Salary", Amount: "1000", Frequency: "Monthly", Date: "2024-01-15"},
		},
		expenses: []gateway.ExpenseRecord{
			{ID: 2, Description: "Rent", Amount: "400", Category: "Housing", Date: "2024-01-02"},
		},
		goals: []gateway.GoalRecord{
			{ID: 3, GoalName: "Bike", TargetAmount: "500", CurrentAmount: "100", DeadlineDate: "2024-12-31"},
		},
	}
}

func TestManager_LoadAllReplacesCollections(t *testing.T) {
	gw := seeded()
	m := newTestManager(gw, loggedIn())

	res := m.LoadAll(context.Background())
	require.True(t, res.Success, res.Message)

	s := m.Snapshot()
	require.Len(t, s.Income, 1)
	require.Len(t, s.Expenses, 1)
	require.Len(t, s.SavingsGoals, 1)
	assert.Equal(t, "Bike", s.SavingsGoals[0].Name)
	assert.Equal(t, "500", s.SavingsGoals[0].TargetAmount.String())
	assert.Equal(t, "2024-12-31", model.FormatDate(s.SavingsGoals[0].Deadline))
	assert.Equal(t, "600", m.RemainingBudget().String())
	assert.False(t, s.Loading)
}

func TestManager_LoadAllNullCollectionsAreEmpty(t *testing.T) {
	m := newTestManager(&stubGateway{}, loggedIn())

	res := m.LoadAll(context.Background())
	require.True(t, res.Success)
	s := m.Snapshot()
	assert.NotNil(t, s.Income)
	assert.Empty(t, s.Income)
	assert.Empty(t, s.SavingsGoals)
}

func TestManager_LoadAllFailureKeepsState(t *testing.T) {
	gw := seeded()
	m := newTestManager(gw, loggedIn())
	require.True(t, m.LoadAll(context.Background()).Success)

	gw.incomes = nil
	gw.goalErr = errors.New("goals unavailable")
	res := m.LoadAll(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, "goals unavailable", res.Message)
	s := m.Snapshot()
	assert.Len(t, s.Income, 1, "no collection may be replaced on partial failure")
	assert.False(t, s.Loading)
}

func TestManager_LoadAllBadAmountFails(t *testing.T) {
	gw := seeded()
	gw.expenses[0].Amount = "lots"
	m := newTestManager(gw, loggedIn())

	res := m.LoadAll(context.Background())
	assert.False(t, res.Success)
	assert.Empty(t, m.Snapshot().Income)
}

func TestManager_RequiresSession(t *testing.T) {
	gw := seeded()
	m := newTestManager(gw, &stubSession{})
	ctx := context.Background()

	results := []Result{
		m.LoadAll(ctx),
		m.AddIncome(ctx, model.Income{Amount: amt("1")}),
		m.AddExpense(ctx, model.Expense{Amount: amt("5"), Category: "Travel"}),
		m.AddSavingsGoal(ctx, model.SavingsGoal{TargetAmount: amt("5")}),
		m.DeleteIncome(ctx, 1),
		m.DeleteExpense(ctx, 2),
		m.DeleteSavingsGoal(ctx, 3),
		m.AddAmountToSavingsGoal(ctx, 3, amt("1")),
	}
	for i, res := range results {
		assert.False(t, res.Success, "op %d", i)
		assert.Equal(t, "User not logged in", res.Message, "op %d", i)
		assert.ErrorIs(t, res.Err, ErrNotAuthenticated, "op %d", i)
	}
	assert.Zero(t, gw.Calls())
	assert.Empty(t, m.Snapshot().Expenses)
}

func TestManager_SessionWithoutUserIDIsRejected(t *testing.T) {
	gw := &stubGateway{}
	m := newTestManager(gw, &stubSession{s: &model.Session{Token: "tok"}})

	res := m.AddExpense(context.Background(), model.Expense{Amount: amt("1")})
	assert.ErrorIs(t, res.Err, ErrNotAuthenticated)
	assert.Zero(t, gw.Calls())
}

func TestManager_AddIncome(t *testing.T) {
	gw := &stubGateway{}
	m := newTestManager(gw, loggedIn())
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	res := m.AddIncome(context.Background(), model.Income{Source: "Freelance", Amount: amt("250.75"), Date: date})
	require.True(t, res.Success, res.Message)

	assert.Equal(t, "One-time", gw.sentInc.Frequency)
	assert.Equal(t, "2024-03-01", gw.sentInc.Date)
	require.NotNil(t, gw.sentInc.User)
	assert.Equal(t, int64(7), gw.sentInc.User.ID)

	s := m.Snapshot()
	require.Len(t, s.Income, 1)
	assert.Equal(t, int64(101), s.Income[0].ID)
	assert.Equal(t, model.FrequencyOneTime, s.Income[0].Frequency)
	assert.Equal(t, "250.75", m.TotalIncome().String())
}

func TestManager_AddRejectsNegativeAmount(t *testing.T) {
	gw := &stubGateway{}
	m := newTestManager(gw, loggedIn())
	ctx := context.Background()

	res := m.AddIncome(ctx, model.Income{Amount: amt("-1")})
	assert.ErrorIs(t, res.Err, ErrInvalidAmount)
	res = m.AddExpense(ctx, model.Expense{Amount: amt("-0.01")})
	assert.ErrorIs(t, res.Err, ErrInvalidAmount)
	res = m.AddSavingsGoal(ctx, model.SavingsGoal{TargetAmount: amt("0")})
	assert.ErrorIs(t, res.Err, ErrInvalidAmount)
	res = m.AddSavingsGoal(ctx, model.SavingsGoal{TargetAmount: amt("10"), CurrentAmount: amt("-1")})
	assert.ErrorIs(t, res.Err, ErrInvalidAmount)

	assert.Zero(t, gw.Calls())
}

func TestManager_AddSavingsGoalMapsFields(t *testing.T) {
	gw := &stubGateway{}
	m := newTestManager(gw, loggedIn())
	deadline := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	res := m.AddSavingsGoal(context.Background(), model.SavingsGoal{
		Name:         "Emergency fund",
		TargetAmount: amt("1500"),
		Deadline:     deadline,
	})
	require.True(t, res.Success, res.Message)

	assert.Equal(t, gateway.GoalRecord{
		GoalName:      "Emergency fund",
		TargetAmount:  "1500",
		CurrentAmount: "0",
		DeadlineDate:  "2025-06-30",
		User:          &gateway.UserRef{ID: 7},
	}, gw.sentGoal)

	goals := m.Snapshot().SavingsGoals
	require.Len(t, goals, 1)
	assert.Equal(t, "Emergency fund", goals[0].Name)
	assert.Equal(t, "0", goals[0].CurrentAmount.String())
}

func TestManager_AddExpenseFailureLeavesState(t *testing.T) {
	gw := &stubGateway{err: &gateway.Error{StatusCode: 500, Body: "boom"}}
	m := newTestManager(gw, loggedIn())

	res := m.AddExpense(context.Background(), model.Expense{Amount: amt("3"), Category: "Travel"})
	assert.False(t, res.Success)
	assert.Equal(t, "API call failed: 500 - boom", res.Message)
	assert.Empty(t, m.Snapshot().Expenses)
}

func TestManager_DeleteFailureKeepsElement(t *testing.T) {
	gw := seeded()
	m := newTestManager(gw, loggedIn())
	require.True(t, m.LoadAll(context.Background()).Success)

	gw.err = errors.New("network unreachable")
	res := m.DeleteIncome(context.Background(), 1)

	assert.False(t, res.Success)
	assert.Equal(t, "network unreachable", res.Message)
	assert.Len(t, m.Snapshot().Income, 1)
}

func TestManager_DeleteFiltersByID(t *testing.T) {
	gw := seeded()
	m := newTestManager(gw, loggedIn())
	ctx := context.Background()
	require.True(t, m.LoadAll(ctx).Success)

	assert.True(t, m.DeleteExpense(ctx, 2).Success)
	assert.Empty(t, m.Snapshot().Expenses)

	assert.True(t, m.DeleteSavingsGoal(ctx, 999).Success)
	assert.Len(t, m.Snapshot().SavingsGoals, 1)
}

func TestManager_ConcurrentGoalDepositsBothLand(t *testing.T) {
	for _, order := range [][2]string{{"50", "25"}, {"25", "50"}} {
		t.Run(order[0]+"_first", func(t *testing.T) {
			gw := seeded()
			m := newTestManager(gw, loggedIn())
			ctx := context.Background()
			require.True(t, m.LoadAll(ctx).Success)

			gw.entered = make(chan string, 2)
			gw.release = map[string]chan struct{}{
				"50": make(chan struct{}),
				"25": make(chan struct{}),
			}
			done := map[string]chan Result{"50": make(chan Result, 1), "25": make(chan Result, 1)}
			for amount, ch := range done {
				go func() { ch <- m.AddAmountToSavingsGoal(ctx, 3, amt(amount)) }()
			}
			<-gw.entered
			<-gw.entered

			close(gw.release[order[0]])
			require.True(t, (<-done[order[0]]).Success)
			close(gw.release[order[1]])
			require.True(t, (<-done[order[1]]).Success)

			assert.Equal(t, "175", m.Snapshot().SavingsGoals[0].CurrentAmount.String())
		})
	}
}

func TestManager_SingleGoalDeposit(t *testing.T) {
	gw := seeded()
	m := newTestManager(gw, loggedIn())
	ctx := context.Background()
	require.True(t, m.LoadAll(ctx).Success)

	require.True(t, m.AddAmountToSavingsGoal(ctx, 3, amt("50")).Success)
	assert.Equal(t, "150", m.Snapshot().SavingsGoals[0].CurrentAmount.String())
}

func TestManager_ConcurrentAddsAppearOnce(t *testing.T) {
	gw := &stubGateway{}
	m := newTestManager(gw, loggedIn())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AddExpense(ctx, model.Expense{Amount: amt("1"), Category: "Shopping"})
		}()
	}
	wg.Wait()

	seen := map[int64]int{}
	for _, e := range m.Snapshot().Expenses {
		seen[e.ID]++
	}
	assert.Len(t, seen, 10)
	for id, n := range seen {
		assert.Equal(t, 1, n, "expense %d", id)
	}
	assert.Equal(t, "10", m.TotalExpenses().String())
}

func TestManager_ResetDropsInFlightCommit(t *testing.T) {
	gw := seeded()
	m := newTestManager(gw, loggedIn())
	ctx := context.Background()
	require.True(t, m.LoadAll(ctx).Success)

	gw.entered = make(chan string, 1)
	gw.release = map[string]chan struct{}{"10": make(chan struct{})}
	done := make(chan Result, 1)
	go func() { done <- m.AddAmountToSavingsGoal(ctx, 3, amt("10")) }()
	<-gw.entered

	m.Reset()
	close(gw.release["10"])
	res := <-done

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrSessionChanged)
	assert.Empty(t, m.Snapshot().SavingsGoals)
}

// resettingSession resets the manager while the session is being read, the
// way a logout followed by a new login interleaves with an operation.
type resettingSession struct {
	m    *Manager
	once sync.Once
}

func (s *resettingSession) Current() (model.Session, bool) {
	s.once.Do(func() { s.m.Reset() })
	return model.Session{User: model.User{ID: 7}, Token: "tok"}, true
}

func TestManager_ResetDuringSessionReadDropsCommit(t *testing.T) {
	gw := &stubGateway{}
	sess := &resettingSession{}
	m := newTestManager(gw, sess)
	sess.m = m

	res := m.AddIncome(context.Background(), model.Income{Source: "Salary", Amount: amt("100")})

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrSessionChanged)
	assert.Empty(t, m.Snapshot().Income)
}

func TestManager_UnreadableCreatedRecordKeepsSubmitted(t *testing.T) {
	gw := &stubGateway{echoDate: "not-a-date"}
	m := newTestManager(gw, loggedIn())
	ctx := context.Background()
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.True(t, m.AddIncome(ctx, model.Income{Source: "Gift", Amount: amt("50"), Date: date}).Success)
	require.True(t, m.AddExpense(ctx, model.Expense{Description: "Tea", Amount: amt("5"), Category: "Food", Date: date}).Success)
	require.True(t, m.AddSavingsGoal(ctx, model.SavingsGoal{Name: "Car", TargetAmount: amt("900"), Deadline: date}).Success)

	s := m.Snapshot()
	require.Len(t, s.Income, 1)
	assert.Equal(t, int64(101), s.Income[0].ID)
	assert.Equal(t, date, s.Income[0].Date)
	require.Len(t, s.Expenses, 1)
	assert.Equal(t, int64(102), s.Expenses[0].ID)
	require.Len(t, s.SavingsGoals, 1)
	assert.Equal(t, int64(103), s.SavingsGoals[0].ID)
	assert.Equal(t, date, s.SavingsGoals[0].Deadline)
}

func TestManager_UnauthorizedForcesLogout(t *testing.T) {
	gw := &stubGateway{err: &gateway.Error{StatusCode: 401, Body: "expired"}}
	sessions := loggedIn()
	var m *Manager
	calls := 0
	m = newTestManager(gw, sessions, WithUnauthorizedHandler(func() {
		calls++
		sessions.set(nil)
		m.HandleSessionChange(context.Background(), nil)
	}))

	res := m.LoadAll(context.Background())

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, gateway.ErrUnauthorized)
	assert.Equal(t, 1, calls)
	_, ok := sessions.Current()
	assert.False(t, ok)
}

func TestManager_OtherFailuresDoNotLogout(t *testing.T) {
	gw := &stubGateway{err: &gateway.Error{StatusCode: 500}}
	calls := 0
	m := newTestManager(gw, loggedIn(), WithUnauthorizedHandler(func() { calls++ }))

	m.DeleteIncome(context.Background(), 1)
	assert.Zero(t, calls)
}

func TestManager_HandleSessionChange(t *testing.T) {
	gw := seeded()
	sessions := loggedIn()
	m := newTestManager(gw, sessions)
	ctx := context.Background()

	sess, _ := sessions.Current()
	m.HandleSessionChange(ctx, &sess)
	assert.Len(t, m.Snapshot().Income, 1)

	sessions.set(nil)
	m.HandleSessionChange(ctx, nil)
	s := m.Snapshot()
	assert.Empty(t, s.Income)
	assert.Empty(t, s.Expenses)
	assert.Empty(t, s.SavingsGoals)
}

func TestManager_SnapshotIsIsolated(t *testing.T) {
	gw := seeded()
	m := newTestManager(gw, loggedIn())
	require.True(t, m.LoadAll(context.Background()).Success)

	snap := m.Snapshot()
	snap.Income[0].Source = "changed"
	assert.Equal(t, "Salary", m.Snapshot().Income[0].Source)
}

func TestManager_FailureLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gw := &stubGateway{err: errors.New("down")}
	m := NewManager(gw, loggedIn(), WithLogger(logger))

	m.LoadAll(context.Background())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "load", hook.LastEntry().Data["op"])
}

func TestResult_AsError(t *testing.T) {
	assert.NoError(t, succeeded().AsError())

	err := failed(ErrInvalidAmount, "Failed to add income").AsError()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, "invalid amount", err.Error())
	assert.Equal(t, "Failed to add income", failed(nil, "Failed to add income").Message)
}
