package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	result  budget.Result
	summary model.Summary
}

func (f *fakeSource) LoadAll(context.Context) budget.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

func (f *fakeSource) Summary() model.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary
}

func (f *fakeSource) set(res budget.Result, sum model.Summary) {
	f.mu.Lock()
	f.result, f.summary = res, sum
	f.mu.Unlock()
}

func newTestService(src Source) *Service {
	logger, _ := test.NewNullLogger()
	return New(Config{ServerURL: "http://budget.test", Interval: 10 * time.Second, Logger: logger}, src)
}

func summary(income, expenses int64) model.Summary {
	in, ex := decimal.NewFromInt(income), decimal.NewFromInt(expenses)
	return model.Summary{
		TotalIncome:     in,
		TotalExpenses:   ex,
		RemainingBudget: in.Sub(ex),
		OverBudget:      ex.GreaterThan(in),
		IncomeCount:     1,
		ExpenseCount:    1,
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		TotalIncome:   decimal.NewFromInt(1000),
		TotalExpenses: decimal.RequireFromString("400.50"),
		Incomes:       2,
		Expenses:      5,
		Goals:         1,
	}
	curr := Snapshot{
		TotalIncome:   decimal.NewFromInt(1000),
		TotalExpenses: decimal.RequireFromString("1100.75"),
		OverBudget:    true,
		Incomes:       2,
		Expenses:      7,
		Goals:         1,
	}

	delta := diffSnapshots(prev, curr)
	if !delta.TotalIncome.IsZero() {
		t.Fatalf("TotalIncome delta = %s, want 0", delta.TotalIncome)
	}
	if delta.TotalExpenses.String() != "700.25" {
		t.Fatalf("TotalExpenses delta = %s, want 700.25", delta.TotalExpenses)
	}
	if delta.Expenses != 2 {
		t.Fatalf("Expenses delta = %d, want 2", delta.Expenses)
	}
	if !delta.OverBudgetChanged {
		t.Fatal("OverBudgetChanged = false, want true")
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("self diff not zero")
	}
}

func TestFeedRingBuffer(t *testing.T) {
	f := newFeed(2)
	for i := 0; i < 3; i++ {
		f.publish(f.next(Event{Type: EventDelta}))
	}

	events := f.since(0)
	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2", len(events))
	}
	if events[0].ID != 2 || events[1].ID != 3 {
		t.Fatalf("ring holds IDs [%d, %d], want [2, 3]", events[0].ID, events[1].ID)
	}
	if got := f.since(2); len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("since(2) = %+v, want only ID 3", got)
	}
}

func TestFeedDropsForSlowSubscriber(t *testing.T) {
	f := newFeed(10)
	id, ch := f.subscribe(1)
	f.publish(f.next(Event{}))
	f.publish(f.next(Event{}))

	assert.Len(t, ch, 1)
	f.unsubscribe(id)
	_, subs := f.counts()
	assert.Zero(t, subs)
}

func TestPollOnce_EmitsSnapshotThenDeltas(t *testing.T) {
	src := &fakeSource{result: budget.Result{Success: true}, summary: summary(1000, 400)}
	s := newTestService(src)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx)
	src.set(budget.Result{Success: true}, summary(1000, 1200))
	s.pollOnce(ctx)

	events := s.feed.since(0)

	require.Len(t, events, 2, "unchanged poll must not emit")
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Equal(t, EventDelta, events[1].Type)
	assert.Equal(t, "800", events[1].Delta.TotalExpenses.String())
	assert.True(t, events[1].Delta.OverBudgetChanged)
	assert.True(t, events[1].Snapshot.OverBudget)

	st := s.Status()
	assert.Equal(t, int64(3), st.PollCount)
	assert.Empty(t, st.LastError)
}

func TestPollOnce_FailureKeepsSnapshot(t *testing.T) {
	src := &fakeSource{result: budget.Result{Success: true}, summary: summary(500, 100)}
	s := newTestService(src)
	ctx := context.Background()
	s.pollOnce(ctx)

	src.set(budget.Result{Message: "User not logged in", Err: budget.ErrNotAuthenticated}, model.Summary{})
	s.pollOnce(ctx)

	st := s.Status()
	assert.Equal(t, "User not logged in", st.LastError)
	assert.Equal(t, "400", st.Summary.RemainingBudget.String())
	assert.Equal(t, 1, st.EventCount)
}

func TestHandler_Endpoints(t *testing.T) {
	src := &fakeSource{result: budget.Result{Success: true}, summary: summary(300, 100)}
	s := newTestService(src)
	s.pollOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	_ = resp.Body.Close()
	assert.Equal(t, "http://budget.test", st.ServerURL)
	assert.Equal(t, "200", st.Summary.RemainingBudget.String())

	resp, err = http.Get(srv.URL + "/v1/events")
	require.NoError(t, err)
	var events []Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	_ = resp.Body.Close()
	require.Len(t, events, 1)
	assert.Equal(t, EventSnapshot, events[0].Type)

	resp, err = http.Get(srv.URL + "/v1/events?since=1")
	require.NoError(t, err)
	events = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	_ = resp.Body.Close()
	assert.Empty(t, events)

	resp, err = http.Get(srv.URL + "/v1/events?since=-4")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/status", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandler_StreamSendsCurrentSnapshotThenEvents(t *testing.T) {
	src := &fakeSource{result: budget.Result{Success: true}, summary: summary(100, 50)}
	s := newTestService(src)
	s.pollOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var typ, data string
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				typ = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				return typ, data
			}
		}
	}

	typ, data := readEvent()
	assert.Equal(t, EventSnapshot, typ)
	assert.Contains(t, data, `"remaining_budget":"50"`)

	require.Eventually(t, func() bool { return s.Status().SubscriberCount == 1 }, time.Second, 10*time.Millisecond)
	src.set(budget.Result{Success: true}, summary(100, 75))
	s.pollOnce(context.Background())

	typ, data = readEvent()
	assert.Equal(t, EventDelta, typ)
	assert.Contains(t, data, `"total_expenses":"25"`)
}

func TestHandler_StreamReplaysAfterLastEventID(t *testing.T) {
	src := &fakeSource{result: budget.Result{Success: true}, summary: summary(100, 50)}
	s := newTestService(src)
	s.pollOnce(context.Background())
	src.set(budget.Result{Success: true}, summary(100, 80))
	s.pollOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	var ids []string
	for len(ids) < 1 {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "id: ") {
			ids = append(ids, strings.TrimSpace(strings.TrimPrefix(line, "id: ")))
		}
	}
	assert.Equal(t, []string{"2"}, ids)
}

func TestPumpSkipsEventsAlreadyReplayed(t *testing.T) {
	s := newTestService(&fakeSource{})
	for i := 0; i < 3; i++ {
		s.feed.publish(s.feed.next(Event{Type: EventDelta}))
	}

	// Event 3 reached the subscriber channel as well as the replay buffer.
	ch := make(chan Event, 4)
	ch <- Event{ID: 3, Type: EventDelta}
	ev4 := s.feed.next(Event{Type: EventDelta})
	s.feed.publish(ev4)
	ch <- ev4
	close(ch)

	var buf strings.Builder
	s.pump(context.Background(), &buf, func() {}, ch, 1)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "id: 2\n"))
	assert.Equal(t, 1, strings.Count(out, "id: 3\n"))
	assert.Equal(t, 1, strings.Count(out, "id: 4\n"))
	assert.Less(t, strings.Index(out, "id: 2\n"), strings.Index(out, "id: 3\n"))
}

func TestPumpIgnoresCursorFromEarlierRun(t *testing.T) {
	s := newTestService(&fakeSource{})
	ev := s.feed.next(Event{Type: EventSnapshot})
	s.feed.publish(ev)

	ch := make(chan Event, 1)
	ev2 := s.feed.next(Event{Type: EventDelta})
	ch <- ev2
	close(ch)

	var buf strings.Builder
	s.pump(context.Background(), &buf, func() {}, ch, 99)

	assert.Contains(t, buf.String(), "id: 2\n")
}
