package daemon

import "sync"

// feed keeps the most recent events and fans new ones out to subscribers.
// Slow subscribers miss events rather than block the poller.
type feed struct {
	mu     sync.RWMutex
	limit  int
	lastID int64
	events []Event
	subs   map[int]chan Event
	nextID int
}

func newFeed(limit int) *feed {
	return &feed{limit: limit, subs: make(map[int]chan Event)}
}

// next stamps ev with the next id.
func (f *feed) next(ev Event) Event {
	f.mu.Lock()
	f.lastID++
	ev.ID = f.lastID
	f.mu.Unlock()
	return ev
}

// latest is the highest id handed out so far.
func (f *feed) latest() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastID
}

func (f *feed) publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	if over := len(f.events) - f.limit; over > 0 {
		f.events = f.events[over:]
	}
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// since returns retained events with an id above after, oldest first.
func (f *feed) since(after int64) []Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Event, 0, len(f.events))
	for _, ev := range f.events {
		if ev.ID > after {
			out = append(out, ev)
		}
	}
	return out
}

func (f *feed) subscribe(buf int) (int, <-chan Event) {
	ch := make(chan Event, buf)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.subs[f.nextID] = ch
	return f.nextID, ch
}

func (f *feed) unsubscribe(id int) {
	f.mu.Lock()
	delete(f.subs, id)
	f.mu.Unlock()
}

func (f *feed) counts() (events, subscribers int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.events), len(f.subs)
}
