package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// heartbeat is the interval between SSE keepalive comments.
const heartbeat = 25 * time.Second

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	v1.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

// handleEvents lists retained events, optionally only those after ?since=<id>.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	after, err := eventCursor(r.URL.Query().Get("since"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be a non-negative event id"})
		return
	}
	writeJSON(w, http.StatusOK, s.feed.since(after))
}

// handleStream sends the current snapshot, replays anything after
// Last-Event-ID, then streams new events.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	after, _ := eventCursor(r.Header.Get("Last-Event-ID"))

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	id, ch := s.feed.subscribe(16)
	defer s.feed.unsubscribe(id)

	writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), Snapshot: s.Status().Summary})
	s.pump(r.Context(), w, flusher.Flush, ch, after)
}

// pump replays retained events after the cursor, then forwards events from
// ch until ctx ends or ch closes. An event reaching ch after the subscription
// but before the replay shows up in both; ids at or below the last one
// written are skipped.
func (s *Service) pump(ctx context.Context, w io.Writer, flush func(), ch <-chan Event, after int64) {
	if after > s.feed.latest() {
		// Cursor from before a restart; ids start over.
		after = 0
	}
	sent := after
	if after > 0 {
		for _, ev := range s.feed.since(after) {
			writeSSE(w, ev)
			sent = ev.ID
		}
	}
	flush()

	ping := time.NewTicker(heartbeat)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.ID <= sent {
				continue
			}
			writeSSE(w, ev)
			sent = ev.ID
			flush()
		case <-ping.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flush()
		}
	}
}

func eventCursor(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid event id %q", raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
