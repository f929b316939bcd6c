package document

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusTracker fans processing progress out to websocket subscribers and
// keeps the latest update per job so late subscribers catch up immediately.
type StatusTracker struct {
	mu     sync.Mutex
	latest map[string]StatusUpdate
	subs   map[chan StatusUpdate]struct{}
}

// NewStatusTracker creates an empty tracker.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		latest: make(map[string]StatusUpdate),
		subs:   make(map[chan StatusUpdate]struct{}),
	}
}

// Publish records a job update and notifies subscribers. Slow subscribers
// miss intermediate updates rather than blocking the publisher.
func (t *StatusTracker) Publish(update StatusUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latest[update.JobID] = update
	for ch := range t.subs {
		select {
		case ch <- update:
		default:
		}
	}
}

// Latest returns the most recent update for a job.
func (t *StatusTracker) Latest(jobID string) (StatusUpdate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.latest[jobID]
	return u, ok
}

func (t *StatusTracker) subscribe() chan StatusUpdate {
	ch := make(chan StatusUpdate, 16)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()
	return ch
}

func (t *StatusTracker) unsubscribe(ch chan StatusUpdate) {
	t.mu.Lock()
	delete(t.subs, ch)
	t.mu.Unlock()
}

// HandleWebSocket streams status updates to a browser connection. The latest
// known state of every job is replayed on connect.
func (t *StatusTracker) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("status: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ch := t.subscribe()
	defer t.unsubscribe(ch)

	t.mu.Lock()
	replay := make([]StatusUpdate, 0, len(t.latest))
	for _, u := range t.latest {
		replay = append(replay, u)
	}
	t.mu.Unlock()
	for _, u := range replay {
		if err := conn.WriteJSON(u); err != nil {
			return
		}
	}

	// Reader goroutine detects client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case u := <-ch:
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		}
	}
}
