package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Alert levels shown in the editor.
const (
	AlertInfo    = "info"
	AlertSuccess = "success"
	AlertWarning = "warning"
	AlertError   = "error"
)

// Alert is one transient editor notification.
type Alert struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertQueue is a bounded queue of editor alerts. Pushing beyond the limit
// evicts the oldest alert, and alerts expire after the display duration, so
// a burst of failures cannot pile notifications up without bound.
type AlertQueue struct {
	mu     sync.Mutex
	max    int
	ttl    time.Duration
	alerts []Alert

	now func() time.Time
}

// NewAlertQueue creates a queue holding at most max alerts, each visible
// for displayMS milliseconds.
func NewAlertQueue(max, displayMS int) *AlertQueue {
	return &AlertQueue{
		max: max,
		ttl: time.Duration(displayMS) * time.Millisecond,
		now: time.Now,
	}
}

// Push adds an alert, evicting the oldest if the queue is full.
func (q *AlertQueue) Push(level, message string) Alert {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.expireLocked()
	alert := Alert{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		CreatedAt: q.now(),
	}
	q.alerts = append(q.alerts, alert)
	if len(q.alerts) > q.max {
		q.alerts = q.alerts[len(q.alerts)-q.max:]
	}
	return alert
}

// Active returns the alerts still within their display window, oldest first.
func (q *AlertQueue) Active() []Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.expireLocked()
	return append([]Alert{}, q.alerts...)
}

// Dismiss removes an alert before its expiry.
func (q *AlertQueue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, a := range q.alerts {
		if a.ID == id {
			q.alerts = append(q.alerts[:i], q.alerts[i+1:]...)
			return
		}
	}
}

func (q *AlertQueue) expireLocked() {
	cutoff := q.now().Add(-q.ttl)
	kept := q.alerts[:0]
	for _, a := range q.alerts {
		if a.CreatedAt.After(cutoff) {
			kept = append(kept, a)
		}
	}
	q.alerts = kept
}
