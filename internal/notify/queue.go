package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the severity of a toast.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindInfo, KindWarning:
		return true
	}
	return false
}

// Toast is an ephemeral user-facing message.
type Toast struct {
	ID   string
	Kind Kind
	Text string
	// Duration is a display hint for the view. Zero means the view decides.
	Duration time.Duration
}

// toastJSON is the wire form. Duration travels in milliseconds.
type toastJSON struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"type"`
	Text       string `json:"message"`
	DurationMS int64  `json:"duration,omitempty"`
}

func (t Toast) MarshalJSON() ([]byte, error) {
	return json.Marshal(toastJSON{
		ID:         t.ID,
		Kind:       t.Kind,
		Text:       t.Text,
		DurationMS: t.Duration.Milliseconds(),
	})
}

func (t *Toast) UnmarshalJSON(data []byte) error {
	var w toastJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Toast{ID: w.ID, Kind: w.Kind, Text: w.Text, Duration: time.Duration(w.DurationMS) * time.Millisecond}
	return nil
}

// Queue holds toasts in insertion order until they are hidden.
//
// Identical messages are not merged: a failure that repeats shows up once
// per occurrence. Expiry is left to the view, the queue only stores and
// removes by id.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	newID  func() string
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{newID: func() string { return uuid.NewString() }}
}

// Show appends a toast with a fresh id and returns it.
func (q *Queue) Show(kind Kind, text string, duration time.Duration) Toast {
	if !kind.Valid() {
		kind = KindInfo
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	t := Toast{ID: q.newID(), Kind: kind, Text: text, Duration: duration}
	q.toasts = append(q.toasts, t)
	return t
}

// Success is Show(KindSuccess, text, 0).
func (q *Queue) Success(text string) Toast { return q.Show(KindSuccess, text, 0) }

// Error is Show(KindError, text, 0).
func (q *Queue) Error(text string) Toast { return q.Show(KindError, text, 0) }

// Hide removes the toast with the given id. Returns false if none matched.
func (q *Queue) Hide(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i:i], q.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the queued toasts, oldest first.
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// Len returns the number of queued toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.toasts)
}
