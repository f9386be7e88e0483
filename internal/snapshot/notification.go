package snapshot

import (
	"sync"
	"time"
)

// Notification is an ephemeral, UI-facing record of one
// reconciliation event.  Notifications are kept in an append-only
// list the user can clear; they are never persisted.
type Notification struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// notificationList is the reconciler's append-only notification
// store.  All methods are safe for concurrent use.
type notificationList struct {
	mu    sync.Mutex
	items []Notification
}

func (l *notificationList) append(kind, message string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, Notification{Kind: kind, Message: message, At: at})
}

// list returns a copy so callers never observe a half-appended slice.
func (l *notificationList) list() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notification, len(l.items))
	copy(out, l.items)
	return out
}

func (l *notificationList) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}
