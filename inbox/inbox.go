package inbox

import (
	"sync"

	"notify-gateway/models"
)

// Inbox holds the session's notifications, newest first. It is populated by
// the event router and mutated by the dashboard through the HTTP facade; it
// never looks at connection state.
type Inbox struct {
	mu    sync.RWMutex
	items []models.Notification
}

func New() *Inbox {
	return &Inbox{}
}

// Add prepends a notification. The caller guarantees ID uniqueness.
func (i *Inbox) Add(n models.Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()

	items := make([]models.Notification, 0, len(i.items)+1)
	items = append(items, n)
	i.items = append(items, i.items...)
}

// MarkRead marks one notification as read. Unknown IDs are a no-op; it
// reports whether the notification was found.
func (i *Inbox) MarkRead(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	for idx := range i.items {
		if i.items[idx].ID == id {
			i.items[idx].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead marks every notification as read.
func (i *Inbox) MarkAllRead() {
	i.mu.Lock()
	defer i.mu.Unlock()

	for idx := range i.items {
		i.items[idx].Read = true
	}
}

// Remove deletes one notification. Unknown IDs are a no-op; it reports
// whether the notification was found.
func (i *Inbox) Remove(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	for idx := range i.items {
		if i.items[idx].ID == id {
			i.items = append(i.items[:idx], i.items[idx+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the inbox.
func (i *Inbox) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.items = nil
}

// UnreadCount counts notifications not yet marked read.
func (i *Inbox) UnreadCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count := 0
	for idx := range i.items {
		if !i.items[idx].Read {
			count++
		}
	}
	return count
}

// Len returns the number of notifications held.
func (i *Inbox) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return len(i.items)
}

// Notifications returns a snapshot copy, newest first.
func (i *Inbox) Notifications() []models.Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]models.Notification, len(i.items))
	copy(out, i.items)
	return out
}
