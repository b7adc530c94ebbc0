package update

import (
	"sync"

	"github.com/google/uuid"
)

// Notification is the surface the rendering layer polls after an update.
// It is set by the orchestrator and cleared only by explicit dismissal.
type Notification struct {
	ID      string `json:"id"`
	Show    bool   `json:"show"`
	Success bool   `json:"success"`
	Title   string `json:"title"`
	Detail  string `json:"detail"`
}

// Notifications holds the single current notification. Single-writer: only
// the orchestrator sets it.
type Notifications struct {
	mu      sync.RWMutex
	current Notification
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (n *Notifications) set(success bool, title, detail string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = Notification{
		ID:      uuid.NewString(),
		Show:    true,
		Success: success,
		Title:   title,
		Detail:  detail,
	}
}

// Current returns the notification as last set.
func (n *Notifications) Current() Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Dismiss hides the notification. The user drives this, never the
// orchestrator.
func (n *Notifications) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current.Show = false
}
