package app

import (
	"sync"
	"time"

	"github.com/yourusername/mediagrab-go/internal/domain"
)

// EventType identifies the observer method a StatusEvent came from
type EventType string

const (
	EventProgress EventType = "progress"
	EventStatus   EventType = "status"
	EventControls EventType = "controls"
)

// StatusEvent is one observer update as broadcast to subscribers
type StatusEvent struct {
	Type      EventType             `json:"type"`
	Progress  *domain.ProgressEvent `json:"progress,omitempty"`
	Status    string                `json:"status,omitempty"`
	Controls  *domain.ControlState  `json:"controls,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// StatusSnapshot is the latest known presentation state
type StatusSnapshot struct {
	Percent       int                 `json:"percent"`
	Indeterminate bool                `json:"indeterminate"`
	Phase         domain.Phase        `json:"phase,omitempty"`
	Status        string              `json:"status"`
	Controls      domain.ControlState `json:"controls"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

const subscriberBuffer = 64

// StatusBoard is the presentation-side observer. It keeps a snapshot for
// polling clients and fans events out to streaming subscribers. Slow
// subscribers miss events rather than block the worker.
type StatusBoard struct {
	mu          sync.RWMutex
	snapshot    StatusSnapshot
	subscribers map[chan StatusEvent]struct{}
}

// NewStatusBoard creates a board in the idle control state
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		snapshot: StatusSnapshot{
			Controls:  domain.Idle,
			UpdatedAt: time.Now(),
		},
		subscribers: make(map[chan StatusEvent]struct{}),
	}
}

// OnProgress implements domain.Observer
func (b *StatusBoard) OnProgress(event domain.ProgressEvent) {
	now := time.Now()
	b.mu.Lock()
	b.snapshot.Phase = event.Phase
	b.snapshot.Indeterminate = event.Indeterminate
	if !event.Indeterminate {
		b.snapshot.Percent = event.Percent
	}
	b.snapshot.UpdatedAt = now
	b.broadcastLocked(StatusEvent{Type: EventProgress, Progress: &event, Timestamp: now})
	b.mu.Unlock()
}

// OnStatus implements domain.Observer
func (b *StatusBoard) OnStatus(text string) {
	now := time.Now()
	b.mu.Lock()
	b.snapshot.Status = text
	b.snapshot.UpdatedAt = now
	b.broadcastLocked(StatusEvent{Type: EventStatus, Status: text, Timestamp: now})
	b.mu.Unlock()
}

// OnControlState implements domain.Observer
func (b *StatusBoard) OnControlState(state domain.ControlState) {
	now := time.Now()
	b.mu.Lock()
	b.snapshot.Controls = state
	b.snapshot.UpdatedAt = now
	b.broadcastLocked(StatusEvent{Type: EventControls, Controls: &state, Timestamp: now})
	b.mu.Unlock()
}

func (b *StatusBoard) broadcastLocked(event StatusEvent) {
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Snapshot returns the current state
func (b *StatusBoard) Snapshot() StatusSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}

// CanSubmit reports whether the download control is enabled
func (b *StatusBoard) CanSubmit() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot.Controls.Download
}

// Subscribe registers a subscriber. The returned function unregisters it
// and closes the channel.
func (b *StatusBoard) Subscribe() (<-chan StatusEvent, func()) {
	ch := make(chan StatusEvent, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// SubscriberCount returns the number of active subscribers
func (b *StatusBoard) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
