package autosave

import "time"

// Status is what the save indicator of the form layer shows.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSaving     Status = "saving"
	StatusSaved      Status = "saved"
	StatusSaveFailed Status = "save_failed"
)

type SessionKind string

const (
	KindDraft SessionKind = "draft"
	KindEdit  SessionKind = "edit"
)

type StatusEvent struct {
	Kind      SessionKind `json:"kind"`
	ID        string      `json:"id"`
	Status    Status      `json:"status"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Listener receives save status changes. Publish is called with the session lock held
// and must not call back into the session.
type Listener interface {
	Publish(event StatusEvent)
}

type ListenerFunc func(StatusEvent)

func (f ListenerFunc) Publish(event StatusEvent) { f(event) }

type nopListener struct{}

func (nopListener) Publish(StatusEvent) {}
