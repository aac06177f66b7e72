package autosave

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownField      = errors.New("unknown optional field")
	ErrInvalidTransition = errors.New("invalid draft transition")
	ErrSessionClosed     = errors.New("autosave session is closed")
)

// SaveError is returned and published when a session fails to persist its snapshot.
// The session stays dirty; nothing is retried.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("autosave %s: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
