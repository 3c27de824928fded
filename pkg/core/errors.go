package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrEnvMissing means the backend URL or access key is not configured.
	ErrEnvMissing = errors.New("backend configuration missing")
	// ErrTableMissing means the backend reports that the notes relation does not exist.
	ErrTableMissing = errors.New("notes table missing")
)

// TransportError is any backend failure other than a missing table.
type TransportError struct {
	Op      string // list, insert, update, delete, subscribe
	Message string // human readable, shown to the user as is
	Err     error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err as a TransportError for op.
func NewTransportError(op string, err error) *TransportError {
	msg := "backend request failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &TransportError{Op: op, Message: msg, Err: err}
}

// IsTableMissing reports whether err signals a missing notes relation.
func IsTableMissing(err error) bool {
	return errors.Is(err, ErrTableMissing)
}

// classify maps any backend error onto the domain taxonomy so callers of the
// Store only ever observe ErrTableMissing or *TransportError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTableMissing) {
		return err
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return NewTransportError(op, err)
}

// Message returns the user-facing text of a classified error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Message
	}
	return err.Error()
}
