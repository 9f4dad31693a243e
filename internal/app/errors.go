package app

import (
	"errors"
	"fmt"
)

// PersistenceError wraps a storage failure. It is recoverable: the caller
// keeps its input and may retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s gift card: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ReminderWarning reports reminders that could not be registered or cancelled.
// The gift card mutation itself succeeded.
type ReminderWarning struct {
	CardID string
	Err    error
}

func (e *ReminderWarning) Error() string {
	return fmt.Sprintf("reminders for gift card %s: %v", e.CardID, e.Err)
}

func (e *ReminderWarning) Unwrap() error { return e.Err }

// IsWarning reports whether err only carries a non-fatal reminder warning.
func IsWarning(err error) bool {
	var w *ReminderWarning
	return errors.As(err, &w)
}
