// Package errs holds the error taxonomy shared by the portfolio handlers.
//
// Every remote failure is wrapped in one of the typed errors below so that
// handlers can turn it into a notification without inspecting messages.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// AuthError is a sign-in or sign-up failure.
type AuthError struct {
	Op    string
	Cause error
}

func NewAuthError(op string, cause error) *AuthError {
	return &AuthError{Op: op, Cause: cause}
}

func (e *AuthError) Error() string {
	if e.Cause == nil {
		return e.Op + " failed"
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Cause.Error())
}

func (e *AuthError) Unwrap() error { return e.Cause }

// SessionRejected is returned when a valid session belongs to an identity
// that is not allowed to use the admin panel.
type SessionRejected struct {
	Email string
}

func (e *SessionRejected) Error() string {
	return fmt.Sprintf("session for %q is not an administrator", e.Email)
}

func (e *SessionRejected) Unwrap() error { return ErrForbidden }

// FetchError is a failed list operation against a table.
type FetchError struct {
	Table string
	Cause error
}

func NewFetchError(table string, cause error) *FetchError {
	return &FetchError{Table: table, Cause: cause}
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.Table, causeMessage(e.Cause))
}

func (e *FetchError) Unwrap() error { return e.Cause }

// WriteError is a failed create, update or delete against a table.
type WriteError struct {
	Op    string
	Table string
	ID    string
	Cause error
}

func NewWriteError(op, table, id string, cause error) *WriteError {
	return &WriteError{Op: op, Table: table, ID: id, Cause: cause}
}

func (e *WriteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Op, e.Table, e.ID, causeMessage(e.Cause))
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Op, e.Table, causeMessage(e.Cause))
}

func (e *WriteError) Unwrap() error { return e.Cause }

// ValidationError reports a form field that cannot be submitted as is.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSessionRejected(err error) bool {
	var rejected *SessionRejected
	return errors.As(err, &rejected)
}

// Message returns the most specific human readable message carried by err.
// Backend errors keep their own message, everything else falls back to
// err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var msg interface{ UserMessage() string }
	if errors.As(err, &msg) && msg.UserMessage() != "" {
		return msg.UserMessage()
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}
	if errors.Is(err, ErrNotFound) {
		return "the record no longer exists"
	}
	return err.Error()
}

func causeMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
