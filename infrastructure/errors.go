package infrastructure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDialogNotFound   = errors.New("dialog not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrPresenceNotFound = errors.New("presence not found")
	ErrNotParticipant   = errors.New("user is not a participant")

	ErrMissingToken = errors.New("missing access token")
	ErrInvalidToken = errors.New("invalid access token")
)

// ValidationError aggregates every violated invariant for one entity so a
// client can surface all offending fields at once, not just the first.
// It is always returned before any mutation is committed.
type ValidationError struct {
	Entity     string
	Violations []string
}

func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity}
}

func (e *ValidationError) Add(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

// Err returns nil when no violations were recorded, so callers can write
// `return v.Err()` at the end of a validation pass.
func (e *ValidationError) Err() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Entity, strings.Join(e.Violations, "; "))
}

// PermissionError is returned when a user attempts an operation their role
// does not allow. The mutation is never applied.
type PermissionError struct {
	UserID string
	Op     string
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for user %s on %s: %s", e.UserID, e.Op, e.Reason)
}

// StateConflictError is returned when an operation is incompatible with the
// entity's current state, e.g. editing a deleted message.
type StateConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

// DeliveryError is a recipient-scoped, non-fatal delivery failure. It is
// collected into the delivery report and never aborts delivery to the
// remaining recipients.
type DeliveryError struct {
	RecipientID string
	Path        string // "broadcast" or "push"
	Cause       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed over %s: %v", e.RecipientID, e.Path, e.Cause)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}
