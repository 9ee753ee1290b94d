package events

import (
	"context"
	"time"
)

const (
	TypeMessageSent   = "message.sent"
	TypeDialogUpdated = "dialog.updated"
)

// Event is the envelope published on every domain mutation the rest of the
// platform cares about. Transport is opaque to the emitting code.
type Event struct {
	Type      string         `json:"type"`
	DialogID  string         `json:"dialog_id,omitempty"`
	MessageID string         `json:"message_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	At        time.Time      `json:"at"`
}

func New(eventType string) Event {
	return Event{Type: eventType, At: time.Now()}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards events. Used in tests and when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
