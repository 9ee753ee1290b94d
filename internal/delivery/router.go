// Package delivery decides, per recipient, between an immediate live
// broadcast and a queued push notification.
package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"messenger/infrastructure"
	"messenger/internal/message"
)

// Broadcaster is the slice of the connection registry the router needs.
type Broadcaster interface {
	IsUserConnected(userID string) bool
	BroadcastToUser(userID string, payload []byte) error
}

// PushSender is the external push-notification collaborator; fire-and-forget
// from the router's perspective.
type PushSender interface {
	SendNotification(ctx context.Context, userID, notificationType string, data map[string]any) error
}

type Outcome string

const (
	OutcomeBroadcast Outcome = "broadcast"
	OutcomePushed    Outcome = "pushed"
	OutcomeFailed    Outcome = "failed"
)

// Report is the per-recipient result of one fan-out. Failures are data here,
// not control flow: a failed recipient never blocks the others.
type Report struct {
	MessageID string
	Outcomes  map[string]Outcome
	Errors    []*infrastructure.DeliveryError
}

func (r *Report) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o != OutcomeFailed {
			n++
		}
	}
	return n
}

// payload is the tagged JSON object sent over the live connection, one
// object per logical event.
type payload struct {
	Type      string          `json:"type"`
	DialogID  string          `json:"dialog_id"`
	MessageID string          `json:"message_id"`
	SenderID  string          `json:"sender_id"`
	Kind      message.Type    `json:"message_type"`
	Content   message.Content `json:"content,omitempty"`
	SentAt    time.Time       `json:"sent_at"`
}

type Router struct {
	registry Broadcaster
	push     PushSender
	log      zerolog.Logger
}

func NewRouter(registry Broadcaster, push PushSender, log zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		push:     push,
		log:      log.With().Str("component", "delivery").Logger(),
	}
}

// DeliverMessage fans out to every recipient in parallel: connected users get
// the broadcast payload, everyone else gets a push request. Best-effort --
// the report carries the failures, the error return is reserved for the
// payload itself being unencodable.
func (r *Router) DeliverMessage(ctx context.Context, msg *message.Message, recipientIDs []string) (*Report, error) {
	raw, err := json.Marshal(payload{
		Type:      "message",
		DialogID:  msg.DialogID,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Kind:      msg.Type,
		Content:   msg.Content,
		SentAt:    msg.SentAt,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		MessageID: msg.ID,
		Outcomes:  make(map[string]Outcome, len(recipientIDs)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, recipientID := range recipientIDs {
		wg.Add(1)
		go func(recipientID string) {
			defer wg.Done()
			outcome, derr := r.deliverOne(ctx, msg, recipientID, raw)
			mu.Lock()
			report.Outcomes[recipientID] = outcome
			if derr != nil {
				report.Errors = append(report.Errors, derr)
			}
			mu.Unlock()
		}(recipientID)
	}
	wg.Wait()

	r.log.Info().
		Str("message_id", msg.ID).
		Int("recipients", len(recipientIDs)).
		Int("delivered", report.Delivered()).
		Int("failed", len(report.Errors)).
		Msg("message fan-out complete")
	return report, nil
}

func (r *Router) deliverOne(ctx context.Context, msg *message.Message, recipientID string, raw []byte) (Outcome, *infrastructure.DeliveryError) {
	if r.registry.IsUserConnected(recipientID) {
		if err := r.registry.BroadcastToUser(recipientID, raw); err != nil {
			derr := &infrastructure.DeliveryError{RecipientID: recipientID, Path: "broadcast", Cause: err}
			r.log.Warn().Err(err).Str("user_id", recipientID).Msg("broadcast delivery failed")
			return OutcomeFailed, derr
		}
		return OutcomeBroadcast, nil
	}

	err := r.push.SendNotification(ctx, recipientID, "message", map[string]any{
		"dialog_id":  msg.DialogID,
		"message_id": msg.ID,
		"sender_id":  msg.SenderID,
		"type":       string(msg.Type),
	})
	if err != nil {
		derr := &infrastructure.DeliveryError{RecipientID: recipientID, Path: "push", Cause: err}
		r.log.Warn().Err(err).Str("user_id", recipientID).Msg("push delivery failed")
		return OutcomeFailed, derr
	}
	return OutcomePushed, nil
}
