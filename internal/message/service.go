package message

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"messenger/infrastructure"
	"messenger/internal/dialog"
	"messenger/internal/events"
)

// DialogStore is the slice of the dialog manager the message manager needs:
// membership, policy checks, and the last-message pointer.
type DialogStore interface {
	GetDialog(ctx context.Context, id string) (*dialog.Dialog, error)
	SetLastMessage(ctx context.Context, dialogID, messageID string) error
}

type Manager struct {
	repo      Repository
	dialogs   DialogStore
	publisher events.Publisher
	log       zerolog.Logger
}

func NewManager(repo Repository, dialogs DialogStore, publisher events.Publisher, log zerolog.Logger) *Manager {
	return &Manager{
		repo:      repo,
		dialogs:   dialogs,
		publisher: publisher,
		log:       log.With().Str("component", "message").Logger(),
	}
}

// SendResult carries the persisted message plus the recipients the delivery
// router should fan out to.
type SendResult struct {
	Message    *Message
	Recipients []string
}

// SendMessage validates the sender against the dialog's message policy,
// validates the content shape, persists, and publishes a message-sent event.
// Delivery is the caller's next step, via the result's recipient set.
func (m *Manager) SendMessage(ctx context.Context, dialogID, senderID string, t Type, content Content, replyToID *string) (*SendResult, error) {
	d, err := m.dialogs.GetDialog(ctx, dialogID)
	if err != nil {
		return nil, err
	}

	if !d.HasParticipant(senderID) {
		return nil, &infrastructure.PermissionError{UserID: senderID, Op: "send message", Reason: "not a participant of dialog " + dialogID}
	}
	if !d.CanUserMessage(senderID) {
		return nil, &infrastructure.PermissionError{UserID: senderID, Op: "send message", Reason: "message policy is " + string(d.Settings.WhoCanMessage)}
	}

	if replyToID != nil {
		parent, err := m.repo.GetByID(ctx, *replyToID)
		if err != nil {
			return nil, fmt.Errorf("reply target: %w", err)
		}
		if parent.DialogID != dialogID {
			v := infrastructure.NewValidationError("message")
			v.Add("reply target belongs to another dialog")
			return nil, v.Err()
		}
	}

	msg, err := NewMessage(dialogID, senderID, t, content, replyToID)
	if err != nil {
		return nil, err
	}

	if err := m.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	if err := m.dialogs.SetLastMessage(ctx, dialogID, msg.ID); err != nil {
		m.log.Warn().Err(err).Str("dialog_id", dialogID).Msg("failed to update last-message pointer")
	}

	ev := events.New(events.TypeMessageSent)
	ev.DialogID = dialogID
	ev.MessageID = msg.ID
	ev.UserID = senderID
	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to publish message event")
	}

	m.log.Info().Str("message_id", msg.ID).Str("dialog_id", dialogID).Str("type", string(t)).Msg("message sent")
	return &SendResult{Message: msg, Recipients: d.RecipientsFor(senderID)}, nil
}

func (m *Manager) GetMessage(ctx context.Context, id string) (*Message, error) {
	return m.repo.GetByID(ctx, id)
}

func (m *Manager) GetMessages(ctx context.Context, dialogID string, f Filter, limit, offset int) ([]*Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return m.repo.GetByDialogID(ctx, dialogID, f, limit, offset)
}

func (m *Manager) SearchMessages(ctx context.Context, dialogID, query string, limit int) ([]*Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return m.repo.SearchMessages(ctx, dialogID, query, limit)
}

// EditMessage is sender-only and restricted to text messages.
func (m *Manager) EditMessage(ctx context.Context, messageID, userID, text string) (*Message, error) {
	msg, err := m.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, &infrastructure.PermissionError{UserID: userID, Op: "edit message", Reason: "only the sender may edit"}
	}
	if err := msg.Edit(text); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message %s: %w", messageID, err)
	}
	return msg, nil
}

// SoftDelete marks the message deleted; deleting twice is a state conflict
// and leaves the record untouched.
func (m *Manager) SoftDelete(ctx context.Context, messageID, userID string) (*Message, error) {
	msg, err := m.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, &infrastructure.PermissionError{UserID: userID, Op: "delete message", Reason: "only the sender may delete"}
	}
	if err := msg.SoftDelete(); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message %s: %w", messageID, err)
	}
	return msg, nil
}

func (m *Manager) AddReaction(ctx context.Context, messageID, userID, emoji string) (*Message, error) {
	msg, err := m.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := msg.AddReaction(emoji, userID); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message %s: %w", messageID, err)
	}
	return msg, nil
}

func (m *Manager) RemoveReaction(ctx context.Context, messageID, userID, emoji string) (*Message, error) {
	msg, err := m.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := msg.RemoveReaction(emoji, userID); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message %s: %w", messageID, err)
	}
	return msg, nil
}

// SetPinned pins or unpins; only admins of the dialog may pin.
func (m *Manager) SetPinned(ctx context.Context, messageID, userID string, pinned bool) (*Message, error) {
	msg, err := m.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	d, err := m.dialogs.GetDialog(ctx, msg.DialogID)
	if err != nil {
		return nil, err
	}
	if d.Type.SupportsAdmins() && !d.IsAdmin(userID) {
		return nil, &infrastructure.PermissionError{UserID: userID, Op: "pin message", Reason: "only admins may pin"}
	}
	if !d.HasParticipant(userID) {
		return nil, &infrastructure.PermissionError{UserID: userID, Op: "pin message", Reason: "not a participant"}
	}

	msg.SetPinned(pinned)
	if err := m.repo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message %s: %w", messageID, err)
	}
	return msg, nil
}

// SetMentions replaces a message's mention list, sender-only.
func (m *Manager) SetMentions(ctx context.Context, messageID, userID string, mentions []string) (*Message, error) {
	msg, err := m.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, &infrastructure.PermissionError{UserID: userID, Op: "set mentions", Reason: "only the sender may change mentions"}
	}
	if err := msg.SetMentions(mentions); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message %s: %w", messageID, err)
	}
	return msg, nil
}
