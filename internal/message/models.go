package message

import (
	"time"

	"github.com/google/uuid"

	"messenger/infrastructure"
)

type Type string

const (
	TypeText     Type = "text"
	TypeVoice    Type = "voice"
	TypeFile     Type = "file"
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypePayment  Type = "payment"
	TypeLocation Type = "location"
	TypeSticker  Type = "sticker"
	TypeSystem   Type = "system"
)

func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeVoice, TypeFile, TypeImage, TypeVideo, TypePayment, TypeLocation, TypeSticker, TypeSystem:
		return true
	}
	return false
}

const (
	maxMentions      = 50
	maxReactionKinds = 20
	maxReactionUsers = 1000
)

// deletedPlaceholder replaces the payload shown to everyone but the sender
// after a soft delete.
var deletedPlaceholder = SystemContent{Event: "message deleted"}

type Message struct {
	ID       string `json:"id"`
	DialogID string `json:"dialog_id"`
	SenderID string `json:"sender_id"`
	Type     Type   `json:"type"`

	Content   Content `json:"content"`
	ReplyToID *string `json:"reply_to_id,omitempty"`

	Edited  bool `json:"edited"`
	Pinned  bool `json:"pinned"`
	Deleted bool `json:"deleted"`

	// Mentions are unique user ids, at most 50.
	Mentions []string `json:"mentions,omitempty"`

	// Reactions maps emoji to the set of reacting users. A user appears at
	// most once per emoji; an emoji with no users has no key.
	Reactions map[string][]string `json:"reactions,omitempty"`

	SentAt    time.Time  `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// NewMessage builds and validates a message. It is created exactly once per
// send; later changes go through Edit, reactions, and SoftDelete.
func NewMessage(dialogID, senderID string, t Type, content Content, replyToID *string) (*Message, error) {
	now := time.Now()
	m := &Message{
		ID:        uuid.New().String(),
		DialogID:  dialogID,
		SenderID:  senderID,
		Type:      t,
		Content:   content,
		ReplyToID: replyToID,
		SentAt:    now,
		CreatedAt: now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Message) Validate() error {
	v := infrastructure.NewValidationError("message")

	if !m.Type.Valid() {
		v.Add("invalid message type: %s", m.Type)
		return v.Err()
	}
	if m.DialogID == "" {
		v.Add("dialog id is required")
	}
	if m.SenderID == "" {
		v.Add("sender id is required")
	}

	if m.Content == nil {
		if m.Type != TypeSystem {
			v.Add("content is required for message type: %s", m.Type)
		}
	} else {
		if m.Content.Kind() != m.Type {
			v.Add("content shape %s does not match message type %s", m.Content.Kind(), m.Type)
		} else {
			m.Content.validate(v)
		}
	}

	if m.ReplyToID != nil && *m.ReplyToID == m.ID {
		v.Add("message cannot reply to itself")
	}

	if len(m.Mentions) > maxMentions {
		v.Add("too many mentions: %d, max allowed: %d", len(m.Mentions), maxMentions)
	}
	seen := make(map[string]bool, len(m.Mentions))
	for _, id := range m.Mentions {
		if seen[id] {
			v.Add("duplicate mention: %s", id)
		}
		seen[id] = true
	}

	for emoji, users := range m.Reactions {
		if len(users) == 0 {
			v.Add("reaction %s has no users", emoji)
		}
		if len(users) > maxReactionUsers {
			v.Add("too many reactions for %s: %d, max allowed: %d", emoji, len(users), maxReactionUsers)
		}
		reacted := make(map[string]bool, len(users))
		for _, id := range users {
			if reacted[id] {
				v.Add("duplicate reaction by %s for %s", id, emoji)
			}
			reacted[id] = true
		}
	}
	if len(m.Reactions) > maxReactionKinds {
		v.Add("too many distinct reactions: %d, max allowed: %d", len(m.Reactions), maxReactionKinds)
	}

	return v.Err()
}

// SetMentions replaces the mention set; uniqueness and the upper bound are
// enforced by the revalidation.
func (m *Message) SetMentions(userIDs []string) error {
	prev := m.Mentions
	m.Mentions = userIDs
	if err := m.Validate(); err != nil {
		m.Mentions = prev
		return err
	}
	return nil
}

// Edit is permitted only for non-deleted text messages.
func (m *Message) Edit(text string) error {
	if m.Deleted {
		return &infrastructure.StateConflictError{Entity: "message", ID: m.ID, Reason: "cannot edit a deleted message"}
	}
	if m.Type != TypeText {
		return &infrastructure.StateConflictError{Entity: "message", ID: m.ID, Reason: "only text messages can be edited"}
	}

	prev := m.Content
	m.Content = TextContent{Text: text}
	if err := m.Validate(); err != nil {
		m.Content = prev
		return err
	}

	now := time.Now()
	m.Edited = true
	m.EditedAt = &now
	return nil
}

// SoftDelete marks the message deleted. The content is retained for the
// sender's own view; DisplayContent hides it from everyone else.
func (m *Message) SoftDelete() error {
	if m.Deleted {
		return &infrastructure.StateConflictError{Entity: "message", ID: m.ID, Reason: "message is already deleted"}
	}
	now := time.Now()
	m.Deleted = true
	m.DeletedAt = &now
	return nil
}

// DisplayContent is the privacy-aware projection of the payload.
func (m *Message) DisplayContent(viewerID string) Content {
	if m.Deleted && viewerID != m.SenderID {
		return deletedPlaceholder
	}
	return m.Content
}

func (m *Message) AddReaction(emoji, userID string) error {
	if m.Deleted {
		return &infrastructure.StateConflictError{Entity: "message", ID: m.ID, Reason: "cannot react to a deleted message"}
	}
	if emoji == "" {
		v := infrastructure.NewValidationError("message")
		v.Add("reaction emoji is required")
		return v.Err()
	}

	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	users, ok := m.Reactions[emoji]
	if !ok && len(m.Reactions) >= maxReactionKinds {
		v := infrastructure.NewValidationError("message")
		v.Add("too many distinct reactions: %d, max allowed: %d", len(m.Reactions)+1, maxReactionKinds)
		return v.Err()
	}
	for _, id := range users {
		if id == userID {
			return &infrastructure.StateConflictError{Entity: "message", ID: m.ID, Reason: "user " + userID + " already reacted with " + emoji}
		}
	}
	if len(users) >= maxReactionUsers {
		v := infrastructure.NewValidationError("message")
		v.Add("too many reactions for %s: %d, max allowed: %d", emoji, len(users)+1, maxReactionUsers)
		return v.Err()
	}

	m.Reactions[emoji] = append(users, userID)
	return nil
}

// RemoveReaction drops the user's reaction; removing the last user for an
// emoji removes the emoji key entirely.
func (m *Message) RemoveReaction(emoji, userID string) error {
	users, ok := m.Reactions[emoji]
	if !ok {
		return &infrastructure.StateConflictError{Entity: "message", ID: m.ID, Reason: "no " + emoji + " reactions on this message"}
	}

	found := false
	remaining := make([]string, 0, len(users))
	for _, id := range users {
		if id == userID {
			found = true
			continue
		}
		remaining = append(remaining, id)
	}
	if !found {
		return &infrastructure.StateConflictError{Entity: "message", ID: m.ID, Reason: "user " + userID + " has not reacted with " + emoji}
	}

	if len(remaining) == 0 {
		delete(m.Reactions, emoji)
	} else {
		m.Reactions[emoji] = remaining
	}
	return nil
}

func (m *Message) SetPinned(pinned bool) {
	m.Pinned = pinned
}
