package dialog

import (
	"time"

	"github.com/google/uuid"

	"messenger/infrastructure"
)

type Type string

const (
	TypeDirect   Type = "direct"
	TypeGroup    Type = "group"
	TypeChannel  Type = "channel"
	TypeBusiness Type = "business"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDirect, TypeGroup, TypeChannel, TypeBusiness:
		return true
	}
	return false
}

// MaxParticipants is the hard per-type ceiling; Settings may lower it but
// never raise it.
func (t Type) MaxParticipants() int {
	switch t {
	case TypeDirect:
		return 2
	case TypeGroup:
		return 5000
	case TypeChannel:
		return 200000
	case TypeBusiness:
		return 100
	}
	return 0
}

func (t Type) RequiresName() bool {
	switch t {
	case TypeGroup, TypeChannel, TypeBusiness:
		return true
	}
	return false
}

func (t Type) SupportsAdmins() bool {
	switch t {
	case TypeGroup, TypeChannel, TypeBusiness:
		return true
	}
	return false
}

// Policy controls who may invite to or message in a dialog.
type Policy string

const (
	PolicyEveryone Policy = "everyone"
	PolicyMembers  Policy = "members"
	PolicyAdmins   Policy = "admins"
)

func (p Policy) Valid() bool {
	switch p {
	case PolicyEveryone, PolicyMembers, PolicyAdmins:
		return true
	}
	return false
}

type Settings struct {
	MaxParticipants int           `gorm:"column:settings_max_participants" json:"max_participants"`
	HistoryVisible  bool          `gorm:"column:settings_history_visible" json:"history_visible"`
	WhoCanInvite    Policy        `gorm:"column:settings_who_can_invite;type:varchar(16)" json:"who_can_invite"`
	WhoCanMessage   Policy        `gorm:"column:settings_who_can_message;type:varchar(16)" json:"who_can_message"`
	AutoDeleteAfter time.Duration `gorm:"column:settings_auto_delete_after" json:"auto_delete_after,omitempty"`
}

// DefaultSettings derives the per-type defaults applied at creation.
func DefaultSettings(t Type) Settings {
	s := Settings{
		MaxParticipants: t.MaxParticipants(),
		HistoryVisible:  true,
		WhoCanInvite:    PolicyMembers,
		WhoCanMessage:   PolicyMembers,
	}
	switch t {
	case TypeChannel:
		s.WhoCanInvite = PolicyAdmins
		s.WhoCanMessage = PolicyAdmins
	case TypeBusiness:
		s.WhoCanInvite = PolicyAdmins
	}
	return s
}

type Dialog struct {
	ID             string   `gorm:"primaryKey;type:uuid" json:"id"`
	Type           Type     `gorm:"type:varchar(16);not null;index" json:"type"`
	Name           string   `json:"name,omitempty"`
	AvatarURL      string   `json:"avatar_url,omitempty"`
	Description    string   `gorm:"type:text" json:"description,omitempty"`
	ParticipantIDs []string `gorm:"serializer:json;type:jsonb" json:"participant_ids"`
	AdminIDs       []string `gorm:"serializer:json;type:jsonb" json:"admin_ids"`
	LastMessageID  *string  `gorm:"index" json:"last_message_id,omitempty"`
	UnreadCount    int      `json:"unread_count"`
	Pinned         bool     `json:"pinned"`
	Archived       bool     `json:"archived"`
	Muted          bool     `json:"muted"`
	Settings       Settings `gorm:"embedded" json:"settings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Dialog) TableName() string { return "dialogs" }

// NewDialog builds a dialog with type-derived default settings and validates
// it before returning. The creator is always a participant; on types that
// support admins the creator starts as the sole admin.
func NewDialog(t Type, name string, participantIDs []string, creatorID string) (*Dialog, error) {
	participants := participantIDs
	if !contains(participants, creatorID) {
		participants = append([]string{creatorID}, participants...)
	}

	d := &Dialog{
		ID:             uuid.New().String(),
		Type:           t,
		Name:           name,
		ParticipantIDs: participants,
		Settings:       DefaultSettings(t),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if t.SupportsAdmins() {
		d.AdminIDs = []string{creatorID}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks every dialog invariant and reports all violations at once.
func (d *Dialog) Validate() error {
	v := infrastructure.NewValidationError("dialog")

	if !d.Type.Valid() {
		v.Add("invalid dialog type: %s", d.Type)
		return v.Err()
	}

	if d.Type.RequiresName() && d.Name == "" {
		v.Add("name is required for dialog type: %s", d.Type)
	}

	if len(d.ParticipantIDs) == 0 {
		v.Add("dialog must have at least one participant")
	}

	max := d.Type.MaxParticipants()
	if d.Settings.MaxParticipants > 0 && d.Settings.MaxParticipants < max {
		max = d.Settings.MaxParticipants
	}
	if len(d.ParticipantIDs) > max {
		v.Add("too many participants: %d, max allowed: %d", len(d.ParticipantIDs), max)
	}

	seen := make(map[string]bool, len(d.ParticipantIDs))
	for _, id := range d.ParticipantIDs {
		if seen[id] {
			v.Add("duplicate participant: %s", id)
		}
		seen[id] = true
	}

	for _, id := range d.AdminIDs {
		if !seen[id] {
			v.Add("admin %s is not a participant", id)
		}
	}
	if len(d.AdminIDs) > 0 && !d.Type.SupportsAdmins() {
		v.Add("dialog type %s does not support admins", d.Type)
	}

	if !d.Settings.WhoCanInvite.Valid() {
		v.Add("invalid invite policy: %s", d.Settings.WhoCanInvite)
	}
	if !d.Settings.WhoCanMessage.Valid() {
		v.Add("invalid message policy: %s", d.Settings.WhoCanMessage)
	}

	return v.Err()
}

func (d *Dialog) HasParticipant(userID string) bool {
	return contains(d.ParticipantIDs, userID)
}

func (d *Dialog) IsAdmin(userID string) bool {
	return contains(d.AdminIDs, userID)
}

// AddParticipant mutates and revalidates; an invalid intermediate state is
// rolled back before the error is returned.
func (d *Dialog) AddParticipant(userID string) error {
	if d.HasParticipant(userID) {
		return &infrastructure.StateConflictError{Entity: "dialog", ID: d.ID, Reason: "user " + userID + " is already a participant"}
	}
	prev := d.ParticipantIDs
	d.ParticipantIDs = append(append([]string(nil), prev...), userID)
	if err := d.Validate(); err != nil {
		d.ParticipantIDs = prev
		return err
	}
	d.UpdatedAt = time.Now()
	return nil
}

// RemoveParticipant also demotes the user from admin if present.
func (d *Dialog) RemoveParticipant(userID string) error {
	if !d.HasParticipant(userID) {
		return &infrastructure.StateConflictError{Entity: "dialog", ID: d.ID, Reason: "user " + userID + " is not a participant"}
	}
	prevParticipants, prevAdmins := d.ParticipantIDs, d.AdminIDs
	d.ParticipantIDs = remove(prevParticipants, userID)
	d.AdminIDs = remove(prevAdmins, userID)
	if err := d.Validate(); err != nil {
		d.ParticipantIDs, d.AdminIDs = prevParticipants, prevAdmins
		return err
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (d *Dialog) AddAdmin(userID string) error {
	if !d.Type.SupportsAdmins() {
		return &infrastructure.PermissionError{UserID: userID, Op: "add admin", Reason: "dialog type " + string(d.Type) + " does not support admins"}
	}
	if !d.HasParticipant(userID) {
		return &infrastructure.StateConflictError{Entity: "dialog", ID: d.ID, Reason: "user " + userID + " is not a participant"}
	}
	if d.IsAdmin(userID) {
		return &infrastructure.StateConflictError{Entity: "dialog", ID: d.ID, Reason: "user " + userID + " is already an admin"}
	}
	prev := d.AdminIDs
	d.AdminIDs = append(append([]string(nil), prev...), userID)
	if err := d.Validate(); err != nil {
		d.AdminIDs = prev
		return err
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (d *Dialog) RemoveAdmin(userID string) error {
	if !d.Type.SupportsAdmins() {
		return &infrastructure.PermissionError{UserID: userID, Op: "remove admin", Reason: "dialog type " + string(d.Type) + " does not support admins"}
	}
	if !d.IsAdmin(userID) {
		return &infrastructure.StateConflictError{Entity: "dialog", ID: d.ID, Reason: "user " + userID + " is not an admin"}
	}
	prev := d.AdminIDs
	d.AdminIDs = remove(prev, userID)
	if err := d.Validate(); err != nil {
		d.AdminIDs = prev
		return err
	}
	d.UpdatedAt = time.Now()
	return nil
}

// CanUserInvite evaluates the dialog's invite policy against membership.
func (d *Dialog) CanUserInvite(userID string) bool {
	switch d.Settings.WhoCanInvite {
	case PolicyEveryone:
		return true
	case PolicyMembers:
		return d.HasParticipant(userID)
	case PolicyAdmins:
		return d.IsAdmin(userID)
	}
	return false
}

func (d *Dialog) CanUserMessage(userID string) bool {
	switch d.Settings.WhoCanMessage {
	case PolicyEveryone:
		return true
	case PolicyMembers:
		return d.HasParticipant(userID)
	case PolicyAdmins:
		return d.IsAdmin(userID)
	}
	return false
}

// RecipientsFor returns every participant except the sender, i.e. the
// delivery fan-out set for a message sent by senderID.
func (d *Dialog) RecipientsFor(senderID string) []string {
	out := make([]string, 0, len(d.ParticipantIDs))
	for _, id := range d.ParticipantIDs {
		if id != senderID {
			out = append(out, id)
		}
	}
	return out
}

func (d *Dialog) SetLastMessage(messageID string) {
	d.LastMessageID = &messageID
	d.UpdatedAt = time.Now()
}

func (d *Dialog) SetUnreadCount(n int) {
	if n < 0 {
		n = 0
	}
	d.UnreadCount = n
	d.UpdatedAt = time.Now()
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// remove copies rather than filtering in place, so the input slice survives
// for rollback.
func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
