package dialog

import (
	"time"

	"github.com/google/uuid"

	"messenger/infrastructure"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
	RoleGuest  Role = "guest"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleOwner, RoleGuest:
		return true
	}
	return false
}

type ParticipantStatus string

const (
	StatusActive   ParticipantStatus = "active"
	StatusInactive ParticipantStatus = "inactive"
	StatusBanned   ParticipantStatus = "banned"
	StatusLeft     ParticipantStatus = "left"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusBanned, StatusLeft:
		return true
	}
	return false
}

// Participant is the membership record created on join and closed on leave.
type Participant struct {
	ID       string            `gorm:"primaryKey;type:uuid" json:"id"`
	DialogID string            `gorm:"index;not null" json:"dialog_id"`
	UserID   string            `gorm:"index;not null" json:"user_id"`
	Role     Role              `gorm:"type:varchar(16);default:'member'" json:"role"`
	Status   ParticipantStatus `gorm:"type:varchar(16);default:'active'" json:"status"`
	Muted    bool              `json:"muted"`
	JoinedAt time.Time         `json:"joined_at"`
	LeftAt   *time.Time        `json:"left_at,omitempty"`
}

func (Participant) TableName() string { return "dialog_participants" }

func NewParticipant(dialogID, userID string, role Role) (*Participant, error) {
	p := &Participant{
		ID:       uuid.New().String(),
		DialogID: dialogID,
		UserID:   userID,
		Role:     role,
		Status:   StatusActive,
		JoinedAt: time.Now(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Participant) Validate() error {
	v := infrastructure.NewValidationError("dialog participant")
	if p.DialogID == "" {
		v.Add("dialog id is required")
	}
	if p.UserID == "" {
		v.Add("user id is required")
	}
	if !p.Role.Valid() {
		v.Add("invalid role: %s", p.Role)
	}
	if !p.Status.Valid() {
		v.Add("invalid status: %s", p.Status)
	}
	return v.Err()
}

func (p *Participant) ChangeRole(role Role) error {
	if !role.Valid() {
		v := infrastructure.NewValidationError("dialog participant")
		v.Add("invalid role: %s", role)
		return v.Err()
	}
	p.Role = role
	return nil
}

// Leave closes the membership record. Leaving twice is a conflict, not a no-op.
func (p *Participant) Leave() error {
	if p.Status == StatusLeft {
		return &infrastructure.StateConflictError{Entity: "dialog participant", ID: p.ID, Reason: "already left"}
	}
	now := time.Now()
	p.Status = StatusLeft
	p.LeftAt = &now
	return nil
}
