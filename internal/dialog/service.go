package dialog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"messenger/infrastructure"
	"messenger/internal/events"
)

// Manager owns dialog lifecycle and membership. Every mutation revalidates
// the full entity before it is persisted.
type Manager struct {
	repo      Repository
	publisher events.Publisher
	log       zerolog.Logger
}

func NewManager(repo Repository, publisher events.Publisher, log zerolog.Logger) *Manager {
	return &Manager{
		repo:      repo,
		publisher: publisher,
		log:       log.With().Str("component", "dialog").Logger(),
	}
}

func (m *Manager) CreateDialog(ctx context.Context, t Type, name string, participantIDs []string, creatorID string) (*Dialog, error) {
	d, err := NewDialog(t, name, participantIDs, creatorID)
	if err != nil {
		return nil, err
	}

	if err := m.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create dialog: %w", err)
	}

	for _, userID := range d.ParticipantIDs {
		role := RoleMember
		if userID == creatorID {
			role = RoleOwner
		}
		p, err := NewParticipant(d.ID, userID, role)
		if err != nil {
			return nil, err
		}
		if err := m.repo.CreateParticipant(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to record membership: %w", err)
		}
	}

	m.publish(ctx, d.ID, creatorID, map[string]any{"action": "created", "type": string(t)})
	m.log.Info().Str("dialog_id", d.ID).Str("type", string(t)).Int("participants", len(d.ParticipantIDs)).Msg("dialog created")
	return d, nil
}

func (m *Manager) GetDialog(ctx context.Context, id string) (*Dialog, error) {
	return m.repo.GetByID(ctx, id)
}

func (m *Manager) ListUserDialogs(ctx context.Context, userID string, limit, offset int) ([]*Dialog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return m.repo.GetByUserID(ctx, userID, limit, offset)
}

// AddParticipant checks the inviter against the dialog's invite policy before
// admitting the new member.
func (m *Manager) AddParticipant(ctx context.Context, dialogID, inviterID, userID string) (*Dialog, error) {
	d, err := m.repo.GetByID(ctx, dialogID)
	if err != nil {
		return nil, err
	}

	if !d.CanUserInvite(inviterID) {
		return nil, &infrastructure.PermissionError{UserID: inviterID, Op: "invite", Reason: "invite policy is " + string(d.Settings.WhoCanInvite)}
	}

	if err := d.AddParticipant(userID); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to persist dialog %s: %w", dialogID, err)
	}

	p, err := NewParticipant(d.ID, userID, RoleMember)
	if err != nil {
		return nil, err
	}
	if err := m.repo.CreateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to record membership: %w", err)
	}

	m.publish(ctx, d.ID, userID, map[string]any{"action": "participant_added"})
	return d, nil
}

// RemoveParticipant permits self-removal for anyone; removing someone else
// requires admin. The removed user is demoted from admin as a side effect.
func (m *Manager) RemoveParticipant(ctx context.Context, dialogID, actorID, userID string) (*Dialog, error) {
	d, err := m.repo.GetByID(ctx, dialogID)
	if err != nil {
		return nil, err
	}

	if actorID != userID && !d.IsAdmin(actorID) {
		return nil, &infrastructure.PermissionError{UserID: actorID, Op: "remove participant", Reason: "only admins may remove other participants"}
	}

	if err := d.RemoveParticipant(userID); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to persist dialog %s: %w", dialogID, err)
	}

	if p, err := m.repo.GetParticipant(ctx, dialogID, userID); err == nil {
		if err := p.Leave(); err == nil {
			if err := m.repo.UpdateParticipant(ctx, p); err != nil {
				m.log.Warn().Err(err).Str("dialog_id", dialogID).Str("user_id", userID).Msg("failed to close membership record")
			}
		}
	}

	m.publish(ctx, d.ID, userID, map[string]any{"action": "participant_removed"})
	return d, nil
}

func (m *Manager) AddAdmin(ctx context.Context, dialogID, actorID, userID string) (*Dialog, error) {
	d, err := m.repo.GetByID(ctx, dialogID)
	if err != nil {
		return nil, err
	}

	if !d.IsAdmin(actorID) {
		return nil, &infrastructure.PermissionError{UserID: actorID, Op: "add admin", Reason: "only admins may promote"}
	}

	if err := d.AddAdmin(userID); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to persist dialog %s: %w", dialogID, err)
	}

	if p, err := m.repo.GetParticipant(ctx, dialogID, userID); err == nil {
		if err := p.ChangeRole(RoleAdmin); err == nil {
			if err := m.repo.UpdateParticipant(ctx, p); err != nil {
				m.log.Warn().Err(err).Str("dialog_id", dialogID).Str("user_id", userID).Msg("failed to update membership role")
			}
		}
	}

	m.publish(ctx, d.ID, userID, map[string]any{"action": "admin_added"})
	return d, nil
}

func (m *Manager) RemoveAdmin(ctx context.Context, dialogID, actorID, userID string) (*Dialog, error) {
	d, err := m.repo.GetByID(ctx, dialogID)
	if err != nil {
		return nil, err
	}

	if !d.IsAdmin(actorID) {
		return nil, &infrastructure.PermissionError{UserID: actorID, Op: "remove admin", Reason: "only admins may demote"}
	}

	if err := d.RemoveAdmin(userID); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to persist dialog %s: %w", dialogID, err)
	}

	if p, err := m.repo.GetParticipant(ctx, dialogID, userID); err == nil {
		if err := p.ChangeRole(RoleMember); err == nil {
			if err := m.repo.UpdateParticipant(ctx, p); err != nil {
				m.log.Warn().Err(err).Str("dialog_id", dialogID).Str("user_id", userID).Msg("failed to update membership role")
			}
		}
	}

	m.publish(ctx, d.ID, userID, map[string]any{"action": "admin_removed"})
	return d, nil
}

// SetLastMessage moves the dialog's last-message pointer. Called by the
// message manager after a successful send.
func (m *Manager) SetLastMessage(ctx context.Context, dialogID, messageID string) error {
	d, err := m.repo.GetByID(ctx, dialogID)
	if err != nil {
		return err
	}
	d.SetLastMessage(messageID)
	if err := m.repo.Update(ctx, d); err != nil {
		return fmt.Errorf("failed to persist dialog %s: %w", dialogID, err)
	}
	return nil
}

func (m *Manager) UpdateUnreadCount(ctx context.Context, dialogID string, count int) error {
	d, err := m.repo.GetByID(ctx, dialogID)
	if err != nil {
		return err
	}
	d.SetUnreadCount(count)
	if err := m.repo.Update(ctx, d); err != nil {
		return fmt.Errorf("failed to persist dialog %s: %w", dialogID, err)
	}
	return nil
}

func (m *Manager) SetFlags(ctx context.Context, dialogID string, pinned, archived, muted bool) error {
	d, err := m.repo.GetByID(ctx, dialogID)
	if err != nil {
		return err
	}
	d.Pinned = pinned
	d.Archived = archived
	d.Muted = muted
	if err := d.Validate(); err != nil {
		return err
	}
	if err := m.repo.Update(ctx, d); err != nil {
		return fmt.Errorf("failed to persist dialog %s: %w", dialogID, err)
	}
	return nil
}

// publish is best-effort; a broker outage must not fail the mutation.
func (m *Manager) publish(ctx context.Context, dialogID, userID string, data map[string]any) {
	ev := events.New(events.TypeDialogUpdated)
	ev.DialogID = dialogID
	ev.UserID = userID
	ev.Data = data
	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.log.Warn().Err(err).Str("dialog_id", dialogID).Msg("failed to publish dialog event")
	}
}
