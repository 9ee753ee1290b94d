package dialog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"messenger/infrastructure"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d *Dialog) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create dialog: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Dialog, error) {
	var d Dialog
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.ErrDialogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dialog %s: %w", id, err)
	}
	return &d, nil
}

func (r *PostgresRepository) Update(ctx context.Context, d *Dialog) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("failed to update dialog %s: %w", d.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&Dialog{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete dialog %s: %w", id, err)
	}
	return nil
}

// GetByUserID relies on the JSONB participant column; membership queries at
// scale belong to the read model, this is the operational path only.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Dialog, error) {
	var dialogs []*Dialog
	err := r.db.WithContext(ctx).
		Where("participant_ids @> ?", fmt.Sprintf("[%q]", userID)).
		Order("updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&dialogs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list dialogs for user %s: %w", userID, err)
	}
	return dialogs, nil
}

func (r *PostgresRepository) CreateParticipant(ctx context.Context, p *Participant) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetParticipant(ctx context.Context, dialogID, userID string) (*Participant, error) {
	var p Participant
	err := r.db.WithContext(ctx).First(&p, "dialog_id = ? AND user_id = ?", dialogID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.ErrNotParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) UpdateParticipant(ctx context.Context, p *Participant) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to update participant %s: %w", p.ID, err)
	}
	return nil
}

func (r *PostgresRepository) ListParticipants(ctx context.Context, dialogID string) ([]*Participant, error) {
	var participants []*Participant
	err := r.db.WithContext(ctx).
		Where("dialog_id = ? AND status <> ?", dialogID, StatusLeft).
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for dialog %s: %w", dialogID, err)
	}
	return participants, nil
}
