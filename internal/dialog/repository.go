package dialog

import "context"

type Repository interface {
	Create(ctx context.Context, d *Dialog) error
	GetByID(ctx context.Context, id string) (*Dialog, error)
	Update(ctx context.Context, d *Dialog) error
	Delete(ctx context.Context, id string) error
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Dialog, error)

	CreateParticipant(ctx context.Context, p *Participant) error
	GetParticipant(ctx context.Context, dialogID, userID string) (*Participant, error)
	UpdateParticipant(ctx context.Context, p *Participant) error
	ListParticipants(ctx context.Context, dialogID string) ([]*Participant, error)
}
