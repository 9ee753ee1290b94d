package message

import (
	"context"
	"time"
)

// Filter narrows GetByDialogID; zero values mean "any".
type Filter struct {
	Type    Type
	Sender  string
	Before  time.Time
	After   time.Time
	Pinned  *bool
	Deleted *bool
}

type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	Update(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id string) error
	GetByDialogID(ctx context.Context, dialogID string, f Filter, limit, offset int) ([]*Message, error)
	SearchMessages(ctx context.Context, dialogID, query string, limit int) ([]*Message, error)
}
