package presence

import "context"

type Repository interface {
	Create(ctx context.Context, p *Presence) error
	GetByUserID(ctx context.Context, userID string) (*Presence, error)
	Update(ctx context.Context, p *Presence) error
	Delete(ctx context.Context, userID string) error

	// GetOnlineUsers returns every record still flagged online; the
	// auto-transition sweep walks this set.
	GetOnlineUsers(ctx context.Context) ([]*Presence, error)
}

// OnlineStore is the fast connected-set index kept alongside the durable
// records, typically Redis.
type OnlineStore interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
	OnlineUserIDs(ctx context.Context) ([]string, error)
}
