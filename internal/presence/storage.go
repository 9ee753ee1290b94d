package presence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"messenger/infrastructure"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *Presence) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create presence for %s: %w", p.UserID, err)
	}
	return nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*Presence, error) {
	var p Presence
	err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.ErrPresenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence for %s: %w", userID, err)
	}
	return &p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *Presence) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to update presence for %s: %w", p.UserID, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Delete(&Presence{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to delete presence for %s: %w", userID, err)
	}
	return nil
}

func (r *PostgresRepository) GetOnlineUsers(ctx context.Context) ([]*Presence, error) {
	var records []*Presence
	if err := r.db.WithContext(ctx).Where("is_online = true").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	return records, nil
}

const onlineSetKey = "presence:online"

// RedisOnlineStore keeps the connected-user set in a Redis set, the same
// index the gateway consults for cheap membership checks across processes.
type RedisOnlineStore struct {
	client *redis.Client
}

func NewRedisOnlineStore(client *redis.Client) *RedisOnlineStore {
	return &RedisOnlineStore{client: client}
}

func (s *RedisOnlineStore) MarkOnline(ctx context.Context, userID string) error {
	if err := s.client.SAdd(ctx, onlineSetKey, userID).Err(); err != nil {
		return fmt.Errorf("failed to mark %s online: %w", userID, err)
	}
	return nil
}

func (s *RedisOnlineStore) MarkOffline(ctx context.Context, userID string) error {
	if err := s.client.SRem(ctx, onlineSetKey, userID).Err(); err != nil {
		return fmt.Errorf("failed to mark %s offline: %w", userID, err)
	}
	return nil
}

func (s *RedisOnlineStore) OnlineUserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	return ids, nil
}
