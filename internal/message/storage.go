package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"messenger/infrastructure"
)

// Record is the gorm row shape. Content is kept as the raw JSON of the typed
// variant; the mapping back through ParseContent revalidates the boundary.
type Record struct {
	ID        string              `gorm:"primaryKey;type:uuid"`
	DialogID  string              `gorm:"index:idx_messages_dialog_sent;not null"`
	SenderID  string              `gorm:"index;not null"`
	Type      Type                `gorm:"type:varchar(16);not null"`
	Content   []byte              `gorm:"type:jsonb"`
	ReplyToID *string             `gorm:"index"`
	Edited    bool                `gorm:"default:false"`
	Pinned    bool                `gorm:"default:false"`
	Deleted   bool                `gorm:"default:false"`
	Mentions  []string            `gorm:"serializer:json;type:jsonb"`
	Reactions map[string][]string `gorm:"serializer:json;type:jsonb"`
	SentAt    time.Time           `gorm:"index:idx_messages_dialog_sent,sort:desc"`
	CreatedAt time.Time
	EditedAt  *time.Time
	DeletedAt *time.Time
}

func (Record) TableName() string { return "messages" }

func toRecord(m *Message) (*Record, error) {
	raw, err := EncodeContent(m.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message content: %w", err)
	}
	return &Record{
		ID:        m.ID,
		DialogID:  m.DialogID,
		SenderID:  m.SenderID,
		Type:      m.Type,
		Content:   raw,
		ReplyToID: m.ReplyToID,
		Edited:    m.Edited,
		Pinned:    m.Pinned,
		Deleted:   m.Deleted,
		Mentions:  m.Mentions,
		Reactions: m.Reactions,
		SentAt:    m.SentAt,
		CreatedAt: m.CreatedAt,
		EditedAt:  m.EditedAt,
		DeletedAt: m.DeletedAt,
	}, nil
}

func fromRecord(r *Record) (*Message, error) {
	content, err := ParseContent(r.Type, r.Content)
	if err != nil {
		return nil, fmt.Errorf("corrupt content for message %s: %w", r.ID, err)
	}
	return &Message{
		ID:        r.ID,
		DialogID:  r.DialogID,
		SenderID:  r.SenderID,
		Type:      r.Type,
		Content:   content,
		ReplyToID: r.ReplyToID,
		Edited:    r.Edited,
		Pinned:    r.Pinned,
		Deleted:   r.Deleted,
		Mentions:  r.Mentions,
		Reactions: r.Reactions,
		SentAt:    r.SentAt,
		CreatedAt: r.CreatedAt,
		EditedAt:  r.EditedAt,
		DeletedAt: r.DeletedAt,
	}, nil
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *Message) error {
	rec, err := toRecord(m)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Message, error) {
	var rec Record
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return fromRecord(&rec)
}

func (r *PostgresRepository) Update(ctx context.Context, m *Message) error {
	rec, err := toRecord(m)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to update message %s: %w", m.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&Record{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	return nil
}

func (r *PostgresRepository) GetByDialogID(ctx context.Context, dialogID string, f Filter, limit, offset int) ([]*Message, error) {
	q := r.db.WithContext(ctx).Where("dialog_id = ?", dialogID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Sender != "" {
		q = q.Where("sender_id = ?", f.Sender)
	}
	if !f.Before.IsZero() {
		q = q.Where("sent_at < ?", f.Before)
	}
	if !f.After.IsZero() {
		q = q.Where("sent_at > ?", f.After)
	}
	if f.Pinned != nil {
		q = q.Where("pinned = ?", *f.Pinned)
	}
	if f.Deleted != nil {
		q = q.Where("deleted = ?", *f.Deleted)
	}

	var recs []*Record
	if err := q.Order("sent_at DESC").Limit(limit).Offset(offset).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages for dialog %s: %w", dialogID, err)
	}
	return mapRecords(recs)
}

// SearchMessages does a simple substring search over text content. Full-text
// search is the read model's concern.
func (r *PostgresRepository) SearchMessages(ctx context.Context, dialogID, query string, limit int) ([]*Message, error) {
	var recs []*Record
	err := r.db.WithContext(ctx).
		Where("dialog_id = ? AND type = ? AND deleted = false", dialogID, TypeText).
		Where("content->>'text' ILIKE ?", "%"+query+"%").
		Order("sent_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search messages in dialog %s: %w", dialogID, err)
	}
	return mapRecords(recs)
}

func mapRecords(recs []*Record) ([]*Message, error) {
	out := make([]*Message, 0, len(recs))
	for _, rec := range recs {
		m, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
