package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// KafkaPushQueue hands push requests to the notification service over a
// Kafka topic. The actual FCM/APNS dispatch happens downstream; from here a
// successful enqueue is a successful delivery.
type KafkaPushQueue struct {
	writer *kafka.Writer
}

func NewKafkaPushQueue(brokers []string, topic string) *KafkaPushQueue {
	return &KafkaPushQueue{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

type pushRequest struct {
	UserID string         `json:"user_id"`
	Type   string         `json:"type"`
	Data   map[string]any `json:"data,omitempty"`
	At     time.Time      `json:"at"`
}

func (q *KafkaPushQueue) SendNotification(ctx context.Context, userID, notificationType string, data map[string]any) error {
	raw, err := json.Marshal(pushRequest{
		UserID: userID,
		Type:   notificationType,
		Data:   data,
		At:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: raw,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue push for %s: %w", userID, err)
	}
	return nil
}

func (q *KafkaPushQueue) Close() error {
	return q.writer.Close()
}
