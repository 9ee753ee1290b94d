package events

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestNewKafkaPublisher_KeyAwareBalancer(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "messenger-events")

	// Events are keyed by dialog id; per-dialog ordering relies on the
	// balancer routing equal keys to the same partition.
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	assert.Equal(t, "messenger-events", p.writer.Topic)
}
