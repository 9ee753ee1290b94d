package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/message"
)

type fakeBroadcaster struct {
	mu        sync.Mutex
	connected map[string]bool
	sent      map[string][][]byte
	failFor   map[string]error
}

func newFakeBroadcaster(connected ...string) *fakeBroadcaster {
	b := &fakeBroadcaster{
		connected: make(map[string]bool),
		sent:      make(map[string][][]byte),
		failFor:   make(map[string]error),
	}
	for _, id := range connected {
		b.connected[id] = true
	}
	return b
}

func (b *fakeBroadcaster) IsUserConnected(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected[userID]
}

func (b *fakeBroadcaster) BroadcastToUser(userID string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failFor[userID]; err != nil {
		return err
	}
	b.sent[userID] = append(b.sent[userID], payload)
	return nil
}

func (b *fakeBroadcaster) sentTo(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent[userID])
}

type fakePushSender struct {
	mu      sync.Mutex
	pushed  map[string]int
	failFor map[string]error
}

func newFakePushSender() *fakePushSender {
	return &fakePushSender{
		pushed:  make(map[string]int),
		failFor: make(map[string]error),
	}
}

func (p *fakePushSender) SendNotification(_ context.Context, userID, _ string, _ map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failFor[userID]; err != nil {
		return err
	}
	p.pushed[userID]++
	return nil
}

func (p *fakePushSender) pushesTo(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pushed[userID]
}

func newTestMessage(t *testing.T) *message.Message {
	t.Helper()
	msg, err := message.NewMessage("d1", "sender", message.TypeText, message.TextContent{Text: "hello"}, nil)
	require.NoError(t, err)
	return msg
}

func TestDeliverMessage_SplitsByConnectivity(t *testing.T) {
	broadcaster := newFakeBroadcaster("online")
	push := newFakePushSender()
	router := NewRouter(broadcaster, push, zerolog.Nop())

	msg := newTestMessage(t)
	report, err := router.DeliverMessage(context.Background(), msg, []string{"online", "offline-a", "offline-b"})
	require.NoError(t, err)

	assert.Equal(t, 1, broadcaster.sentTo("online"))
	assert.Equal(t, 1, push.pushesTo("offline-a"))
	assert.Equal(t, 1, push.pushesTo("offline-b"))
	assert.Zero(t, push.pushesTo("online"), "connected users never get a push")

	assert.Equal(t, OutcomeBroadcast, report.Outcomes["online"])
	assert.Equal(t, OutcomePushed, report.Outcomes["offline-a"])
	assert.Equal(t, OutcomePushed, report.Outcomes["offline-b"])
	assert.Equal(t, 3, report.Delivered())
	assert.Empty(t, report.Errors)
}

func TestDeliverMessage_PayloadShape(t *testing.T) {
	broadcaster := newFakeBroadcaster("online")
	router := NewRouter(broadcaster, newFakePushSender(), zerolog.Nop())

	msg := newTestMessage(t)
	_, err := router.DeliverMessage(context.Background(), msg, []string{"online"})
	require.NoError(t, err)

	require.Equal(t, 1, broadcaster.sentTo("online"))
	var got map[string]any
	require.NoError(t, json.Unmarshal(broadcaster.sent["online"][0], &got))
	assert.Equal(t, "message", got["type"])
	assert.Equal(t, "d1", got["dialog_id"])
	assert.Equal(t, msg.ID, got["message_id"])
	assert.Equal(t, "sender", got["sender_id"])
	assert.Equal(t, "text", got["message_type"])
}

func TestDeliverMessage_OnePushFailureDoesNotBlockOthers(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	push := newFakePushSender()
	push.failFor["broken"] = errors.New("apns unreachable")
	router := NewRouter(broadcaster, push, zerolog.Nop())

	msg := newTestMessage(t)
	report, err := router.DeliverMessage(context.Background(), msg, []string{"broken", "fine"})
	require.NoError(t, err, "per-recipient failures are report data, not an error return")

	assert.Equal(t, 1, push.pushesTo("fine"))
	assert.Equal(t, OutcomeFailed, report.Outcomes["broken"])
	assert.Equal(t, OutcomePushed, report.Outcomes["fine"])
	assert.Equal(t, 1, report.Delivered())

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "broken", report.Errors[0].RecipientID)
	assert.Equal(t, "push", report.Errors[0].Path)
}

func TestDeliverMessage_BroadcastFailureDoesNotFallBackToPush(t *testing.T) {
	broadcaster := newFakeBroadcaster("flaky")
	broadcaster.failFor["flaky"] = errors.New("write: broken pipe")
	push := newFakePushSender()
	router := NewRouter(broadcaster, push, zerolog.Nop())

	msg := newTestMessage(t)
	report, err := router.DeliverMessage(context.Background(), msg, []string{"flaky"})
	require.NoError(t, err)

	assert.Zero(t, push.pushesTo("flaky"))
	assert.Equal(t, OutcomeFailed, report.Outcomes["flaky"])
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "broadcast", report.Errors[0].Path)
}

func TestDeliverMessage_NoRecipients(t *testing.T) {
	router := NewRouter(newFakeBroadcaster(), newFakePushSender(), zerolog.Nop())

	report, err := router.DeliverMessage(context.Background(), newTestMessage(t), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.Zero(t, report.Delivered())
}
