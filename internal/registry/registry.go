// Package registry tracks which users currently hold a live real-time
// connection in this process. A user may hold several connections at once
// (multiple devices); broadcast to a disconnected user is a no-op.
package registry

import (
	"sync"

	"github.com/rs/zerolog"
)

// Connection is the opaque transport handle. The registry never looks inside
// the payload; one Send call carries one logical event.
type Connection interface {
	Send(payload []byte) error
	Close() error
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]map[Connection]bool
	log     zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		clients: make(map[string]map[Connection]bool),
		log:     log.With().Str("component", "registry").Logger(),
	}
}

func (r *Registry) RegisterClient(userID string, conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[userID] == nil {
		r.clients[userID] = make(map[Connection]bool)
	}
	r.clients[userID][conn] = true
	r.log.Debug().Str("user_id", userID).Int("connections", len(r.clients[userID])).Msg("client registered")
}

// UnregisterClient reports whether the user still holds other connections,
// so callers can decide when the user has gone fully offline.
func (r *Registry) UnregisterClient(userID string, conn Connection) (remaining bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.clients[userID]
	if !ok {
		return false
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(r.clients, userID)
		r.log.Debug().Str("user_id", userID).Msg("client unregistered, user disconnected")
		return false
	}
	return true
}

func (r *Registry) IsUserConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[userID]) > 0
}

// GetConnectedUsers returns a snapshot; the set may change immediately after.
func (r *Registry) GetConnectedUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.clients))
	for userID := range r.clients {
		users = append(users, userID)
	}
	return users
}

// BroadcastToUser sends the payload to every connection the user holds.
// An absent user is a no-op; callers must not assume delivery.
func (r *Registry) BroadcastToUser(userID string, payload []byte) error {
	r.mu.RLock()
	conns := make([]Connection, 0, len(r.clients[userID]))
	for conn := range r.clients[userID] {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	var lastErr error
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			r.log.Warn().Err(err).Str("user_id", userID).Msg("broadcast failed on one connection")
			lastErr = err
		}
	}
	return lastErr
}

func (r *Registry) BroadcastToUsers(userIDs []string, payload []byte) {
	for _, userID := range userIDs {
		// Per-user failures are already logged; fan-out continues.
		_ = r.BroadcastToUser(userID, payload)
	}
}
