package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"messenger/infrastructure"
)

// Manager owns the presence state machine. Explicit Set* calls and the
// time-driven sweep may interleave; the last writer wins.
type Manager struct {
	repo   Repository
	online OnlineStore
	log    zerolog.Logger
}

func NewManager(repo Repository, online OnlineStore, log zerolog.Logger) *Manager {
	return &Manager{
		repo:   repo,
		online: online,
		log:    log.With().Str("component", "presence").Logger(),
	}
}

// getOrCreate loads the user's record, creating it with defaults on the
// first presence report.
func (m *Manager) getOrCreate(ctx context.Context, userID string) (*Presence, bool, error) {
	p, err := m.repo.GetByUserID(ctx, userID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, infrastructure.ErrPresenceNotFound) {
		return nil, false, err
	}
	return NewPresence(userID), true, nil
}

func (m *Manager) save(ctx context.Context, p *Presence, created bool) error {
	if created {
		if err := m.repo.Create(ctx, p); err != nil {
			return err
		}
		return nil
	}
	return m.repo.Update(ctx, p)
}

func (m *Manager) SetOnline(ctx context.Context, userID string, platform Platform, device DeviceInfo) (*Presence, error) {
	p, created, err := m.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.SetOnline(platform, device); err != nil {
		return nil, err
	}
	if err := m.save(ctx, p, created); err != nil {
		return nil, err
	}
	if err := m.online.MarkOnline(ctx, userID); err != nil {
		m.log.Warn().Err(err).Str("user_id", userID).Msg("failed to update online set")
	}
	m.log.Debug().Str("user_id", userID).Str("platform", string(platform)).Msg("user online")
	return p, nil
}

func (m *Manager) SetOffline(ctx context.Context, userID string) (*Presence, error) {
	p, created, err := m.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.SetOffline(); err != nil {
		return nil, err
	}
	if err := m.save(ctx, p, created); err != nil {
		return nil, err
	}
	if err := m.online.MarkOffline(ctx, userID); err != nil {
		m.log.Warn().Err(err).Str("user_id", userID).Msg("failed to update online set")
	}
	m.log.Debug().Str("user_id", userID).Msg("user offline")
	return p, nil
}

func (m *Manager) SetAway(ctx context.Context, userID string) (*Presence, error) {
	return m.transition(ctx, userID, (*Presence).SetAway)
}

func (m *Manager) SetInvisible(ctx context.Context, userID string) (*Presence, error) {
	return m.transition(ctx, userID, (*Presence).SetInvisible)
}

func (m *Manager) SetBusy(ctx context.Context, userID, customStatus string) (*Presence, error) {
	return m.transition(ctx, userID, func(p *Presence) error {
		return p.SetBusy(customStatus)
	})
}

func (m *Manager) UpdateActivity(ctx context.Context, userID string, activity Activity) (*Presence, error) {
	return m.transition(ctx, userID, func(p *Presence) error {
		return p.UpdateActivity(activity)
	})
}

func (m *Manager) transition(ctx context.Context, userID string, mutate func(*Presence) error) (*Presence, error) {
	p, created, err := m.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	if err := m.save(ctx, p, created); err != nil {
		return nil, err
	}
	return p, nil
}

// GetVisiblePresence returns what the subject's privacy settings expose to
// this requester.
func (m *Manager) GetVisiblePresence(ctx context.Context, subjectID, requesterID string, isContact bool) (*View, error) {
	p, err := m.repo.GetByUserID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	view := p.VisibleTo(requesterID, isContact)
	return &view, nil
}

func (m *Manager) GetOnlineUsers(ctx context.Context) ([]string, error) {
	return m.online.OnlineUserIDs(ctx)
}

// RunAutoTransitions is the polling sweep: auto-offline wins over auto-away
// when both thresholds have passed. Failures on one record never stop the
// sweep.
func (m *Manager) RunAutoTransitions(ctx context.Context) error {
	records, err := m.repo.GetOnlineUsers(ctx)
	if err != nil {
		return fmt.Errorf("auto-transition sweep: %w", err)
	}

	now := time.Now()
	for _, p := range records {
		switch {
		case p.ShouldAutoOffline(now):
			if _, err := m.SetOffline(ctx, p.UserID); err != nil {
				m.log.Warn().Err(err).Str("user_id", p.UserID).Msg("auto-offline failed")
			} else {
				m.log.Info().Str("user_id", p.UserID).Msg("auto-offline")
			}
		case p.ShouldAutoAway(now):
			if _, err := m.SetAway(ctx, p.UserID); err != nil {
				m.log.Warn().Err(err).Str("user_id", p.UserID).Msg("auto-away failed")
			} else {
				m.log.Info().Str("user_id", p.UserID).Msg("auto-away")
			}
		}
	}
	return nil
}
