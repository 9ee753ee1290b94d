package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/infrastructure"
)

type fakeRepo struct {
	records map[string]*Presence
	failFor map[string]error
}

func newFakePresenceRepo() *fakeRepo {
	return &fakeRepo{
		records: make(map[string]*Presence),
		failFor: make(map[string]error),
	}
}

func (r *fakeRepo) Create(_ context.Context, p *Presence) error {
	if err := r.failFor[p.UserID]; err != nil {
		return err
	}
	r.records[p.UserID] = p
	return nil
}

func (r *fakeRepo) GetByUserID(_ context.Context, userID string) (*Presence, error) {
	p, ok := r.records[userID]
	if !ok {
		return nil, infrastructure.ErrPresenceNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, p *Presence) error {
	if err := r.failFor[p.UserID]; err != nil {
		return err
	}
	r.records[p.UserID] = p
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, userID string) error {
	delete(r.records, userID)
	return nil
}

func (r *fakeRepo) GetOnlineUsers(_ context.Context) ([]*Presence, error) {
	var out []*Presence
	for _, p := range r.records {
		if p.IsOnline {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeOnlineStore struct {
	online  map[string]bool
	markErr error
}

func newFakeOnlineStore() *fakeOnlineStore {
	return &fakeOnlineStore{online: make(map[string]bool)}
}

func (s *fakeOnlineStore) MarkOnline(_ context.Context, userID string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.online[userID] = true
	return nil
}

func (s *fakeOnlineStore) MarkOffline(_ context.Context, userID string) error {
	if s.markErr != nil {
		return s.markErr
	}
	delete(s.online, userID)
	return nil
}

func (s *fakeOnlineStore) OnlineUserIDs(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.online))
	for id := range s.online {
		out = append(out, id)
	}
	return out, nil
}

func newTestPresenceManager() (*Manager, *fakeRepo, *fakeOnlineStore) {
	repo := newFakePresenceRepo()
	store := newFakeOnlineStore()
	return NewManager(repo, store, zerolog.Nop()), repo, store
}

func TestManagerSetOnline_CreatesRecordOnFirstReport(t *testing.T) {
	m, repo, store := newTestPresenceManager()

	p, err := m.SetOnline(context.Background(), "u1", PlatformWeb, DeviceInfo{OS: "linux"})
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, p.Status)
	assert.Contains(t, repo.records, "u1")
	assert.True(t, store.online["u1"])
}

func TestManagerSetOnline_OnlineSetFailureIsNonFatal(t *testing.T) {
	m, repo, store := newTestPresenceManager()
	store.markErr = errors.New("redis down")

	p, err := m.SetOnline(context.Background(), "u1", PlatformWeb, DeviceInfo{})
	require.NoError(t, err, "the durable record still wins")
	assert.True(t, p.IsOnline)
	assert.Contains(t, repo.records, "u1")
}

func TestManagerSetOffline(t *testing.T) {
	m, repo, store := newTestPresenceManager()
	_, err := m.SetOnline(context.Background(), "u1", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)

	p, err := m.SetOffline(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, p.Status)
	assert.False(t, repo.records["u1"].IsOnline)
	assert.False(t, store.online["u1"])
}

func TestManagerTransitions(t *testing.T) {
	m, repo, _ := newTestPresenceManager()
	_, err := m.SetOnline(context.Background(), "u1", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)

	p, err := m.SetBusy(context.Background(), "u1", "in a call")
	require.NoError(t, err)
	assert.Equal(t, StatusBusy, p.Status)
	assert.Equal(t, "in a call", p.CustomStatus)

	p, err = m.SetInvisible(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusInvisible, p.Status)
	assert.Equal(t, StatusInvisible, repo.records["u1"].Status)
}

func TestManagerUpdateActivity_InvalidNotPersisted(t *testing.T) {
	m, repo, _ := newTestPresenceManager()
	_, err := m.SetOnline(context.Background(), "u1", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)

	_, err = m.UpdateActivity(context.Background(), "u1", Activity("napping"))
	require.Error(t, err)
	assert.Equal(t, ActivityIdle, repo.records["u1"].Activity)
}

func TestManagerGetVisiblePresence(t *testing.T) {
	m, _, _ := newTestPresenceManager()
	_, err := m.SetOnline(context.Background(), "u1", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)
	_, err = m.SetInvisible(context.Background(), "u1")
	require.NoError(t, err)

	view, err := m.GetVisiblePresence(context.Background(), "u1", "u2", true)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, view.Status)

	own, err := m.GetVisiblePresence(context.Background(), "u1", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, StatusInvisible, own.Status)

	_, err = m.GetVisiblePresence(context.Background(), "ghost", "u2", false)
	assert.ErrorIs(t, err, infrastructure.ErrPresenceNotFound)
}

func TestRunAutoTransitions(t *testing.T) {
	m, repo, _ := newTestPresenceManager()

	_, err := m.SetOnline(context.Background(), "fresh", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)
	_, err = m.SetOnline(context.Background(), "idle", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)
	_, err = m.SetOnline(context.Background(), "gone", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)

	repo.records["idle"].LastSeen = time.Now().Add(-15 * time.Minute)
	repo.records["gone"].LastSeen = time.Now().Add(-45 * time.Minute)

	require.NoError(t, m.RunAutoTransitions(context.Background()))

	assert.Equal(t, StatusOnline, repo.records["fresh"].Status)
	assert.Equal(t, StatusAway, repo.records["idle"].Status)
	assert.True(t, repo.records["idle"].IsOnline, "auto-away keeps the connection flag")
	assert.Equal(t, StatusOffline, repo.records["gone"].Status, "offline wins when both thresholds passed")
	assert.False(t, repo.records["gone"].IsOnline)
}

func TestRunAutoTransitions_FailureDoesNotStopSweep(t *testing.T) {
	m, repo, _ := newTestPresenceManager()

	_, err := m.SetOnline(context.Background(), "bad", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)
	_, err = m.SetOnline(context.Background(), "good", PlatformWeb, DeviceInfo{})
	require.NoError(t, err)

	repo.records["bad"].LastSeen = time.Now().Add(-45 * time.Minute)
	repo.records["good"].LastSeen = time.Now().Add(-45 * time.Minute)
	repo.failFor["bad"] = errors.New("write refused")

	require.NoError(t, m.RunAutoTransitions(context.Background()))
	assert.Equal(t, StatusOffline, repo.records["good"].Status)
}
