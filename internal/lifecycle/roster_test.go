package lifecycle

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auralis-health/clinical-console/internal/clinical"
	"github.com/auralis-health/clinical-console/internal/session"
)

type fakeRosterAPI struct {
	sessions []clinical.Session
	fetches  int
	lastID   string
	lastRole string
}

func (f *fakeRosterAPI) ListSessions(_ context.Context, userID, role string) ([]clinical.Session, error) {
	f.fetches++
	f.lastID = userID
	f.lastRole = role
	return f.sessions, nil
}

func TestRosterCachesUntilInvalidated(t *testing.T) {
	_, sess := loginAs(t, clinical.RoleDoctor)
	api := &fakeRosterAPI{sessions: []clinical.Session{{ID: "s1", Status: clinical.StatusPending}}}
	roster := NewRoster(api, sess, zerolog.Nop())

	first, err := roster.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, api.fetches)
	assert.Equal(t, sess.User.ID, api.lastID)
	assert.Equal(t, clinical.RoleDoctor, api.lastRole)

	// Cached: a second Load does not hit the backend.
	_, err = roster.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.fetches)

	// Invalidation forces a re-read and picks up backend changes.
	api.sessions = []clinical.Session{{ID: "s1", Status: clinical.StatusApproved}}
	roster.Invalidate()

	second, err := roster.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.fetches)
	assert.Equal(t, clinical.StatusApproved, second[0].Status)
}

func TestRosterOnChangeFiresOnInvalidate(t *testing.T) {
	_, sess := loginAs(t, clinical.RoleDoctor)
	roster := NewRoster(&fakeRosterAPI{}, sess, zerolog.Nop())

	fired := 0
	roster.OnChange(func() { fired++ })

	roster.Invalidate()
	roster.Invalidate()
	assert.Equal(t, 2, fired)
}

func TestRosterGet(t *testing.T) {
	_, sess := loginAs(t, clinical.RoleDoctor)
	api := &fakeRosterAPI{sessions: []clinical.Session{
		{ID: "s1", Status: clinical.StatusPending},
		{ID: "s2", Status: clinical.StatusApproved},
	}}
	roster := NewRoster(api, sess, zerolog.Nop())

	_, err := roster.Load(context.Background())
	require.NoError(t, err)

	got, ok := roster.Get("s2")
	require.True(t, ok)
	assert.Equal(t, clinical.StatusApproved, got.Status)

	_, ok = roster.Get("missing")
	assert.False(t, ok)
}

func TestRosterRequiresLogin(t *testing.T) {
	mgr, sess := loginAs(t, clinical.RoleDoctor)
	roster := NewRoster(&fakeRosterAPI{}, sess, zerolog.Nop())

	require.NoError(t, mgr.Logout(context.Background()))

	_, err := roster.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}
