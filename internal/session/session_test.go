package session

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

func TestManagerLoginLogout(t *testing.T) {
	mgr := NewManager(&MockProvider{}, zerolog.Nop())
	assert.Nil(t, mgr.Current())

	sess, err := mgr.Login(context.Background(), Credentials{Email: "amara@ward.dev", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, sess.IsValid())
	assert.Equal(t, clinical.RoleDoctor, sess.User.Role)
	assert.Equal(t, "Amara", sess.User.Name)
	assert.Same(t, sess, mgr.Current())

	require.NoError(t, mgr.Logout(context.Background()))
	assert.False(t, sess.IsValid())
	assert.Nil(t, mgr.Current())

	assert.ErrorIs(t, mgr.Logout(context.Background()), ErrNotLoggedIn)
}

func TestManagerLoginRejectsEmptyCredentials(t *testing.T) {
	mgr := NewManager(&MockProvider{}, zerolog.Nop())

	_, err := mgr.Login(context.Background(), Credentials{Email: "", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = mgr.Login(context.Background(), Credentials{Email: "amara@ward.dev", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManagerReloginInvalidatesPreviousSession(t *testing.T) {
	mgr := NewManager(&MockProvider{}, zerolog.Nop())

	first, err := mgr.Login(context.Background(), Credentials{Email: "a@ward.dev", Password: "pw"})
	require.NoError(t, err)

	second, err := mgr.Login(context.Background(), Credentials{Email: "b@ward.dev", Password: "pw"})
	require.NoError(t, err)

	assert.False(t, first.IsValid(), "a stale session must fail closed")
	assert.True(t, second.IsValid())
}

func TestManagerRegisterLogsIn(t *testing.T) {
	mgr := NewManager(&MockProvider{}, zerolog.Nop())

	sess, err := mgr.Register(context.Background(), Registration{
		Name:     "Noa Feld",
		Email:    "noa@ward.dev",
		Password: "pw",
		Role:     clinical.RoleAdmin,
	})
	require.NoError(t, err)
	assert.True(t, sess.IsValid())
	assert.Equal(t, "Noa Feld", sess.User.Name)
	assert.Equal(t, clinical.RoleAdmin, sess.User.Role)
	assert.Same(t, sess, mgr.Current())
}

func TestMockProviderFixedID(t *testing.T) {
	p := &MockProvider{FixedID: "doc-7", DefaultRole: clinical.RoleDoctor}

	u, err := p.Login(context.Background(), Credentials{Email: "x@ward.dev", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "doc-7", u.ID)
}

func TestNilSessionIsInvalid(t *testing.T) {
	var sess *Session
	assert.False(t, sess.IsValid())
}
