package session

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

// MockProvider accepts any non-empty credentials and mints a doctor identity
// from the email local part. It stands in for the real identity backend in
// development and tests.
type MockProvider struct {
	DefaultRole string // defaults to Doctor
	FixedID     string // when set, every login gets this id instead of a random one
}

func (p *MockProvider) role() string {
	if p.DefaultRole == "" {
		return clinical.RoleDoctor
	}
	return p.DefaultRole
}

func (p *MockProvider) Login(_ context.Context, creds Credentials) (clinical.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return clinical.User{}, ErrInvalidCredentials
	}
	id := p.FixedID
	if id == "" {
		id = uuid.NewString()
	}
	return clinical.User{
		ID:    id,
		Name:  displayName(creds.Email),
		Email: creds.Email,
		Role:  p.role(),
	}, nil
}

func (p *MockProvider) Register(_ context.Context, reg Registration) (clinical.User, error) {
	if reg.Email == "" || reg.Password == "" {
		return clinical.User{}, ErrInvalidCredentials
	}
	role := reg.Role
	if role == "" {
		role = p.role()
	}
	name := reg.Name
	if name == "" {
		name = displayName(reg.Email)
	}
	return clinical.User{ID: uuid.NewString(), Name: name, Email: reg.Email, Role: role}, nil
}

func (p *MockProvider) Logout(context.Context, clinical.User) error { return nil }

func displayName(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	if local == "" {
		return "Clinician"
	}
	return strings.ToUpper(local[:1]) + local[1:]
}
