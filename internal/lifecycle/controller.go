package lifecycle

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/auralis-health/clinical-console/internal/clinical"
	"github.com/auralis-health/clinical-console/internal/session"
)

var (
	ErrReasonRequired     = errors.New("cancellation requires a non-empty reason")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrTransitionInFlight = errors.New("a transition for this session is already in flight")
	ErrNotAuthorized      = errors.New("actor role may not transition sessions")
)

// SessionAPI is the slice of the backend client the controller needs.
type SessionAPI interface {
	UpdateSession(ctx context.Context, id string, upd clinical.SessionUpdate) (*clinical.Session, error)
}

// Invalidator is notified after every successful transition so the owning
// roster re-reads from the backend instead of patching local state.
type Invalidator interface {
	Invalidate()
}

// Controller drives one actor's session transitions. It never mutates a
// session locally: the backend is the sole source of truth and the roster
// reconciles by re-fetching.
type Controller struct {
	api    SessionAPI
	sess   *session.Session
	roster Invalidator
	log    zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewController(api SessionAPI, sess *session.Session, roster Invalidator, log zerolog.Logger) *Controller {
	return &Controller{
		api:      api,
		sess:     sess,
		roster:   roster,
		log:      log.With().Str("component", "lifecycle").Logger(),
		inflight: make(map[string]struct{}),
	}
}

func (c *Controller) Approve(ctx context.Context, s clinical.Session) error {
	return c.transition(ctx, s, clinical.StatusApproved, "", false)
}

func (c *Controller) Complete(ctx context.Context, s clinical.Session) error {
	return c.transition(ctx, s, clinical.StatusCompleted, "", false)
}

// Cancel requires a non-empty reason and rejects locally, before any I/O,
// when it is missing.
func (c *Controller) Cancel(ctx context.Context, s clinical.Session, reason string) error {
	return c.transition(ctx, s, clinical.StatusCancelled, reason, false)
}

// Reopen forces a session back to Pending from any state. This is the
// explicit administrative override; it clears any cancellation reason on the
// backend.
func (c *Controller) Reopen(ctx context.Context, s clinical.Session) error {
	return c.transition(ctx, s, clinical.StatusPending, "", true)
}

func (c *Controller) transition(ctx context.Context, s clinical.Session, to clinical.Status, reason string, override bool) error {
	if !c.sess.IsValid() {
		return session.ErrNotLoggedIn
	}
	if role := c.sess.User.Role; role != clinical.RoleDoctor && role != clinical.RoleAdmin {
		return ErrNotAuthorized
	}

	if to == clinical.StatusCancelled && strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	if !override && !Allowed(s.Status, to) {
		return ErrInvalidTransition
	}

	if err := c.acquire(s.ID); err != nil {
		return err
	}
	defer c.release(s.ID)

	upd := clinical.SessionUpdate{Status: to}
	if to == clinical.StatusCancelled {
		upd.CancellationReason = &reason
	}

	if _, err := c.api.UpdateSession(ctx, s.ID, upd); err != nil {
		c.log.Warn().Err(err).Str("session_id", s.ID).Str("target", string(to)).Msg("transition failed")
		return err
	}

	c.log.Info().Str("session_id", s.ID).
		Str("from", string(s.Status)).Str("to", string(to)).
		Msg("session transitioned")

	if c.roster != nil {
		c.roster.Invalidate()
	}
	return nil
}

// acquire enforces at most one in-flight transition per session.
func (c *Controller) acquire(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return ErrTransitionInFlight
	}
	c.inflight[id] = struct{}{}
	return nil
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}
