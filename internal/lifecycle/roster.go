package lifecycle

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/auralis-health/clinical-console/internal/clinical"
	"github.com/auralis-health/clinical-console/internal/session"
)

// RosterAPI is the read side the roster needs from the backend client.
type RosterAPI interface {
	ListSessions(ctx context.Context, userID, role string) ([]clinical.Session, error)
}

// Roster is the role-scoped session list for one actor. It caches the last
// successful fetch; Invalidate marks the cache stale so the next Load
// re-reads from the backend. It satisfies Invalidator for the controller.
type Roster struct {
	api  RosterAPI
	sess *session.Session
	log  zerolog.Logger

	// onChange, when set, is called after each invalidation so a consuming
	// view can schedule a re-read.
	onChange func()

	mu       sync.Mutex
	sessions []clinical.Session
	loaded   bool
	stale    bool
}

func NewRoster(api RosterAPI, sess *session.Session, log zerolog.Logger) *Roster {
	return &Roster{api: api, sess: sess, log: log.With().Str("component", "roster").Logger()}
}

// OnChange registers the invalidation subscriber. Must be set before the
// roster is shared across goroutines.
func (r *Roster) OnChange(fn func()) { r.onChange = fn }

// Load returns the cached roster, fetching from the backend when the cache
// is empty or stale.
func (r *Roster) Load(ctx context.Context) ([]clinical.Session, error) {
	if !r.sess.IsValid() {
		return nil, session.ErrNotLoggedIn
	}

	r.mu.Lock()
	if r.loaded && !r.stale {
		cached := r.sessions
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	return r.Refresh(ctx)
}

// Refresh always re-reads from the backend.
func (r *Roster) Refresh(ctx context.Context) ([]clinical.Session, error) {
	if !r.sess.IsValid() {
		return nil, session.ErrNotLoggedIn
	}

	sessions, err := r.api.ListSessions(ctx, r.sess.User.ID, r.sess.User.Role)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions = sessions
	r.loaded = true
	r.stale = false
	r.mu.Unlock()

	r.log.Debug().Int("count", len(sessions)).Msg("roster refreshed")
	return sessions, nil
}

// Invalidate marks the cached roster stale and notifies the subscriber.
func (r *Roster) Invalidate() {
	r.mu.Lock()
	r.stale = true
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange()
	}
}

// Get returns the session with the given id from the cached roster.
func (r *Roster) Get(id string) (clinical.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return clinical.Session{}, false
}
