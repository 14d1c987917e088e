// Package session reconciles the live remote auth session with a durable
// local mirror, so the UI can render a plausible identity while offline.
// The mirror is display-only; it never authorizes anything.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/glamflow/offline-sync/cache"
	"github.com/glamflow/offline-sync/connectivity"
	"github.com/glamflow/offline-sync/storage"
	"github.com/glamflow/offline-sync/types"
)

// Durable store keys for the session mirror. Both are written together and
// erased together.
const (
	SessionKey = "supabase-session"
	UserKey    = "supabase-user"
)

// State is the auth state machine's current state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// AuthRemote is the slice of the backend client the store needs.
// *remote.Client satisfies it.
type AuthRemote interface {
	CurrentSession(ctx context.Context) (*types.Session, *types.User, error)
	SignOut(ctx context.Context) error
}

// QueueClearer lets sign-out drop pending offline actions without this
// package importing the queue.
type QueueClearer interface {
	Clear(ctx context.Context) error
}

// Options configures a Store.
type Options struct {
	// Remote is the auth service client. Required.
	Remote AuthRemote

	// Durable is the store holding the session mirror. Required.
	Durable storage.Store

	// Monitor reports connectivity; used to gate background reconciling
	// and exposed through Online(). Required.
	Monitor *connectivity.Monitor

	// Spaces, when set, is purged whenever the state machine enters
	// Unauthenticated, so no per-user API data survives into the next
	// session on this device.
	Spaces *cache.Manager

	// Queue, when set, is cleared on explicit sign-out.
	Queue QueueClearer

	// Logger is the logger for debug logging. If nil, defaults to no-op.
	Logger types.Logger
}

// Store is the connectivity-aware session store.
type Store struct {
	remote  AuthRemote
	durable storage.Store
	monitor *connectivity.Monitor
	spaces  *cache.Manager
	queue   QueueClearer
	logger  types.Logger

	mu      sync.RWMutex
	state   State
	session *types.Session
	user    *types.User
}

// New creates the store in the Unauthenticated state. Call Init to pick up
// an existing remote session.
func New(opts Options) (*Store, error) {
	if opts.Remote == nil || opts.Durable == nil || opts.Monitor == nil {
		return nil, errors.New("session: remote, durable store and monitor are required")
	}
	if opts.Logger == nil {
		opts.Logger = types.NewNoOpLogger()
	}
	return &Store{
		remote:  opts.Remote,
		durable: opts.Durable,
		monitor: opts.Monitor,
		spaces:  opts.Spaces,
		queue:   opts.Queue,
		logger:  opts.Logger,
	}, nil
}

// Init asks the auth service who is logged in. An unreachable service
// leaves the store Unauthenticated rather than trusting the mirror: the
// mirror is convenience data, not a trust anchor. The mirror itself is left
// in place for MirroredIdentity.
func (s *Store) Init(ctx context.Context) error {
	session, user, err := s.remote.CurrentSession(ctx)
	if err != nil {
		s.logger.Warn("session: auth service unreachable, staying unauthenticated", "error", err)
		return nil
	}
	if session == nil {
		s.toUnauthenticated(ctx, false)
		return nil
	}
	s.SetSession(ctx, session, user)
	return nil
}

// SetSession records a session reported by the remote auth service and
// mirrors it durably. A nil session means the service reported "no
// session" (e.g. token expiry found during a background check).
func (s *Store) SetSession(ctx context.Context, session *types.Session, user *types.User) {
	if session == nil {
		s.toUnauthenticated(ctx, false)
		return
	}

	s.mu.Lock()
	s.state = Authenticated
	s.session = session
	s.user = user
	s.mu.Unlock()

	s.writeMirror(ctx, session, user)
	s.logger.Info("session: authenticated", "user", session.UserID)
}

// SignOut explicitly ends the session: remote sign-out, mirror erased,
// cache spaces purged, offline queue cleared.
func (s *Store) SignOut(ctx context.Context) error {
	var remoteErr error
	if s.monitor.Online() {
		remoteErr = s.remote.SignOut(ctx)
	}

	s.toUnauthenticated(ctx, true)
	return remoteErr
}

// toUnauthenticated runs the Unauthenticated entry side effects: erase the
// mirror and purge the cache spaces. clearQueue is true only for explicit
// sign-out.
func (s *Store) toUnauthenticated(ctx context.Context, clearQueue bool) {
	s.mu.Lock()
	s.state = Unauthenticated
	s.session = nil
	s.user = nil
	s.mu.Unlock()

	if err := s.durable.Delete(ctx, SessionKey); err != nil {
		s.logger.Warn("session: could not erase session mirror", "error", err)
	}
	if err := s.durable.Delete(ctx, UserKey); err != nil {
		s.logger.Warn("session: could not erase user mirror", "error", err)
	}
	if s.spaces != nil {
		if err := s.spaces.Purge(ctx); err != nil {
			s.logger.Warn("session: cache purge failed", "error", err)
		}
	}
	if clearQueue && s.queue != nil {
		if err := s.queue.Clear(ctx); err != nil {
			s.logger.Warn("session: queue clear failed", "error", err)
		}
	}
	s.logger.Info("session: unauthenticated")
}

// State reports the auth state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns the live session and user, or nils when unauthenticated.
func (s *Store) Current() (*types.Session, *types.User) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.user
}

// Online reports the connectivity sub-state. It is tracked independently of
// the auth state machine and never transitions it.
func (s *Store) Online() bool {
	return s.monitor.Online()
}

// MirroredIdentity reads the durable mirror: the last identity the auth
// service reported, for offline display. Corrupt or absent mirror data is
// reported as no identity, never as an error.
func (s *Store) MirroredIdentity(ctx context.Context) (*types.Session, *types.User) {
	var session *types.Session
	if data, err := s.durable.Get(ctx, SessionKey); err == nil {
		if jsonErr := json.Unmarshal(data, &session); jsonErr != nil {
			s.logger.Warn("session: unreadable session mirror", "error", jsonErr)
			session = nil
		}
	}
	if session == nil {
		return nil, nil
	}

	var user *types.User
	if data, err := s.durable.Get(ctx, UserKey); err == nil {
		if jsonErr := json.Unmarshal(data, &user); jsonErr != nil {
			s.logger.Warn("session: unreadable user mirror", "error", jsonErr)
			user = nil
		}
	}
	return session, user
}

// writeMirror persists the session and user for offline reads. Best-effort:
// a failed write only degrades offline identity display.
func (s *Store) writeMirror(ctx context.Context, session *types.Session, user *types.User) {
	if data, err := json.Marshal(session); err == nil {
		if err := s.durable.Set(ctx, SessionKey, data); err != nil {
			s.logger.Warn("session: could not write session mirror", "error", err)
		}
	}
	if user == nil {
		return
	}
	if data, err := json.Marshal(user); err == nil {
		if err := s.durable.Set(ctx, UserKey, data); err != nil {
			s.logger.Warn("session: could not write user mirror", "error", err)
		}
	}
}
