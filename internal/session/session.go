// Package session owns the authentication state of the client: the bearer
// token, the user profile, expiry checking, and change notification,
// including changes made by other processes sharing the same storage.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/dishly/dishly/internal/model"
	"github.com/dishly/dishly/internal/storage"
)

// Event is a session state transition delivered to subscribers.
type Event int

const (
	// Login means a token and profile became available.
	Login Event = iota
	// Logout means the session was cleared, locally or by another process.
	Logout
)

// Store is the single source of truth for "is a user logged in, and as
// whom". In-memory state is canonical; storage is a write-through mirror.
type Store struct {
	storage storage.Store
	log     *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	token string
	user  *model.User

	events chan Event
}

// New hydrates the store from storage. Corrupted stored profile data is
// treated as absent.
func New(st storage.Store, log *zap.Logger) *Store {
	s := &Store{
		storage: st,
		log:     log,
		now:     time.Now,
		events:  make(chan Event, 8),
	}
	if b, found, _ := st.Get(storage.KeyToken); found {
		s.token = string(b)
	}
	s.user = readUser(st, log)
	return s
}

func readUser(st storage.Store, log *zap.Logger) *model.User {
	b, found, _ := st.Get(storage.KeyUser)
	if !found {
		return nil
	}
	var u model.User
	if err := json.Unmarshal(b, &u); err != nil {
		log.Warn("stored profile unreadable, treating as absent", zap.Error(err))
		return nil
	}
	return &u
}

// Set stores token and profile together and persists both.
func (s *Store) Set(token string, user model.User) error {
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	if err := s.storage.Set(storage.KeyToken, []byte(token)); err != nil {
		return err
	}
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.storage.Set(storage.KeyUser, b); err != nil {
		return err
	}
	s.emit(Login)
	return nil
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns a copy of the current profile, or nil when logged out.
func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Clear removes the session from memory and storage. Safe to call when
// already empty; only an actual transition emits Logout.
func (s *Store) Clear() {
	s.mu.Lock()
	had := s.token != "" || s.user != nil
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.storage.Delete(storage.KeyToken); err != nil {
		s.log.Warn("clear token", zap.Error(err))
	}
	if err := s.storage.Delete(storage.KeyUser); err != nil {
		s.log.Warn("clear profile", zap.Error(err))
	}
	if had {
		s.emit(Logout)
	}
}

// IsExpired reports whether the token's exp claim has passed. The payload
// is decoded without signature verification (that is the backend's job).
// Any token that cannot be decoded, or that carries no expiry, counts as
// expired and clears the session.
func (s *Store) IsExpired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		s.log.Debug("token undecodable, treating as expired", zap.Error(err))
		s.Clear()
		return true
	}
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		s.Clear()
		return true
	}
	return false
}

// Valid reports whether a non-expired token is present.
func (s *Store) Valid() bool {
	tok := s.Token()
	return tok != "" && !s.IsExpired(tok)
}

// Events delivers session transitions. Delivery is best-effort: a slow
// subscriber loses events rather than blocking mutations.
func (s *Store) Events() <-chan Event { return s.events }

func (s *Store) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Run observes external storage changes until ctx is done: a token removed
// by another process logs this one out, a token written elsewhere is
// adopted. It blocks, so call it from its own goroutine.
func (s *Store) Run(ctx context.Context) error {
	events, stop, err := s.storage.Watch(ctx)
	if err != nil {
		return err
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Key != storage.KeyToken {
				continue
			}
			s.reconcile(ev.Removed)
		}
	}
}

// reconcile aligns in-memory state with an external token change. Events
// may arrive late or duplicated; only real transitions are propagated.
func (s *Store) reconcile(removed bool) {
	if removed {
		s.mu.Lock()
		had := s.token != "" || s.user != nil
		s.token = ""
		s.user = nil
		s.mu.Unlock()
		if had {
			s.log.Info("session cleared by another process")
			s.emit(Logout)
		}
		return
	}

	b, found, _ := s.storage.Get(storage.KeyToken)
	if !found {
		return
	}
	user := readUser(s.storage, s.log)
	s.mu.Lock()
	changed := s.token != string(b)
	s.token = string(b)
	s.user = user
	s.mu.Unlock()
	if changed {
		s.log.Info("session adopted from another process")
		s.emit(Login)
	}
}
