package session

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dishly/dishly/internal/model"
	"github.com/dishly/dishly/internal/storage"
)

// fakeStorage is an in-memory storage.Store with a controllable event feed.
type fakeStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	events chan storage.Event
}

var _ storage.Store = (*fakeStorage)(nil)

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: map[string][]byte{}, events: make(chan storage.Event, 8)}
}

func (f *fakeStorage) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[key]
	return b, ok, nil
}

func (f *fakeStorage) Set(key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeStorage) Watch(context.Context) (<-chan storage.Event, func(), error) {
	return f.events, func() {}, nil
}

// external mimics another process touching storage directly.
func (f *fakeStorage) external(ev storage.Event, data []byte) {
	f.mu.Lock()
	if ev.Removed {
		delete(f.data, ev.Key)
	} else {
		f.data[ev.Key] = data
	}
	f.mu.Unlock()
	f.events <- ev
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestSetAndReads(t *testing.T) {
	st := newFakeStorage()
	s := New(st, zap.NewNop())

	require.NoError(t, s.Set("tok", model.User{ID: "u1", Username: "ann", Role: model.RoleUser}))
	assert.Equal(t, "tok", s.Token())
	require.NotNil(t, s.User())
	assert.Equal(t, "ann", s.User().Username)

	// both keys persisted together
	b, found, _ := st.Get(storage.KeyToken)
	require.True(t, found)
	assert.Equal(t, "tok", string(b))
	_, found, _ = st.Get(storage.KeyUser)
	assert.True(t, found)

	// a fresh store hydrates the same state
	s2 := New(st, zap.NewNop())
	assert.Equal(t, "tok", s2.Token())
	require.NotNil(t, s2.User())
	assert.Equal(t, "u1", s2.User().ID)
}

func TestUser_CorruptStoredProfile(t *testing.T) {
	st := newFakeStorage()
	require.NoError(t, st.Set(storage.KeyUser, []byte("{not json")))
	require.NoError(t, st.Set(storage.KeyToken, []byte("tok")))

	s := New(st, zap.NewNop())
	assert.Nil(t, s.User(), "corrupt profile reads as nil, never panics")
	assert.Equal(t, "tok", s.Token())
}

func TestClear_Idempotent(t *testing.T) {
	st := newFakeStorage()
	s := New(st, zap.NewNop())
	require.NoError(t, s.Set("tok", model.User{ID: "u1"}))

	s.Clear()
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	_, found, _ := st.Get(storage.KeyToken)
	assert.False(t, found)

	s.Clear() // already empty
	assert.Empty(t, s.Token())
}

func TestIsExpired(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte("not json"))

	cases := []struct {
		name  string
		token string
	}{
		{"past expiry", ""}, // filled below
		{"two segments", "abc.def"},
		{"garbage", "not-a-token"},
		{"non-json payload", "eyJhbGciOiJIUzI1NiJ9." + payload + ".sig"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeStorage()
			s := New(st, zap.NewNop())
			tok := tc.token
			if tok == "" {
				tok = signedToken(t, time.Now().Add(-time.Hour))
			}
			require.NoError(t, s.Set(tok, model.User{ID: "u1"}))

			assert.True(t, s.IsExpired(tok))
			assert.Empty(t, s.Token(), "expired token clears the session")
			assert.Nil(t, s.User())
		})
	}
}

func TestIsExpired_FreshToken(t *testing.T) {
	st := newFakeStorage()
	s := New(st, zap.NewNop())
	tok := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, s.Set(tok, model.User{ID: "u1"}))

	assert.False(t, s.IsExpired(tok))
	assert.Equal(t, tok, s.Token(), "valid token leaves the session alone")
	assert.True(t, s.Valid())
}

func TestIsExpired_MissingExpClaim(t *testing.T) {
	st := newFakeStorage()
	s := New(st, zap.NewNop())
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"}).
		SignedString([]byte("test-key"))
	require.NoError(t, err)

	assert.True(t, s.IsExpired(tok), "a token with no expiry is never treated as valid")
}

func TestRun_ExternalLogout(t *testing.T) {
	st := newFakeStorage()
	s := New(st, zap.NewNop())
	require.NoError(t, s.Set("tok", model.User{ID: "u1"}))
	drain(s.Events())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	st.external(storage.Event{Key: storage.KeyToken, Removed: true}, nil)

	require.Equal(t, Logout, waitEvent(t, s.Events()))
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}

func TestRun_ExternalLogin(t *testing.T) {
	st := newFakeStorage()
	s := New(st, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	st.external(storage.Event{Key: storage.KeyUser}, []byte(`{"id":"u2","role":"admin"}`))
	st.external(storage.Event{Key: storage.KeyToken}, []byte("other-tok"))

	require.Equal(t, Login, waitEvent(t, s.Events()))
	assert.Equal(t, "other-tok", s.Token())
	require.NotNil(t, s.User())
	assert.Equal(t, model.RoleAdmin, s.User().Role)
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for session event")
		return 0
	}
}

func drain(events <-chan Event) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}
