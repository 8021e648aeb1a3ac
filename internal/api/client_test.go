package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dishly/dishly/internal/errs"
	"github.com/dishly/dishly/internal/model"
)

type fakeSessions struct {
	token   string
	user    *model.User
	cleared bool
}

var _ Sessions = (*fakeSessions)(nil)

func (f *fakeSessions) Token() string { return f.token }

func (f *fakeSessions) Set(token string, user model.User) error {
	f.token = token
	f.user = &user
	return nil
}

func (f *fakeSessions) Clear() {
	f.token = ""
	f.user = nil
	f.cleared = true
}

func newClient(t *testing.T, handler http.Handler, token string) (*Client, *fakeSessions) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	fs := &fakeSessions{token: token}
	return New(srv.URL, fs, zap.NewNop()), fs
}

func TestDo_AttachesBearerHeader(t *testing.T) {
	var gotAuth, gotType string
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`[]`))
	}), "tok-123")

	_, err := c.Orders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}), "")

	_, err := c.Orders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestDo_UnauthorizedClearsSessionAndNotifies(t *testing.T) {
	redirected := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	fs := &fakeSessions{token: "stale"}
	c := New(srv.URL, fs, zap.NewNop(), WithUnauthorizedHook(func() { redirected = true }))

	_, err := c.Orders(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.True(t, fs.cleared)
	assert.Empty(t, fs.token)
	assert.True(t, redirected, "401 must trigger the login redirect")
}

func TestDo_BackendErrorMessage(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}), "")

	_, err := c.Login(context.Background(), "a@b.c", "nope")
	require.ErrorIs(t, err, errs.ErrRequestFailed)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestDo_BackendErrorWithoutBody(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), "tok")

	_, err := c.Orders(context.Background())
	assert.ErrorIs(t, err, errs.ErrRequestFailed)
}

func TestDo_NetworkFailure(t *testing.T) {
	fs := &fakeSessions{}
	c := New("http://127.0.0.1:1", fs, zap.NewNop())

	_, err := c.Orders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
	assert.False(t, fs.cleared, "network failure must not log the user out")
}

func TestLogin_StoresSession(t *testing.T) {
	c, fs := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "a@b.c", creds["email"])
		_ = json.NewEncoder(w).Encode(model.AuthResponse{
			Token: "fresh",
			User:  model.User{ID: "u1", Email: "a@b.c", Role: model.RoleAdmin},
		})
	}), "")

	u, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Equal(t, "fresh", fs.token)
	require.NotNil(t, fs.user)
	assert.Equal(t, "u1", fs.user.ID)
}

func TestListing_CachedUntilWrite(t *testing.T) {
	var hits int32
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/dishes":
			atomic.AddInt32(&hits, 1)
			_, _ = w.Write([]byte(`[{"_id":"d1","title":"Plov","price":12.5,"day":"Monday"}]`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}), "tok")

	ctx := context.Background()
	first, err := c.Dishes(ctx)
	require.NoError(t, err)
	second, err := c.Dishes(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second read served from cache")

	require.NoError(t, c.DeleteDish(ctx, "d1"))
	_, err = c.Dishes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "write flushes the listing cache")
}

func TestCheckout_MintsReference(t *testing.T) {
	var got model.CheckoutRequest
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/checkout", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"order_id":"ord-9"}`))
	}), "tok")

	id, err := c.Checkout(context.Background(), model.CheckoutRequest{
		UserID:   "u1",
		UserInfo: model.OrderInfo{Username: "ann", Address: "street 1", Phone: "555"},
		Items:    []model.CartLine{{ProductID: "A", Day: "Monday", UnitPrice: 10, Quantity: 2}},
		Total:    20,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-9", id)
	assert.NotEmpty(t, got.Reference, "a reference is minted when absent")
	assert.Equal(t, "u1", got.UserID)
}

func TestStats_QueryEscapesEmail(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/dashboard-stats", r.URL.Path)
		assert.Equal(t, "admin+x@b.c", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"dishes":3,"orders":7,"customers":2,"posts":1}`))
	}), "tok")

	s, err := c.Stats(context.Background(), "admin+x@b.c")
	require.NoError(t, err)
	assert.Equal(t, 7, s.Orders)
}
