// Package api is the REST client for the dishly backend. All protected
// calls go through do, which attaches the bearer token and maps a 401 to a
// forced logout.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dishly/dishly/internal/errs"
	"github.com/dishly/dishly/internal/model"
)

// Sessions is the slice of the session store the client needs: token
// attachment on requests and the forced clear on a 401.
type Sessions interface {
	Token() string
	Set(token string, user model.User) error
	Clear()
}

// Client talks to the backend. Listing responses are cached briefly;
// writes flush the affected listing.
type Client struct {
	base     string
	http     *http.Client
	sessions Sessions
	cache    *gocache.Cache
	log      *zap.Logger

	// onUnauthorized is the navigation side effect of a 401 (send the
	// user to the login view). Optional.
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the transport (tests, custom timeouts).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUnauthorizedHook registers the redirect-to-login side effect.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithCacheTTL sets the listing cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = gocache.New(ttl, 2*ttl) }
}

// New builds a client for the given base URL (e.g. "https://api.example.com").
func New(base string, sessions Sessions, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		base:     strings.TrimRight(base, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		sessions: sessions,
		cache:    gocache.New(time.Minute, 2*time.Minute),
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// errorBody is the backend's failure shape.
type errorBody struct {
	Error string `json:"error"`
}

// do performs one JSON request. When a token is present it is attached as
// a bearer header. A 401 clears the session, fires the unauthorized hook,
// and returns errs.ErrUnauthorized; any other non-2xx returns the
// backend's message wrapped around errs.ErrRequestFailed.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.sessions.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Info("backend rejected token, clearing session",
			zap.String("path", path))
		c.sessions.Clear()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("session expired, log in again: %w", errs.ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			return errs.ErrRequestFailed
		}
		return fmt.Errorf("%s: %w", eb.Error, errs.ErrRequestFailed)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// listing serves path from the cache, falling back to the backend.
func (c *Client) listing(ctx context.Context, path string, out any) error {
	if v, ok := c.cache.Get(path); ok {
		b := v.([]byte)
		return json.Unmarshal(b, out)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, out); err != nil {
		return err
	}
	if b, err := json.Marshal(out); err == nil {
		c.cache.Set(path, b, gocache.DefaultExpiration)
	}
	return nil
}

func (c *Client) flush(paths ...string) {
	for _, p := range paths {
		c.cache.Delete(p)
	}
}
