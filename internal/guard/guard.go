// Package guard gates navigation on session state: protected views require
// a valid token (and optionally a role), auth views bounce users who are
// already logged in.
package guard

import (
	"context"

	"go.uber.org/zap"

	"github.com/dishly/dishly/internal/model"
	"github.com/dishly/dishly/internal/session"
)

// Decision tells the navigation layer what to do with an attempted view.
type Decision int

const (
	// Admit renders the requested view.
	Admit Decision = iota
	// RedirectLogin sends the user to the login view.
	RedirectLogin
	// RedirectLanding sends the user to the authenticated landing view
	// (insufficient privilege, not an error).
	RedirectLanding
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case RedirectLogin:
		return "redirect to login"
	case RedirectLanding:
		return "redirect to landing"
	}
	return "unknown"
}

// Sessions is the slice of the session store the guard consumes.
type Sessions interface {
	Token() string
	User() *model.User
	IsExpired(token string) bool
	Events() <-chan session.Event
}

type Guard struct {
	sessions Sessions
	log      *zap.Logger
}

func New(sessions Sessions, log *zap.Logger) *Guard {
	return &Guard{sessions: sessions, log: log}
}

// RequireAuth admits only a logged-in, non-expired session. With roles
// given, the user's role must be one of them; otherwise the user is sent
// to the landing view.
func (g *Guard) RequireAuth(roles ...model.Role) Decision {
	tok := g.sessions.Token()
	if tok == "" || g.sessions.IsExpired(tok) {
		return RedirectLogin
	}
	if len(roles) == 0 {
		return Admit
	}
	u := g.sessions.User()
	if u == nil {
		return RedirectLogin
	}
	for _, r := range roles {
		if u.Role == r {
			return Admit
		}
	}
	g.log.Debug("role not allowed for view",
		zap.String("role", string(u.Role)))
	return RedirectLanding
}

// RedirectIfAuthenticated bounces an already-valid session away from the
// login/registration views.
func (g *Guard) RedirectIfAuthenticated() Decision {
	tok := g.sessions.Token()
	if tok != "" && !g.sessions.IsExpired(tok) {
		return RedirectLanding
	}
	return Admit
}

// Watch re-evaluates RequireAuth on every session transition (including a
// logout from another process) and reports the new decision until ctx is
// done. It blocks, so call it from its own goroutine.
func (g *Guard) Watch(ctx context.Context, onChange func(Decision), roles ...model.Role) {
	events := g.sessions.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			onChange(g.RequireAuth(roles...))
		}
	}
}
