// Package auth decides who may use the admin panel.
package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/errs"
	"portfolio-site/internal/session"
)

type State int

const (
	CheckingAuth State = iota
	Unauthorized
	Authorized
)

func (s State) String() string {
	switch s {
	case CheckingAuth:
		return "checking_auth"
	case Unauthorized:
		return "unauthorized"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNotLoggedIn     Reason = "not_logged_in"
	ReasonSessionRejected Reason = "session_rejected"
	// ReasonSignedOut means the session ended on its own terms (logout, or
	// a rejection already reported elsewhere). Nothing needs explaining.
	ReasonSignedOut       Reason = "signed_out"
)

type Decision struct {
	State   State
	Reason  Reason
	Session *backend.Session
	Err     error
}

// AllowList is the set of identities allowed into the admin panel: exact
// e-mail matches, or a server controlled app_metadata.role when Role is set.
type AllowList struct {
	Emails []string
	Role   string
}

func (a AllowList) Allows(user backend.User) bool {
	for _, email := range a.Emails {
		if user.Email == email {
			return true
		}
	}
	return a.Role != "" && user.Role() == a.Role
}

type Guard struct {
	auth     backend.Auth
	sessions *session.Store
	allow    AllowList
	now      func() time.Time
	logger   zerolog.Logger
}

func NewGuard(auth backend.Auth, sessions *session.Store, allow AllowList) *Guard {
	return &Guard{
		auth:     auth,
		sessions: sessions,
		allow:    allow,
		now:      time.Now,
		logger:   log.With().Str("component", "guard").Logger(),
	}
}

// WithClock replaces time.Now for expiry checks.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

func (g *Guard) AllowList() AllowList {
	return g.allow
}

// Check resolves the browser session sid to Authorized or Unauthorized.
// An expired access token gets one refresh attempt. A session for an
// identity outside the allow list is signed out at the backend.
func (g *Guard) Check(ctx context.Context, sid string) Decision {
	current := g.sessions.Session(sid)
	if current == nil {
		return Decision{State: Unauthorized, Reason: ReasonNotLoggedIn}
	}

	if current.Expired(g.now()) {
		var failed *Decision
		g.sessions.Exclusive(sid, func() { current, failed = g.refresh(ctx, sid) })
		if failed != nil {
			return *failed
		}
	}

	if !g.allow.Allows(current.User) {
		return g.reject(ctx, sid, current)
	}
	return Decision{State: Authorized, Session: current}
}

// Watch follows auth state changes of sid until ctx is done or the session
// stops being authorized. onChange sees every decision, the last one being
// Unauthorized unless ctx ended first.
func (g *Guard) Watch(ctx context.Context, sid string, onChange func(Decision)) {
	events, unsubscribe := g.sessions.Broker().Subscribe(sid)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Session == nil {
				reason := ReasonNotLoggedIn
				if ev.Type == session.SignedOut {
					reason = ReasonSignedOut
				}
				onChange(Decision{State: Unauthorized, Reason: reason})
				return
			}
			if !g.allow.Allows(ev.Session.User) {
				onChange(g.reject(ctx, sid, ev.Session))
				return
			}
			onChange(Decision{State: Authorized, Session: ev.Session})
		}
	}
}

// refresh renews the expired session of sid. It runs under the session
// lock, so requests racing on one expired session refresh it once and the
// rest pick up the result.
func (g *Guard) refresh(ctx context.Context, sid string) (*backend.Session, *Decision) {
	latest := g.sessions.Session(sid)
	if latest == nil {
		return nil, &Decision{State: Unauthorized, Reason: ReasonNotLoggedIn}
	}
	if !latest.Expired(g.now()) {
		return latest, nil
	}

	refreshed, err := g.auth.RefreshSession(ctx, latest.RefreshToken)
	if err != nil {
		g.logger.Info().Err(err).Str("email", latest.User.Email).Msg("session refresh failed")
		g.sessions.SignOut(sid)
		return nil, &Decision{State: Unauthorized, Reason: ReasonNotLoggedIn, Err: errs.NewAuthError("refresh", err)}
	}
	g.sessions.Refresh(sid, refreshed)
	return refreshed, nil
}

func (g *Guard) reject(ctx context.Context, sid string, s *backend.Session) Decision {
	g.logger.Warn().Str("email", s.User.Email).Msg("rejecting non-admin session")
	if err := g.auth.SignOut(ctx, s.AccessToken); err != nil {
		g.logger.Error().Err(err).Msg("forced sign-out failed")
	}
	g.sessions.SignOut(sid)
	return Decision{
		State:  Unauthorized,
		Reason: ReasonSessionRejected,
		Err:    &errs.SessionRejected{Email: s.User.Email},
	}
}
