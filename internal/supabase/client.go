package supabase

import (
	"context"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/config"
)

const restPath = "/rest/v1"

// Client adapts supabase-go to the backend contract. Anonymous reads go
// through the shared client, signed in calls get a per-token client so
// row-level security sees the caller.
type Client struct {
	Supabase *supabase.Client
	Config   *config.Config

	restURL string
}

var (
	_ backend.Auth   = (*Client)(nil)
	_ backend.Tables = (*Client)(nil)
)

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
		restURL:  strings.TrimSuffix(cfg.SupabaseURL, "/") + restPath,
	}, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, creds backend.Credentials) (*backend.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token, err := c.Supabase.Auth.SignInWithEmailPassword(creds.Email, creds.Password)
	if err != nil {
		return nil, wrapError("signin", err)
	}
	return toSession(token.Session), nil
}

func (c *Client) SignUp(ctx context.Context, creds backend.Credentials, data map[string]interface{}) (*backend.SignUpResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.Supabase.Auth.Signup(types.SignupRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Data:     data,
	})
	if err != nil {
		return nil, wrapError("signup", err)
	}

	// Without auto-confirm the response carries no access token, only the
	// pending user.
	if resp.Session.AccessToken == "" {
		return &backend.SignUpResult{User: toUser(resp.User)}, nil
	}
	session := toSession(resp.Session)
	return &backend.SignUpResult{User: session.User, Session: session}, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Supabase.Auth.WithToken(accessToken).Logout(); err != nil {
		return wrapError("signout", err)
	}
	return nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*backend.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token, err := c.Supabase.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, wrapError("refresh", err)
	}
	return toSession(token.Session), nil
}

// Table returns a PostgREST client for name. With an access token the
// request runs as that user.
func (c *Client) Table(name, accessToken string) backend.Table {
	if accessToken == "" {
		return &table{name: name, from: func() *postgrest.QueryBuilder { return c.Supabase.From(name) }}
	}
	return &table{name: name, from: func() *postgrest.QueryBuilder {
		rest := postgrest.NewClient(c.restURL, "public", map[string]string{
			"apikey": c.Config.SupabasePublishableKey,
		})
		return rest.SetAuthToken(accessToken).From(name)
	}}
}

func toSession(s types.Session) *backend.Session {
	session := &backend.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         toUser(s.User),
	}
	switch {
	case s.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(int64(s.ExpiresAt), 0)
	case s.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return session
}

func toUser(u types.User) backend.User {
	return backend.User{
		ID:           u.ID.String(),
		Email:        u.Email,
		UserMetadata: u.UserMetadata,
		AppMetadata:  u.AppMetadata,
	}
}
