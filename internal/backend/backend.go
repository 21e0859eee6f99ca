// Package backend describes the contract the portfolio expects from the
// hosted backend: password auth, sessions and table scoped CRUD.
package backend

import (
	"context"
	"fmt"
	"time"
)

type User struct {
	ID           string
	Email        string
	UserMetadata map[string]interface{}
	AppMetadata  map[string]interface{}
}

// Role returns the server controlled app_metadata.role claim, if any.
func (u User) Role() string {
	if u.AppMetadata == nil {
		return ""
	}
	role, _ := u.AppMetadata["role"].(string)
	return role
}

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the access token is no longer usable at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type Credentials struct {
	Email    string
	Password string
}

// SignUpResult carries the new user. Session is nil when the backend
// requires e-mail confirmation before the first sign-in.
type SignUpResult struct {
	User    User
	Session *Session
}

type Auth interface {
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)
	SignUp(ctx context.Context, creds Credentials, data map[string]interface{}) (*SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
}

type Order struct {
	Column    string
	Ascending bool
}

// Table is scoped to one named table. Every method returns the JSON array
// the backend answered with.
type Table interface {
	Select(ctx context.Context, columns string, order Order) ([]byte, error)
	Insert(ctx context.Context, row interface{}) ([]byte, error)
	Update(ctx context.Context, row interface{}, idColumn, id string) ([]byte, error)
	Delete(ctx context.Context, idColumn, id string) ([]byte, error)
}

// Tables hands out table clients. An empty accessToken means anonymous
// access with the publishable key.
type Tables interface {
	Table(name, accessToken string) Table
}

// Error is the uniform {error} shape of every backend call.
type Error struct {
	Op      string
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// UserMessage is the backend supplied text shown in notifications.
func (e *Error) UserMessage() string {
	return e.Message
}
