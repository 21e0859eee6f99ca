package memory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/backend/memory"
)

func TestSignIn(t *testing.T) {
	b := memory.New()
	b.AddUser("admin@example.com", "secret123", nil)
	ctx := context.Background()

	_, err := b.SignInWithPassword(ctx, backend.Credentials{Email: "admin@example.com", Password: "wrong"})
	require.Error(t, err)
	var backendErr *backend.Error
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "Invalid login credentials", backendErr.UserMessage())

	session, err := b.SignInWithPassword(ctx, backend.Credentials{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", session.User.Email)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, 2, b.Calls("signin"))
}

func TestIssuedTokensAreSignedJWTs(t *testing.T) {
	b := memory.New(memory.WithJWTSecret("test-secret-key-for-jwt-signing-must-be-long-enough"))
	b.AddUser("admin@example.com", "secret123", map[string]interface{}{"role": "admin"})

	session, err := b.IssueSession("admin@example.com")
	require.NoError(t, err)

	token, err := jwt.Parse(session.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret-key-for-jwt-signing-must-be-long-enough"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin@example.com", claims["email"])
	assert.Equal(t, "admin", claims["app_metadata"].(map[string]interface{})["role"])
}

func TestRefreshRotatesTokens(t *testing.T) {
	b := memory.New()
	b.AddUser("admin@example.com", "secret123", nil)
	ctx := context.Background()

	first, err := b.IssueSession("admin@example.com")
	require.NoError(t, err)

	second, err := b.RefreshSession(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = b.RefreshSession(ctx, first.RefreshToken)
	assert.Error(t, err)
}

func TestSignOutRevokesAccessToken(t *testing.T) {
	b := memory.New()
	b.AddUser("admin@example.com", "secret123", nil)
	ctx := context.Background()
	session, err := b.IssueSession("admin@example.com")
	require.NoError(t, err)

	require.NoError(t, b.SignOut(ctx, session.AccessToken))

	_, err = b.Table("projects", session.AccessToken).Insert(ctx, map[string]interface{}{"title": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT expired")
}

func TestAnonymousWritesAreRejected(t *testing.T) {
	b := memory.New()
	_, err := b.Table("skills", "").Insert(context.Background(), map[string]interface{}{"name": "Go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row-level security")
}

func TestTableCRUD(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	b := memory.New(memory.WithClock(func() time.Time { return start }))
	b.AddUser("admin@example.com", "secret123", nil)
	session, err := b.IssueSession("admin@example.com")
	require.NoError(t, err)
	ctx := context.Background()
	skills := b.Table("skills", session.AccessToken)

	_, err = skills.Insert(ctx, map[string]interface{}{"name": "Go", "category": "Backend"})
	require.NoError(t, err)
	_, err = skills.Insert(ctx, map[string]interface{}{"name": "CSS", "category": "Frontend"})
	require.NoError(t, err)

	data, err := skills.Select(ctx, "*", backend.Order{Column: "name", Ascending: true})
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "CSS", rows[0]["name"])
	assert.NotEmpty(t, rows[0]["id"])
	assert.NotEqual(t, rows[0]["created_at"], rows[1]["created_at"])

	data, err = skills.Update(ctx, map[string]interface{}{"name": "Golang"}, "id", "missing")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	id := rows[1]["id"].(string)
	data, err = skills.Update(ctx, map[string]interface{}{"name": "Golang"}, "id", id)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Golang")

	_, err = skills.Delete(ctx, "id", id)
	require.NoError(t, err)
	assert.Len(t, b.Rows("skills"), 1)
}

func TestSeedOrdersProjectsNewestFirst(t *testing.T) {
	b := memory.New()
	b.Seed()

	data, err := b.Table("projects", "").Select(context.Background(), "title,created_at", backend.Order{Column: "created_at"})
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "E-commerce Dashboard", rows[0]["title"])
	assert.NotContains(t, rows[0], "description")
}

func TestFailInjection(t *testing.T) {
	b := memory.New()
	b.Fail("select:projects", &backend.Error{Op: "select", Message: "boom"})

	_, err := b.Table("projects", "").Select(context.Background(), "*", backend.Order{})
	assert.EqualError(t, err, "select: boom")

	b.Fail("select:projects", nil)
	_, err = b.Table("projects", "").Select(context.Background(), "*", backend.Order{})
	assert.NoError(t, err)
}
