package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/models"
	"portfolio-site/internal/session"
)

const (
	SessionKey     = "backend_session"
	AccessTokenKey = "access_token"
	UserIDKey      = "user_id"
)

// RequireAdmin gates browser routes. Rejected visitors are redirected to
// the public site with a notice explaining why.
func RequireAdmin(guard *Guard, sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := session.ID(c)
		decision := guard.Check(c.Request.Context(), sid)
		if decision.State == Authorized {
			c.Set(SessionKey, decision.Session)
			c.Set(AccessTokenKey, decision.Session.AccessToken)
			c.Set(UserIDKey, decision.Session.User.ID)
			c.Next()
			return
		}

		sessions.Notify(sid, RejectionNotice(decision))
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	}
}

// RejectionNotice explains an Unauthorized decision to the visitor.
func RejectionNotice(decision Decision) session.Notice {
	if decision.Reason == ReasonSessionRejected {
		return session.Notice{
			Kind:        session.NoticeError,
			Title:       "Access denied",
			Description: "This account is not allowed to manage the portfolio. You have been signed out.",
		}
	}
	return session.Notice{
		Kind:        session.NoticeError,
		Title:       "You are not logged in",
		Description: "Sign in to open the admin panel.",
	}
}

// RequireAdminToken gates JSON API writes with a bearer access token. The
// token is kept in the context so backend calls run as the caller.
func RequireAdminToken(verifier *TokenVerifier, allow AllowList) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid authorization header format"})
			return
		}

		if !verifier.Enabled() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   "token auth unavailable",
				Message: ErrVerifierDisabled.Error(),
			})
			return
		}

		claims, err := verifier.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid token", Message: err.Error()})
			return
		}

		if !allow.Allows(claims.User()) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "forbidden", Message: "administrator access required"})
			return
		}

		c.Set(AccessTokenKey, strings.TrimSpace(parts[1]))
		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// SessionFrom returns the session RequireAdmin attached, if any.
func SessionFrom(c *gin.Context) *backend.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*backend.Session)
	return s
}

func AccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}
