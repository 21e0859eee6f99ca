package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/errs"
	"portfolio-site/internal/models"
	"portfolio-site/internal/session"
)

const signInFallback = "Sign-in failed. Check your credentials and try again."

type LoginHandler struct {
	auth     backend.Auth
	sessions *session.Store
	logger   zerolog.Logger
}

func NewLoginHandler(auth backend.Auth, sessions *session.Store) *LoginHandler {
	return &LoginHandler{
		auth:     auth,
		sessions: sessions,
		logger:   log.With().Str("handler", "login").Logger(),
	}
}

func (h *LoginHandler) Login(c *gin.Context) {
	sid := session.ID(c)
	var form models.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, sid, "Sign-in failed", signInFallback)
		return
	}

	s, err := h.auth.SignInWithPassword(c.Request.Context(), backend.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		err = errs.NewAuthError("sign in", err)
		h.logger.Info().Err(err).Str("email", form.Email).Msg("sign-in rejected")
		h.fail(c, sid, "Sign-in failed", authMessage(err))
		return
	}

	h.sessions.SignIn(sid, s)
	h.sessions.Notify(sid, session.Notice{
		Kind:        session.NoticeSuccess,
		Title:       "Signed in",
		Description: "You can now edit your portfolio.",
	})
	c.Redirect(http.StatusSeeOther, "/admin")
}

// SignUp registers the credentials. Registration grants no admin access by
// itself; the allow list decides.
func (h *LoginHandler) SignUp(c *gin.Context) {
	sid := session.ID(c)
	var form models.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, sid, "Sign-up failed", "Enter a valid e-mail address and password.")
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), backend.Credentials{Email: form.Email, Password: form.Password}, nil)
	if err != nil {
		err = errs.NewAuthError("sign up", err)
		h.logger.Info().Err(err).Str("email", form.Email).Msg("sign-up rejected")
		h.fail(c, sid, "Sign-up failed", authMessage(err))
		return
	}

	if result.Session == nil {
		h.sessions.Notify(sid, session.Notice{
			Kind:        session.NoticeInfo,
			Title:       "Account created",
			Description: "Confirm your e-mail address, then sign in.",
		})
		c.Redirect(http.StatusSeeOther, "/#login")
		return
	}

	h.sessions.SignIn(sid, result.Session)
	h.sessions.Notify(sid, session.Notice{Kind: session.NoticeSuccess, Title: "Account created"})
	c.Redirect(http.StatusSeeOther, "/admin")
}

func (h *LoginHandler) Logout(c *gin.Context) {
	sid := session.ID(c)
	if s := h.sessions.Session(sid); s != nil {
		if err := h.auth.SignOut(c.Request.Context(), s.AccessToken); err != nil {
			h.logger.Warn().Err(err).Msg("backend sign-out failed")
		}
	}
	h.sessions.SignOut(sid)
	h.sessions.Notify(sid, session.Notice{
		Kind:        session.NoticeInfo,
		Title:       "Signed out",
		Description: "You have been signed out of the admin panel.",
	})
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *LoginHandler) fail(c *gin.Context, sid, title, description string) {
	h.sessions.Notify(sid, session.Notice{Kind: session.NoticeError, Title: title, Description: description})
	c.Redirect(http.StatusSeeOther, "/#login")
}

// authMessage prefers the message supplied by the backend.
func authMessage(err error) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return signInFallback
}
