package session

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	contextKey = "session_id"
	idKey      = "sid"
)

// Cookies installs the signed cookie that carries the browser session id.
// Everything else about the session stays on the server in Store.
func Cookies(name string, secret []byte, secure bool) gin.HandlerFunc {
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(name, store)
}

// Middleware attaches a browser session to every request, issuing a new id
// when the visitor has none, the cookie fails verification or the old
// session expired. It must run after Cookies.
func Middleware(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := sessions.Default(c)
		id, _ := cookie.Get(idKey).(string)
		if id == "" || !store.Touch(id) {
			id = store.Create()
			cookie.Set(idKey, id)
			if err := cookie.Save(); err != nil {
				log.Error().Err(err).Msg("failed to save session cookie")
			}
		}
		c.Set(contextKey, id)
		c.Next()
	}
}

// ID returns the browser session id attached by Middleware.
func ID(c *gin.Context) string {
	return c.GetString(contextKey)
}
