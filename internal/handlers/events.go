package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/session"
)

const keepAliveInterval = 25 * time.Second

// EventsHandler streams auth state changes of the browser session to the
// open admin page as server-sent events. A "redirect" event tells the page
// to leave.
type EventsHandler struct {
	guard     *auth.Guard
	sessions  *session.Store
	keepAlive time.Duration
}

func NewEventsHandler(guard *auth.Guard, sessions *session.Store) *EventsHandler {
	return &EventsHandler{guard: guard, sessions: sessions, keepAlive: keepAliveInterval}
}

func (h *EventsHandler) Stream(c *gin.Context) {
	sid := session.ID(c)
	ctx := c.Request.Context()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	decision := h.guard.Check(ctx, sid)
	if decision.State != auth.Authorized {
		h.sessions.Notify(sid, auth.RejectionNotice(decision))
		c.SSEvent("redirect", "/")
		c.Writer.Flush()
		return
	}

	decisions := make(chan auth.Decision, 1)
	go h.guard.Watch(ctx, sid, func(d auth.Decision) {
		select {
		case decisions <- d:
		case <-ctx.Done():
		}
	})

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.SSEvent("session", decision.State.String())
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case d := <-decisions:
			if d.State != auth.Authorized {
				if d.Reason != auth.ReasonSignedOut {
					h.sessions.Notify(sid, auth.RejectionNotice(d))
				}
				c.SSEvent("redirect", "/")
				return false
			}
			c.SSEvent("session", d.State.String())
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
