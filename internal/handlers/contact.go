package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"portfolio-site/internal/models"
	"portfolio-site/internal/services"
	"portfolio-site/internal/session"
)

type ContactHandler struct {
	mailer   services.Mailer
	sessions *session.Store
}

func NewContactHandler(mailer services.Mailer, sessions *session.Store) *ContactHandler {
	return &ContactHandler{mailer: mailer, sessions: sessions}
}

func (h *ContactHandler) Submit(c *gin.Context) {
	sid := session.ID(c)
	var form models.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		h.sessions.Notify(sid, session.Notice{
			Kind:        session.NoticeError,
			Title:       "Message not sent",
			Description: "Fill in your name, a valid e-mail address and a message.",
		})
		c.Redirect(http.StatusSeeOther, "/#contact")
		return
	}

	if err := h.mailer.Send(c.Request.Context(), form); err != nil {
		log.Error().Err(err).Msg("failed to deliver contact message")
		h.sessions.Notify(sid, session.Notice{
			Kind:        session.NoticeError,
			Title:       "Message not sent",
			Description: "Sorry, there was an error sending your message. Please try again later.",
		})
		c.Redirect(http.StatusSeeOther, "/#contact")
		return
	}

	h.sessions.Notify(sid, session.Notice{
		Kind:        session.NoticeSuccess,
		Title:       "Message has been sent!",
		Description: "Thank you for contacting me. I will respond as soon as possible.",
	})
	c.Redirect(http.StatusSeeOther, "/#contact")
}
