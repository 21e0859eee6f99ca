package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/errs"
	"portfolio-site/internal/models"
	"portfolio-site/internal/repository"
	"portfolio-site/internal/session"
	"portfolio-site/internal/web"
)

// SiteHandler renders the public single page site.
type SiteHandler struct {
	tables       backend.Tables
	sessions     *session.Store
	contactEmail string
	logger       zerolog.Logger
}

func NewSiteHandler(tables backend.Tables, sessions *session.Store, contactEmail string) *SiteHandler {
	return &SiteHandler{
		tables:       tables,
		sessions:     sessions,
		contactEmail: contactEmail,
		logger:       log.With().Str("handler", "site").Logger(),
	}
}

func (h *SiteHandler) Index(c *gin.Context) {
	sid := session.ID(c)
	ctx := c.Request.Context()

	projects, err := repository.NewProjects(h.tables, "").ListAll(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list projects")
		h.sessions.Notify(sid, loadFailed("Could not load projects", err))
		projects = []models.Project{}
	}
	skills, err := repository.NewSkills(h.tables, "").ListAll(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list skills")
		h.sessions.Notify(sid, loadFailed("Could not load skills", err))
		skills = []models.Skill{}
	}

	c.HTML(http.StatusOK, web.SitePage, web.SiteData{
		Notices:      h.sessions.Drain(sid),
		Projects:     projects,
		SkillGroups:  models.GroupSkills(skills),
		SignedIn:     h.sessions.Session(sid) != nil,
		ContactEmail: h.contactEmail,
	})
}

func loadFailed(title string, err error) session.Notice {
	return session.Notice{Kind: session.NoticeError, Title: title, Description: errs.Message(err)}
}
