package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/models"
	"portfolio-site/internal/services"
	"portfolio-site/internal/session"
	"portfolio-site/internal/web"
)

const (
	panelKey      = "admin_panel"
	panelFreshKey = "admin_panel_fresh"
)

// AdminHandler serves the admin panel. Routes are behind auth.RequireAdmin.
// Form posts update the panel kept in the browser session and redirect back
// to GET /admin, which shows that panel once before listing again.
type AdminHandler struct {
	panels   *services.PanelService
	sessions *session.Store
	logger   zerolog.Logger
}

func NewAdminHandler(panels *services.PanelService, sessions *session.Store) *AdminHandler {
	return &AdminHandler{
		panels:   panels,
		sessions: sessions,
		logger:   log.With().Str("handler", "admin").Logger(),
	}
}

// Show renders the panel. Requests of one browser session take turns on
// the stored panel.
func (h *AdminHandler) Show(c *gin.Context) {
	sid := session.ID(c)
	h.sessions.Exclusive(sid, func() { h.show(c, sid) })
}

func (h *AdminHandler) show(c *gin.Context, sid string) {
	panel, fresh := h.storedPanel(sid)
	if panel == nil || !fresh {
		var err error
		if panel, err = h.openPanel(c); err != nil {
			h.abort(c, err)
			return
		}
	}
	panel.SetTab(c.Query("tab"))
	h.sessions.SetValue(sid, panelKey, panel)
	h.sessions.SetValue(sid, panelFreshKey, false)

	s := auth.SessionFrom(c)
	c.HTML(http.StatusOK, web.AdminPage, web.AdminData{
		Notices:       h.sessions.Drain(sid),
		Email:         s.User.Email,
		Tab:           panel.Tab,
		Projects:      panel.Projects,
		Skills:        panel.Skills,
		ImagesEnabled: h.panels.ImagesEnabled(),
	})
}

func (h *AdminHandler) CreateProject(c *gin.Context) {
	var form models.ProjectForm
	if err := c.ShouldBind(&form); err != nil {
		h.invalidForm(c, services.TabProjects, err)
		return
	}
	image, err := h.imageUpload(c)
	if err != nil {
		h.invalidForm(c, services.TabProjects, err)
		return
	}
	h.mutate(c, func(p *services.Panel, token string, notify services.Notifier) error {
		return h.panels.CreateProject(c.Request.Context(), p, token, form.Fields(), image, notify)
	})
}

func (h *AdminHandler) UpdateProject(c *gin.Context) {
	var form models.ProjectForm
	if err := c.ShouldBind(&form); err != nil {
		h.invalidForm(c, services.TabProjects, err)
		return
	}
	image, err := h.imageUpload(c)
	if err != nil {
		h.invalidForm(c, services.TabProjects, err)
		return
	}
	id := c.Param("id")
	h.mutate(c, func(p *services.Panel, token string, notify services.Notifier) error {
		return h.panels.UpdateProject(c.Request.Context(), p, token, id, form.Fields(), image, notify)
	})
}

func (h *AdminHandler) DeleteProject(c *gin.Context) {
	id := c.Param("id")
	h.mutate(c, func(p *services.Panel, token string, notify services.Notifier) error {
		return h.panels.DeleteProject(c.Request.Context(), p, token, id, notify)
	})
}

func (h *AdminHandler) CreateSkill(c *gin.Context) {
	var form models.SkillForm
	if err := c.ShouldBind(&form); err != nil {
		h.invalidForm(c, services.TabSkills, err)
		return
	}
	h.mutate(c, func(p *services.Panel, token string, notify services.Notifier) error {
		return h.panels.CreateSkill(c.Request.Context(), p, token, form.Fields(), notify)
	})
}

func (h *AdminHandler) UpdateSkill(c *gin.Context) {
	var form models.SkillForm
	if err := c.ShouldBind(&form); err != nil {
		h.invalidForm(c, services.TabSkills, err)
		return
	}
	id := c.Param("id")
	h.mutate(c, func(p *services.Panel, token string, notify services.Notifier) error {
		return h.panels.UpdateSkill(c.Request.Context(), p, token, id, form.Fields(), notify)
	})
}

func (h *AdminHandler) DeleteSkill(c *gin.Context) {
	id := c.Param("id")
	h.mutate(c, func(p *services.Panel, token string, notify services.Notifier) error {
		return h.panels.DeleteSkill(c.Request.Context(), p, token, id, notify)
	})
}

type panelOp func(p *services.Panel, token string, notify services.Notifier) error

// mutate runs op against the session's panel. Failures were already turned
// into notices by the panel service, so the handler only redirects.
func (h *AdminHandler) mutate(c *gin.Context, op panelOp) {
	sid := session.ID(c)
	h.sessions.Exclusive(sid, func() { h.mutateLocked(c, sid, op) })
}

func (h *AdminHandler) mutateLocked(c *gin.Context, sid string, op panelOp) {
	panel, _ := h.storedPanel(sid)
	if panel == nil || !panel.Ready() {
		var err error
		if panel, err = h.openPanel(c); err != nil {
			h.abort(c, err)
			return
		}
	}

	notify := func(n session.Notice) { h.sessions.Notify(sid, n) }
	if err := op(panel, auth.AccessToken(c), notify); errors.Is(err, services.ErrPanelNotReady) {
		h.abort(c, err)
		return
	}

	h.sessions.SetValue(sid, panelKey, panel)
	h.sessions.SetValue(sid, panelFreshKey, true)
	c.Redirect(http.StatusSeeOther, "/admin?tab="+panel.Tab)
}

// openPanel walks a new panel from CheckingAuth to Ready. The request has
// already passed RequireAdmin.
func (h *AdminHandler) openPanel(c *gin.Context) (*services.Panel, error) {
	panel := services.NewPanel()
	panel.Authorize(auth.Decision{State: auth.Authorized, Session: auth.SessionFrom(c)})
	sid := session.ID(c)
	notify := func(n session.Notice) { h.sessions.Notify(sid, n) }
	if err := h.panels.Load(c.Request.Context(), panel, auth.AccessToken(c), notify); err != nil {
		return nil, err
	}
	return panel, nil
}

func (h *AdminHandler) storedPanel(sid string) (*services.Panel, bool) {
	v, ok := h.sessions.Value(sid, panelKey)
	if !ok {
		return nil, false
	}
	panel, _ := v.(*services.Panel)
	fresh, _ := h.sessions.Value(sid, panelFreshKey)
	isFresh, _ := fresh.(bool)
	return panel, isFresh && panel != nil && panel.Ready()
}

func (h *AdminHandler) imageUpload(c *gin.Context) (*services.Upload, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if header.Size > services.MaxImageBytes {
		return nil, fmt.Errorf("image is larger than %d MB", services.MaxImageBytes>>20)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *AdminHandler) invalidForm(c *gin.Context, tab string, err error) {
	h.sessions.Notify(session.ID(c), session.Notice{
		Kind:        session.NoticeError,
		Title:       "Invalid form",
		Description: err.Error(),
	})
	c.Redirect(http.StatusSeeOther, "/admin?tab="+tab)
}

func (h *AdminHandler) abort(c *gin.Context, err error) {
	h.logger.Error().Err(err).Msg("admin panel unavailable")
	c.Redirect(http.StatusSeeOther, "/")
}
