package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/middleware"
	"portfolio-site/internal/services"
	"portfolio-site/internal/session"
	"portfolio-site/internal/web"
)

type Dependencies struct {
	Auth      backend.Auth
	Tables    backend.Tables
	Sessions  *session.Store
	Guard     *auth.Guard
	Verifier  *auth.TokenVerifier
	Panels    *services.PanelService
	Mailer    services.Mailer
	Templates *template.Template

	CookieName    string
	SessionSecret []byte
	SecureCookie  bool
	ContactEmail  string
	BackendName   string
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(session.Cookies(deps.CookieName, deps.SessionSecret, deps.SecureCookie))
	router.SetHTMLTemplate(deps.Templates)
	router.StaticFS("/static", http.FS(web.Static()))

	// Health check (no auth)
	router.GET("/health", HealthHandler(deps.BackendName))

	// JSON API: public reads, bearer token writes
	projectsHandler := NewProjectsHandler(deps.Tables)
	skillsHandler := NewSkillsHandler(deps.Tables)

	api := router.Group("/api/v1")
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/skills", skillsHandler.ListSkills)

	writes := api.Group("", auth.RequireAdminToken(deps.Verifier, deps.Guard.AllowList()))
	writes.POST("/projects", projectsHandler.CreateProject)
	writes.PUT("/projects/:id", projectsHandler.UpdateProject)
	writes.DELETE("/projects/:id", projectsHandler.DeleteProject)
	writes.POST("/skills", skillsHandler.CreateSkill)
	writes.PUT("/skills/:id", skillsHandler.UpdateSkill)
	writes.DELETE("/skills/:id", skillsHandler.DeleteSkill)

	// Browser routes share the session cookie
	siteHandler := NewSiteHandler(deps.Tables, deps.Sessions, deps.ContactEmail)
	loginHandler := NewLoginHandler(deps.Auth, deps.Sessions)
	contactHandler := NewContactHandler(deps.Mailer, deps.Sessions)
	adminHandler := NewAdminHandler(deps.Panels, deps.Sessions)
	eventsHandler := NewEventsHandler(deps.Guard, deps.Sessions)

	site := router.Group("", session.Middleware(deps.Sessions))
	site.GET("/", siteHandler.Index)
	site.POST("/login", loginHandler.Login)
	site.POST("/signup", loginHandler.SignUp)
	site.POST("/logout", loginHandler.Logout)
	site.POST("/contact", contactHandler.Submit)
	site.GET("/admin/events", eventsHandler.Stream)

	admin := site.Group("/admin", auth.RequireAdmin(deps.Guard, deps.Sessions))
	admin.GET("", adminHandler.Show)
	admin.POST("/projects", adminHandler.CreateProject)
	admin.POST("/projects/:id", adminHandler.UpdateProject)
	admin.POST("/projects/:id/delete", adminHandler.DeleteProject)
	admin.POST("/skills", adminHandler.CreateSkill)
	admin.POST("/skills/:id", adminHandler.UpdateSkill)
	admin.POST("/skills/:id/delete", adminHandler.DeleteSkill)

	return router
}
