// Package web holds the embedded HTML templates and static assets of the
// site.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"portfolio-site/internal/models"
	"portfolio-site/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	SitePage  = "index.html"
	AdminPage = "admin.html"
)

// Templates parses every page and partial.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Static serves the files under static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"icon":        Icon,
		"join":        strings.Join,
		"year":        func() int { return time.Now().Year() },
		"noticeClass": noticeClass,
		"shortID":     shortID,
		"date":        func(t time.Time) string { return t.Format("2006-01-02") },
		"projectForm": projectForm,
		"skillForm":   skillForm,
	}
}

// ProjectFormView is the add or edit project dialog. Project is nil when
// adding.
type ProjectFormView struct {
	Action        string
	Project       *models.Project
	ImagesEnabled bool
}

type SkillFormView struct {
	Action string
	Skill  *models.Skill
}

func projectForm(action string, record interface{}, imagesEnabled bool) ProjectFormView {
	view := ProjectFormView{Action: action, ImagesEnabled: imagesEnabled}
	if p, ok := record.(models.Project); ok {
		view.Project = &p
	}
	return view
}

func skillForm(action string, record interface{}) SkillFormView {
	view := SkillFormView{Action: action}
	if s, ok := record.(models.Skill); ok {
		view.Skill = &s
	}
	return view
}

// SiteData feeds index.html.
type SiteData struct {
	Notices      []session.Notice
	Projects     []models.Project
	SkillGroups  []models.SkillGroup
	SignedIn     bool
	ContactEmail string
}

// AdminData feeds admin.html.
type AdminData struct {
	Notices       []session.Notice
	Email         string
	Tab           string
	Projects      []models.Project
	Skills        []models.Skill
	ImagesEnabled bool
}

var icons = map[models.IconKind]string{
	models.IconCode:     `<polyline points="16 18 22 12 16 6"></polyline><polyline points="8 6 2 12 8 18"></polyline>`,
	models.IconDatabase: `<ellipse cx="12" cy="5" rx="9" ry="3"></ellipse><path d="M3 5V19A9 3 0 0 0 21 19V5"></path><path d="M3 12A9 3 0 0 0 21 12"></path>`,
	models.IconComputer: `<rect x="4" y="4" width="16" height="12" rx="2"></rect><path d="M2 20h20"></path>`,
	models.IconImage:    `<rect x="3" y="3" width="18" height="18" rx="2"></rect><circle cx="9" cy="9" r="2"></circle><path d="m21 15-3.1-3.1a2 2 0 0 0-2.8 0L6 21"></path>`,
	models.IconDefault:  `<path d="m12 3-1.9 5.8a2 2 0 0 1-1.3 1.3L3 12l5.8 1.9a2 2 0 0 1 1.3 1.3L12 21l1.9-5.8a2 2 0 0 1 1.3-1.3L21 12l-5.8-1.9a2 2 0 0 1-1.3-1.3Z"></path>`,
}

// Icon renders an inline SVG for kind, falling back to the default icon.
func Icon(kind models.IconKind) template.HTML {
	body, ok := icons[kind]
	if !ok {
		kind = models.IconDefault
		body = icons[kind]
	}
	return template.HTML(`<svg class="icon icon-` + string(kind) + `" xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round">` + body + `</svg>`)
}

func noticeClass(kind session.NoticeKind) string {
	switch kind {
	case session.NoticeSuccess:
		return "toast toast-success"
	case session.NoticeError:
		return "toast toast-error"
	default:
		return "toast"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
