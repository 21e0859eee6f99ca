package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/errs"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/models"
	"portfolio-site/internal/repository"
	"portfolio-site/internal/session"
)

type PanelState int

const (
	PanelCheckingAuth PanelState = iota
	PanelUnauthorized
	PanelAuthorized
	PanelLoading
	PanelReady
)

func (s PanelState) String() string {
	switch s {
	case PanelCheckingAuth:
		return "checking_auth"
	case PanelUnauthorized:
		return "unauthorized"
	case PanelAuthorized:
		return "authorized"
	case PanelLoading:
		return "loading"
	case PanelReady:
		return "ready"
	default:
		return "unknown"
	}
}

const (
	TabProjects = "projects"
	TabSkills   = "skills"
)

// Panel is the admin view of one browser session. Ready panels hold both
// record lists in memory.
type Panel struct {
	State    PanelState
	Tab      string
	Projects []models.Project
	Skills   []models.Skill
}

func NewPanel() *Panel {
	return &Panel{State: PanelCheckingAuth, Tab: TabProjects}
}

// Authorize leaves CheckingAuth. Unauthorized is terminal.
func (p *Panel) Authorize(decision auth.Decision) {
	if p.State != PanelCheckingAuth {
		return
	}
	if decision.State == auth.Authorized {
		p.State = PanelAuthorized
		return
	}
	p.State = PanelUnauthorized
}

func (p *Panel) SetTab(tab string) {
	if tab == TabProjects || tab == TabSkills {
		p.Tab = tab
	}
}

func (p *Panel) Ready() bool {
	return p.State == PanelReady
}

// Notifier receives the outcome of panel operations.
type Notifier func(session.Notice)

var ErrPanelNotReady = fmt.Errorf("admin panel is not ready")

// PanelService runs the admin panel's repository calls as the signed in
// user.
type PanelService struct {
	tables backend.Tables
	images *ImageService
	logger zerolog.Logger
}

func NewPanelService(tables backend.Tables, images *ImageService) *PanelService {
	return &PanelService{
		tables: tables,
		images: images,
		logger: logging.Component("panel"),
	}
}

func (s *PanelService) ImagesEnabled() bool {
	return s.images != nil
}

// Load moves an Authorized or Ready panel through Loading back to Ready with
// both tables freshly listed. A failed table is shown empty.
func (s *PanelService) Load(ctx context.Context, p *Panel, accessToken string, notify Notifier) error {
	if p.State != PanelAuthorized && p.State != PanelReady {
		return ErrPanelNotReady
	}
	p.State = PanelLoading

	projects, err := repository.NewProjects(s.tables, accessToken).ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list projects")
		notify(failure("Could not load projects", err))
		projects = []models.Project{}
	}
	skills, err := repository.NewSkills(s.tables, accessToken).ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list skills")
		notify(failure("Could not load skills", err))
		skills = []models.Skill{}
	}

	p.Projects = projects
	p.Skills = skills
	p.State = PanelReady
	return nil
}

func (s *PanelService) CreateProject(ctx context.Context, p *Panel, accessToken string, fields models.ProjectFields, image *Upload, notify Notifier) error {
	if !p.Ready() {
		return ErrPanelNotReady
	}
	p.SetTab(TabProjects)

	fields, uploaded, err := s.attachImage(accessToken, fields, image)
	if err != nil {
		return s.writeFailed(notify, "Could not add project", errs.NewWriteError("create", repository.ProjectsTable, "", err))
	}
	if err := repository.NewProjects(s.tables, accessToken).Create(ctx, fields); err != nil {
		s.discardImage(accessToken, uploaded)
		return s.writeFailed(notify, "Could not add project", err)
	}

	notify(success("Project added", fields.Title))
	return s.Load(ctx, p, accessToken, notify)
}

func (s *PanelService) UpdateProject(ctx context.Context, p *Panel, accessToken, id string, fields models.ProjectFields, image *Upload, notify Notifier) error {
	if !p.Ready() {
		return ErrPanelNotReady
	}
	p.SetTab(TabProjects)

	fields, uploaded, err := s.attachImage(accessToken, fields, image)
	if err != nil {
		return s.writeFailed(notify, "Could not update project", errs.NewWriteError("update", repository.ProjectsTable, id, err))
	}
	if err := repository.NewProjects(s.tables, accessToken).Update(ctx, id, fields); err != nil {
		s.discardImage(accessToken, uploaded)
		return s.writeFailed(notify, "Could not update project", err)
	}
	if uploaded != "" {
		if previous, ok := findProject(p.Projects, id); ok && previous.ImageURL != uploaded {
			s.discardImage(accessToken, previous.ImageURL)
		}
	}

	notify(success("Project updated", fields.Title))
	return s.Load(ctx, p, accessToken, notify)
}

// DeleteProject removes the row and drops it from the in-memory list
// without listing the table again.
func (s *PanelService) DeleteProject(ctx context.Context, p *Panel, accessToken, id string, notify Notifier) error {
	if !p.Ready() {
		return ErrPanelNotReady
	}
	p.SetTab(TabProjects)

	if err := repository.NewProjects(s.tables, accessToken).Delete(ctx, id); err != nil {
		return s.writeFailed(notify, "Could not delete project", err)
	}

	kept := make([]models.Project, 0, len(p.Projects))
	for _, project := range p.Projects {
		if project.ID == id {
			s.discardImage(accessToken, project.ImageURL)
			continue
		}
		kept = append(kept, project)
	}
	p.Projects = kept
	notify(success("Project deleted", ""))
	return nil
}

func (s *PanelService) CreateSkill(ctx context.Context, p *Panel, accessToken string, fields models.SkillFields, notify Notifier) error {
	if !p.Ready() {
		return ErrPanelNotReady
	}
	p.SetTab(TabSkills)

	if err := repository.NewSkills(s.tables, accessToken).Create(ctx, fields); err != nil {
		return s.writeFailed(notify, "Could not add skill", err)
	}

	notify(success("Skill added", fields.Name))
	return s.Load(ctx, p, accessToken, notify)
}

func (s *PanelService) UpdateSkill(ctx context.Context, p *Panel, accessToken, id string, fields models.SkillFields, notify Notifier) error {
	if !p.Ready() {
		return ErrPanelNotReady
	}
	p.SetTab(TabSkills)

	if err := repository.NewSkills(s.tables, accessToken).Update(ctx, id, fields); err != nil {
		return s.writeFailed(notify, "Could not update skill", err)
	}

	notify(success("Skill updated", fields.Name))
	return s.Load(ctx, p, accessToken, notify)
}

func (s *PanelService) DeleteSkill(ctx context.Context, p *Panel, accessToken, id string, notify Notifier) error {
	if !p.Ready() {
		return ErrPanelNotReady
	}
	p.SetTab(TabSkills)

	if err := repository.NewSkills(s.tables, accessToken).Delete(ctx, id); err != nil {
		return s.writeFailed(notify, "Could not delete skill", err)
	}

	kept := make([]models.Skill, 0, len(p.Skills))
	for _, skill := range p.Skills {
		if skill.ID != id {
			kept = append(kept, skill)
		}
	}
	p.Skills = kept
	notify(success("Skill deleted", ""))
	return nil
}

func (s *PanelService) attachImage(accessToken string, fields models.ProjectFields, image *Upload) (models.ProjectFields, string, error) {
	if image == nil {
		return fields, "", nil
	}
	if err := fields.Validate(); err != nil {
		return fields, "", err
	}
	if s.images == nil {
		return fields, "", errs.NewValidationError("image", "image uploads are not configured")
	}
	url, err := s.images.Upload(accessToken, image)
	if err != nil {
		return fields, "", err
	}
	fields.ImageURL = url
	return fields, url, nil
}

func (s *PanelService) discardImage(accessToken, publicURL string) {
	if s.images != nil && publicURL != "" {
		s.images.Remove(accessToken, publicURL)
	}
}

func (s *PanelService) writeFailed(notify Notifier, title string, err error) error {
	s.logger.Error().Err(err).Msg(title)
	notify(failure(title, err))
	return err
}

func findProject(projects []models.Project, id string) (models.Project, bool) {
	for _, project := range projects {
		if project.ID == id {
			return project, true
		}
	}
	return models.Project{}, false
}

func success(title, description string) session.Notice {
	return session.Notice{Kind: session.NoticeSuccess, Title: title, Description: description}
}

func failure(title string, err error) session.Notice {
	return session.Notice{Kind: session.NoticeError, Title: title, Description: errs.Message(err)}
}
