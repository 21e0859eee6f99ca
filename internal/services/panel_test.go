package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/backend/memory"
	"portfolio-site/internal/errs"
	"portfolio-site/internal/models"
	"portfolio-site/internal/services"
	"portfolio-site/internal/session"
)

type fakeImageStore struct {
	uploaded []string
	deleted  []string
	tokens   []string
	fail     error
}

func (f *fakeImageStore) UploadProjectImage(accessToken, filename, contentType string, data []byte) (string, string, error) {
	f.tokens = append(f.tokens, accessToken)
	if f.fail != nil {
		return "", "", f.fail
	}
	p := "projects/x/" + filename
	f.uploaded = append(f.uploaded, p)
	return p, "https://cdn.example.com/" + p, nil
}

func (f *fakeImageStore) PathFromPublicURL(publicURL string) (string, bool) {
	if !strings.HasPrefix(publicURL, "https://cdn.example.com/") {
		return "", false
	}
	return strings.TrimPrefix(publicURL, "https://cdn.example.com/"), true
}

func (f *fakeImageStore) DeleteFile(accessToken, storagePath string) error {
	f.tokens = append(f.tokens, accessToken)
	f.deleted = append(f.deleted, storagePath)
	return nil
}

type notices []session.Notice

func (n *notices) add(notice session.Notice) { *n = append(*n, notice) }

func readyPanel(t *testing.T, images *services.ImageService) (*memory.Backend, *services.PanelService, *services.Panel, string) {
	t.Helper()
	b := memory.New()
	b.Seed()
	b.AddUser("admin@example.com", "secret123", nil)
	s, err := b.IssueSession("admin@example.com")
	require.NoError(t, err)

	svc := services.NewPanelService(b, images)
	panel := services.NewPanel()
	panel.Authorize(auth.Decision{State: auth.Authorized, Session: s})
	var n notices
	require.NoError(t, svc.Load(context.Background(), panel, s.AccessToken, n.add))
	require.Empty(t, n)
	return b, svc, panel, s.AccessToken
}

func TestPanel_StateMachine(t *testing.T) {
	p := services.NewPanel()
	assert.Equal(t, services.PanelCheckingAuth, p.State)

	p.Authorize(auth.Decision{State: auth.Unauthorized, Reason: auth.ReasonNotLoggedIn})
	assert.Equal(t, services.PanelUnauthorized, p.State)

	p.Authorize(auth.Decision{State: auth.Authorized})
	assert.Equal(t, services.PanelUnauthorized, p.State, "unauthorized is terminal")

	svc := services.NewPanelService(memory.New(), nil)
	err := svc.Load(context.Background(), p, "", func(session.Notice) {})
	assert.ErrorIs(t, err, services.ErrPanelNotReady)
}

func TestPanel_LoadFillsBothLists(t *testing.T) {
	_, _, panel, _ := readyPanel(t, nil)

	assert.Equal(t, services.PanelReady, panel.State)
	assert.NotEmpty(t, panel.Projects)
	assert.NotEmpty(t, panel.Skills)
}

func TestPanel_LoadFailureEmptiesListAndNotifies(t *testing.T) {
	b, svc, panel, token := readyPanel(t, nil)
	b.Fail("select:projects", &backend.Error{Op: "select", Message: "permission denied for table projects"})

	var n notices
	require.NoError(t, svc.Load(context.Background(), panel, token, n.add))

	assert.Equal(t, services.PanelReady, panel.State)
	assert.Empty(t, panel.Projects)
	assert.NotNil(t, panel.Projects)
	assert.NotEmpty(t, panel.Skills)
	require.Len(t, n, 1)
	assert.Equal(t, session.NoticeError, n[0].Kind)
	assert.Equal(t, "permission denied for table projects", n[0].Description)
}

func TestPanel_CreateRelistsBothTables(t *testing.T) {
	b, svc, panel, token := readyPanel(t, nil)
	selectsBefore := b.Calls("select:projects") + b.Calls("select:skills")
	var n notices

	err := svc.CreateSkill(context.Background(), panel, token, models.SkillFields{Name: "Go", Category: "Backend"}, n.add)
	require.NoError(t, err)

	assert.Equal(t, selectsBefore+2, b.Calls("select:projects")+b.Calls("select:skills"))
	assert.Equal(t, services.TabSkills, panel.Tab)
	found := false
	for _, skill := range panel.Skills {
		found = found || skill.Name == "Go"
	}
	assert.True(t, found)
	require.Len(t, n, 1)
	assert.Equal(t, session.NoticeSuccess, n[0].Kind)
}

func TestPanel_DeleteFiltersWithoutRelisting(t *testing.T) {
	b, svc, panel, token := readyPanel(t, nil)
	selects := b.Calls("select:projects")
	removed := panel.Projects[0].ID
	count := len(panel.Projects)

	require.NoError(t, svc.DeleteProject(context.Background(), panel, token, removed, func(session.Notice) {}))

	assert.Equal(t, selects, b.Calls("select:projects"))
	assert.Len(t, panel.Projects, count-1)
	for _, p := range panel.Projects {
		assert.NotEqual(t, removed, p.ID)
	}
	assert.Len(t, b.Rows("projects"), count-1)
}

func TestPanel_WriteFailureKeepsLists(t *testing.T) {
	b, svc, panel, token := readyPanel(t, nil)
	b.Fail("delete:skills", &backend.Error{Op: "delete", Message: "JWT expired"})
	before := append([]models.Skill(nil), panel.Skills...)
	var n notices

	err := svc.DeleteSkill(context.Background(), panel, token, panel.Skills[0].ID, n.add)

	var writeErr *errs.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, before, panel.Skills)
	assert.Equal(t, services.PanelReady, panel.State)
	require.Len(t, n, 1)
	assert.Equal(t, "Could not delete skill", n[0].Title)
	assert.Equal(t, "JWT expired", n[0].Description)
}

func TestPanel_UpdateUnknownProjectNotifiesNotFound(t *testing.T) {
	_, svc, panel, token := readyPanel(t, nil)
	var n notices

	err := svc.UpdateProject(context.Background(), panel, token, "missing", models.ProjectFields{Title: "x", Technologies: []string{"Go"}}, nil, n.add)

	assert.True(t, errs.IsNotFound(err))
	require.Len(t, n, 1)
	assert.Equal(t, "the record no longer exists", n[0].Description)
}

func TestPanel_CreateProjectWithImage(t *testing.T) {
	store := &fakeImageStore{}
	_, svc, panel, token := readyPanel(t, services.NewImageService(store))

	fields := models.ProjectFields{Title: "Shots", Technologies: []string{"Go"}, ImageURL: "https://old.example.com/a.png"}
	image := &services.Upload{Filename: "shot.png", ContentType: "image/png", Data: []byte("png")}
	require.NoError(t, svc.CreateProject(context.Background(), panel, token, fields, image, func(session.Notice) {}))

	require.Len(t, store.uploaded, 1)
	var created models.Project
	for _, p := range panel.Projects {
		if p.Title == "Shots" {
			created = p
		}
	}
	assert.Equal(t, "https://cdn.example.com/projects/x/shot.png", created.ImageURL)

	require.NoError(t, svc.DeleteProject(context.Background(), panel, token, created.ID, func(session.Notice) {}))
	assert.Equal(t, []string{"projects/x/shot.png"}, store.deleted)
	assert.Equal(t, []string{token, token}, store.tokens, "storage calls run as the admin")
}

func TestPanel_ImageUploadFailureWritesNothing(t *testing.T) {
	store := &fakeImageStore{fail: errors.New("bucket not found")}
	b, svc, panel, token := readyPanel(t, services.NewImageService(store))
	var n notices

	err := svc.CreateProject(context.Background(), panel, token,
		models.ProjectFields{Title: "Shots", Technologies: []string{"Go"}},
		&services.Upload{Filename: "a.png", ContentType: "image/png", Data: []byte("png")}, n.add)

	require.Error(t, err)
	assert.Equal(t, 0, b.Calls("insert:projects"))
	require.Len(t, n, 1)
	assert.Equal(t, session.NoticeError, n[0].Kind)
}

func TestPanel_ImageWithoutStorageIsRejected(t *testing.T) {
	b, svc, panel, token := readyPanel(t, nil)

	err := svc.CreateProject(context.Background(), panel, token,
		models.ProjectFields{Title: "Shots", Technologies: []string{"Go"}},
		&services.Upload{Filename: "a.png", ContentType: "image/png", Data: []byte("png")}, func(session.Notice) {})

	var validation *errs.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, 0, b.Calls("insert:projects"))
}

func TestImageService_RejectsNonImages(t *testing.T) {
	svc := services.NewImageService(&fakeImageStore{})

	_, err := svc.Upload("token", &services.Upload{Filename: "a.txt", Data: []byte("plain text")})
	assert.ErrorContains(t, err, "not an image")

	_, err = svc.Upload("token", &services.Upload{Filename: "a.png", ContentType: "image/png"})
	assert.ErrorContains(t, err, "empty")

	_, err = svc.Upload("token", &services.Upload{Filename: "big.png", ContentType: "image/png", Data: make([]byte, services.MaxImageBytes+1)})
	assert.ErrorContains(t, err, "larger")
}
