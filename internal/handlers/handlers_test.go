package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/backend/memory"
	"portfolio-site/internal/handlers"
	"portfolio-site/internal/models"
	"portfolio-site/internal/services"
	"portfolio-site/internal/session"
	"portfolio-site/internal/web"
)

const (
	adminEmail    = "mateuszniema1@gmail.com"
	adminPassword = "secret123"
	jwtSecret     = "test-jwt-secret"
	cookieName    = "portfolio_session"
	sessionSecret = "test-session-secret"
)

type recordingMailer struct {
	sent []models.ContactForm
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg models.ContactForm) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type testEnv struct {
	backend  *memory.Backend
	sessions *session.Store
	mailer   *recordingMailer
	router   *gin.Engine
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log.Logger = zerolog.Nop()

	b := memory.New(memory.WithJWTSecret(jwtSecret))
	b.Seed()
	b.AddUser(adminEmail, adminPassword, nil)
	b.AddUser("visitor@example.com", adminPassword, nil)

	tmpl, err := web.Templates()
	require.NoError(t, err)

	sessions := session.NewStore(session.NewBroker(), time.Hour)
	guard := auth.NewGuard(b, sessions, auth.AllowList{Emails: []string{adminEmail}})
	mailer := &recordingMailer{}

	router := handlers.NewRouter(handlers.Dependencies{
		Auth:         b,
		Tables:       b,
		Sessions:     sessions,
		Guard:        guard,
		Verifier:     auth.NewTokenVerifier(jwtSecret),
		Panels:       services.NewPanelService(b, nil),
		Mailer:       mailer,
		Templates:    tmpl,

		CookieName:    cookieName,
		SessionSecret: []byte(sessionSecret),
		ContactEmail:  "owner@example.com",
		BackendName:   "memory",
	})
	router.GET("/test/session-id", session.Middleware(sessions), func(c *gin.Context) {
		c.String(http.StatusOK, session.ID(c))
	})
	return &testEnv{backend: b, sessions: sessions, mailer: mailer, router: router}
}

// browser keeps the session cookie between requests.
type browser struct {
	env    *testEnv
	cookie *http.Cookie
}

func (e *testEnv) browser() *browser {
	return &browser{env: e}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.env.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) signIn(t *testing.T, email string) {
	t.Helper()
	w := b.do(http.MethodPost, "/login", url.Values{"email": {email}, "password": {adminPassword}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/admin", w.Header().Get("Location"))
}

// sid resolves the browser's signed cookie to its server side session id.
func (b *browser) sid(t *testing.T) string {
	t.Helper()
	w := b.do(http.MethodGet, "/test/session-id", nil)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

// openEvents connects the browser to the admin event stream and waits until
// the stream watches the session.
func (b *browser) openEvents(t *testing.T, server *httptest.Server) *bufio.Scanner {
	t.Helper()
	sid := b.sid(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/admin/events", nil)
	require.NoError(t, err)
	req.AddCookie(b.cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return b.env.sessions.Broker().Subscribers(sid) == 1 }, 2*time.Second, 10*time.Millisecond)
	return bufio.NewScanner(resp.Body)
}

func readEvents(scanner *bufio.Scanner) []string {
	var events []string
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "event:") {
			events = append(events, strings.TrimPrefix(line, "event:"))
			if line == "event:redirect" {
				break
			}
		}
	}
	return events
}

func (e *testEnv) selects() int {
	return e.backend.Calls("select:projects") + e.backend.Calls("select:skills")
}

func TestHealthHandler(t *testing.T) {
	env := newEnv(t)

	w := env.browser().do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","backend":"memory"}`, w.Body.String())
}

func TestSite_RendersRecordsFromBackend(t *testing.T) {
	env := newEnv(t)

	w := env.browser().do(http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "E-commerce Dashboard")
	assert.Contains(t, body, "Narzędzia")
	assert.Contains(t, body, `action="/login"`)
	assert.Less(t, strings.Index(body, "E-commerce Dashboard"), strings.Index(body, "System rezerwacji online"))
}

func TestSite_FetchFailureShowsEmptyStateAndNotice(t *testing.T) {
	env := newEnv(t)
	env.backend.Fail("select:skills", errors.New("connection refused"))

	w := env.browser().do(http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Could not load skills")
	assert.Contains(t, w.Body.String(), "Brak umiejętności do wyświetlenia.")
	assert.Contains(t, w.Body.String(), "E-commerce Dashboard")
}

func TestAdmin_UnauthenticatedIsRedirectedWithoutFetching(t *testing.T) {
	env := newEnv(t)
	b := env.browser()

	w := b.do(http.MethodGet, "/admin", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, 0, env.selects())

	w = b.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "You are not logged in")
}

func TestAdmin_SignInShowsTables(t *testing.T) {
	env := newEnv(t)
	b := env.browser()
	b.signIn(t, adminEmail)

	w := b.do(http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Signed in")
	assert.Contains(t, w.Body.String(), "E-commerce Dashboard")
	assert.Contains(t, w.Body.String(), adminEmail)
	assert.Equal(t, 2, env.selects())

	w = b.do(http.MethodGet, "/admin?tab=skills", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PostgreSQL")

	w = b.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "Go to admin panel")
}

func TestLogin_BackendMessageAndFallback(t *testing.T) {
	env := newEnv(t)
	b := env.browser()

	w := b.do(http.MethodPost, "/login", url.Values{"email": {adminEmail}, "password": {"wrong"}})
	assert.Equal(t, "/#login", w.Header().Get("Location"))
	assert.Contains(t, b.do(http.MethodGet, "/", nil).Body.String(), "Invalid login credentials")

	env.backend.Fail("signin", errors.New("dial tcp: i/o timeout"))
	b.do(http.MethodPost, "/login", url.Values{"email": {adminEmail}, "password": {adminPassword}})
	assert.Contains(t, b.do(http.MethodGet, "/", nil).Body.String(), "Sign-in failed. Check your credentials and try again.")
}

func TestLogin_NonAdminIsSignedOutOnce(t *testing.T) {
	env := newEnv(t)
	b := env.browser()
	b.signIn(t, "visitor@example.com")

	w := b.do(http.MethodGet, "/admin", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, 1, env.backend.Calls("signout"))
	assert.Equal(t, 0, env.selects())
	assert.Nil(t, env.sessions.Session(b.sid(t)))
	assert.Contains(t, b.do(http.MethodGet, "/", nil).Body.String(), "Access denied")
}

func TestSignUp_DoesNotGrantAdmin(t *testing.T) {
	env := newEnv(t)
	b := env.browser()

	w := b.do(http.MethodPost, "/signup", url.Values{"email": {"new@example.com"}, "password": {"secret123"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/admin", w.Header().Get("Location"))

	w = b.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	assert.Equal(t, 1, env.backend.Calls("signout"))

	w = b.do(http.MethodPost, "/signup", url.Values{"email": {adminEmail}, "password": {"secret123"}})
	assert.Equal(t, "/#login", w.Header().Get("Location"))
	assert.Contains(t, b.do(http.MethodGet, "/", nil).Body.String(), "User already registered")
}

func TestAdmin_CreateProjectRelistsAndShowsRecord(t *testing.T) {
	env := newEnv(t)
	b := env.browser()
	b.signIn(t, adminEmail)
	b.do(http.MethodGet, "/admin", nil)
	before := env.selects()

	w := b.do(http.MethodPost, "/admin/projects", url.Values{
		"title":        {"Portfolio"},
		"description":  {"Personal site"},
		"technologies": {"React, TypeScript , Node.js"},
		"link":         {"https://example.com"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin?tab=projects", w.Header().Get("Location"))
	assert.Equal(t, before+2, env.selects())

	w = b.do(http.MethodGet, "/admin?tab=projects", nil)
	assert.Contains(t, w.Body.String(), "Project added")
	assert.Contains(t, w.Body.String(), "React, TypeScript, Node.js")
	assert.Equal(t, before+2, env.selects(), "fresh panel is shown without listing again")

	var stored []interface{}
	for _, row := range env.backend.Rows("projects") {
		if row["title"] == "Portfolio" {
			stored = row["technologies"].([]interface{})
		}
	}
	assert.Equal(t, []interface{}{"React", "TypeScript", "Node.js"}, stored)
}

func TestAdmin_DeleteSkillFiltersLocally(t *testing.T) {
	env := newEnv(t)
	b := env.browser()
	b.signIn(t, adminEmail)
	b.do(http.MethodGet, "/admin?tab=skills", nil)
	before := env.selects()
	victim := env.backend.Rows("skills")[0]

	w := b.do(http.MethodPost, "/admin/skills/"+victim["id"].(string)+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = b.do(http.MethodGet, "/admin?tab=skills", nil)
	assert.Equal(t, before, env.selects())
	assert.Contains(t, w.Body.String(), "Skill deleted")
	assert.NotContains(t, w.Body.String(), victim["id"].(string))

	b.do(http.MethodGet, "/admin?tab=skills", nil)
	assert.Equal(t, before+2, env.selects())
}

func TestAdmin_UpdateMissingSkillNotifies(t *testing.T) {
	env := newEnv(t)
	b := env.browser()
	b.signIn(t, adminEmail)
	b.do(http.MethodGet, "/admin", nil)

	b.do(http.MethodPost, "/admin/skills/missing", url.Values{"name": {"Go"}, "category": {"Backend"}})

	w := b.do(http.MethodGet, "/admin?tab=skills", nil)
	assert.Contains(t, w.Body.String(), "Could not update skill")
	assert.Contains(t, w.Body.String(), "the record no longer exists")
}

func TestLogout(t *testing.T) {
	env := newEnv(t)
	b := env.browser()
	b.signIn(t, adminEmail)

	w := b.do(http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, 1, env.backend.Calls("signout"))
	assert.Nil(t, env.sessions.Session(b.sid(t)))

	w = b.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestContact(t *testing.T) {
	env := newEnv(t)
	b := env.browser()

	w := b.do(http.MethodPost, "/contact", url.Values{"name": {"Jan"}, "email": {"jan@example.com"}, "message": {"Hi"}})
	assert.Equal(t, "/#contact", w.Header().Get("Location"))
	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "Jan", env.mailer.sent[0].Name)
	assert.Contains(t, b.do(http.MethodGet, "/", nil).Body.String(), "Message has been sent!")

	b.do(http.MethodPost, "/contact", url.Values{"name": {"Jan"}, "email": {"not-an-email"}, "message": {"Hi"}})
	assert.Len(t, env.mailer.sent, 1)
	assert.Contains(t, b.do(http.MethodGet, "/", nil).Body.String(), "Message not sent")
}

func TestAPI_ProjectsAndSkills(t *testing.T) {
	env := newEnv(t)
	admin, err := env.backend.IssueSession(adminEmail)
	require.NoError(t, err)

	call := func(method, target, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	w := call(http.MethodGet, "/api/v1/projects", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list models.ProjectListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Projects, 3)
	assert.Equal(t, "E-commerce Dashboard", list.Projects[0].Title)

	body := `{"title":"API","technologies":["Go, gin"]}`
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodPost, "/api/v1/projects", body, "").Code)
	assert.Equal(t, http.StatusCreated, call(http.MethodPost, "/api/v1/projects", body, admin.AccessToken).Code)
	assert.Equal(t, http.StatusBadRequest, call(http.MethodPost, "/api/v1/projects", `{"title":"x","technologies":[]}`, admin.AccessToken).Code)
	assert.Equal(t, http.StatusNotFound, call(http.MethodPut, "/api/v1/projects/missing", body, admin.AccessToken).Code)

	w = call(http.MethodGet, "/api/v1/skills", "", "")
	var skills models.SkillListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &skills))
	require.NotEmpty(t, skills.Skills)
	assert.Equal(t, http.StatusOK, call(http.MethodDelete, "/api/v1/skills/"+skills.Skills[0].ID, "", admin.AccessToken).Code)

	visitor, err := env.backend.IssueSession("visitor@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(http.MethodDelete, "/api/v1/skills/x", "", visitor.AccessToken).Code)
}

func TestEvents_RedirectOnSignOut(t *testing.T) {
	env := newEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()
	b := env.browser()
	b.signIn(t, adminEmail)

	events := b.openEvents(t, server)
	env.sessions.SignOut(b.sid(t))

	assert.Equal(t, []string{"session", "redirect"}, readEvents(events))
}

func TestEvents_LogoutRedirectsWithoutErrorNotice(t *testing.T) {
	env := newEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()
	b := env.browser()
	b.signIn(t, adminEmail)
	b.do(http.MethodGet, "/admin", nil)

	events := b.openEvents(t, server)
	w := b.do(http.MethodPost, "/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, []string{"session", "redirect"}, readEvents(events))

	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, "Signed out")
	assert.NotContains(t, body, "You are not logged in")
	assert.NotContains(t, body, "Access denied")
}

func TestAdmin_ConcurrentTabsTakeTurns(t *testing.T) {
	env := newEnv(t)
	b := env.browser()
	b.signIn(t, adminEmail)
	b.do(http.MethodGet, "/admin", nil)
	cookie := b.cookie

	codes := make([]int, 32)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var req *http.Request
			if i%2 == 0 {
				form := url.Values{"name": {fmt.Sprintf("Tab skill %02d", i)}, "category": {"Backend"}}
				req = httptest.NewRequest(http.MethodPost, "/admin/skills", strings.NewReader(form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest(http.MethodGet, "/admin?tab=skills", nil)
			}
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if i%2 == 0 {
			assert.Equal(t, http.StatusSeeOther, code, "create %d", i)
		} else {
			assert.Equal(t, http.StatusOK, code, "show %d", i)
		}
	}
	body := b.do(http.MethodGet, "/admin?tab=skills", nil).Body.String()
	for i := 0; i < len(codes); i += 2 {
		assert.Contains(t, body, fmt.Sprintf("Tab skill %02d", i))
	}
}

func TestEvents_UnauthenticatedGetsRedirectEvent(t *testing.T) {
	env := newEnv(t)

	w := env.browser().do(http.MethodGet, "/admin/events", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event:redirect")
}
