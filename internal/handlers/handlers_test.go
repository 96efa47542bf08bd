package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio.dev/internal/config"
	"folio.dev/internal/metrics"
	"folio.dev/internal/models"
	"folio.dev/internal/services"
	"folio.dev/internal/theme"
)

const testProjects = `[
  {"id": "rag", "title": "RAG Service", "description": "Retrieval", "category": "GenAI",
   "technologies": ["Go"], "date": "2024-01-15", "level": "Advanced", "featured": true},
  {"id": "ops", "title": "Pipelines", "description": "Training infra", "category": "MLOps",
   "technologies": ["Python"], "date": "2023-06-01", "level": "Beginner"}
]`

const testProfile = `{"personal": {"name": "Ada Lovelace", "email": "ada@example.com"},
  "experience": [{"id": "ibm", "company": "IBM", "position": "Engineer", "duration": "2020 - 2022"}]}`

type fixture struct {
	deps    Deps
	handler http.Handler
	content *services.ContentService
}

func newFixture(t *testing.T, basePath string) *fixture {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	staticDir := filepath.Join(dir, "static")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(staticDir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "projects.json"), []byte(testProjects), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "profile.json"), []byte(testProfile), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "images", "default-avatar.svg"), []byte("<svg/>"), 0o600))

	cfg := &config.Config{
		Server: config.ServerConfig{Addr: ":0", BasePath: basePath},
		Data:   config.DataConfig{Dir: dataDir, Projects: "projects.json", Profile: "profile.json"},
		Static: config.StaticConfig{Dir: staticDir},
		State:  config.StateConfig{Dir: dir},
		Images: config.ImageConfig{MaxRetries: 2, Concurrency: 1, Fallback: "/images/default-avatar.svg"},
	}

	m := metrics.New()
	content := services.NewContentService(services.ContentOptions{
		ProjectsPath: cfg.ProjectsPath(),
		ProfilePath:  cfg.ProfilePath(),
		Metrics:      m,
	})
	_, err := content.Reload(context.Background())
	require.NoError(t, err)

	manager := theme.NewManager(theme.NewFileStore(cfg.PreferencesPath()), nil)
	_, err = manager.Init()
	require.NoError(t, err)

	d := Deps{
		Config:   cfg,
		Content:  content,
		Projects: services.NewProjectService(content),
		Theme:    manager,
		Hub:      NewLiveHub(nil),
		Metrics:  m,
	}
	return &fixture{deps: d, handler: SetupRoutes(d), content: content}
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestListProjects(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/api/projects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var projects []models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	assert.Len(t, projects, 2)

	rec = f.do(t, http.MethodGet, "/api/projects?category=MLOps")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "ops", projects[0].ID)

	rec = f.do(t, http.MethodGet, "/api/projects?featured=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "rag", projects[0].ID)
}

func TestGetProject(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/api/projects/rag")
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "RAG Service", p.Title)

	rec = f.do(t, http.MethodGet, "/api/projects/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Project not found"}`, rec.Body.String())
}

func TestCategoriesHeroProfile(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/api/categories")
	assert.JSONEq(t, `[{"name":"All","count":2},{"name":"GenAI","count":1},{"name":"MLOps","count":1}]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/hero")
	var hero models.Hero
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hero))
	assert.Equal(t, "Ada Lovelace", hero.Name)

	rec = f.do(t, http.MethodGet, "/api/profile")
	var profile models.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "ada@example.com", profile.Personal.Email)

	rec = f.do(t, http.MethodGet, "/api/images")
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 2, health["projects"])

	rec = f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_projects_loaded 2")
	assert.Contains(t, rec.Body.String(), "portfolio_http_requests_total")
}

func TestThemeToggle(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/api/theme")
	assert.Contains(t, rec.Body.String(), `"theme":"dark"`)

	rec = f.do(t, http.MethodPost, "/api/theme/toggle")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"theme":"light"`)
	assert.Equal(t, theme.Light, f.deps.Theme.Current())

	rec = f.do(t, http.MethodGet, "/api/theme/toggle")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServePage(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, "RAG Service")
	assert.Contains(t, body, "Pipelines")
	assert.Less(t, strings.Index(body, "RAG Service"), strings.Index(body, "Pipelines"))

	rec = f.do(t, http.MethodGet, "/?category=MLOps")
	body = rec.Body.String()
	assert.Contains(t, body, "Pipelines")
	assert.NotContains(t, body, "RAG Service")

	rec = f.do(t, http.MethodGet, "/?category=Quantum")
	assert.Contains(t, rec.Body.String(), "No projects found")
}

func TestServePageNoProjects(t *testing.T) {
	f := newFixture(t, "")
	cfg := f.deps.Config
	require.NoError(t, os.WriteFile(cfg.ProjectsPath(), []byte(`[{"id": "x"}]`), 0o600))
	_, err := f.content.Reload(context.Background())
	require.NoError(t, err)

	body := f.do(t, http.MethodGet, "/").Body.String()
	assert.Contains(t, body, "No projects available")
	assert.Contains(t, body, "No valid projects found in the data")
}

func TestStaticImages(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/images/default-avatar.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<svg/>", rec.Body.String())
}

func TestBasePath(t *testing.T) {
	f := newFixture(t, "/portfolio")

	rec := f.do(t, http.MethodGet, "/portfolio/api/projects/rag")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/portfolio/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/portfolio/static/css/site.css"`)

	rec = f.do(t, http.MethodGet, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/portfolio/", rec.Header().Get("Location"))
}

func TestLiveHubPushesEvents(t *testing.T) {
	f := newFixture(t, "")
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snaps, cancelSnaps := f.content.Subscribe()
	defer cancelSnaps()
	themes, cancelThemes := f.deps.Theme.Subscribe()
	defer cancelThemes()
	runCtx, stopHub := context.WithCancel(ctx)
	hubDone := make(chan struct{})
	go func() {
		f.deps.Hub.Run(runCtx, snaps, themes)
		close(hubDone)
	}()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/live", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return f.deps.Hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = f.content.Reload(ctx)
	require.NoError(t, err)
	var ev LiveEvent
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, "reload", ev.Type)
	assert.Equal(t, f.content.Snapshot().Version, ev.Version)

	resp, err := http.Post(srv.URL+"/api/theme/toggle", "application/json", nil)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, "theme", ev.Type)
	assert.Equal(t, "light", ev.Theme)
	assert.Contains(t, ev.CSS, "--brand-background:#ffffff")

	stopHub()
	<-hubDone
	_, _, err = conn.Read(ctx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}
