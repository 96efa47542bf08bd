package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := NewViper("")
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, filepath.Join("data", "projects.json"), cfg.ProjectsPath())
	assert.Equal(t, 2, cfg.Images.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Data.Debounce)
	assert.Equal(t, filepath.Join("state", "preferences.json"), cfg.PreferencesPath())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	doc := `
server:
  addr: ":9090"
  base_path: /portfolio
data:
  dir: content
  watch: true
  debounce: 1s
images:
  probe: true
  concurrency: 8
hero:
  title: Engineer
  stats:
    experience: "4+"
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/portfolio", cfg.Server.BasePath)
	assert.True(t, cfg.Data.Watch)
	assert.Equal(t, time.Second, cfg.Data.Debounce)
	assert.True(t, cfg.Images.Probe)
	assert.Equal(t, 8, cfg.Images.Concurrency)
	assert.Equal(t, "Engineer", cfg.Hero.Title)
	assert.Equal(t, "4+", cfg.Hero.Stats["experience"])
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORTFOLIO_DATA_DIR", "/srv/content")
	t.Setenv("SERVER_ADDR", ":7000")

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/srv/content", cfg.Data.Dir)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestLoadNonexistentExplicitFile(t *testing.T) {
	_, err := NewViper("/nonexistent/path/portfolio.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Addr: ":8080"},
			Data:   DataConfig{Dir: "data", Projects: "projects.json"},
			Images: ImageConfig{Concurrency: 1, MaxRetries: 2},
			Log:    LogConfig{Format: "json"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"relative base path", func(c *Config) { c.Server.BasePath = "site" }, true},
		{"missing data dir", func(c *Config) { c.Data.Dir = "" }, true},
		{"zero concurrency", func(c *Config) { c.Images.Concurrency = 0 }, true},
		{"negative retries", func(c *Config) { c.Images.MaxRetries = -1 }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJoinBasePath(t *testing.T) {
	assert.Equal(t, "/images/a.png", JoinBasePath("", "/images/a.png"))
	assert.Equal(t, "/site/images/a.png", JoinBasePath("/site/", "/images/a.png"))
	assert.Equal(t, "/site/images/a.png", JoinBasePath("/site", "/site/images/a.png"))
	assert.Equal(t, "https://cdn.example.com/a.png", JoinBasePath("/site", "https://cdn.example.com/a.png"))
	assert.Equal(t, "#", JoinBasePath("/site", "#"))
}

func TestHeroOverrides(t *testing.T) {
	cfg := Config{Hero: HeroConfig{Tagline: "Builds things", Stats: map[string]string{"projects": "6+"}}}
	raw := cfg.HeroOverrides()
	assert.Equal(t, "Builds things", raw["tagline"])
	assert.NotContains(t, raw, "title")
	assert.Equal(t, map[string]any{"projects": "6+"}, raw["stats"])
}
