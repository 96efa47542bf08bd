// Package config loads site settings from a YAML file, PORTFOLIO_*
// environment variables and command-line flags through Viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "PORTFOLIO"

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Data   DataConfig   `mapstructure:"data"`
	Static StaticConfig `mapstructure:"static"`
	State  StateConfig  `mapstructure:"state"`
	Images ImageConfig  `mapstructure:"images"`
	Hero   HeroConfig   `mapstructure:"hero"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	BasePath        string        `mapstructure:"base_path"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DataConfig points at the content documents
type DataConfig struct {
	Dir      string        `mapstructure:"dir"`
	Projects string        `mapstructure:"projects"`
	Profile  string        `mapstructure:"profile"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// StaticConfig points at the asset directory
type StaticConfig struct {
	Dir string `mapstructure:"dir"`
}

// StateConfig points at the directory for persisted preferences
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// ImageConfig controls image probing
type ImageConfig struct {
	Probe           bool          `mapstructure:"probe"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Concurrency     int           `mapstructure:"concurrency"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Fallback        string        `mapstructure:"fallback"`
	ProjectFallback string        `mapstructure:"project_fallback"`
}

// HeroConfig carries hero fields that are not part of the profile document
type HeroConfig struct {
	Title     string            `mapstructure:"title"`
	Tagline   string            `mapstructure:"tagline"`
	ResumeURL string            `mapstructure:"resume_url"`
	Stats     map[string]string `mapstructure:"stats"`
}

// LogConfig selects the log level and encoding
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PreferencesPath returns the file the theme preference is stored in
func (c *Config) PreferencesPath() string {
	return filepath.Join(c.State.Dir, "preferences.json")
}

// ProjectsPath returns the projects document path
func (c *Config) ProjectsPath() string {
	return filepath.Join(c.Data.Dir, c.Data.Projects)
}

// ProfilePath returns the profile document path
func (c *Config) ProfilePath() string {
	return filepath.Join(c.Data.Dir, c.Data.Profile)
}

// AssetPath prefixes a site-relative path with the base path. Absolute
// URLs and fragments are returned unchanged.
func (c *Config) AssetPath(p string) string {
	return JoinBasePath(c.Server.BasePath, p)
}

// JoinBasePath prefixes p with base unless p is not site-relative
func JoinBasePath(base, p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return p
	}
	base = strings.TrimSuffix(base, "/")
	if base == "" || strings.HasPrefix(p, base+"/") {
		return p
	}
	return base + p
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.projects", "projects.json")
	v.SetDefault("data.profile", "profile.json")
	v.SetDefault("data.watch", false)
	v.SetDefault("data.debounce", 250*time.Millisecond)

	v.SetDefault("static.dir", "static")
	v.SetDefault("state.dir", "state")

	v.SetDefault("images.probe", false)
	v.SetDefault("images.timeout", 5*time.Second)
	v.SetDefault("images.concurrency", 4)
	v.SetDefault("images.max_retries", 2)
	v.SetDefault("images.fallback", "/images/default-avatar.svg")
	v.SetDefault("images.project_fallback", "/images/project-placeholder.svg")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// NewViper creates a Viper instance with defaults and environment binding.
// configFile may be empty, in which case portfolio.yaml is looked up in
// the working directory; a missing default file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// SERVER_ADDR is honoured for deployments that predate the prefix
	if err := v.BindEnv("server.addr", EnvPrefix+"_SERVER_ADDR", "SERVER_ADDR"); err != nil {
		return nil, errors.Wrap(err, "bind server.addr")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if envFile := os.Getenv(EnvPrefix + "_CONFIG_FILE"); envFile != "" {
		v.SetConfigFile(envFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("portfolio")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// Validate checks that required settings are present and sane
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return errors.Errorf("server.base_path must start with /: %q", c.Server.BasePath)
	}
	if c.Data.Dir == "" {
		return errors.New("data.dir is required")
	}
	if c.Data.Projects == "" {
		return errors.New("data.projects is required")
	}
	if c.Images.Concurrency < 1 {
		return errors.Errorf("images.concurrency must be positive, got %d", c.Images.Concurrency)
	}
	if c.Images.MaxRetries < 0 {
		return errors.Errorf("images.max_retries must not be negative, got %d", c.Images.MaxRetries)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return errors.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// HeroOverrides returns the configured hero fields as the raw shape the
// hero validator merges, leaving out empty values
func (c *Config) HeroOverrides() map[string]any {
	raw := make(map[string]any)
	if c.Hero.Title != "" {
		raw["title"] = c.Hero.Title
	}
	if c.Hero.Tagline != "" {
		raw["tagline"] = c.Hero.Tagline
	}
	if c.Hero.ResumeURL != "" {
		raw["resumeUrl"] = c.Hero.ResumeURL
	}
	if len(c.Hero.Stats) > 0 {
		stats := make(map[string]any, len(c.Hero.Stats))
		for k, v := range c.Hero.Stats {
			stats[k] = v
		}
		raw["stats"] = stats
	}
	return raw
}
