package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"
)

// DefaultAPIBase is used when no base URL is configured outside dev mode.
const DefaultAPIBase = "https://entrenaprochile-api.onrender.com"

// Config holds configuration for the entrena client.
type Config struct {
	// APIBase is nil when unset, which selects DefaultAPIBase. An empty string means
	// relative URLs (a local proxy serves /api).
	APIBase *string `yaml:"api_base"`
	// Dev forces relative URLs regardless of APIBase.
	Dev bool `env:"ENTRENA_DEV" yaml:"dev"`
	// AuthPolicy is notifyOnly or forceLogout.
	AuthPolicy string `env:"ENTRENA_AUTH_POLICY" default:"notifyOnly" yaml:"auth_policy"`
	// SessionDB is the SQLite path (default ~/.entrena/session.db, ":memory:" for testing).
	SessionDB string `env:"ENTRENA_SESSION_DB" yaml:"session_db"`

	RedirectDelay  time.Duration `env:"ENTRENA_REDIRECT_DELAY" default:"1200ms" yaml:"redirect_delay"`
	NoticeDuration time.Duration `env:"ENTRENA_NOTICE_DURATION" default:"4s" yaml:"notice_duration"`

	Landing   string   `env:"ENTRENA_LANDING" default:"/" yaml:"landing"`
	Protected []string `env:"ENTRENA_PROTECTED" default:"/cliente /entrenador /admin" yaml:"protected"`

	LogLevel  string `env:"LOG_LEVEL" default:"info" yaml:"log_level"`
	LogFormat string `env:"LOG_FORMAT" default:"text" yaml:"log_format"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AuthPolicy:     "notifyOnly",
		RedirectDelay:  1200 * time.Millisecond,
		NoticeDuration: 4 * time.Second,
		Landing:        "/",
		Protected:      []string{"/cliente", "/entrenador", "/admin"},
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads configuration from an optional .env file and the environment.
// ENTRENA_API_BASE is looked up separately because "set but empty" and "unset"
// select different base URLs.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if v, ok := os.LookupEnv("ENTRENA_API_BASE"); ok {
		cfg.APIBase = &v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile overlays the YAML document at path onto cfg. Keys absent from the file
// keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.Validate()
}

// Validate checks value ranges and route shapes.
func (c *Config) Validate() error {
	if c.RedirectDelay < 0 {
		return errors.New("redirect_delay must not be negative")
	}
	if c.NoticeDuration < 0 {
		return errors.New("notice_duration must not be negative")
	}
	if !strings.HasPrefix(c.Landing, "/") {
		return fmt.Errorf("landing route %q must start with /", c.Landing)
	}
	for _, p := range c.Protected {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("protected prefix %q must start with /", p)
		}
	}
	return nil
}

// BaseURL resolves the effective API base URL.
func (c *Config) BaseURL() string {
	if c.Dev {
		return ""
	}
	if c.APIBase == nil {
		return DefaultAPIBase
	}
	return NormalizeBaseURL(*c.APIBase)
}

// SessionPath returns the session database path, defaulting to ~/.entrena/session.db.
func (c *Config) SessionPath() (string, error) {
	if c.SessionDB != "" {
		return c.SessionDB, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".entrena", "session.db"), nil
}

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// NormalizeBaseURL expands the shorthand forms developers put in ENTRENA_API_BASE:
//
//	""                 -> "" (relative URLs)
//	":5000", "5000"    -> "http://localhost:5000"
//	"api.example.com"  -> "http://api.example.com"
//	"https://host"     -> unchanged
func NormalizeBaseURL(raw string) string {
	b := strings.TrimSpace(raw)
	switch {
	case b == "":
		return ""
	case strings.HasPrefix(b, ":"):
		return "http://localhost" + b
	case digitsOnly.MatchString(b):
		return "http://localhost:" + b
	case !strings.HasPrefix(b, "http://") && !strings.HasPrefix(b, "https://"):
		return "http://" + b
	}
	return b
}
