package config

import (
	"fmt"
	"os"
	"time"

	"go-simpler.org/env"
	"gopkg.in/yaml.v3"

	"github.com/me/entrena/pkg/model"
)

// ServerConfig holds configuration for the local API stand-in.
type ServerConfig struct {
	Addr string `env:"ENTRENA_MOCK_ADDR" default:":5000"`
	// JWTSecret signs issued tokens (HS256).
	JWTSecret string `env:"JWT_SECRET" default:"dev-secret-change-me"`
	// AdminEmail is the account that logs in with the admin role.
	AdminEmail string `env:"ADMIN_EMAIL" default:"admin@test.local"`
	// PromoteSecret enables POST /api/dev/promote_entrenador when set.
	PromoteSecret     string        `env:"DEV_PROMOTE_SECRET"`
	AllowRegistration bool          `env:"ALLOW_REGISTRATION" default:"true"`
	TokenTTL          time.Duration `env:"ENTRENA_MOCK_TOKEN_TTL" default:"1h"`
	// SeedFile is an optional YAML file of accounts created at startup.
	SeedFile  string `env:"ENTRENA_MOCK_SEED"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":5000",
		JWTSecret:         "dev-secret-change-me",
		AdminEmail:        "admin@test.local",
		AllowRegistration: true,
		TokenTTL:          time.Hour,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// LoadServerConfig reads the stand-in configuration from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Load(&cfg, nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}
	return cfg, nil
}

// SeedAccount is one account listed in a seed file.
type SeedAccount struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Nombre   string `yaml:"nombre"`
	// Role is cliente (default) or entrenador.
	Role string `yaml:"role"`
}

// LoadSeed parses a seed file:
//
//	accounts:
//	  - email: ana@test.local
//	    password: secret
//	    role: entrenador
func LoadSeed(path string) ([]SeedAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var doc struct {
		Accounts []SeedAccount `yaml:"accounts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	for i, a := range doc.Accounts {
		if a.Email == "" || a.Password == "" {
			return nil, fmt.Errorf("seed %s: account %d needs email and password", path, i)
		}
		if a.Role != "" && !model.UserRole(a.Role).Valid() {
			return nil, fmt.Errorf("seed %s: account %s has unknown role %q", path, a.Email, a.Role)
		}
	}
	return doc.Accounts, nil
}
