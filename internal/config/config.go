package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not).
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Addr        string        `envconfig:"ADDR" default:":3001"`
	DBPath      string        `envconfig:"DB_PATH" default:"ecotrack.sqlite3"`
	Environment string        `envconfig:"APP_ENV" default:"development"`
	JWTSecret   string        `envconfig:"JWT_SECRET" default:""`
	LogPath     string        `envconfig:"LOG_PATH" default:""`
	CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	DetectDelay time.Duration `envconfig:"DETECT_DELAY" default:"1500ms"`
}

// IsProduction returns true if running in production mode. Controls the
// Secure flag on the session cookie.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}
