package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Scraper      ScraperConfig      `envPrefix:"SCRAPER_"`
	Vision       VisionConfig       `envPrefix:"VISION_"`
	Session      SessionConfig      `envPrefix:"SESSION_"`
	Orchestrator OrchestratorConfig `envPrefix:"ORCH_"`
	Database     DatabaseConfig     `envPrefix:"DB_"`
	Redis        RedisConfig        `envPrefix:"REDIS_"`
	HTTP         HTTPConfig         `envPrefix:"HTTP_"`
	Auth         AuthConfig         `envPrefix:"AUTH_"`
	Scheduler    SchedulerConfig    `envPrefix:"SCHEDULE_"`
}

type AppConfig struct {
	AppName     string `env:"APP_NAME" envDefault:"ai-agent"`
	Environment string `env:"APP_ENV" envDefault:"development"`
}

// ScraperConfig carries the per-adapter knobs: pacing between browser
// actions, per-action timeout, execution mode and the vision fallback
// bounds.
type ScraperConfig struct {
	MinActionDelay      time.Duration `env:"MIN_ACTION_DELAY" envDefault:"800ms"`
	MaxActionDelay      time.Duration `env:"MAX_ACTION_DELAY" envDefault:"2500ms"`
	ActionTimeout       time.Duration `env:"ACTION_TIMEOUT" envDefault:"10s"`
	Headless            bool          `env:"HEADLESS" envDefault:"true"`
	MaxFallbackAttempts int           `env:"MAX_FALLBACK_ATTEMPTS" envDefault:"3"`
	ConfidenceThreshold float64       `env:"CONFIDENCE_THRESHOLD" envDefault:"0.6"`
	UserAgent           string        `env:"USER_AGENT" envDefault:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"`
	SyntheticFallback   bool          `env:"SYNTHETIC_FALLBACK" envDefault:"false"`
}

type VisionConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:11434"`
	Model   string        `env:"MODEL" envDefault:"llava:latest"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"120s"`
}

type SessionConfig struct {
	TTL           time.Duration `env:"TTL" envDefault:"168h"`
	EncryptionKey string        `env:"ENCRYPTION_KEY"`
}

type OrchestratorConfig struct {
	MaxParallel    int           `env:"MAX_PARALLEL" envDefault:"3"`
	AdapterTimeout time.Duration `env:"ADAPTER_TIMEOUT" envDefault:"120s"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	Name     string `env:"NAME" envDefault:"ai_agent"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type HTTPConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

type SchedulerConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Spec     string `env:"SPEC" envDefault:"@every 6h"`
	Keywords string `env:"KEYWORDS"`
	Location string `env:"LOCATION"`
}

func Load() (Config, error) {
	// Best effort: a missing .env file is fine, real env vars still apply.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	if c.Scraper.MinActionDelay < 0 {
		c.Scraper.MinActionDelay = 0
	}
	if c.Scraper.MaxActionDelay < c.Scraper.MinActionDelay {
		c.Scraper.MaxActionDelay = c.Scraper.MinActionDelay
	}
	if c.Scraper.MaxFallbackAttempts <= 0 {
		c.Scraper.MaxFallbackAttempts = 3
	}
	if c.Scraper.ConfidenceThreshold <= 0 || c.Scraper.ConfidenceThreshold > 1 {
		c.Scraper.ConfidenceThreshold = 0.6
	}
	if c.Orchestrator.MaxParallel <= 0 {
		c.Orchestrator.MaxParallel = 1
	}
	if c.Orchestrator.AdapterTimeout <= 0 {
		c.Orchestrator.AdapterTimeout = 120 * time.Second
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 7 * 24 * time.Hour
	}
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
