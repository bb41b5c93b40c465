package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton for backwards compatibility with envs package
var globalConfig *Config

// Config holds all environment backed configuration for the Dharz AI server.
type Config struct {
	// HTTP Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9091"`
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// Auth
	JWTSecret     string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	TokenIssuer   string        `env:"TOKEN_ISSUER" envDefault:"dharz-ai"`
	TokenAudience string        `env:"TOKEN_AUDIENCE" envDefault:"dharz-ai-web"`

	// Generation provider (OpenAI-compatible)
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY,notEmpty"`
	ChatModel     string        `env:"CHAT_MODEL" envDefault:"gpt-4-turbo"`
	ChatTimeout   time.Duration `env:"CHAT_TIMEOUT" envDefault:"120s"`

	// Web search provider
	TavilyEndpoint string        `env:"TAVILY_ENDPOINT" envDefault:"https://api.tavily.com/search"`
	TavilyAPIKey   string        `env:"TAVILY_API_KEY"`
	SearchTimeout  time.Duration `env:"SEARCH_TIMEOUT" envDefault:"15s"`

	// Attachment fetching
	ImageFetchTimeout time.Duration `env:"IMAGE_FETCH_TIMEOUT" envDefault:"10s"`
	ImageFetchMaxSize int64         `env:"IMAGE_FETCH_MAX_SIZE" envDefault:"10485760"`

	// Observability / Logging
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"dharz-ai"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`

	// Bootstrap admin account, created on startup when both are set.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"Administrator"`

	// Internal
	EnvReloadedAt time.Time
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.OpenAIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid OPENAI_BASE_URL: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.TavilyEndpoint); err != nil {
		return nil, fmt.Errorf("invalid TAVILY_ENDPOINT: %w", err)
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 bytes")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.EnvReloadedAt = time.Now()

	globalConfig = cfg

	return cfg, nil
}

// GetGlobal returns the global config instance for backwards compatibility.
// Deprecated: Use dependency injection with Load() instead.
func GetGlobal() *Config {
	return globalConfig
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
