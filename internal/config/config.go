package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"API_PORT, default=8080"`
	GinMode   string `env:"GIN_MODE, default=debug"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=https://dentaheal.netlify.app"`

	Auth     AuthConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Audit    AuditConfig
	Textbelt TextbeltConfig
}

type AuthConfig struct {
	JWTSecret          string        `env:"JWT_SECRET"`
	TokenTTL           time.Duration `env:"TOKEN_TTL, default=24h"`
	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionMaxAge      time.Duration `env:"SESSION_MAX_AGE, default=12h"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT, default=30m"`
	LoginPath          string        `env:"LOGIN_PATH, default=/login"`

	// ProtectedPrefixes feeds the shared path registry used by both the edge
	// gate and the page guard.
	ProtectedPrefixes []string `env:"PROTECTED_PREFIXES, default=/dashboard3,/account"`
	RegistryVersion   string   `env:"REGISTRY_VERSION, default=1"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DATABASE, default=dentaheal"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type AuditConfig struct {
	BufferSize   int           `env:"AUDIT_BUFFER_SIZE, default=256"`
	WriteTimeout time.Duration `env:"AUDIT_WRITE_TIMEOUT, default=5s"`
	// UseQueue routes audit entries through asynq instead of writing to
	// MongoDB from the in-process writer.
	UseQueue bool `env:"AUDIT_USE_QUEUE, default=false"`
}

type TextbeltConfig struct {
	APIKey string `env:"TEXTBELT_API_KEY"`
}

// Load reads .env (when present) and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.GinMode == gin.ReleaseMode {
		if c.Auth.JWTSecret == "" {
			return errors.New("config: JWT_SECRET is required in release mode")
		}
		if c.Auth.SessionSecret == "" {
			return errors.New("config: SESSION_SECRET is required in release mode")
		}
	}
	if !strings.HasPrefix(c.Auth.LoginPath, "/") {
		return fmt.Errorf("config: LOGIN_PATH must start with '/', got %q", c.Auth.LoginPath)
	}
	for _, p := range c.Auth.ProtectedPrefixes {
		if !strings.HasPrefix(strings.TrimSpace(p), "/") {
			return fmt.Errorf("config: protected prefix %q must start with '/'", p)
		}
	}
	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("config: AUDIT_BUFFER_SIZE must be positive, got %d", c.Audit.BufferSize)
	}
	return nil
}
