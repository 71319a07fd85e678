package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	HTTP     ServerConfig
	Log      LogConfig
	API      APIConfig
	Session  SessionConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	Payments PaymentsConfig
	Jobs     JobsConfig
}

type AppConfig struct {
	// Scope selects the portal: owner or member.
	Scope     string `env:"APP_SCOPE" envDefault:"member"`
	UserAgent string `env:"APP_USER_AGENT" envDefault:"portal-payments"`
}

type ServerConfig struct {
	Host string `env:"HTTP_HOST" envDefault:"127.0.0.1"`
	Port string `env:"HTTP_PORT" envDefault:"8090"`
	// AllowedOrigins lists browser origins allowed to call the companion API.
	// Empty means every request carrying an Origin header is refused.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
	// APIKey is required in X-API-Key on every route but /health. When empty,
	// a key is generated once and kept in APIKeyFile.
	APIKey     string `env:"HTTP_API_KEY"`
	APIKeyFile string `env:"HTTP_API_KEY_FILE" envDefault:".portal/companion.key"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type APIConfig struct {
	BaseURL         string        `env:"API_BASE_URL"`
	Timeout         time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	PaymentTimeout  time.Duration `env:"API_PAYMENT_TIMEOUT" envDefault:"60s"`
	LongPollTimeout time.Duration `env:"API_LONG_POLL_TIMEOUT" envDefault:"90s"`
}

type SessionConfig struct {
	// Store is one of file, memory, redis, mysql, sqlite.
	Store      string        `env:"SESSION_STORE" envDefault:"file"`
	FilePath   string        `env:"SESSION_FILE_PATH" envDefault:".portal/session.yaml"`
	SQLitePath string        `env:"SESSION_SQLITE_PATH" envDefault:".portal/session.db"`
	Namespace  string        `env:"SESSION_NAMESPACE" envDefault:"default"`
	RedisTTL   time.Duration `env:"SESSION_REDIS_TTL" envDefault:"0s"`
}

type MySQLConfig struct {
	DSN             string        `env:"MYSQL_DSN"`
	MaxOpenConns    int           `env:"MYSQL_MAX_OPEN_CONNS" envDefault:"5"`
	MaxIdleConns    int           `env:"MYSQL_MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"MYSQL_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Prefix   string `env:"REDIS_PREFIX" envDefault:"portal:session:"`
}

const (
	MinPollInterval = 3 * time.Second
	MaxPollInterval = 5 * time.Second
)

type PaymentsConfig struct {
	PollMaxAttempts int           `env:"PAYMENTS_POLL_MAX_ATTEMPTS" envDefault:"60"`
	PollInterval    time.Duration `env:"PAYMENTS_POLL_INTERVAL" envDefault:"5s"`
	PollTimeout     time.Duration `env:"PAYMENTS_POLL_TIMEOUT" envDefault:"0s"`
	ServerPoll      bool          `env:"PAYMENTS_SERVER_POLL" envDefault:"false"`
	HistoryLimit    int           `env:"PAYMENTS_HISTORY_LIMIT" envDefault:"20"`
}

type JobsConfig struct {
	ReconcileInterval time.Duration `env:"JOBS_RECONCILE_INTERVAL" envDefault:"2m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimSpace(cfg.API.BaseURL)
	if cfg.API.BaseURL == "" {
		return nil, errors.New("API_BASE_URL environment variable is required")
	}

	cfg.Session.Store = strings.ToLower(strings.TrimSpace(cfg.Session.Store))
	switch cfg.Session.Store {
	case "file", "memory", "redis", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", cfg.Session.Store)
	}
	if cfg.Session.Store == "mysql" && strings.TrimSpace(cfg.MySQL.DSN) == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required for the mysql session store")
	}
	if cfg.Payments.PollMaxAttempts <= 0 {
		return nil, errors.New("PAYMENTS_POLL_MAX_ATTEMPTS must be positive")
	}
	if cfg.Payments.PollInterval < MinPollInterval || cfg.Payments.PollInterval > MaxPollInterval {
		return nil, fmt.Errorf("PAYMENTS_POLL_INTERVAL must be between %s and %s", MinPollInterval, MaxPollInterval)
	}

	cfg.HTTP.APIKey = strings.TrimSpace(cfg.HTTP.APIKey)
	origins := make([]string, 0, len(cfg.HTTP.AllowedOrigins))
	for _, origin := range cfg.HTTP.AllowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	cfg.HTTP.AllowedOrigins = origins

	return cfg, nil
}
