package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"

	"hub-order-sync/internal/repository/postgres"
	"hub-order-sync/internal/repository/redis"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	NodeName  string `env:"NODE_NAME" envDefault:"hub"`
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8081"`
	PublicURL string `env:"PUBLIC_URL" envDefault:""`

	// Peer side. An empty PeerURL leaves outbound pushes unconfigured.
	PeerURL   string `env:"PEER_URL" envDefault:""`
	PeerLabel string `env:"PEER_LABEL" envDefault:"peer"`

	APIKey    string `env:"API_KEY"`
	SecretKey string `env:"SECRET_KEY"`

	AdminAPIKey    string `env:"ADMIN_API_KEY" envDefault:""`
	AdminSecretKey string `env:"ADMIN_SECRET_KEY" envDefault:""`

	ReplayWindow time.Duration `env:"REPLAY_WINDOW" envDefault:"300s"`
	MaxClockSkew time.Duration `env:"MAX_CLOCK_SKEW" envDefault:"300s"`
	SyncTimeout  time.Duration `env:"SYNC_TIMEOUT" envDefault:"15s"`

	StoreDriver     string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL     string `env:"DATABASE_URL" envDefault:""`
	PostgresHost    string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort    string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPass    string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB      string `env:"POSTGRES_DB" envDefault:"orders"`
	PostgresSSLMode string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	AutoMigrate     bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:""`
	RedisURL      string `env:"REDIS_URL" envDefault:""`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:""`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"order-sync-journal"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

func LoadConfig(_ string) (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("config parse: %w", err)
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.PublicURL = strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	c.PeerURL = strings.TrimRight(strings.TrimSpace(c.PeerURL), "/")
	return c, nil
}

// Validate rejects configurations the node cannot start with.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.APIKey) == "" {
		problems = append(problems, "API_KEY is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		problems = append(problems, "SECRET_KEY is required")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if (c.AdminAPIKey == "") != (c.AdminSecretKey == "") {
		problems = append(problems, "ADMIN_API_KEY and ADMIN_SECRET_KEY must be set together")
	}
	if c.ReplayWindow <= 0 {
		problems = append(problems, "REPLAY_WINDOW must be positive")
	}
	if c.SyncTimeout <= 0 {
		problems = append(problems, "SYNC_TIMEOUT must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) AdminEnabled() bool { return c.AdminAPIKey != "" && c.AdminSecretKey != "" }

func (c Config) KafkaBrokersSlice() []string {
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) Postgres() postgres.Config {
	return postgres.Config{
		URL:      c.DatabaseURL,
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		Username: c.PostgresUser,
		Password: c.PostgresPass,
		DbName:   c.PostgresDB,
		SslMode:  c.PostgresSSLMode,
	}
}

func (c Config) Redis() redis.Config {
	return redis.Config{
		URL:      c.RedisURL,
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
