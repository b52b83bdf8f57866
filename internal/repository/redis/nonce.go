package redis

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const keyNamespace = "hubsync"

type cmdable interface {
	Ping(context.Context) *goredis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *goredis.BoolCmd
}

type Config struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

func (c Config) Enabled() bool { return c.URL != "" || c.Addr != "" }

// NonceStore keeps seen nonces in Redis so every replica of a node shares
// one replay cache.
type NonceStore struct {
	store cmdable
	raw   *goredis.Client
	node  string
}

// Connect dials Redis and verifies connectivity. node scopes the keys so two
// nodes may share a Redis instance.
func Connect(ctx context.Context, cfg Config, node string) (*NonceStore, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := goredis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return &NonceStore{store: raw, raw: raw, node: node}, nil
}

func optionsFromConfig(cfg Config) (*goredis.Options, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis url or address is required")
	}
	if cfg.URL != "" {
		opts, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, errors.Wrap(err, "parsing redis url")
		}
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
		return opts, nil
	}
	return &goredis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}, nil
}

func (s *NonceStore) Key(nonce string) string {
	parts := []string{keyNamespace, "nonce"}
	if s.node != "" {
		parts = append(parts, s.node)
	}
	return strings.Join(append(parts, nonce), ":")
}

func (s *NonceStore) Remember(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	if s == nil || s.store == nil {
		return false, errors.New("redis client not initialized")
	}
	fresh, err := s.store.SetNX(ctx, s.Key(nonce), 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "remember nonce")
	}
	return fresh, nil
}

func (s *NonceStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx).Err()
}

func (s *NonceStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
