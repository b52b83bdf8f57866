package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"hub-order-sync/internal/signature"
)

// ErrUnauthorized is the only error callers ever see. The reason stays in
// the server log.
var ErrUnauthorized = errors.New("unauthorized")

// NonceStore remembers nonces for ttl. Remember reports false when the
// nonce was already seen.
type NonceStore interface {
	Remember(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}

type Config struct {
	APIKey string
	Secret string
	// Window is the maximum age of a request timestamp.
	Window time.Duration
	// MaxSkew bounds how far in the future a timestamp may be.
	MaxSkew time.Duration
}

// Credentials are the four signed-request headers.
type Credentials struct {
	APIKey    string
	Signature string
	Timestamp string
	Nonce     string
}

type Authenticator struct {
	cfg    Config
	nonces NonceStore
	now    func() time.Time
}

type Option func(*Authenticator)

func WithClock(now func() time.Time) Option { return func(a *Authenticator) { a.now = now } }

func NewAuthenticator(cfg Config, nonces NonceStore, opts ...Option) *Authenticator {
	if cfg.Window <= 0 {
		cfg.Window = signature.DefaultWindow
	}
	if cfg.MaxSkew <= 0 {
		cfg.MaxSkew = signature.DefaultWindow
	}
	a := &Authenticator{cfg: cfg, nonces: nonces, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Authenticate accepts the request or returns ErrUnauthorized. Checks run in
// order and stop at the first failure: presence, freshness, future skew,
// API key, signature, nonce reuse.
func (a *Authenticator) Authenticate(ctx context.Context, cred Credentials, route string, body []byte) error {
	reject := func(reason string) error {
		logrus.WithFields(logrus.Fields{"route": route, "reason": reason}).Debug("request rejected")
		return ErrUnauthorized
	}

	if cred.APIKey == "" || cred.Signature == "" || cred.Timestamp == "" || cred.Nonce == "" {
		return reject("missing credentials")
	}

	now := a.now()
	if !signature.IsFresh(cred.Timestamp, now, a.cfg.Window) {
		return reject("stale timestamp")
	}
	ts, _ := signature.ParseTimestamp(cred.Timestamp)
	if ts-now.Unix() > int64(a.cfg.MaxSkew/time.Second) {
		return reject("timestamp in the future")
	}

	if a.cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(cred.APIKey), []byte(a.cfg.APIKey)) != 1 {
		return reject("api key mismatch")
	}

	if !signature.Verify(a.cfg.Secret, cred.Timestamp, cred.Nonce, route, body, cred.Signature) {
		return reject("bad signature")
	}

	if a.nonces != nil {
		fresh, err := a.nonces.Remember(ctx, cred.Nonce, a.cfg.Window+a.cfg.MaxSkew)
		if err != nil {
			logrus.WithError(err).Warn("nonce store unavailable")
			return reject("nonce store error")
		}
		if !fresh {
			return reject("nonce replayed")
		}
	}
	return nil
}
