// Package signature implements the HMAC request signing used between peers
// and the timestamp freshness check that goes with it.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Header names carried by every signed request.
const (
	HeaderAPIKey    = "X-API-KEY"
	HeaderSignature = "X-API-SIGNATURE"
	HeaderTimestamp = "X-API-TIMESTAMP"
	HeaderNonce     = "X-API-NONCE"
)

// DefaultWindow is how old a signed request may be before it is rejected.
const DefaultWindow = 300 * time.Second

// CanonicalMessage frames timestamp, nonce, route and body as
// "<len>:<bytes>" each, in that order, so no two distinct tuples produce
// the same message.
func CanonicalMessage(timestamp, nonce, route string, body []byte) []byte {
	var b strings.Builder
	b.Grow(len(timestamp) + len(nonce) + len(route) + len(body) + 32)
	for _, field := range []string{timestamp, nonce, route} {
		b.WriteString(strconv.Itoa(len(field)))
		b.WriteByte(':')
		b.WriteString(field)
	}
	b.WriteString(strconv.Itoa(len(body)))
	b.WriteByte(':')
	b.Write(body)
	return []byte(b.String())
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical message.
func Sign(secret, timestamp, nonce, route string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(CanonicalMessage(timestamp, nonce, route, body))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the signature of the given request parts.
// The comparison is constant-time.
func Verify(secret, timestamp, nonce, route string, body []byte, sig string) bool {
	if sig == "" {
		return false
	}
	expected := Sign(secret, timestamp, nonce, route, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sig)))
}

// IsFresh reports whether timestamp (unix seconds) is at most window old at
// now. A missing or non-numeric timestamp is stale. Future timestamps pass;
// bounding them is the caller's job.
func IsFresh(timestamp string, now time.Time, window time.Duration) bool {
	ts, ok := ParseTimestamp(timestamp)
	if !ok {
		return false
	}
	return now.Unix()-ts <= int64(window/time.Second)
}

// ParseTimestamp parses a unix-seconds header value.
func ParseTimestamp(timestamp string) (int64, bool) {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return 0, false
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
