package syncclient

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hub-order-sync/internal/metrics"
	"hub-order-sync/internal/models"
	"hub-order-sync/internal/signature"
)

// DefaultTimeout bounds every outbound push.
const DefaultTimeout = 15 * time.Second

const maxResponseBody = 1 << 20

var ErrDelivery = errors.New("delivery failed")

type Config struct {
	PeerURL string
	APIKey  string
	Secret  string
	Timeout time.Duration
}

// Result describes one outbound attempt. Delivered is true only for a 200
// response.
type Result struct {
	Delivered  bool
	StatusCode int
	Body       []byte
	Err        error
}

type Client struct {
	base    string
	key     string
	secret  string
	http    *http.Client
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.metrics = m } }

func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		base:   strings.TrimRight(strings.TrimSpace(cfg.PeerURL), "/"),
		key:    cfg.APIKey,
		secret: cfg.Secret,
		http:   &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether a peer URL is set.
func (c *Client) Configured() bool { return c != nil && c.base != "" }

func (c *Client) PeerURL() string { return c.base }

// SendUpdate pushes a partial update for the order the peer knows as ref.
func (c *Client) SendUpdate(ctx context.Context, ref int64, upd models.RemoteUpdate) Result {
	body, err := json.Marshal(upd)
	if err != nil {
		return failed(0, nil, errors.Wrap(err, "encode update"))
	}
	return c.send(ctx, "update", http.MethodPut, c.orderURL(ref, ""), body, http.StatusOK)
}

func (c *Client) SendNote(ctx context.Context, ref int64, note models.NoteRequest) Result {
	body, err := json.Marshal(note)
	if err != nil {
		return failed(0, nil, errors.Wrap(err, "encode note"))
	}
	return c.send(ctx, "note", http.MethodPost, c.orderURL(ref, "/notes"), body, http.StatusOK)
}

// SendOrder posts a full order payload and returns the peer's internal id
// for it.
func (c *Client) SendOrder(ctx context.Context, payload []byte) (Result, int64) {
	res := c.send(ctx, "order", http.MethodPost, c.base+"/orders", payload, http.StatusOK, http.StatusCreated)
	if !res.Delivered {
		return res, 0
	}
	var ack models.OrderAck
	if err := json.Unmarshal(res.Body, &ack); err != nil || ack.OrderID <= 0 {
		if err == nil {
			err = errors.New("peer response has no order_id")
		}
		return failed(res.StatusCode, res.Body, errors.Wrap(err, "decode peer ack")), 0
	}
	return res, ack.OrderID
}

// Do sends a signed request to an absolute URL.
func (c *Client) Do(ctx context.Context, method, url string, body []byte) Result {
	return c.send(ctx, "raw", method, url, body, http.StatusOK, http.StatusCreated)
}

func (c *Client) orderURL(ref int64, suffix string) string {
	return c.base + "/orders/" + strconv.FormatInt(ref, 10) + suffix
}

func (c *Client) send(ctx context.Context, op, method, url string, body []byte, accept ...int) Result {
	start := time.Now()
	res := c.do(ctx, method, url, body, accept)
	c.metrics.ObserveOutbound(op, res.Delivered, time.Since(start))

	log := logrus.WithFields(logrus.Fields{"op": op, "url": url, "status": res.StatusCode})
	if res.Delivered {
		log.Debug("peer push delivered")
	} else {
		log.WithError(res.Err).Warn("peer push failed")
	}
	return res
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, accept []int) Result {
	nonce, err := NewNonce()
	if err != nil {
		return failed(0, nil, err)
	}
	ts := strconv.FormatInt(c.now().Unix(), 10)

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return failed(0, nil, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set(signature.HeaderAPIKey, c.key)
	req.Header.Set(signature.HeaderTimestamp, ts)
	req.Header.Set(signature.HeaderNonce, nonce)
	req.Header.Set(signature.HeaderSignature, signature.Sign(c.secret, ts, nonce, url, body))

	resp, err := c.http.Do(req)
	if err != nil {
		return failed(0, nil, errors.Wrap(err, "send request"))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return failed(resp.StatusCode, nil, errors.Wrap(err, "read response"))
	}
	if !accepted(resp.StatusCode, accept) {
		return failed(resp.StatusCode, respBody, errors.Errorf("peer answered %d", resp.StatusCode))
	}
	return Result{Delivered: true, StatusCode: resp.StatusCode, Body: respBody}
}

func accepted(code int, accept []int) bool {
	for _, a := range accept {
		if code == a {
			return true
		}
	}
	return false
}

func failed(code int, body []byte, cause error) Result {
	return Result{
		StatusCode: code,
		Body:       body,
		Err:        fmt.Errorf("%w: %v", ErrDelivery, cause),
	}
}

// NewNonce returns 32 random bytes as hex.
func NewNonce() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", errors.Wrap(err, "generate nonce")
	}
	return hex.EncodeToString(b[:]), nil
}
