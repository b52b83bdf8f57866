package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"hub-order-sync/internal/auth"
	httpdelivery "hub-order-sync/internal/delivery/http"
	"hub-order-sync/internal/models"
	"hub-order-sync/internal/repository/cache"
	"hub-order-sync/internal/service"
	"hub-order-sync/internal/signature"
	"hub-order-sync/internal/syncclient"
)

const (
	peerKey     = "peer-key"
	peerSecret  = "peer-secret"
	adminKey    = "admin-key"
	adminSecret = "admin-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type svcStub struct {
	createOrUpdate func(ctx context.Context, raw []byte) (service.UpsertResult, error)
	applyUpdate    func(ctx context.Context, externalID int64, raw []byte) error
	addPeerNote    func(ctx context.Context, externalID int64, req models.NoteRequest) (models.Note, service.SyncResult, error)

	createLocal func(ctx context.Context, raw []byte) (models.OrderView, error)
	publish     func(ctx context.Context, id int64) (models.OrderView, service.SyncResult, error)
	setStatus   func(ctx context.Context, id int64, status string) (models.OrderView, service.SyncResult, error)
	addNote     func(ctx context.Context, id int64, req models.NoteRequest, author string) (models.Note, service.SyncResult, error)
	resync      func(ctx context.Context, id int64) (service.SyncResult, error)
	get         func(ctx context.Context, id int64) (models.OrderView, error)
	list        func(ctx context.Context) ([]models.OrderView, error)
}

var _ service.Order = (*svcStub)(nil)

func (s *svcStub) CreateOrUpdateFromPeer(ctx context.Context, raw []byte) (service.UpsertResult, error) {
	if s.createOrUpdate != nil {
		return s.createOrUpdate(ctx, raw)
	}
	return service.UpsertResult{}, fmt.Errorf("not implemented")
}

func (s *svcStub) ApplyPeerUpdate(ctx context.Context, externalID int64, raw []byte) error {
	if s.applyUpdate != nil {
		return s.applyUpdate(ctx, externalID, raw)
	}
	return nil
}

func (s *svcStub) AddNoteFromPeer(ctx context.Context, externalID int64, req models.NoteRequest) (models.Note, service.SyncResult, error) {
	if s.addPeerNote != nil {
		return s.addPeerNote(ctx, externalID, req)
	}
	return models.Note{}, service.SyncResult{}, nil
}

func (s *svcStub) CreateLocalOrder(ctx context.Context, raw []byte) (models.OrderView, error) {
	if s.createLocal != nil {
		return s.createLocal(ctx, raw)
	}
	return models.OrderView{}, nil
}

func (s *svcStub) PublishOrder(ctx context.Context, id int64) (models.OrderView, service.SyncResult, error) {
	if s.publish != nil {
		return s.publish(ctx, id)
	}
	return models.OrderView{}, service.SyncResult{}, nil
}

func (s *svcStub) SetStatus(ctx context.Context, id int64, status string) (models.OrderView, service.SyncResult, error) {
	if s.setStatus != nil {
		return s.setStatus(ctx, id, status)
	}
	return models.OrderView{}, service.SyncResult{}, nil
}

func (s *svcStub) AddLocalNote(ctx context.Context, id int64, req models.NoteRequest, author string) (models.Note, service.SyncResult, error) {
	if s.addNote != nil {
		return s.addNote(ctx, id, req, author)
	}
	return models.Note{}, service.SyncResult{}, nil
}

func (s *svcStub) Resync(ctx context.Context, id int64) (service.SyncResult, error) {
	if s.resync != nil {
		return s.resync(ctx, id)
	}
	return service.SyncResult{}, nil
}

func (s *svcStub) GetOrder(ctx context.Context, id int64) (models.OrderView, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return models.OrderView{}, service.ErrNotFound
}

func (s *svcStub) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	if s.list != nil {
		return s.list(ctx)
	}
	return nil, nil
}

func newAuth(key, secret string) *auth.Authenticator {
	return auth.NewAuthenticator(
		auth.Config{APIKey: key, Secret: secret},
		cache.NewNonceCache(cache.NewCache()),
	)
}

func newRouter(s service.Order, withAdmin bool) *gin.Engine {
	cfg := httpdelivery.Config{Peer: newAuth(peerKey, peerSecret)}
	if withAdmin {
		cfg.Admin = newAuth(adminKey, adminSecret)
	}
	return httpdelivery.NewHandler(s, cfg).InitRoutes()
}

type creds struct {
	key, secret string
	ts, nonce   string
}

func fresh(key, secret string) creds {
	nonce, err := syncclient.NewNonce()
	if err != nil {
		panic(err)
	}
	return creds{key: key, secret: secret, ts: strconv.FormatInt(time.Now().Unix(), 10), nonce: nonce}
}

// signedRequest builds a request signed the way a peer would sign it. The
// route is absolute because httptest requests carry Host example.com.
func signedRequest(method, path string, body []byte, c creds) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	route := "http://" + req.Host + req.URL.RequestURI()
	req.Header.Set(signature.HeaderAPIKey, c.key)
	req.Header.Set(signature.HeaderTimestamp, c.ts)
	req.Header.Set(signature.HeaderNonce, c.nonce)
	req.Header.Set(signature.HeaderSignature, signature.Sign(c.secret, c.ts, c.nonce, route, body))
	return req
}

func peerRequest(method, path, body string) *http.Request {
	return signedRequest(method, path, []byte(body), fresh(peerKey, peerSecret))
}

func adminRequest(method, path, body string) *http.Request {
	return signedRequest(method, path, []byte(body), fresh(adminKey, adminSecret))
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSyncRoutes_Unsigned_401(t *testing.T) {
	hook := logtest.NewGlobal()
	called := false
	s := &svcStub{
		createOrUpdate: func(context.Context, []byte) (service.UpsertResult, error) {
			called = true
			return service.UpsertResult{}, nil
		},
	}
	r := newRouter(s, false)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"id":1}`)),
		httptest.NewRequest(http.MethodPut, "/orders/1", bytes.NewBufferString(`{"status":"x"}`)),
		httptest.NewRequest(http.MethodPost, "/orders/1/notes", bytes.NewBufferString(`{"content":"x"}`)),
	} {
		w := serve(r, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, req.URL.Path)
		require.JSONEq(t, `{"success":false,"message":"unauthorized"}`, w.Body.String())
	}
	require.False(t, called)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "unauthorized request" {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestSyncRoutes_WrongSecretOrKey_401(t *testing.T) {
	r := newRouter(&svcStub{}, false)

	w := serve(r, signedRequest(http.MethodPut, "/orders/1", []byte(`{}`), fresh(peerKey, "nope")))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, signedRequest(http.MethodPut, "/orders/1", []byte(`{}`), fresh("other", peerSecret)))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// admin credentials do not open the peer routes
	w = serve(r, signedRequest(http.MethodPut, "/orders/1", []byte(`{}`), fresh(adminKey, adminSecret)))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSyncRoutes_TamperedBody_401(t *testing.T) {
	r := newRouter(&svcStub{}, false)

	c := fresh(peerKey, peerSecret)
	tampered := signedRequest(http.MethodPut, "/orders/1", []byte(`{"status":"processing"}`), c)
	tampered.Body = httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"status":"cancelled"}`)).Body

	w := serve(r, tampered)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSyncRoutes_ReplayedNonce_401(t *testing.T) {
	applied := 0
	s := &svcStub{
		applyUpdate: func(context.Context, int64, []byte) error {
			applied++
			return nil
		},
	}
	r := newRouter(s, false)

	c := fresh(peerKey, peerSecret)
	body := []byte(`{"status":"completed"}`)

	w := serve(r, signedRequest(http.MethodPut, "/orders/5", body, c))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, signedRequest(http.MethodPut, "/orders/5", body, c))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, 1, applied)
}

func TestSyncRoutes_StaleTimestamp_401(t *testing.T) {
	r := newRouter(&svcStub{}, false)

	c := fresh(peerKey, peerSecret)
	c.ts = strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)

	w := serve(r, signedRequest(http.MethodPut, "/orders/5", []byte(`{}`), c))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSyncRoutes_SignedAgainstPublicURL(t *testing.T) {
	var got int64
	s := &svcStub{
		applyUpdate: func(_ context.Context, id int64, _ []byte) error {
			got = id
			return nil
		},
	}
	h := httpdelivery.NewHandler(s, httpdelivery.Config{
		PublicURL: "https://hub.example.org/",
		Peer:      newAuth(peerKey, peerSecret),
	})
	r := h.InitRoutes()

	c := fresh(peerKey, peerSecret)
	body := []byte(`{"status":"completed"}`)
	req := httptest.NewRequest(http.MethodPut, "/orders/9", bytes.NewReader(body))
	req.Header.Set(signature.HeaderAPIKey, c.key)
	req.Header.Set(signature.HeaderTimestamp, c.ts)
	req.Header.Set(signature.HeaderNonce, c.nonce)
	req.Header.Set(signature.HeaderSignature,
		signature.Sign(c.secret, c.ts, c.nonce, "https://hub.example.org/orders/9", body))

	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 9, got)

	// the same request signed against the internal host no longer matches
	w = serve(r, peerRequest(http.MethodPut, "/orders/9", string(body)))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSyncRoutes_ForwardedProto(t *testing.T) {
	r := newRouter(&svcStub{}, false)

	c := fresh(peerKey, peerSecret)
	body := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPut, "/orders/3", bytes.NewReader(body))
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set(signature.HeaderAPIKey, c.key)
	req.Header.Set(signature.HeaderTimestamp, c.ts)
	req.Header.Set(signature.HeaderNonce, c.nonce)
	req.Header.Set(signature.HeaderSignature,
		signature.Sign(c.secret, c.ts, c.nonce, "https://example.com/orders/3", body))

	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReceiveOrder_Created_201(t *testing.T) {
	var raw []byte
	s := &svcStub{
		createOrUpdate: func(_ context.Context, b []byte) (service.UpsertResult, error) {
			raw = b
			return service.UpsertResult{OrderID: 12, StoreOrderID: 167, Created: true}, nil
		},
	}
	r := newRouter(s, false)

	body := `{"id":167,"status":"processing"}`
	w := serve(r, peerRequest(http.MethodPost, "/orders", body))

	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"success":true,"order_id":12,"store_order_id":167}`, w.Body.String())
	require.JSONEq(t, body, string(raw))
}

func TestReceiveOrder_Merged_200(t *testing.T) {
	s := &svcStub{
		createOrUpdate: func(context.Context, []byte) (service.UpsertResult, error) {
			return service.UpsertResult{OrderID: 12, StoreOrderID: 167}, nil
		},
	}
	r := newRouter(s, false)

	w := serve(r, peerRequest(http.MethodPost, "/orders", `{"id":167}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"order_id":12`)
}

func TestReceiveOrder_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"missing id", &service.ValidationError{Msg: "Missing order ID"}, http.StatusBadRequest, "Missing order ID"},
		{"invalid json", &service.ValidationError{Msg: "Invalid JSON body"}, http.StatusBadRequest, "Invalid JSON body"},
		{"persistence", fmt.Errorf("%w: insert: boom", service.ErrPersistence), http.StatusInternalServerError, "Failed to create order"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &svcStub{
				createOrUpdate: func(context.Context, []byte) (service.UpsertResult, error) {
					return service.UpsertResult{}, tc.err
				},
			}
			r := newRouter(s, false)

			w := serve(r, peerRequest(http.MethodPost, "/orders", `{}`))
			require.Equal(t, tc.code, w.Code)

			var resp struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.False(t, resp.Success)
			require.Equal(t, tc.msg, resp.Message)
			require.NotContains(t, w.Body.String(), "boom")
		})
	}
}

func TestReceiveUpdate(t *testing.T) {
	var gotID int64
	var gotBody []byte
	s := &svcStub{
		applyUpdate: func(_ context.Context, id int64, raw []byte) error {
			gotID, gotBody = id, raw
			if id == 404 {
				return service.ErrNotFound
			}
			return nil
		},
	}
	r := newRouter(s, false)

	w := serve(r, peerRequest(http.MethodPut, "/orders/42", `{"status":"completed"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true,"message":"Order updated"}`, w.Body.String())
	require.EqualValues(t, 42, gotID)
	require.JSONEq(t, `{"status":"completed"}`, string(gotBody))

	w = serve(r, peerRequest(http.MethodPut, "/orders/404", `{"status":"completed"}`))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Order not found")

	w = serve(r, peerRequest(http.MethodPut, "/orders/abc", `{}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid order ID")
}

func TestReceiveNote(t *testing.T) {
	var got models.NoteRequest
	s := &svcStub{
		addPeerNote: func(_ context.Context, id int64, req models.NoteRequest) (models.Note, service.SyncResult, error) {
			got = req
			return models.Note{Content: req.Content, AddedBy: "Store", Origin: models.OriginLocal}, service.SyncResult{Delivered: true}, nil
		},
	}
	r := newRouter(s, false)

	w := serve(r, peerRequest(http.MethodPost, "/orders/7/notes", `{"content":"Packed","is_customer_note":"1"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Packed", got.Content)
	require.True(t, got.IsCustomerNote)

	var resp struct {
		Success bool        `json:"success"`
		Note    models.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "Packed", resp.Note.Content)

	w = serve(r, peerRequest(http.MethodPost, "/orders/7/notes", `not json`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid JSON body")
}

func TestAdminRoutes_DisabledWithoutCredentials(t *testing.T) {
	r := newRouter(&svcStub{}, false)

	w := serve(r, adminRequest(http.MethodGet, "/api/orders", ""))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes_RequireAdminCredentials(t *testing.T) {
	r := newRouter(&svcStub{}, true)

	w := serve(r, peerRequest(http.MethodGet, "/api/orders", ""))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_ListAndGet(t *testing.T) {
	ext := int64(167)
	view := models.OrderView{ID: 3, ExternalID: &ext, Title: "Order #167", Status: "processing"}
	s := &svcStub{
		list: func(context.Context) ([]models.OrderView, error) { return []models.OrderView{view}, nil },
		get: func(_ context.Context, id int64) (models.OrderView, error) {
			if id == 3 {
				return view, nil
			}
			return models.OrderView{}, service.ErrNotFound
		},
	}
	r := newRouter(s, true)

	w := serve(r, adminRequest(http.MethodGet, "/api/orders", ""))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"data":[`)
	require.Contains(t, w.Body.String(), `"title":"Order #167"`)

	w = serve(r, adminRequest(http.MethodGet, "/api/orders/3", ""))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"external_id":167`)

	w = serve(r, adminRequest(http.MethodGet, "/api/orders/4", ""))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_ListError_500(t *testing.T) {
	s := &svcStub{
		list: func(context.Context) ([]models.OrderView, error) {
			return nil, fmt.Errorf("%w: list orders: regular error", service.ErrPersistence)
		},
	}
	r := newRouter(s, true)

	w := serve(r, adminRequest(http.MethodGet, "/api/orders", ""))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Failed to list orders")
	require.NotContains(t, w.Body.String(), "regular error")
}

func TestAdmin_CreateOrder(t *testing.T) {
	s := &svcStub{
		createLocal: func(_ context.Context, raw []byte) (models.OrderView, error) {
			if bytes.Contains(raw, []byte(`"id":1`)) {
				return models.OrderView{}, service.ErrConflict
			}
			return models.OrderView{ID: 1, Status: "pending"}, nil
		},
	}
	r := newRouter(s, true)

	w := serve(r, adminRequest(http.MethodPost, "/api/orders", `{"status":"pending"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"status":"pending"`)

	w = serve(r, adminRequest(http.MethodPost, "/api/orders", `{"id":1}`))
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAdmin_SetStatus(t *testing.T) {
	var got string
	s := &svcStub{
		setStatus: func(_ context.Context, id int64, status string) (models.OrderView, service.SyncResult, error) {
			got = status
			return models.OrderView{ID: id, Status: status}, service.SyncResult{Delivered: true, StatusCode: 200}, nil
		},
	}
	r := newRouter(s, true)

	w := serve(r, adminRequest(http.MethodPut, "/api/orders/2/status", `{"status":"completed"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "completed", got)
	require.Contains(t, w.Body.String(), `"sync":{"delivered":true`)

	w = serve(r, adminRequest(http.MethodPut, "/api/orders/2/status", `{`))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_AddNote_PassesAuthor(t *testing.T) {
	var author string
	s := &svcStub{
		addNote: func(_ context.Context, _ int64, req models.NoteRequest, by string) (models.Note, service.SyncResult, error) {
			author = by
			return models.Note{Content: req.Content, AddedBy: by}, service.SyncResult{Skipped: true, Reason: "not configured"}, nil
		},
	}
	r := newRouter(s, true)

	w := serve(r, adminRequest(http.MethodPost, "/api/orders/2/notes", `{"content":"Packed","added_by":"alice"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "alice", author)
	require.Contains(t, w.Body.String(), `"reason":"not configured"`)
}

func TestAdmin_ResyncAndPublish(t *testing.T) {
	s := &svcStub{
		resync: func(context.Context, int64) (service.SyncResult, error) {
			return service.SyncResult{Delivered: false, StatusCode: 502, Error: "delivery failed"}, nil
		},
		publish: func(context.Context, int64) (models.OrderView, service.SyncResult, error) {
			return models.OrderView{}, service.SyncResult{Skipped: true, Reason: "not configured"}, service.ErrNotConfigured
		},
	}
	r := newRouter(s, true)

	w := serve(r, adminRequest(http.MethodPost, "/api/orders/2/sync", ""))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status_code":502`)

	w = serve(r, adminRequest(http.MethodPost, "/api/orders/2/publish", ""))
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "Peer is not configured")
}

func TestHandler_HealthAndNoRoute(t *testing.T) {
	r := newRouter(&svcStub{}, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_RequestIDEchoed(t *testing.T) {
	r := newRouter(&svcStub{}, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := serve(r, req)
	require.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestServer_Run_Shutdown(t *testing.T) {
	s := &httpdelivery.Server{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		err := s.Run("127.0.0.1:0", handler)
		if err != nil && err != http.ErrServerClosed {
			t.Error(err)
		}
	}()

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, s.Shutdown(context.Background()))
}
