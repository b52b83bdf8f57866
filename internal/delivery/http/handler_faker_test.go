package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	httpdelivery "hub-order-sync/internal/delivery/http"
	"hub-order-sync/internal/models"
	"hub-order-sync/internal/repository"
	"hub-order-sync/internal/repository/cache"
	"hub-order-sync/internal/repository/memory"
	"hub-order-sync/internal/service"
)

type fakeItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
}

type fakeNote struct {
	Content string `json:"content"`
	AddedBy string `json:"added_by"`
}

type fakeOrder struct {
	ID            int64          `json:"id"`
	Status        string         `json:"status"`
	DateCreated   string         `json:"date_created"`
	Customer      map[string]any `json:"customer"`
	LineItems     []fakeItem     `json:"line_items"`
	PaymentMethod string         `json:"payment_method"`
	Shipping      map[string]any `json:"shipping"`
	Notes         []fakeNote     `json:"notes"`

	total decimal.Decimal
}

func newFakeOrder(f *gofakeit.Faker, id int64) fakeOrder {
	o := fakeOrder{
		ID:          id,
		Status:      f.RandomString([]string{"pending", "processing", "on-hold", "completed"}),
		DateCreated: f.DateRange(
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		).Format("2006-01-02T15:04:05"),
		Customer: map[string]any{
			"first_name": f.FirstName(),
			"last_name":  f.LastName(),
			"email":      f.Email(),
			"phone":      f.Phone(),
		},
		PaymentMethod: f.RandomString([]string{"bacs", "cod", "stripe"}),
		Shipping: map[string]any{
			"city":      f.City(),
			"address_1": f.Street(),
			"postcode":  f.Zip(),
		},
		total: decimal.Zero,
	}
	for i := 0; i < int(f.Number(1, 4)); i++ {
		total := decimal.NewFromInt(int64(f.Number(100, 50000))).Shift(-2)
		o.LineItems = append(o.LineItems, fakeItem{
			Name:     f.ProductName(),
			Quantity: int(f.Number(1, 5)),
			Total:    total.StringFixed(2),
		})
		o.total = o.total.Add(total)
	}
	for i := 0; i < int(f.Number(0, 2)); i++ {
		o.Notes = append(o.Notes, fakeNote{Content: f.ProductName(), AddedBy: f.Name()})
	}
	return o
}

func newMemoryRouter(t *testing.T) http.Handler {
	t.Helper()
	kv := cache.NewCache()
	t.Cleanup(kv.Close)
	svc := service.NewService(repository.NewRepository(memory.NewStore(), kv), nil, service.WithPeerLabel("Store"))
	h := httpdelivery.NewHandler(svc, httpdelivery.Config{
		Peer:  newAuth(peerKey, peerSecret),
		Admin: newAuth(adminKey, adminSecret),
	})
	return h.InitRoutes()
}

func Test_ReceiveOrder_ManyFakeOrders(t *testing.T) {
	f := gofakeit.New(42)
	r := newMemoryRouter(t)

	orders := make(map[int64]fakeOrder)
	for i := 0; i < 20; i++ {
		o := newFakeOrder(f, int64(1000+i))
		orders[o.ID] = o

		body, err := json.Marshal(o)
		require.NoError(t, err)
		w := serve(r, peerRequest(http.MethodPost, "/orders", string(body)))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := serve(r, adminRequest(http.MethodGet, "/api/orders", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.OrderView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, len(orders))

	for _, v := range resp.Data {
		require.NotNil(t, v.ExternalID)
		want, ok := orders[*v.ExternalID]
		require.True(t, ok)

		require.Equal(t, fmt.Sprintf("Order #%d", want.ID), v.Title)
		require.Equal(t, want.Status, v.Status)
		require.True(t, want.total.Equal(v.Total), "total %s != %s", v.Total, want.total)
		require.Len(t, v.LineItems, len(want.LineItems))
		require.Len(t, v.Notes, len(want.Notes))
		require.Equal(t, models.ShippingDate(want.DateCreated), v.ShippingDate)
		for _, n := range v.Notes {
			require.Equal(t, models.OriginPeer, n.Origin)
		}
	}
}

func Test_ReceiveOrder_RepeatedPushIsIdempotent(t *testing.T) {
	f := gofakeit.New(7)
	r := newMemoryRouter(t)

	o := newFakeOrder(f, 167)
	o.Notes = nil
	body, err := json.Marshal(o)
	require.NoError(t, err)

	w := serve(r, peerRequest(http.MethodPost, "/orders", string(body)))
	require.Equal(t, http.StatusCreated, w.Code)
	var first struct {
		OrderID int64 `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	o.Status = "completed"
	body, err = json.Marshal(o)
	require.NoError(t, err)

	w = serve(r, peerRequest(http.MethodPost, "/orders", string(body)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), fmt.Sprintf(`"order_id":%d`, first.OrderID))

	w = serve(r, adminRequest(http.MethodGet, fmt.Sprintf("/api/orders/%d", first.OrderID), ""))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"completed"`)
}

func Test_ReceiveOrder_MissingID_400(t *testing.T) {
	r := newMemoryRouter(t)

	w := serve(r, peerRequest(http.MethodPost, "/orders", `{"status":"processing"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"success":false,"message":"Missing order ID"}`, w.Body.String())

	w = serve(r, peerRequest(http.MethodPost, "/orders", `{"id":`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid JSON body")
}

func Test_ReceiveUpdate_UnknownOrder_404(t *testing.T) {
	r := newMemoryRouter(t)

	w := serve(r, peerRequest(http.MethodPut, "/orders/999", `{"status":"completed"}`))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"success":false,"message":"Order not found"}`, w.Body.String())
}

func Test_ReceiveNote_OverLimit_400(t *testing.T) {
	r := newMemoryRouter(t)

	w := serve(r, peerRequest(http.MethodPost, "/orders", `{"id":5,"status":"processing"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	body, err := json.Marshal(models.NoteRequest{Content: strings.Repeat("x", 10001)})
	require.NoError(t, err)
	w = serve(r, peerRequest(http.MethodPost, "/orders/5/notes", string(body)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"success":false,"message":"Content: max=10000"}`, w.Body.String())

	w = serve(r, adminRequest(http.MethodGet, "/api/orders", ""))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"notes":[]`)
}
