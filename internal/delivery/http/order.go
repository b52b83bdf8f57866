package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/service"
)

type getAllOrdersResponse struct {
	Data []models.OrderView `json:"data"`
}

type orderResponse struct {
	Data models.OrderView   `json:"data"`
	Sync *service.SyncResult `json:"sync,omitempty"`
}

type adminNoteResponse struct {
	Note models.Note        `json:"note"`
	Sync service.SyncResult `json:"sync"`
}

type syncResponse struct {
	Sync service.SyncResult `json:"sync"`
}

// ListOrders
// @Summary ListOrders
// @Description Lists every order, newest first, with notes, shipping date and totals
// @ID list-orders
// @Tags admin
// @Produce json
// @Success 200 {object} getAllOrdersResponse
// @Failure 401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.svc.ListOrders(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, getAllOrdersResponse{Data: orders})
}

// GetOrder
// @Summary GetOrder
// @Description Returns one order from the app's cache, falling back to the store
// @ID get-order
// @Tags admin
// @Produce json
// @Param id path int true "internal order id"
// @Success 200 {object} models.OrderView
// @Failure 400,401,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to load order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreateOrder
// @Summary CreateOrder
// @Description Stores a locally entered order. It is not sent anywhere until published.
// @ID create-order
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} orderResponse
// @Failure 400,401,409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	view, err := h.svc.CreateLocalOrder(c.Request.Context(), rawBody(c))
	if err != nil {
		fail(c, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, orderResponse{Data: view})
}

// SetStatus
// @Summary SetStatus
// @Description Changes the order status and pushes it to the peer when it changed
// @ID set-status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "internal order id"
// @Param body body models.StatusRequest true "new status"
// @Success 200 {object} orderResponse
// @Failure 400,401,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id}/status [put]
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.StatusRequest
	if err := json.Unmarshal(rawBody(c), &req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	view, res, err := h.svc.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		fail(c, err, "Failed to update order")
		return
	}
	c.JSON(http.StatusOK, orderResponse{Data: view, Sync: &res})
}

// AddNote
// @Summary AddNote
// @Description Adds a local note and pushes it to the peer
// @ID add-note
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "internal order id"
// @Param body body models.NoteRequest true "note"
// @Success 200 {object} adminNoteResponse
// @Failure 400,401,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id}/notes [post]
func (h *Handler) AddNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body := rawBody(c)
	var req models.NoteRequest
	var author struct {
		AddedBy string `json:"added_by"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	_ = json.Unmarshal(body, &author)

	note, res, err := h.svc.AddLocalNote(c.Request.Context(), id, req, author.AddedBy)
	if err != nil {
		fail(c, err, "Failed to add note")
		return
	}
	c.JSON(http.StatusOK, adminNoteResponse{Note: note, Sync: res})
}

// Resync
// @Summary Resync
// @Description Pushes the current status of the order to the peer again
// @ID resync
// @Tags admin
// @Produce json
// @Param id path int true "internal order id"
// @Success 200 {object} syncResponse
// @Failure 400,401,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id}/sync [post]
func (h *Handler) Resync(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.svc.Resync(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to sync order")
		return
	}
	c.JSON(http.StatusOK, syncResponse{Sync: res})
}

// Publish
// @Summary Publish
// @Description Sends a local order to the peer and links the peer's id to it
// @ID publish
// @Tags admin
// @Produce json
// @Param id path int true "internal order id"
// @Success 200 {object} orderResponse
// @Failure 400,401,404,409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/orders/{id}/publish [post]
func (h *Handler) Publish(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, res, err := h.svc.PublishOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to publish order")
		return
	}
	c.JSON(http.StatusOK, orderResponse{Data: view, Sync: &res})
}
