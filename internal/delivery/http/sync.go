package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hub-order-sync/internal/models"
)

type orderAckResponse struct {
	Success      bool  `json:"success"`
	OrderID      int64 `json:"order_id"`
	StoreOrderID int64 `json:"store_order_id"`
}

type noteResponse struct {
	Success bool        `json:"success"`
	Note    models.Note `json:"note"`
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		newErrorResponse(c, http.StatusBadRequest, "Invalid order ID")
		return 0, false
	}
	return id, true
}

// ReceiveOrder
// @Summary ReceiveOrder
// @Description Creates or merges an order pushed by the peer. The order's id becomes the local external id.
// @ID receive-order
// @Tags sync
// @Accept json
// @Produce json
// @Param X-API-KEY header string true "peer api key"
// @Param X-API-SIGNATURE header string true "hex HMAC-SHA256"
// @Param X-API-TIMESTAMP header string true "unix seconds"
// @Param X-API-NONCE header string true "random nonce"
// @Success 200,201 {object} orderAckResponse
// @Failure 400,401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /orders [post]
func (h *Handler) ReceiveOrder(c *gin.Context) {
	res, err := h.svc.CreateOrUpdateFromPeer(c.Request.Context(), rawBody(c))
	if err != nil {
		fail(c, err, "Failed to create order")
		return
	}
	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	c.JSON(code, orderAckResponse{Success: true, OrderID: res.OrderID, StoreOrderID: res.StoreOrderID})
}

// ReceiveUpdate
// @Summary ReceiveUpdate
// @Description Applies a status and/or note update from the peer. The path id is the peer's own order id.
// @ID receive-update
// @Tags sync
// @Accept json
// @Produce json
// @Param id path int true "peer order id"
// @Param body body models.RemoteUpdate true "partial update"
// @Success 200 {object} statusResponse
// @Failure 400,401,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /orders/{id} [put]
func (h *Handler) ReceiveUpdate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.ApplyPeerUpdate(c.Request.Context(), id, rawBody(c)); err != nil {
		fail(c, err, "Failed to update order")
		return
	}
	c.JSON(http.StatusOK, statusResponse{Success: true, Message: "Order updated"})
}

// ReceiveNote
// @Summary ReceiveNote
// @Description Adds a note to the order the peer knows by id and relays it back to the peer.
// @ID receive-note
// @Tags sync
// @Accept json
// @Produce json
// @Param id path int true "peer order id"
// @Param body body models.NoteRequest true "note"
// @Success 200 {object} noteResponse
// @Failure 400,401,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /orders/{id}/notes [post]
func (h *Handler) ReceiveNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.NoteRequest
	if err := json.Unmarshal(rawBody(c), &req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	note, _, err := h.svc.AddNoteFromPeer(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err, "Failed to add note")
		return
	}
	c.JSON(http.StatusOK, noteResponse{Success: true, Note: note})
}
