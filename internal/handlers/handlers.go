package handlers

import (
	"context"
	"net/http"
	"strconv"

	apperrors "tessera/internal/errors"
	"tessera/internal/middleware"
	"tessera/internal/models"
	"tessera/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// httpStatus maps error kinds onto status codes. Retryable processor-side
// failures surface as 502/503 so callers know to try again.
func httpStatus(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindRefundFailed:
		return http.StatusBadGateway
	case apperrors.KindCodeGenerationExhausted, apperrors.KindProcessorUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(httpStatus(err), gin.H{
		"error": err.Error(),
		"kind":  string(apperrors.KindOf(err)),
	})
}

// CreateReservation handles POST /api/reservations
func (h *Handlers) CreateReservation(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "invalid request body", err))
		return
	}

	reservation, err := h.services.Reservations.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateReservationResponse{
		ID:          reservation.ID,
		TotalAmount: reservation.TotalAmount,
		FinalAmount: reservation.FinalAmount,
		Status:      reservation.Status,
	})
}

// CreatePaymentIntent handles POST /api/payments
func (h *Handlers) CreatePaymentIntent(c *gin.Context) {
	var req models.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "invalid request body", err))
		return
	}

	resp, err := h.services.Reservations.CreatePaymentIntent(c.Request.Context(), req.ReservationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ConfirmSettlement handles POST /api/payments/confirm
func (h *Handlers) ConfirmSettlement(c *gin.Context) {
	var req models.ConfirmSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "invalid request body", err))
		return
	}

	resp, err := h.services.Settlements.Confirm(c.Request.Context(), req.PaymentReference)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.AlreadySettled {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// ConfirmFreeSettlement handles POST /api/payments/confirm-free
func (h *Handlers) ConfirmFreeSettlement(c *gin.Context) {
	var req models.ConfirmFreeSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "invalid request body", err))
		return
	}

	resp, err := h.services.Settlements.ConfirmFree(c.Request.Context(), req.ReservationID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.AlreadySettled {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// ScanTicket handles POST /api/tickets/scan. The scanner id comes from basic
// auth, not the request body.
func (h *Handlers) ScanTicket(c *gin.Context) {
	var req models.ScanTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "invalid request body", err))
		return
	}

	if scannerID, ok := middleware.ScannerIDFromContext(c.Request.Context()); ok {
		req.ScannerID = scannerID
	}

	resp, err := h.services.Scans.Scan(c.Request.Context(), req.Code, req.ScannerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ScannedTickets handles GET /api/tickets/scanned
func (h *Handlers) ScannedTickets(c *gin.Context) {
	scannerID, ok := middleware.ScannerIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, apperrors.InvalidInput("missing scanner identity"))
		return
	}

	items, err := h.services.Scans.History(c.Request.Context(), scannerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if items == nil {
		items = []models.ScannedTicketItem{}
	}
	c.JSON(http.StatusOK, items)
}

// CancelSeat handles POST /api/orders/cancel-seat
func (h *Handlers) CancelSeat(c *gin.Context) {
	var req models.CancelSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "invalid request body", err))
		return
	}

	resp, err := h.services.Cancellations.CancelSeat(c.Request.Context(), req.OrderID, req.Seat)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.InvalidInput("invalid order id"))
		return
	}

	order, err := h.services.Cancellations.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/orders?buyer_id=
func (h *Handlers) ListOrders(c *gin.Context) {
	h.listOrders(c, h.services.Cancellations.ListOrders)
}

// ListCancelledOrders handles GET /api/orders/cancelled?buyer_id=
func (h *Handlers) ListCancelledOrders(c *gin.Context) {
	h.listOrders(c, h.services.Cancellations.ListCancelledOrders)
}

func (h *Handlers) listOrders(c *gin.Context, list func(ctx context.Context, buyerID int64) ([]models.Order, error)) {
	buyerID, err := strconv.ParseInt(c.Query("buyer_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.InvalidInput("invalid buyer_id"))
		return
	}

	orders, err := list(c.Request.Context(), buyerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// EventInventory handles GET /api/events/:id/inventory
func (h *Handlers) EventInventory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.InvalidInput("invalid event id"))
		return
	}

	resp, err := h.services.Reservations.Inventory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
