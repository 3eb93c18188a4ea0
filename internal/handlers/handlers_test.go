package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"tessera/internal/external"
	"tessera/internal/middleware"
	"tessera/internal/models"
	"tessera/internal/repository"
	"tessera/internal/service"
)

// Thin stubs behind the service constructors; behavior is canned per test
// concern. Full business-rule coverage lives in the service package tests.

type stubEvents struct {
	event *models.Event
}

func (s *stubEvents) GetByID(_ context.Context, id int64) (*models.Event, error) {
	if s.event != nil && s.event.ID == id {
		return s.event, nil
	}
	return nil, nil
}
func (s *stubEvents) ReserveSeats(context.Context, int64, []models.SeatRef) error { return nil }
func (s *stubEvents) ReleaseSeats(context.Context, int64, []models.SeatRef) error { return nil }

type stubReservations struct {
	created *models.Reservation
}

func (s *stubReservations) Create(_ context.Context, r *models.Reservation) error {
	r.ID = 1
	s.created = r
	return nil
}
func (s *stubReservations) GetByID(context.Context, int64) (*models.Reservation, error) {
	return nil, nil
}
func (s *stubReservations) GetByPaymentReference(context.Context, string) (*models.Reservation, error) {
	return nil, nil
}
func (s *stubReservations) SetPaymentReference(context.Context, int64, string) error { return nil }
func (s *stubReservations) MarkPaid(context.Context, int64, string) (bool, error) {
	return false, nil
}

type stubOrders struct{}

func (s *stubOrders) Create(context.Context, *models.Order) error { return nil }
func (s *stubOrders) GetByID(context.Context, int64) (*models.Order, error) {
	return nil, nil
}
func (s *stubOrders) GetByReservationID(context.Context, int64) (*models.Order, error) {
	return nil, nil
}
func (s *stubOrders) GetByTicketCode(context.Context, string) (*models.Order, error) {
	return nil, nil
}
func (s *stubOrders) GetTicketByCode(context.Context, string) (*models.Ticket, error) {
	return nil, nil
}
func (s *stubOrders) ListByBuyer(context.Context, int64) ([]models.Order, error) { return nil, nil }
func (s *stubOrders) ListCancelledByBuyer(context.Context, int64) ([]models.Order, error) {
	return nil, nil
}
func (s *stubOrders) ListTicketsByScanner(context.Context, string) ([]models.ScannedTicketItem, error) {
	return nil, nil
}
func (s *stubOrders) MarkTicketUsed(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *stubOrders) ApplyCancellation(context.Context, int64, models.SeatRef, int64) (*repository.CancellationOutcome, error) {
	return nil, repository.ErrSeatNotFound
}

type stubScanLog struct{}

func (s *stubScanLog) Append(context.Context, *models.ScanRecord) error { return nil }

type stubPayments struct{}

func (s *stubPayments) CreateIntent(amount int64, _ string, _ string) (*external.PaymentIntent, error) {
	return &external.PaymentIntent{ID: "pi_stub", ClientSecret: "secret", Amount: amount, Currency: "aud"}, nil
}
func (s *stubPayments) Refund(string, int64) error { return nil }

type stubRenderer struct{}

func (s *stubRenderer) RenderTickets(*models.Order, string) ([]byte, error) { return nil, nil }

type stubNotifier struct{}

func (s *stubNotifier) SendTickets(string, *models.Order, string, []byte) error      { return nil }
func (s *stubNotifier) SendRefundNotice(string, string, models.SeatRef, int64) error { return nil }

type stubPublisher struct{}

func (s *stubPublisher) Publish(string, interface{}) error { return nil }

func setupRouter() (*gin.Engine, *stubEvents) {
	gin.SetMode(gin.TestMode)

	events := &stubEvents{event: &models.Event{ID: 1, Title: "Test Event", TotalSeats: 100, SoldCount: 40, AvailableCount: 60}}
	reservations := &stubReservations{}
	orders := &stubOrders{}

	services := &service.Services{
		Reservations:  service.NewReservationService(reservations, events, orders, &stubPayments{}, &stubPublisher{}),
		Settlements:   service.NewSettlementService(reservations, orders, events, &stubRenderer{}, &stubNotifier{}, &stubPublisher{}),
		Scans:         service.NewScanService(orders, events, &stubScanLog{}, &stubPublisher{}),
		Cancellations: service.NewCancellationService(orders, reservations, events, &stubPayments{}, &stubNotifier{}, &stubPublisher{}),
	}

	h := NewHandlers(services)

	r := gin.New()
	api := r.Group("/api")
	{
		api.POST("/reservations", h.CreateReservation)
		api.POST("/payments", h.CreatePaymentIntent)
		api.POST("/payments/confirm", h.ConfirmSettlement)
		api.POST("/payments/confirm-free", h.ConfirmFreeSettlement)
		api.GET("/orders", h.ListOrders)
		api.GET("/orders/cancelled", h.ListCancelledOrders)
		api.GET("/orders/:id", h.GetOrder)
		api.POST("/orders/cancel-seat", h.CancelSeat)
		api.GET("/events/:id/inventory", h.EventInventory)

		// Stand-in for the basic-auth middleware
		scanner := api.Group("/tickets")
		scanner.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(middleware.ContextWithScannerID(c.Request.Context(), "gate-1"))
		})
		scanner.POST("/scan", h.ScanTicket)
		scanner.GET("/scanned", h.ScannedTickets)
	}
	r.GET("/health", h.Health)

	return r, events
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateReservation(t *testing.T) {
	r, _ := setupRouter()

	w := doJSON(r, "POST", "/api/reservations", models.CreateReservationRequest{
		BuyerID:    7,
		BuyerEmail: "buyer@example.com",
		EventID:    1,
		Seats:      []models.Seat{{Section: "A", Row: "1", SeatNumber: 1, Price: 5000}},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.CreateReservationResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, int64(5000), resp.TotalAmount)
	assert.Equal(t, "pending", resp.Status)
}

func TestCreateReservationInvalidBody(t *testing.T) {
	r, _ := setupRouter()

	w := doJSON(r, "POST", "/api/reservations", map[string]interface{}{"buyer_id": 7})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_input")
}

func TestConfirmSettlementUnknownReference(t *testing.T) {
	r, _ := setupRouter()

	w := doJSON(r, "POST", "/api/payments/confirm", models.ConfirmSettlementRequest{
		PaymentReference: "pi_unknown",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestScanTicketUnknownCode(t *testing.T) {
	r, _ := setupRouter()

	w := doJSON(r, "POST", "/api/tickets/scan", models.ScanTicketRequest{
		Code:      "TKT-UNKNOWN",
		ScannerID: "ignored",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ScanTicketResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ScanInvalid, resp.Status)
	// Identity comes from auth, not the body
	assert.Equal(t, "gate-1", resp.ScannedBy)
}

func TestScannedTicketsEmpty(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/api/tickets/scanned", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestCancelSeatUnknownOrder(t *testing.T) {
	r, _ := setupRouter()

	w := doJSON(r, "POST", "/api/orders/cancel-seat", models.CancelSeatRequest{
		OrderID: 42,
		Seat:    models.SeatRef{Section: "A", Row: "1", SeatNumber: 1},
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderInvalidID(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/api/orders/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrdersRequiresBuyerID(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/api/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventInventory(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/api/events/1/inventory", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.EventInventoryResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 40, resp.SoldCount)
	assert.Equal(t, 60, resp.AvailableCount)
}

func TestEventInventoryNotFound(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/api/events/99/inventory", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
