package service

import (
	"context"
	"errors"
	"time"

	apperrors "tessera/internal/errors"
	"tessera/internal/logger"
	"tessera/internal/metrics"
	"tessera/internal/models"
	"tessera/internal/repository"
)

// CancellationService removes single seats from settled orders. The ordering
// invariant: the processor refund goes out first, and only after it succeeds
// does anything local change. A refund failure leaves the order untouched and
// the whole operation retryable.
type CancellationService struct {
	orders       OrderStore
	reservations ReservationStore
	events       EventStore
	payments     PaymentProvider
	notifier     Notifier
	publisher    Publisher
}

func NewCancellationService(orders OrderStore, reservations ReservationStore, events EventStore,
	payments PaymentProvider, notifier Notifier, publisher Publisher) *CancellationService {
	return &CancellationService{
		orders:       orders,
		reservations: reservations,
		events:       events,
		payments:     payments,
		notifier:     notifier,
		publisher:    publisher,
	}
}

func (s *CancellationService) CancelSeat(ctx context.Context, orderID int64, seat models.SeatRef) (*models.CancelSeatResponse, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NotFound("order not found")
	}
	if order.Status == models.OrderCancelled {
		return nil, apperrors.Conflict("order already cancelled")
	}

	ticket := order.FindTicket(seat)
	if ticket == nil {
		return nil, apperrors.NotFound("seat not found in order")
	}

	refund, err := s.computeRefund(ctx, order)
	if err != nil {
		return nil, err
	}

	if refund > 0 {
		if err := s.payments.Refund(order.PaymentReference, refund); err != nil {
			metrics.RefundsTotal.WithLabelValues("failed").Inc()
			return nil, err
		}
		metrics.RefundsTotal.WithLabelValues("success").Inc()
	}

	outcome, err := s.orders.ApplyCancellation(ctx, orderID, seat, refund)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return nil, apperrors.NotFound("seat not found in order")
		}
		// Refund already went out. Surface loudly, this needs reconciliation.
		logger.WithContext(ctx).Error("Cancellation mutation failed after refund",
			"error", err, "order_id", orderID, "refund", refund)
		return nil, err
	}

	s.afterCancel(ctx, order, seat, refund, outcome)

	return &models.CancelSeatResponse{
		OrderID:            orderID,
		RefundedAmount:     refund,
		RemainingSeats:     outcome.RemainingSeats,
		RemainingAmount:    outcome.RemainingAmount,
		OrderDeleted:       outcome.OrderCancelled,
		ReservationDeleted: outcome.ReservationDeleted,
	}, nil
}

// computeRefund divides the currently-paid amount evenly across the seats
// still in the order. Integer division in minor units; the remainder stays
// with the seller. Free orders refund nothing.
func (s *CancellationService) computeRefund(ctx context.Context, order *models.Order) (int64, error) {
	if order.IsFree() {
		return 0, nil
	}
	if order.Quantity == 0 {
		return 0, nil
	}

	paid := order.TotalAmount
	reservation, err := s.reservations.GetByID(ctx, order.ReservationID)
	if err != nil {
		return 0, err
	}
	if reservation != nil {
		paid = reservation.PaidAmount()
	}

	return paid / int64(order.Quantity), nil
}

func (s *CancellationService) afterCancel(ctx context.Context, order *models.Order, seat models.SeatRef,
	refund int64, outcome *repository.CancellationOutcome) {
	log := logger.WithContext(ctx).With("order_id", order.ID)

	if err := s.publisher.Publish(models.EventSeatCancelled, models.SeatCancelledEvent{
		OrderID:        order.ID,
		ReservationID:  order.ReservationID,
		EventID:        order.EventID,
		Seat:           seat,
		RefundedAmount: refund,
		OrderDeleted:   outcome.OrderCancelled,
		Timestamp:      time.Now(),
	}); err != nil {
		log.Error("Failed to publish seat cancelled event", "error", err)
	}

	eventTitle := ""
	if event, err := s.events.GetByID(ctx, order.EventID); err == nil && event != nil {
		eventTitle = event.Title
	}

	if err := s.notifier.SendRefundNotice(order.BuyerEmail, eventTitle, seat, refund); err != nil {
		log.Error("Failed to send refund notice", "error", err, "to", order.BuyerEmail)
	}
}

// GetOrder fetches one order by id.
func (s *CancellationService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NotFound("order not found")
	}
	return order, nil
}

// ListOrders returns a buyer's active orders.
func (s *CancellationService) ListOrders(ctx context.Context, buyerID int64) ([]models.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

// ListCancelledOrders returns a buyer's fully-cancelled orders.
func (s *CancellationService) ListCancelledOrders(ctx context.Context, buyerID int64) ([]models.Order, error) {
	return s.orders.ListCancelledByBuyer(ctx, buyerID)
}
