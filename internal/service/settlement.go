package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	apperrors "tessera/internal/errors"
	"tessera/internal/logger"
	"tessera/internal/metrics"
	"tessera/internal/models"
	"tessera/internal/repository"
	"tessera/internal/ticketcode"
)

// SettlementService turns a paid reservation into a durable order with one
// coded ticket per seat. Settlement is idempotent: the unique index on
// orders.reservation_id decides races, and the loser returns the winner's
// order with AlreadySettled set.
type SettlementService struct {
	reservations ReservationStore
	orders       OrderStore
	events       EventStore
	renderer     TicketRenderer
	notifier     Notifier
	publisher    Publisher
	codes        *ticketcode.Generator
}

func NewSettlementService(reservations ReservationStore, orders OrderStore, events EventStore,
	renderer TicketRenderer, notifier Notifier, publisher Publisher) *SettlementService {
	return &SettlementService{
		reservations: reservations,
		orders:       orders,
		events:       events,
		renderer:     renderer,
		notifier:     notifier,
		publisher:    publisher,
		codes:        ticketcode.New(),
	}
}

// Confirm settles a reservation identified by its processor reference.
func (s *SettlementService) Confirm(ctx context.Context, paymentReference string) (*models.SettlementResponse, error) {
	reservation, err := s.reservations.GetByPaymentReference(ctx, paymentReference)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, apperrors.NotFound("no reservation for payment reference")
	}

	return s.settle(ctx, reservation, paymentReference)
}

// ConfirmFree settles a zero-amount reservation without touching the
// processor. The synthetic FREE_<id> reference marks the order as free for
// the cancellation path.
func (s *SettlementService) ConfirmFree(ctx context.Context, reservationID int64) (*models.SettlementResponse, error) {
	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, apperrors.NotFound("reservation not found")
	}
	if reservation.PaidAmount() != 0 {
		return nil, apperrors.InvalidInput("reservation is not free")
	}

	reference := models.FreePaymentPrefix + strconv.FormatInt(reservationID, 10)
	return s.settle(ctx, reservation, reference)
}

func (s *SettlementService) settle(ctx context.Context, reservation *models.Reservation, reference string) (*models.SettlementResponse, error) {
	log := logger.WithContext(ctx).With("reservation_id", reservation.ID)

	if len(reservation.Seats) == 0 {
		return nil, apperrors.InvalidInput("reservation has no seats")
	}

	won, err := s.reservations.MarkPaid(ctx, reservation.ID, reference)
	if err != nil {
		return nil, err
	}
	if !won {
		log.Info("Reservation already marked paid, continuing to order check")
	}

	for attempt := 0; attempt < ticketcode.MaxAttempts; attempt++ {
		order, err := s.buildOrder(reservation, reference)
		if err != nil {
			return nil, err
		}

		err = s.orders.Create(ctx, order)
		if err == nil {
			metrics.SettlementsTotal.WithLabelValues("created").Inc()
			s.afterSettle(ctx, order)
			return &models.SettlementResponse{
				OrderID:       order.ID,
				ReservationID: reservation.ID,
				TicketCount:   order.Quantity,
				Order:         order,
			}, nil
		}

		if errors.Is(err, repository.ErrDuplicateOrder) {
			existing, getErr := s.orders.GetByReservationID(ctx, reservation.ID)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, apperrors.Conflict("concurrent settlement in progress")
			}
			metrics.SettlementsTotal.WithLabelValues("duplicate").Inc()
			return &models.SettlementResponse{
				OrderID:        existing.ID,
				ReservationID:  reservation.ID,
				TicketCount:    existing.Quantity,
				AlreadySettled: true,
				Order:          existing,
			}, nil
		}

		if errors.Is(err, repository.ErrCodeCollision) {
			metrics.TicketCodeRetries.Inc()
			log.Warn("Ticket code collision, retrying with fresh codes", "attempt", attempt+1)
			continue
		}

		metrics.SettlementsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.SettlementsTotal.WithLabelValues("failed").Inc()
	return nil, apperrors.Newf(apperrors.KindCodeGenerationExhausted,
		"could not generate unique ticket codes after %d attempts", ticketcode.MaxAttempts)
}

// buildOrder snapshots the reservation into an order with fresh codes.
func (s *SettlementService) buildOrder(reservation *models.Reservation, reference string) (*models.Order, error) {
	order := &models.Order{
		ReservationID:    reservation.ID,
		BuyerID:          reservation.BuyerID,
		BuyerEmail:       reservation.BuyerEmail,
		BuyerName:        reservation.BuyerName,
		EventID:          reservation.EventID,
		TotalAmount:      reservation.PaidAmount(),
		Quantity:         len(reservation.Seats),
		PaymentReference: reference,
		PaymentStatus:    "success",
		Status:           models.OrderSuccess,
		IsUserVisible:    true,
		RecipientEmail:   reservation.RecipientEmail,
		Note:             reservation.Note,
	}

	for _, seat := range reservation.Seats {
		code, err := s.codes.Next()
		if err != nil {
			return nil, err
		}
		order.Tickets = append(order.Tickets, models.Ticket{
			Section:    seat.Section,
			Row:        seat.Row,
			SeatNumber: seat.SeatNumber,
			Price:      seat.Price,
			Code:       code,
		})
	}

	return order, nil
}

// afterSettle runs the best-effort tail: publish, render, notify. The order
// is already durable; nothing here can fail the settlement.
func (s *SettlementService) afterSettle(ctx context.Context, order *models.Order) {
	log := logger.WithContext(ctx).With("order_id", order.ID)

	if err := s.publisher.Publish(models.EventOrderSettled, models.OrderSettledEvent{
		OrderID:          order.ID,
		ReservationID:    order.ReservationID,
		EventID:          order.EventID,
		BuyerID:          order.BuyerID,
		PaymentReference: order.PaymentReference,
		TotalAmount:      order.TotalAmount,
		TicketCount:      order.Quantity,
		Timestamp:        time.Now(),
	}); err != nil {
		log.Error("Failed to publish order settled event", "error", err)
	}

	eventTitle := ""
	if event, err := s.events.GetByID(ctx, order.EventID); err == nil && event != nil {
		eventTitle = event.Title
	}

	pdf, err := s.renderer.RenderTickets(order, eventTitle)
	if err != nil {
		log.Error("Failed to render tickets", "error", err)
	}

	if err := s.notifier.SendTickets(order.BuyerEmail, order, eventTitle, pdf); err != nil {
		log.Error("Failed to send tickets to buyer", "error", err, "to", order.BuyerEmail)
	}

	if order.RecipientEmail != "" && order.RecipientEmail != order.BuyerEmail {
		if err := s.notifier.SendTickets(order.RecipientEmail, order, eventTitle, pdf); err != nil {
			log.Error("Failed to send tickets to recipient", "error", err, "to", order.RecipientEmail)
		}
	}
}
