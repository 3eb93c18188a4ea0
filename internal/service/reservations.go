package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	apperrors "tessera/internal/errors"
	"tessera/internal/logger"
	"tessera/internal/models"
	"tessera/internal/repository"
)

// ReservationService places seat holds and opens payment intents for them.
// Inventory is claimed at hold time: the counters and the sold-seat mirror
// move here, not at settlement.
type ReservationService struct {
	reservations ReservationStore
	events       EventStore
	orders       OrderStore
	payments     PaymentProvider
	publisher    Publisher
}

func NewReservationService(reservations ReservationStore, events EventStore, orders OrderStore,
	payments PaymentProvider, publisher Publisher) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		events:       events,
		orders:       orders,
		payments:     payments,
		publisher:    publisher,
	}
}

func (s *ReservationService) Create(ctx context.Context, req *models.CreateReservationRequest) (*models.Reservation, error) {
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperrors.NotFound("event not found")
	}

	var total int64
	refs := make([]models.SeatRef, len(req.Seats))
	for i, seat := range req.Seats {
		if seat.Price < 0 {
			return nil, apperrors.InvalidInput("seat price must not be negative")
		}
		total += seat.Price
		refs[i] = seat.Ref()
	}

	final := total - req.DiscountAmount
	if final < 0 {
		return nil, apperrors.InvalidInput("discount exceeds total amount")
	}

	if err := s.events.ReserveSeats(ctx, req.EventID, refs); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatAlreadySold):
			return nil, apperrors.Conflict("one or more seats already sold")
		case errors.Is(err, repository.ErrInsufficientInventory):
			return nil, apperrors.Conflict("not enough available seats")
		}
		return nil, err
	}

	reservation := &models.Reservation{
		BuyerID:        req.BuyerID,
		BuyerEmail:     req.BuyerEmail,
		BuyerName:      req.BuyerName,
		EventID:        req.EventID,
		Seats:          req.Seats,
		TotalAmount:    total,
		DiscountAmount: req.DiscountAmount,
		FinalAmount:    final,
		Status:         models.ReservationPending,
		RecipientEmail: req.RecipientEmail,
		Note:           req.Note,
	}

	if err := s.reservations.Create(ctx, reservation); err != nil {
		// Give the seats back, the hold never existed
		if relErr := s.events.ReleaseSeats(ctx, req.EventID, refs); relErr != nil {
			logger.WithContext(ctx).Error("Failed to release seats after reservation failure",
				"error", relErr, "event_id", req.EventID)
		}
		return nil, err
	}

	if err := s.publisher.Publish(models.EventReservationCreated, models.ReservationCreatedEvent{
		ReservationID: reservation.ID,
		EventID:       reservation.EventID,
		BuyerID:       reservation.BuyerID,
		SeatCount:     len(reservation.Seats),
		FinalAmount:   reservation.FinalAmount,
		Timestamp:     time.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish reservation event",
			"error", err, "reservation_id", reservation.ID)
	}

	return reservation, nil
}

// CreatePaymentIntent opens a processor intent for the reservation's final
// amount. Reservations that already settled are rejected; free reservations
// have nothing to charge and must go through free settlement.
func (s *ReservationService) CreatePaymentIntent(ctx context.Context, reservationID int64) (*models.CreatePaymentIntentResponse, error) {
	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, apperrors.NotFound("reservation not found")
	}

	existing, err := s.orders.GetByReservationID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("reservation already settled")
	}

	amount := reservation.PaidAmount()
	if amount == 0 {
		return nil, apperrors.InvalidInput("reservation is free, use free settlement")
	}

	intent, err := s.payments.CreateIntent(amount, strconv.FormatInt(reservationID, 10), reservation.BuyerEmail)
	if err != nil {
		return nil, err
	}

	if err := s.reservations.SetPaymentReference(ctx, reservationID, intent.ID); err != nil {
		return nil, err
	}

	return &models.CreatePaymentIntentResponse{
		ReservationID: reservationID,
		IntentID:      intent.ID,
		ClientSecret:  intent.ClientSecret,
		Amount:        intent.Amount,
		Currency:      intent.Currency,
	}, nil
}

// Inventory returns the counters snapshot for one event.
func (s *ReservationService) Inventory(ctx context.Context, eventID int64) (*models.EventInventoryResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperrors.NotFound("event not found")
	}

	return &models.EventInventoryResponse{
		EventID:        event.ID,
		TotalSeats:     event.TotalSeats,
		SoldCount:      event.SoldCount,
		AvailableCount: event.AvailableCount,
	}, nil
}
