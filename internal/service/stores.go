package service

import (
	"context"

	"tessera/internal/external"
	"tessera/internal/models"
	"tessera/internal/repository"
)

// Store interfaces abstract the persistence layer so services can be tested
// against in-memory fakes. The repository package provides the SQL
// implementations.

type EventStore interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	ReserveSeats(ctx context.Context, eventID int64, seats []models.SeatRef) error
	ReleaseSeats(ctx context.Context, eventID int64, seats []models.SeatRef) error
}

type ReservationStore interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	GetByPaymentReference(ctx context.Context, reference string) (*models.Reservation, error)
	SetPaymentReference(ctx context.Context, id int64, reference string) error
	MarkPaid(ctx context.Context, id int64, reference string) (bool, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByReservationID(ctx context.Context, reservationID int64) (*models.Order, error)
	GetByTicketCode(ctx context.Context, code string) (*models.Order, error)
	GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error)
	ListCancelledByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error)
	ListTicketsByScanner(ctx context.Context, scannerID string) ([]models.ScannedTicketItem, error)
	MarkTicketUsed(ctx context.Context, code, scannerID string) (bool, error)
	ApplyCancellation(ctx context.Context, orderID int64, seat models.SeatRef, refund int64) (*repository.CancellationOutcome, error)
}

type ScanLogStore interface {
	Append(ctx context.Context, record *models.ScanRecord) error
}

// PaymentProvider is the processor surface the services need.
type PaymentProvider interface {
	CreateIntent(amount int64, reservationID string, buyerEmail string) (*external.PaymentIntent, error)
	Refund(reference string, amount int64) error
}

// TicketRenderer produces the ticket document attached to the notification.
type TicketRenderer interface {
	RenderTickets(order *models.Order, eventTitle string) ([]byte, error)
}

// Notifier delivers transactional mail. Failures are logged, never returned
// to the buyer.
type Notifier interface {
	SendTickets(to string, order *models.Order, eventTitle string, pdf []byte) error
	SendRefundNotice(to string, eventTitle string, seat models.SeatRef, refunded int64) error
}

// Publisher emits lifecycle events onto the stream.
type Publisher interface {
	Publish(subject string, data interface{}) error
}
