package repository

import (
	"errors"

	"tessera/internal/database"

	"github.com/lib/pq"
)

// Sentinel errors surfaced from unique-constraint violations. The service
// layer maps these onto client-facing error kinds.
var (
	// ErrDuplicateOrder fires on the orders.reservation_id unique index: a
	// concurrent settlement already created the order.
	ErrDuplicateOrder = errors.New("order already exists for reservation")

	// ErrCodeCollision fires on the tickets.code unique index. Collisions are
	// detected by the insert itself, not by a prior existence check.
	ErrCodeCollision = errors.New("ticket code already in use")

	// ErrSeatAlreadySold fires on the event_sold_seats mirror unique index.
	ErrSeatAlreadySold = errors.New("seat already sold for event")

	// ErrInsufficientInventory means the available_count guard rejected the
	// decrement.
	ErrInsufficientInventory = errors.New("not enough available seats")

	// ErrSeatNotFound means the seat descriptor matched nothing.
	ErrSeatNotFound = errors.New("seat not found")
)

const (
	uniqueViolation = "23505"

	ordersReservationConstraint = "orders_reservation_id_key"
	ticketsCodeConstraint       = "tickets_code_key"
)

// translateUnique turns a Postgres unique violation into the matching
// sentinel, or passes the error through.
func translateUnique(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case ordersReservationConstraint:
		return ErrDuplicateOrder
	case ticketsCodeConstraint:
		return ErrCodeCollision
	}
	if pqErr.Table == "event_sold_seats" {
		return ErrSeatAlreadySold
	}
	return err
}

type Repositories struct {
	Events       *EventRepository
	Reservations *ReservationRepository
	Orders       *OrderRepository
	Scans        *ScanRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events:       NewEventRepository(db),
		Reservations: NewReservationRepository(db),
		Orders:       NewOrderRepository(db),
		Scans:        NewScanRepository(db),
	}
}
