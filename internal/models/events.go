package models

import "time"

// NATS subjects
const (
	EventReservationCreated = "reservation.created"
	EventOrderSettled       = "order.settled"
	EventTicketScanned      = "ticket.scanned"
	EventSeatCancelled      = "seat.cancelled"
)

// ReservationCreatedEvent is published when a seat hold is placed.
type ReservationCreatedEvent struct {
	ReservationID int64     `json:"reservation_id"`
	EventID       int64     `json:"event_id"`
	BuyerID       int64     `json:"buyer_id"`
	SeatCount     int       `json:"seat_count"`
	FinalAmount   int64     `json:"final_amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// OrderSettledEvent is published once a reservation becomes an order.
type OrderSettledEvent struct {
	OrderID          int64     `json:"order_id"`
	ReservationID    int64     `json:"reservation_id"`
	EventID          int64     `json:"event_id"`
	BuyerID          int64     `json:"buyer_id"`
	PaymentReference string    `json:"payment_reference"`
	TotalAmount      int64     `json:"total_amount"`
	TicketCount      int       `json:"ticket_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// TicketScannedEvent is published for every gate scan attempt.
type TicketScannedEvent struct {
	Code      string    `json:"code"`
	OrderID   int64     `json:"order_id,omitempty"`
	EventID   int64     `json:"event_id,omitempty"`
	ScannedBy string    `json:"scanned_by"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatCancelledEvent is published after a seat is pulled out of an order.
type SeatCancelledEvent struct {
	OrderID        int64     `json:"order_id"`
	ReservationID  int64     `json:"reservation_id"`
	EventID        int64     `json:"event_id"`
	Seat           SeatRef   `json:"seat"`
	RefundedAmount int64     `json:"refunded_amount"`
	OrderDeleted   bool      `json:"order_deleted"`
	Timestamp      time.Time `json:"timestamp"`
}
