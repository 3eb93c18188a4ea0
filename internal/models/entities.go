package models

import (
	"strings"
	"time"
)

// FreePaymentPrefix marks reservations settled without a payment processor.
// The synthetic reference is "FREE_<reservationID>".
const FreePaymentPrefix = "FREE_"

// Reservation statuses
const (
	ReservationPending   = "pending"
	ReservationSuccess   = "success"
	ReservationCancelled = "cancelled"
)

// Order statuses
const (
	OrderSuccess   = "success"
	OrderCancelled = "cancelled"
)

// Scan outcomes
const (
	ScanValid   = "valid"
	ScanUsed    = "used"
	ScanInvalid = "invalid"
)

// Seat identifies one seat in an event's seating plan. Price is in minor
// currency units (cents).
type Seat struct {
	Section    string `json:"section" db:"section"`
	Row        string `json:"row" db:"row_label"`
	SeatNumber int    `json:"seat_number" db:"seat_number"`
	Price      int64  `json:"price" db:"price"`
}

// SeatRef identifies a seat without pricing, used for inventory bookkeeping
// and cancellation requests.
type SeatRef struct {
	Section    string `json:"section"`
	Row        string `json:"row"`
	SeatNumber int    `json:"seat_number"`
}

func (s Seat) Ref() SeatRef {
	return SeatRef{Section: s.Section, Row: s.Row, SeatNumber: s.SeatNumber}
}

// Matches reports whether the seat is the one the descriptor points at.
func (s Seat) Matches(ref SeatRef) bool {
	return s.Section == ref.Section && s.Row == ref.Row && s.SeatNumber == ref.SeatNumber
}

// Event carries the per-event inventory counters. sold_count + available_count
// stays constant for the lifetime of the event; sold seats are additionally
// mirrored row-by-row in event_sold_seats.
type Event struct {
	ID             int64     `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Venue          string    `json:"venue" db:"venue"`
	SellerID       int64     `json:"seller_id" db:"seller_id"`
	StartsAt       time.Time `json:"starts_at" db:"starts_at"`
	TotalSeats     int       `json:"total_seats" db:"total_seats"`
	SoldCount      int       `json:"sold_count" db:"sold_count"`
	AvailableCount int       `json:"available_count" db:"available_count"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Reservation is a buyer's seat hold. Amounts are minor units; FinalAmount is
// what the processor actually charges after discounts.
type Reservation struct {
	ID               int64     `json:"id" db:"id"`
	BuyerID          int64     `json:"buyer_id" db:"buyer_id"`
	BuyerEmail       string    `json:"buyer_email" db:"buyer_email"`
	BuyerName        string    `json:"buyer_name" db:"buyer_name"`
	EventID          int64     `json:"event_id" db:"event_id"`
	Seats            []Seat    `json:"seats"`
	TotalAmount      int64     `json:"total_amount" db:"total_amount"`
	DiscountAmount   int64     `json:"discount_amount" db:"discount_amount"`
	FinalAmount      int64     `json:"final_amount" db:"final_amount"`
	PaymentReference string    `json:"payment_reference,omitempty" db:"payment_reference"`
	IsPaid           bool      `json:"is_paid" db:"is_paid"`
	Status           string    `json:"status" db:"status"`
	IsUserVisible    bool      `json:"is_user_visible" db:"is_user_visible"`
	RecipientEmail   string    `json:"recipient_email,omitempty" db:"recipient_email"`
	Note             string    `json:"note,omitempty" db:"note"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// PaidAmount is the amount the refund math divides: the discounted charge when
// a discount was applied, the full total otherwise.
func (r *Reservation) PaidAmount() int64 {
	if r.FinalAmount > 0 || r.DiscountAmount > 0 {
		return r.FinalAmount
	}
	return r.TotalAmount
}

// IsFree reports whether the reservation never involved the payment processor.
func (r *Reservation) IsFree() bool {
	return r.PaymentReference == "" || strings.HasPrefix(r.PaymentReference, FreePaymentPrefix)
}

// Ticket is one seat's entry credential inside an order. Code is unique across
// all orders; IsUsed only ever transitions false -> true.
type Ticket struct {
	ID         int64      `json:"id" db:"id"`
	OrderID    int64      `json:"order_id" db:"order_id"`
	Section    string     `json:"section" db:"section"`
	Row        string     `json:"row" db:"row_label"`
	SeatNumber int        `json:"seat_number" db:"seat_number"`
	Price      int64      `json:"price" db:"price"`
	Code       string     `json:"code" db:"code"`
	IsUsed     bool       `json:"is_used" db:"is_used"`
	ScannedAt  *time.Time `json:"scanned_at,omitempty" db:"scanned_at"`
	ScannedBy  string     `json:"scanned_by,omitempty" db:"scanned_by"`
}

func (t Ticket) Seat() Seat {
	return Seat{Section: t.Section, Row: t.Row, SeatNumber: t.SeatNumber, Price: t.Price}
}

// Order is the durable record created once per paid reservation. Its tickets
// carry the seat set; totals are recomputed on every cancellation.
type Order struct {
	ID               int64     `json:"id" db:"id"`
	ReservationID    int64     `json:"reservation_id" db:"reservation_id"`
	BuyerID          int64     `json:"buyer_id" db:"buyer_id"`
	BuyerEmail       string    `json:"buyer_email" db:"buyer_email"`
	BuyerName        string    `json:"buyer_name" db:"buyer_name"`
	EventID          int64     `json:"event_id" db:"event_id"`
	SellerID         int64     `json:"seller_id" db:"seller_id"`
	Tickets          []Ticket  `json:"tickets"`
	TotalAmount      int64     `json:"total_amount" db:"total_amount"`
	Quantity         int       `json:"quantity" db:"quantity"`
	PaymentReference string    `json:"payment_reference" db:"payment_reference"`
	PaymentStatus    string    `json:"payment_status" db:"payment_status"`
	Status           string    `json:"status" db:"status"`
	IsUserVisible    bool      `json:"is_user_visible" db:"is_user_visible"`
	RecipientEmail   string    `json:"recipient_email,omitempty" db:"recipient_email"`
	Note             string    `json:"note,omitempty" db:"note"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Seats derives the seat set from the order's tickets.
func (o *Order) Seats() []Seat {
	seats := make([]Seat, len(o.Tickets))
	for i, t := range o.Tickets {
		seats[i] = t.Seat()
	}
	return seats
}

// FindTicket returns the ticket occupying the given seat, or nil.
func (o *Order) FindTicket(ref SeatRef) *Ticket {
	for i := range o.Tickets {
		if o.Tickets[i].Seat().Matches(ref) {
			return &o.Tickets[i]
		}
	}
	return nil
}

// IsFree reports whether the order was settled without the payment processor.
func (o *Order) IsFree() bool {
	return o.PaymentReference == "" || strings.HasPrefix(o.PaymentReference, FreePaymentPrefix)
}

// ScanRecord is one row of the append-only scan audit log. The authoritative
// used state lives on the ticket; this log is never counted to derive it.
type ScanRecord struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	ScannedBy string    `json:"scanned_by" db:"scanned_by"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
