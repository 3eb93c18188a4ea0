package models

import "time"

// CreateReservationRequest - request body for creating a seat hold
type CreateReservationRequest struct {
	BuyerID        int64  `json:"buyer_id" binding:"required"`
	BuyerEmail     string `json:"buyer_email" binding:"required,email"`
	BuyerName      string `json:"buyer_name"`
	EventID        int64  `json:"event_id" binding:"required"`
	Seats          []Seat `json:"seats" binding:"required,min=1"`
	DiscountAmount int64  `json:"discount_amount"`
	RecipientEmail string `json:"recipient_email"`
	Note           string `json:"note"`
}

// CreateReservationResponse - response after a hold is placed
type CreateReservationResponse struct {
	ID          int64  `json:"id"`
	TotalAmount int64  `json:"total_amount"`
	FinalAmount int64  `json:"final_amount"`
	Status      string `json:"status"`
}

// CreatePaymentIntentRequest - request to open a payment intent for a reservation
type CreatePaymentIntentRequest struct {
	ReservationID int64 `json:"reservation_id" binding:"required"`
}

// CreatePaymentIntentResponse - client-side handle for completing the payment
type CreatePaymentIntentResponse struct {
	ReservationID int64  `json:"reservation_id"`
	IntentID      string `json:"intent_id"`
	ClientSecret  string `json:"client_secret"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// ConfirmSettlementRequest - confirmation callback carrying the processor reference
type ConfirmSettlementRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

// ConfirmFreeSettlementRequest - settlement of a zero-amount reservation
type ConfirmFreeSettlementRequest struct {
	ReservationID int64 `json:"reservation_id" binding:"required"`
}

// SettlementResponse - outcome of a settlement call. AlreadySettled is true on
// retries that found the order in place; the same order is returned either way.
type SettlementResponse struct {
	OrderID        int64  `json:"order_id"`
	ReservationID  int64  `json:"reservation_id"`
	TicketCount    int    `json:"ticket_count"`
	AlreadySettled bool   `json:"already_settled"`
	Order          *Order `json:"order,omitempty"`
}

// ScanTicketRequest - one gate verification attempt
type ScanTicketRequest struct {
	Code      string `json:"code" binding:"required"`
	ScannerID string `json:"scanner_id" binding:"required"`
}

// ScanTicketResponse - verification outcome; Status is valid/used/invalid
type ScanTicketResponse struct {
	Status     string     `json:"status"`
	Code       string     `json:"code"`
	ScannedBy  string     `json:"scanned_by"`
	ScannedAt  *time.Time `json:"scanned_at,omitempty"`
	BuyerEmail string     `json:"buyer_email,omitempty"`
	BuyerName  string     `json:"buyer_name,omitempty"`
	EventTitle string     `json:"event_title,omitempty"`
	Seat       *Seat      `json:"seat,omitempty"`
}

// CancelSeatRequest - remove a single seat from an order
type CancelSeatRequest struct {
	OrderID int64   `json:"order_id" binding:"required"`
	Seat    SeatRef `json:"seat" binding:"required"`
}

// CancelSeatResponse - what the cancellation did
type CancelSeatResponse struct {
	OrderID            int64 `json:"order_id"`
	RefundedAmount     int64 `json:"refunded_amount"`
	RemainingSeats     int   `json:"remaining_seats"`
	RemainingAmount    int64 `json:"remaining_amount"`
	OrderDeleted       bool  `json:"order_deleted"`
	ReservationDeleted bool  `json:"reservation_deleted"`
}

// ScannedTicketItem - one entry of a scanner's history
type ScannedTicketItem struct {
	Code       string     `json:"code"`
	EventTitle string     `json:"event_title"`
	BuyerEmail string     `json:"buyer_email"`
	Seat       Seat       `json:"seat"`
	ScannedAt  *time.Time `json:"scanned_at"`
}

// EventInventoryResponse - counters snapshot for one event
type EventInventoryResponse struct {
	EventID        int64 `json:"event_id"`
	TotalSeats     int   `json:"total_seats"`
	SoldCount      int   `json:"sold_count"`
	AvailableCount int   `json:"available_count"`
}
