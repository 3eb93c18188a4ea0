package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReservationPaidAmount(t *testing.T) {
	full := &Reservation{TotalAmount: 10000}
	assert.Equal(t, int64(10000), full.PaidAmount())

	discounted := &Reservation{TotalAmount: 10000, DiscountAmount: 2000, FinalAmount: 8000}
	assert.Equal(t, int64(8000), discounted.PaidAmount())

	// A 100% discount still counts as discounted, not as "no final amount"
	comped := &Reservation{TotalAmount: 10000, DiscountAmount: 10000, FinalAmount: 0}
	assert.Equal(t, int64(0), comped.PaidAmount())
}

func TestReservationIsFree(t *testing.T) {
	assert.True(t, (&Reservation{}).IsFree())
	assert.True(t, (&Reservation{PaymentReference: "FREE_42"}).IsFree())
	assert.False(t, (&Reservation{PaymentReference: "pi_123"}).IsFree())
}

func TestOrderFindTicket(t *testing.T) {
	order := &Order{Tickets: []Ticket{
		{Section: "A", Row: "1", SeatNumber: 1, Code: "TKT-AAA"},
		{Section: "A", Row: "1", SeatNumber: 2, Code: "TKT-BBB"},
	}}

	found := order.FindTicket(SeatRef{Section: "A", Row: "1", SeatNumber: 2})
	assert.NotNil(t, found)
	assert.Equal(t, "TKT-BBB", found.Code)

	assert.Nil(t, order.FindTicket(SeatRef{Section: "B", Row: "1", SeatNumber: 2}))
}
