package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessera/internal/models"
)

func settleOrder(t *testing.T, f *fixture) *models.Order {
	t.Helper()
	reservation := makeReservation(t, f, twoSeats(), 0)
	f.reservations.reservations[reservation.ID].PaymentReference = "pi_scan"

	resp, err := f.settlementSvc.Confirm(context.Background(), "pi_scan")
	require.NoError(t, err)
	return resp.Order
}

func TestScanValidThenUsed(t *testing.T) {
	f := newFixture()
	order := settleOrder(t, f)
	code := order.Tickets[0].Code

	first, err := f.scanSvc.Scan(context.Background(), code, "gate-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScanValid, first.Status)
	assert.Equal(t, "gate-1", first.ScannedBy)
	assert.Equal(t, "buyer@example.com", first.BuyerEmail)
	require.NotNil(t, first.Seat)
	assert.Equal(t, "A", first.Seat.Section)

	second, err := f.scanSvc.Scan(context.Background(), code, "gate-2")
	require.NoError(t, err)
	assert.Equal(t, models.ScanUsed, second.Status)
	// The rejection reports who consumed the ticket, not who retried
	assert.Equal(t, "gate-1", second.ScannedBy)
	assert.NotNil(t, second.ScannedAt)
}

func TestScanUnknownCode(t *testing.T) {
	f := newFixture()
	settleOrder(t, f)

	resp, err := f.scanSvc.Scan(context.Background(), "TKT-DOESNOTEXIST", "gate-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScanInvalid, resp.Status)
}

func TestScanAppendsAuditRecords(t *testing.T) {
	f := newFixture()
	order := settleOrder(t, f)
	code := order.Tickets[0].Code

	_, err := f.scanSvc.Scan(context.Background(), code, "gate-1")
	require.NoError(t, err)
	_, err = f.scanSvc.Scan(context.Background(), code, "gate-2")
	require.NoError(t, err)
	_, err = f.scanSvc.Scan(context.Background(), "TKT-BOGUS", "gate-2")
	require.NoError(t, err)

	require.Len(t, f.scanLog.records, 3)
	assert.Equal(t, models.ScanValid, f.scanLog.records[0].Status)
	assert.Equal(t, models.ScanUsed, f.scanLog.records[1].Status)
	// Audit attributes the rejected attempt to the scanner that made it
	assert.Equal(t, "gate-2", f.scanLog.records[1].ScannedBy)
	assert.Equal(t, models.ScanInvalid, f.scanLog.records[2].Status)
}

func TestScanHistory(t *testing.T) {
	f := newFixture()
	order := settleOrder(t, f)

	_, err := f.scanSvc.Scan(context.Background(), order.Tickets[0].Code, "gate-1")
	require.NoError(t, err)
	_, err = f.scanSvc.Scan(context.Background(), order.Tickets[1].Code, "gate-1")
	require.NoError(t, err)

	items, err := f.scanSvc.History(context.Background(), "gate-1")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	other, err := f.scanSvc.History(context.Background(), "gate-9")
	require.NoError(t, err)
	assert.Empty(t, other)
}
