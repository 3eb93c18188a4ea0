package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createEventsTable,
		createReservationsTable,
		createReservationSeatsTable,
		createOrdersTable,
		createTicketsTable,
		createEventSoldSeatsTable,
		createScanRecordsTable,
		createTicketsScannedByIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    venue VARCHAR(500) NOT NULL DEFAULT '',
    seller_id BIGINT NOT NULL DEFAULT 0,
    starts_at TIMESTAMP NOT NULL DEFAULT NOW(),
    total_seats INTEGER NOT NULL DEFAULT 0,
    sold_count INTEGER NOT NULL DEFAULT 0,
    available_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (sold_count >= 0),
    CHECK (available_count >= 0)
);`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    id BIGSERIAL PRIMARY KEY,
    buyer_id BIGINT NOT NULL,
    buyer_email VARCHAR(255) NOT NULL,
    buyer_name VARCHAR(255) NOT NULL DEFAULT '',
    event_id BIGINT NOT NULL REFERENCES events(id),
    total_amount BIGINT NOT NULL DEFAULT 0,
    discount_amount BIGINT NOT NULL DEFAULT 0,
    final_amount BIGINT NOT NULL DEFAULT 0,
    payment_reference VARCHAR(255) NOT NULL DEFAULT '',
    is_paid BOOLEAN NOT NULL DEFAULT FALSE,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    is_user_visible BOOLEAN NOT NULL DEFAULT FALSE,
    recipient_email VARCHAR(255) NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'success', 'cancelled'))
);
CREATE INDEX IF NOT EXISTS reservations_payment_reference_idx
ON reservations (payment_reference) WHERE payment_reference <> '';`

const createReservationSeatsTable = `
CREATE TABLE IF NOT EXISTS reservation_seats (
    id BIGSERIAL PRIMARY KEY,
    reservation_id BIGINT NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
    section VARCHAR(50) NOT NULL,
    row_label VARCHAR(50) NOT NULL,
    seat_number INTEGER NOT NULL,
    price BIGINT NOT NULL DEFAULT 0,

    UNIQUE(reservation_id, section, row_label, seat_number)
);`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    reservation_id BIGINT NOT NULL UNIQUE,
    buyer_id BIGINT NOT NULL,
    buyer_email VARCHAR(255) NOT NULL,
    buyer_name VARCHAR(255) NOT NULL DEFAULT '',
    event_id BIGINT NOT NULL REFERENCES events(id),
    seller_id BIGINT NOT NULL DEFAULT 0,
    total_amount BIGINT NOT NULL DEFAULT 0,
    quantity INTEGER NOT NULL DEFAULT 0,
    payment_reference VARCHAR(255) NOT NULL,
    payment_status VARCHAR(20) NOT NULL DEFAULT 'success',
    status VARCHAR(20) NOT NULL DEFAULT 'success',
    is_user_visible BOOLEAN NOT NULL DEFAULT TRUE,
    recipient_email VARCHAR(255) NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (payment_status IN ('success', 'failed', 'refunded')),
    CHECK (status IN ('success', 'cancelled'))
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id BIGSERIAL PRIMARY KEY,
    order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    section VARCHAR(50) NOT NULL,
    row_label VARCHAR(50) NOT NULL,
    seat_number INTEGER NOT NULL,
    price BIGINT NOT NULL DEFAULT 0,
    code VARCHAR(32) NOT NULL UNIQUE,
    is_used BOOLEAN NOT NULL DEFAULT FALSE,
    scanned_at TIMESTAMP,
    scanned_by VARCHAR(255) NOT NULL DEFAULT ''
);`

const createEventSoldSeatsTable = `
CREATE TABLE IF NOT EXISTS event_sold_seats (
    id BIGSERIAL PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    section VARCHAR(50) NOT NULL,
    row_label VARCHAR(50) NOT NULL,
    seat_number INTEGER NOT NULL,
    reserved_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(event_id, section, row_label, seat_number)
);`

const createScanRecordsTable = `
CREATE TABLE IF NOT EXISTS scan_records (
    id BIGSERIAL PRIMARY KEY,
    code VARCHAR(32) NOT NULL,
    scanned_by VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('valid', 'used', 'invalid'))
);`

const createTicketsScannedByIndex = `
CREATE INDEX IF NOT EXISTS tickets_scanned_by_idx
ON tickets (scanned_by) WHERE scanned_by <> '';`
