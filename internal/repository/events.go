package repository

import (
	"context"
	"database/sql"

	"tessera/internal/database"
	"tessera/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, venue, seller_id, starts_at, total_seats, sold_count, available_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Venue,
		event.SellerID,
		event.StartsAt,
		event.TotalSeats,
		event.SoldCount,
		event.AvailableCount,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, title, venue, seller_id, starts_at, total_seats,
		       sold_count, available_count, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Venue,
		&event.SellerID,
		&event.StartsAt,
		&event.TotalSeats,
		&event.SoldCount,
		&event.AvailableCount,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

// ReserveSeats moves seats from available to sold: one mirror row per seat
// plus a guarded counter update, all in one transaction. A unique violation on
// the mirror means another reservation holds the seat.
func (r *EventRepository) ReserveSeats(ctx context.Context, eventID int64, seats []models.SeatRef) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO event_sold_seats (event_id, section, row_label, seat_number)
		VALUES ($1, $2, $3, $4)`

	for _, seat := range seats {
		if _, err := tx.ExecContext(ctx, insertQuery, eventID, seat.Section, seat.Row, seat.SeatNumber); err != nil {
			return translateUnique(err)
		}
	}

	updateQuery := `
		UPDATE events
		SET sold_count = sold_count + $1, available_count = available_count - $1, updated_at = NOW()
		WHERE id = $2 AND available_count >= $1`

	res, err := tx.ExecContext(ctx, updateQuery, len(seats), eventID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientInventory
	}

	return tx.Commit()
}

// ReleaseSeats is the compensation for ReserveSeats when the reservation row
// itself could not be created.
func (r *EventRepository) ReleaseSeats(ctx context.Context, eventID int64, seats []models.SeatRef) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	deleteQuery := `
		DELETE FROM event_sold_seats
		WHERE event_id = $1 AND section = $2 AND row_label = $3 AND seat_number = $4`

	released := 0
	for _, seat := range seats {
		res, err := tx.ExecContext(ctx, deleteQuery, eventID, seat.Section, seat.Row, seat.SeatNumber)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			released++
		}
	}

	if released > 0 {
		updateQuery := `
			UPDATE events
			SET sold_count = sold_count - $1, available_count = available_count + $1, updated_at = NOW()
			WHERE id = $2 AND sold_count >= $1`

		if _, err := tx.ExecContext(ctx, updateQuery, released, eventID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
