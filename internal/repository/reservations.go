package repository

import (
	"context"
	"database/sql"

	"tessera/internal/database"
	"tessera/internal/models"
)

type ReservationRepository struct {
	db *database.DB
}

func NewReservationRepository(db *database.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reservations (buyer_id, buyer_email, buyer_name, event_id, total_amount,
		                          discount_amount, final_amount, status, recipient_email, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		reservation.BuyerID,
		reservation.BuyerEmail,
		reservation.BuyerName,
		reservation.EventID,
		reservation.TotalAmount,
		reservation.DiscountAmount,
		reservation.FinalAmount,
		reservation.Status,
		reservation.RecipientEmail,
		reservation.Note,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)
	if err != nil {
		return err
	}

	seatQuery := `
		INSERT INTO reservation_seats (reservation_id, section, row_label, seat_number, price)
		VALUES ($1, $2, $3, $4, $5)`

	for _, seat := range reservation.Seats {
		if _, err := tx.ExecContext(ctx, seatQuery,
			reservation.ID, seat.Section, seat.Row, seat.SeatNumber, seat.Price); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *ReservationRepository) GetByPaymentReference(ctx context.Context, reference string) (*models.Reservation, error) {
	return r.getOne(ctx, `WHERE payment_reference = $1`, reference)
}

func (r *ReservationRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Reservation, error) {
	reservation := &models.Reservation{}
	query := `
		SELECT id, buyer_id, buyer_email, buyer_name, event_id, total_amount, discount_amount,
		       final_amount, payment_reference, is_paid, status, is_user_visible,
		       recipient_email, note, created_at, updated_at
		FROM reservations ` + where

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&reservation.ID,
		&reservation.BuyerID,
		&reservation.BuyerEmail,
		&reservation.BuyerName,
		&reservation.EventID,
		&reservation.TotalAmount,
		&reservation.DiscountAmount,
		&reservation.FinalAmount,
		&reservation.PaymentReference,
		&reservation.IsPaid,
		&reservation.Status,
		&reservation.IsUserVisible,
		&reservation.RecipientEmail,
		&reservation.Note,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	seats, err := r.getSeats(ctx, reservation.ID)
	if err != nil {
		return nil, err
	}
	reservation.Seats = seats

	return reservation, nil
}

func (r *ReservationRepository) getSeats(ctx context.Context, reservationID int64) ([]models.Seat, error) {
	var seats []models.Seat
	query := `
		SELECT section, row_label, seat_number, price
		FROM reservation_seats
		WHERE reservation_id = $1
		ORDER BY section, row_label, seat_number`

	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seat models.Seat
		if err := rows.Scan(&seat.Section, &seat.Row, &seat.SeatNumber, &seat.Price); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

// SetPaymentReference stores the processor reference opened for the hold.
func (r *ReservationRepository) SetPaymentReference(ctx context.Context, id int64, reference string) error {
	query := `
		UPDATE reservations
		SET payment_reference = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, reference, id)
	return err
}

// MarkPaid flips the reservation to paid exactly once. The is_paid guard makes
// the flip a test-and-set: the return value reports whether this caller won.
// A non-empty reference is stored alongside (used by the free-settlement path).
func (r *ReservationRepository) MarkPaid(ctx context.Context, id int64, reference string) (bool, error) {
	query := `
		UPDATE reservations
		SET is_paid = TRUE, status = 'success', is_user_visible = TRUE,
		    payment_reference = CASE WHEN $2 <> '' THEN $2 ELSE payment_reference END,
		    updated_at = NOW()
		WHERE id = $1 AND is_paid = FALSE`

	res, err := r.db.ExecContext(ctx, query, id, reference)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
