package repository

import (
	"context"
	"database/sql"

	"tessera/internal/database"
	"tessera/internal/models"
)

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its tickets in one transaction. The unique
// index on orders.reservation_id rejects a second order for the same
// reservation (ErrDuplicateOrder); the unique index on tickets.code rejects a
// generated code already in use (ErrCodeCollision). Callers retry code
// collisions with fresh codes.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (reservation_id, buyer_id, buyer_email, buyer_name, event_id, seller_id,
		                    total_amount, quantity, payment_reference, payment_status, status,
		                    is_user_visible, recipient_email, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		order.ReservationID,
		order.BuyerID,
		order.BuyerEmail,
		order.BuyerName,
		order.EventID,
		order.SellerID,
		order.TotalAmount,
		order.Quantity,
		order.PaymentReference,
		order.PaymentStatus,
		order.Status,
		order.IsUserVisible,
		order.RecipientEmail,
		order.Note,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return translateUnique(err)
	}

	ticketQuery := `
		INSERT INTO tickets (order_id, section, row_label, seat_number, price, code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	for i := range order.Tickets {
		ticket := &order.Tickets[i]
		ticket.OrderID = order.ID
		err := tx.QueryRowContext(ctx, ticketQuery,
			order.ID, ticket.Section, ticket.Row, ticket.SeatNumber, ticket.Price, ticket.Code,
		).Scan(&ticket.ID)
		if err != nil {
			return translateUnique(err)
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	return r.getOne(ctx, `WHERE o.id = $1`, id)
}

func (r *OrderRepository) GetByReservationID(ctx context.Context, reservationID int64) (*models.Order, error) {
	return r.getOne(ctx, `WHERE o.reservation_id = $1`, reservationID)
}

// GetByTicketCode resolves the order owning a ticket code, tickets included.
func (r *OrderRepository) GetByTicketCode(ctx context.Context, code string) (*models.Order, error) {
	return r.getOne(ctx, `WHERE o.id = (SELECT order_id FROM tickets WHERE code = $1)`, code)
}

const orderColumns = `
	SELECT o.id, o.reservation_id, o.buyer_id, o.buyer_email, o.buyer_name, o.event_id,
	       o.seller_id, o.total_amount, o.quantity, o.payment_reference, o.payment_status,
	       o.status, o.is_user_visible, o.recipient_email, o.note, o.created_at, o.updated_at
	FROM orders o `

func (r *OrderRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Order, error) {
	order := &models.Order{}
	err := r.scanOrder(r.db.QueryRowContext(ctx, orderColumns+where, arg), order)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tickets, err := r.getTickets(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Tickets = tickets

	return order, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *OrderRepository) scanOrder(row rowScanner, order *models.Order) error {
	return row.Scan(
		&order.ID,
		&order.ReservationID,
		&order.BuyerID,
		&order.BuyerEmail,
		&order.BuyerName,
		&order.EventID,
		&order.SellerID,
		&order.TotalAmount,
		&order.Quantity,
		&order.PaymentReference,
		&order.PaymentStatus,
		&order.Status,
		&order.IsUserVisible,
		&order.RecipientEmail,
		&order.Note,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

func (r *OrderRepository) getTickets(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	query := `
		SELECT id, order_id, section, row_label, seat_number, price, code, is_used, scanned_at, scanned_by
		FROM tickets
		WHERE order_id = $1
		ORDER BY section, row_label, seat_number`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var t models.Ticket
		err := rows.Scan(&t.ID, &t.OrderID, &t.Section, &t.Row, &t.SeatNumber,
			&t.Price, &t.Code, &t.IsUsed, &t.ScannedAt, &t.ScannedBy)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error) {
	return r.list(ctx, `WHERE o.buyer_id = $1 AND o.status = 'success' AND o.is_user_visible = TRUE
		ORDER BY o.created_at DESC`, buyerID)
}

// ListCancelledByBuyer returns fully-cancelled orders: paid, then emptied by
// seat cancellations, and hidden from the active list.
func (r *OrderRepository) ListCancelledByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error) {
	return r.list(ctx, `WHERE o.buyer_id = $1 AND o.status = 'cancelled' AND o.is_user_visible = FALSE
		ORDER BY o.updated_at DESC`, buyerID)
}

func (r *OrderRepository) list(ctx context.Context, where string, arg interface{}) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, orderColumns+where, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := r.scanOrder(rows, &order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		tickets, err := r.getTickets(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Tickets = tickets
	}

	return orders, nil
}

func (r *OrderRepository) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	t := &models.Ticket{}
	query := `
		SELECT id, order_id, section, row_label, seat_number, price, code, is_used, scanned_at, scanned_by
		FROM tickets
		WHERE code = $1`

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&t.ID, &t.OrderID, &t.Section, &t.Row, &t.SeatNumber,
		&t.Price, &t.Code, &t.IsUsed, &t.ScannedAt, &t.ScannedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// MarkTicketUsed consumes the ticket with a single compare-and-set. The
// is_used guard in the WHERE clause decides races: exactly one scanner gets
// affected=1, every later attempt gets 0.
func (r *OrderRepository) MarkTicketUsed(ctx context.Context, code, scannerID string) (bool, error) {
	query := `
		UPDATE tickets
		SET is_used = TRUE, scanned_at = NOW(), scanned_by = $2
		WHERE code = $1 AND is_used = FALSE`

	res, err := r.db.ExecContext(ctx, query, code, scannerID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// ListTicketsByScanner returns the scanner's history, newest first.
func (r *OrderRepository) ListTicketsByScanner(ctx context.Context, scannerID string) ([]models.ScannedTicketItem, error) {
	query := `
		SELECT t.code, e.title, o.buyer_email, t.section, t.row_label, t.seat_number, t.price, t.scanned_at
		FROM tickets t
		JOIN orders o ON o.id = t.order_id
		JOIN events e ON e.id = o.event_id
		WHERE t.scanned_by = $1 AND t.is_used = TRUE
		ORDER BY t.scanned_at DESC`

	rows, err := r.db.QueryContext(ctx, query, scannerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ScannedTicketItem
	for rows.Next() {
		var item models.ScannedTicketItem
		err := rows.Scan(&item.Code, &item.EventTitle, &item.BuyerEmail,
			&item.Seat.Section, &item.Seat.Row, &item.Seat.SeatNumber, &item.Seat.Price, &item.ScannedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// CancellationOutcome reports what a seat cancellation changed.
type CancellationOutcome struct {
	SeatPrice          int64
	RemainingSeats     int
	RemainingAmount    int64
	OrderCancelled     bool
	ReservationDeleted bool
}

// ApplyCancellation removes one seat from an order after the refund has
// already been issued. Everything local happens in one transaction: the
// ticket and reservation seat rows go away, order and reservation totals
// shrink by the seat price and the refunded amount, the inventory mirror row
// is released and the counters move back. An order emptied of its last seat
// is kept as a hidden cancelled row; a reservation emptied of its last seat
// is deleted.
func (r *OrderRepository) ApplyCancellation(ctx context.Context, orderID int64, seat models.SeatRef, refund int64) (*CancellationOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	outcome := &CancellationOutcome{}

	deleteTicket := `
		DELETE FROM tickets
		WHERE order_id = $1 AND section = $2 AND row_label = $3 AND seat_number = $4
		RETURNING price`

	err = tx.QueryRowContext(ctx, deleteTicket, orderID, seat.Section, seat.Row, seat.SeatNumber).
		Scan(&outcome.SeatPrice)
	if err == sql.ErrNoRows {
		return nil, ErrSeatNotFound
	}
	if err != nil {
		return nil, err
	}

	var reservationID, eventID int64
	updateOrder := `
		UPDATE orders
		SET total_amount = GREATEST(total_amount - $1, 0), quantity = quantity - 1, updated_at = NOW()
		WHERE id = $2
		RETURNING reservation_id, event_id, quantity, total_amount`

	err = tx.QueryRowContext(ctx, updateOrder, outcome.SeatPrice, orderID).
		Scan(&reservationID, &eventID, &outcome.RemainingSeats, &outcome.RemainingAmount)
	if err != nil {
		return nil, err
	}

	if outcome.RemainingSeats == 0 {
		cancelOrder := `
			UPDATE orders
			SET status = 'cancelled', payment_status = 'refunded', is_user_visible = FALSE, updated_at = NOW()
			WHERE id = $1`
		if _, err := tx.ExecContext(ctx, cancelOrder, orderID); err != nil {
			return nil, err
		}
		outcome.OrderCancelled = true
	}

	deleteSeat := `
		DELETE FROM reservation_seats
		WHERE reservation_id = $1 AND section = $2 AND row_label = $3 AND seat_number = $4`
	if _, err := tx.ExecContext(ctx, deleteSeat, reservationID, seat.Section, seat.Row, seat.SeatNumber); err != nil {
		return nil, err
	}

	var remainingHeld int
	countSeats := `SELECT COUNT(*) FROM reservation_seats WHERE reservation_id = $1`
	if err := tx.QueryRowContext(ctx, countSeats, reservationID).Scan(&remainingHeld); err != nil {
		return nil, err
	}

	if remainingHeld == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, reservationID); err != nil {
			return nil, err
		}
		outcome.ReservationDeleted = true
	} else {
		updateReservation := `
			UPDATE reservations
			SET total_amount = GREATEST(total_amount - $1, 0),
			    final_amount = GREATEST(final_amount - $2, 0),
			    updated_at = NOW()
			WHERE id = $3`
		if _, err := tx.ExecContext(ctx, updateReservation, outcome.SeatPrice, refund, reservationID); err != nil {
			return nil, err
		}
	}

	releaseSeat := `
		DELETE FROM event_sold_seats
		WHERE event_id = $1 AND section = $2 AND row_label = $3 AND seat_number = $4`
	res, err := tx.ExecContext(ctx, releaseSeat, eventID, seat.Section, seat.Row, seat.SeatNumber)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		updateEvent := `
			UPDATE events
			SET sold_count = sold_count - 1, available_count = available_count + 1, updated_at = NOW()
			WHERE id = $1 AND sold_count >= 1`
		if _, err := tx.ExecContext(ctx, updateEvent, eventID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return outcome, nil
}
