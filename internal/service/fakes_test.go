package service

import (
	"context"
	"fmt"
	"time"

	"tessera/internal/external"
	"tessera/internal/models"
	"tessera/internal/repository"
)

// In-memory fakes of the store and client interfaces. They reproduce the
// constraint behavior of the SQL layer: one order per reservation, unique
// ticket codes, conditional is_used updates.

func seatKey(eventID int64, ref models.SeatRef) string {
	return fmt.Sprintf("%d/%s/%s/%d", eventID, ref.Section, ref.Row, ref.SeatNumber)
}

type fakeEventStore struct {
	events map[int64]*models.Event
	sold   map[string]bool
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events: make(map[int64]*models.Event),
		sold:   make(map[string]bool),
	}
}

func (f *fakeEventStore) GetByID(_ context.Context, id int64) (*models.Event, error) {
	return f.events[id], nil
}

func (f *fakeEventStore) ReserveSeats(_ context.Context, eventID int64, seats []models.SeatRef) error {
	event := f.events[eventID]
	if event == nil || event.AvailableCount < len(seats) {
		return repository.ErrInsufficientInventory
	}
	for _, ref := range seats {
		if f.sold[seatKey(eventID, ref)] {
			return repository.ErrSeatAlreadySold
		}
	}
	for _, ref := range seats {
		f.sold[seatKey(eventID, ref)] = true
	}
	event.SoldCount += len(seats)
	event.AvailableCount -= len(seats)
	return nil
}

func (f *fakeEventStore) ReleaseSeats(_ context.Context, eventID int64, seats []models.SeatRef) error {
	event := f.events[eventID]
	for _, ref := range seats {
		if f.sold[seatKey(eventID, ref)] {
			delete(f.sold, seatKey(eventID, ref))
			if event != nil {
				event.SoldCount--
				event.AvailableCount++
			}
		}
	}
	return nil
}

type fakeReservationStore struct {
	nextID       int64
	reservations map[int64]*models.Reservation
	createErr    error
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{reservations: make(map[int64]*models.Reservation)}
}

func (f *fakeReservationStore) Create(_ context.Context, r *models.Reservation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	f.reservations[r.ID] = r
	return nil
}

func (f *fakeReservationStore) GetByID(_ context.Context, id int64) (*models.Reservation, error) {
	return f.reservations[id], nil
}

func (f *fakeReservationStore) GetByPaymentReference(_ context.Context, reference string) (*models.Reservation, error) {
	for _, r := range f.reservations {
		if r.PaymentReference == reference {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationStore) SetPaymentReference(_ context.Context, id int64, reference string) error {
	if r := f.reservations[id]; r != nil {
		r.PaymentReference = reference
	}
	return nil
}

func (f *fakeReservationStore) MarkPaid(_ context.Context, id int64, reference string) (bool, error) {
	r := f.reservations[id]
	if r == nil || r.IsPaid {
		return false, nil
	}
	r.IsPaid = true
	r.Status = models.ReservationSuccess
	r.IsUserVisible = true
	if reference != "" {
		r.PaymentReference = reference
	}
	return true, nil
}

type fakeOrderStore struct {
	nextID        int64
	orders        map[int64]*models.Order
	byReservation map[int64]int64
	codes         map[string]int64
	collideNext   int

	reservations *fakeReservationStore
	events       *fakeEventStore
}

func newFakeOrderStore(reservations *fakeReservationStore, events *fakeEventStore) *fakeOrderStore {
	return &fakeOrderStore{
		orders:        make(map[int64]*models.Order),
		byReservation: make(map[int64]int64),
		codes:         make(map[string]int64),
		reservations:  reservations,
		events:        events,
	}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	if _, ok := f.byReservation[order.ReservationID]; ok {
		return repository.ErrDuplicateOrder
	}
	if f.collideNext > 0 {
		f.collideNext--
		return repository.ErrCodeCollision
	}
	for _, t := range order.Tickets {
		if _, ok := f.codes[t.Code]; ok {
			return repository.ErrCodeCollision
		}
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Tickets {
		order.Tickets[i].ID = int64(i + 1)
		order.Tickets[i].OrderID = order.ID
		f.codes[order.Tickets[i].Code] = order.ID
	}
	f.orders[order.ID] = order
	f.byReservation[order.ReservationID] = order.ID
	return nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id int64) (*models.Order, error) {
	return f.orders[id], nil
}

func (f *fakeOrderStore) GetByReservationID(_ context.Context, reservationID int64) (*models.Order, error) {
	id, ok := f.byReservation[reservationID]
	if !ok {
		return nil, nil
	}
	return f.orders[id], nil
}

func (f *fakeOrderStore) GetByTicketCode(_ context.Context, code string) (*models.Order, error) {
	id, ok := f.codes[code]
	if !ok {
		return nil, nil
	}
	return f.orders[id], nil
}

func (f *fakeOrderStore) GetTicketByCode(_ context.Context, code string) (*models.Ticket, error) {
	id, ok := f.codes[code]
	if !ok {
		return nil, nil
	}
	for i := range f.orders[id].Tickets {
		if f.orders[id].Tickets[i].Code == code {
			return &f.orders[id].Tickets[i], nil
		}
	}
	return nil, nil
}

func (f *fakeOrderStore) ListByBuyer(_ context.Context, buyerID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.BuyerID == buyerID && o.Status == models.OrderSuccess && o.IsUserVisible {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListCancelledByBuyer(_ context.Context, buyerID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.BuyerID == buyerID && o.Status == models.OrderCancelled && !o.IsUserVisible {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListTicketsByScanner(_ context.Context, scannerID string) ([]models.ScannedTicketItem, error) {
	var out []models.ScannedTicketItem
	for _, o := range f.orders {
		for _, t := range o.Tickets {
			if t.IsUsed && t.ScannedBy == scannerID {
				out = append(out, models.ScannedTicketItem{
					Code:       t.Code,
					BuyerEmail: o.BuyerEmail,
					Seat:       t.Seat(),
					ScannedAt:  t.ScannedAt,
				})
			}
		}
	}
	return out, nil
}

func (f *fakeOrderStore) MarkTicketUsed(_ context.Context, code, scannerID string) (bool, error) {
	id, ok := f.codes[code]
	if !ok {
		return false, nil
	}
	for i := range f.orders[id].Tickets {
		t := &f.orders[id].Tickets[i]
		if t.Code == code && !t.IsUsed {
			now := time.Now()
			t.IsUsed = true
			t.ScannedAt = &now
			t.ScannedBy = scannerID
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrderStore) ApplyCancellation(_ context.Context, orderID int64, seat models.SeatRef, refund int64) (*repository.CancellationOutcome, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}

	idx := -1
	for i, t := range order.Tickets {
		if t.Seat().Matches(seat) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, repository.ErrSeatNotFound
	}

	outcome := &repository.CancellationOutcome{SeatPrice: order.Tickets[idx].Price}
	delete(f.codes, order.Tickets[idx].Code)
	order.Tickets = append(order.Tickets[:idx], order.Tickets[idx+1:]...)
	order.Quantity--
	order.TotalAmount -= outcome.SeatPrice
	if order.TotalAmount < 0 {
		order.TotalAmount = 0
	}
	outcome.RemainingSeats = order.Quantity
	outcome.RemainingAmount = order.TotalAmount

	if order.Quantity == 0 {
		order.Status = models.OrderCancelled
		order.PaymentStatus = "refunded"
		order.IsUserVisible = false
		outcome.OrderCancelled = true
	}

	if r := f.reservations.reservations[order.ReservationID]; r != nil {
		for i, s := range r.Seats {
			if s.Matches(seat) {
				r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
				break
			}
		}
		if len(r.Seats) == 0 {
			delete(f.reservations.reservations, r.ID)
			outcome.ReservationDeleted = true
		} else {
			r.TotalAmount -= outcome.SeatPrice
			r.FinalAmount -= refund
			if r.FinalAmount < 0 {
				r.FinalAmount = 0
			}
		}
	}

	if f.events.sold[seatKey(order.EventID, seat)] {
		delete(f.events.sold, seatKey(order.EventID, seat))
		if event := f.events.events[order.EventID]; event != nil {
			event.SoldCount--
			event.AvailableCount++
		}
	}

	return outcome, nil
}

type fakeScanLog struct {
	records []models.ScanRecord
}

func (f *fakeScanLog) Append(_ context.Context, record *models.ScanRecord) error {
	f.records = append(f.records, *record)
	return nil
}

type refundCall struct {
	reference string
	amount    int64
}

type fakePayments struct {
	intents   int
	refunds   []refundCall
	refundErr error
}

func (f *fakePayments) CreateIntent(amount int64, reservationID string, _ string) (*external.PaymentIntent, error) {
	f.intents++
	return &external.PaymentIntent{
		ID:           fmt.Sprintf("pi_%s_%d", reservationID, f.intents),
		ClientSecret: "secret",
		Amount:       amount,
		Currency:     "aud",
		Status:       "requires_payment_method",
	}, nil
}

func (f *fakePayments) Refund(reference string, amount int64) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunds = append(f.refunds, refundCall{reference: reference, amount: amount})
	return nil
}

type fakeRenderer struct {
	calls int
}

func (f *fakeRenderer) RenderTickets(*models.Order, string) ([]byte, error) {
	f.calls++
	return []byte("%PDF-fake"), nil
}

type fakeNotifier struct {
	ticketMails []string
	refundMails []string
}

func (f *fakeNotifier) SendTickets(to string, _ *models.Order, _ string, _ []byte) error {
	f.ticketMails = append(f.ticketMails, to)
	return nil
}

func (f *fakeNotifier) SendRefundNotice(to string, _ string, _ models.SeatRef, _ int64) error {
	f.refundMails = append(f.refundMails, to)
	return nil
}

type publishedMessage struct {
	subject string
	data    interface{}
}

type fakePublisher struct {
	messages []publishedMessage
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.messages = append(f.messages, publishedMessage{subject: subject, data: data})
	return nil
}

// fixture wires every service onto one shared set of fakes.
type fixture struct {
	events       *fakeEventStore
	reservations *fakeReservationStore
	orders       *fakeOrderStore
	scanLog      *fakeScanLog
	payments     *fakePayments
	renderer     *fakeRenderer
	notifier     *fakeNotifier
	publisher    *fakePublisher

	reservationSvc  *ReservationService
	settlementSvc   *SettlementService
	scanSvc         *ScanService
	cancellationSvc *CancellationService
}

func newFixture() *fixture {
	f := &fixture{
		events:       newFakeEventStore(),
		reservations: newFakeReservationStore(),
		scanLog:      &fakeScanLog{},
		payments:     &fakePayments{},
		renderer:     &fakeRenderer{},
		notifier:     &fakeNotifier{},
		publisher:    &fakePublisher{},
	}
	f.orders = newFakeOrderStore(f.reservations, f.events)

	f.reservationSvc = NewReservationService(f.reservations, f.events, f.orders, f.payments, f.publisher)
	f.settlementSvc = NewSettlementService(f.reservations, f.orders, f.events, f.renderer, f.notifier, f.publisher)
	f.scanSvc = NewScanService(f.orders, f.events, f.scanLog, f.publisher)
	f.cancellationSvc = NewCancellationService(f.orders, f.reservations, f.events, f.payments, f.notifier, f.publisher)

	return f
}

func (f *fixture) addEvent(id int64, available int) *models.Event {
	event := &models.Event{
		ID:             id,
		Title:          "Test Event",
		TotalSeats:     available,
		AvailableCount: available,
	}
	f.events.events[id] = event
	return event
}
