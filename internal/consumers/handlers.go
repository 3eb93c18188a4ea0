package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/stan.go"

	"tessera/internal/models"
	"tessera/internal/search"
)

type Handlers struct {
	es *search.ElasticsearchClient
}

func NewHandlers(es *search.ElasticsearchClient) *Handlers {
	return &Handlers{es: es}
}

// index writes the document and acks only on success so the message is
// redelivered after an Elasticsearch outage.
func (h *Handlers) index(m *stan.Msg, doc *search.AuditDocument) {
	if err := h.es.IndexAudit(context.Background(), doc); err != nil {
		slog.Error("Failed to index audit document", "type", doc.Type, "error", err)
		return
	}
	m.Ack()
}

func (h *Handlers) HandleReservationCreated(m *stan.Msg) {
	var event models.ReservationCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation created event", "error", err)
		m.Ack()
		return
	}

	h.index(m, &search.AuditDocument{
		Type:          "reservation_created",
		ReservationID: event.ReservationID,
		EventID:       event.EventID,
		Amount:        event.FinalAmount,
		Timestamp:     event.Timestamp,
	})
}

func (h *Handlers) HandleOrderSettled(m *stan.Msg) {
	var event models.OrderSettledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal order settled event", "error", err)
		m.Ack()
		return
	}

	h.index(m, &search.AuditDocument{
		Type:          "order_settled",
		OrderID:       event.OrderID,
		ReservationID: event.ReservationID,
		EventID:       event.EventID,
		Amount:        event.TotalAmount,
		Timestamp:     event.Timestamp,
	})
}

func (h *Handlers) HandleTicketScanned(m *stan.Msg) {
	var event models.TicketScannedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket scanned event", "error", err)
		m.Ack()
		return
	}

	h.index(m, &search.AuditDocument{
		Type:      "ticket_scanned",
		Code:      event.Code,
		ScannerID: event.ScannedBy,
		Status:    event.Status,
		Timestamp: event.Timestamp,
	})
}

func (h *Handlers) HandleSeatCancelled(m *stan.Msg) {
	var event models.SeatCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal seat cancelled event", "error", err)
		m.Ack()
		return
	}

	h.index(m, &search.AuditDocument{
		Type:          "seat_cancelled",
		OrderID:       event.OrderID,
		ReservationID: event.ReservationID,
		EventID:       event.EventID,
		Amount:        event.RefundedAmount,
		Timestamp:     event.Timestamp,
	})
}
