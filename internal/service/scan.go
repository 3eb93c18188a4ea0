package service

import (
	"context"
	"time"

	"tessera/internal/logger"
	"tessera/internal/metrics"
	"tessera/internal/models"
)

// ScanService verifies tickets at the gate. The single conditional UPDATE on
// tickets.is_used is the only authority on used state; the audit log and the
// stream are written after the fact and never consulted.
type ScanService struct {
	orders    OrderStore
	events    EventStore
	scanLog   ScanLogStore
	publisher Publisher
}

func NewScanService(orders OrderStore, events EventStore, scanLog ScanLogStore, publisher Publisher) *ScanService {
	return &ScanService{
		orders:    orders,
		events:    events,
		scanLog:   scanLog,
		publisher: publisher,
	}
}

func (s *ScanService) Scan(ctx context.Context, code, scannerID string) (*models.ScanTicketResponse, error) {
	won, err := s.orders.MarkTicketUsed(ctx, code, scannerID)
	if err != nil {
		return nil, err
	}

	var resp *models.ScanTicketResponse
	if won {
		resp, err = s.validResponse(ctx, code, scannerID)
	} else {
		resp, err = s.rejectedResponse(ctx, code, scannerID)
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, resp, scannerID)
	metrics.ScansTotal.WithLabelValues(resp.Status).Inc()

	return resp, nil
}

func (s *ScanService) validResponse(ctx context.Context, code, scannerID string) (*models.ScanTicketResponse, error) {
	resp := &models.ScanTicketResponse{
		Status:    models.ScanValid,
		Code:      code,
		ScannedBy: scannerID,
	}

	order, err := s.orders.GetByTicketCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order != nil {
		resp.BuyerEmail = order.BuyerEmail
		resp.BuyerName = order.BuyerName
		for i := range order.Tickets {
			if order.Tickets[i].Code == code {
				seat := order.Tickets[i].Seat()
				resp.Seat = &seat
				resp.ScannedAt = order.Tickets[i].ScannedAt
				break
			}
		}
		if event, err := s.events.GetByID(ctx, order.EventID); err == nil && event != nil {
			resp.EventTitle = event.Title
		}
	}

	return resp, nil
}

// rejectedResponse distinguishes a consumed ticket from an unknown code.
func (s *ScanService) rejectedResponse(ctx context.Context, code, scannerID string) (*models.ScanTicketResponse, error) {
	ticket, err := s.orders.GetTicketByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if ticket == nil {
		return &models.ScanTicketResponse{
			Status:    models.ScanInvalid,
			Code:      code,
			ScannedBy: scannerID,
		}, nil
	}

	return &models.ScanTicketResponse{
		Status:    models.ScanUsed,
		Code:      code,
		ScannedBy: ticket.ScannedBy,
		ScannedAt: ticket.ScannedAt,
	}, nil
}

// record appends the audit row and publishes the event, attributed to the
// scanner that made the attempt. The verification result stands regardless of
// either outcome.
func (s *ScanService) record(ctx context.Context, resp *models.ScanTicketResponse, scannerID string) {
	log := logger.WithContext(ctx).With("code", resp.Code, "status", resp.Status)

	err := s.scanLog.Append(ctx, &models.ScanRecord{
		Code:      resp.Code,
		ScannedBy: scannerID,
		Status:    resp.Status,
	})
	if err != nil {
		log.Error("Failed to append scan record", "error", err)
	}

	if err := s.publisher.Publish(models.EventTicketScanned, models.TicketScannedEvent{
		Code:      resp.Code,
		ScannedBy: scannerID,
		Status:    resp.Status,
		Timestamp: time.Now(),
	}); err != nil {
		log.Error("Failed to publish scan event", "error", err)
	}
}

// History lists the tickets a scanner has admitted, newest first.
func (s *ScanService) History(ctx context.Context, scannerID string) ([]models.ScannedTicketItem, error) {
	return s.orders.ListTicketsByScanner(ctx, scannerID)
}
