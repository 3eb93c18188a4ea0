package consumers

import (
	"context"
	"log/slog"

	"tessera/internal/config"
	"tessera/internal/messaging"
	"tessera/internal/models"
	"tessera/internal/search"
)

// ConsumerService drives the audit indexer: it queue-subscribes to the
// lifecycle stream and writes one Elasticsearch document per event.
type ConsumerService struct {
	nats     *messaging.NATSClient
	es       *search.ElasticsearchClient
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	esClient, err := search.NewElasticsearchClient(cfg.Search)
	if err != nil {
		return nil, err
	}

	return &ConsumerService{
		nats:     natsClient,
		es:       esClient,
		handlers: NewHandlers(esClient),
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventReservationCreated, "audit", cs.handlers.HandleReservationCreated); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventOrderSettled, "audit", cs.handlers.HandleOrderSettled); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventTicketScanned, "audit", cs.handlers.HandleTicketScanned); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventSeatCancelled, "audit", cs.handlers.HandleSeatCancelled); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
			return err
		}
	}

	return nil
}
