package service

import (
	"tessera/internal/external"
	"tessera/internal/messaging"
	"tessera/internal/repository"
)

type Services struct {
	Reservations  *ReservationService
	Settlements   *SettlementService
	Scans         *ScanService
	Cancellations *CancellationService
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient,
	paymentClient *external.PaymentClient, rendererClient *external.RendererClient,
	mailer *external.Mailer) *Services {

	reservationService := NewReservationService(repos.Reservations, repos.Events, repos.Orders, paymentClient, natsClient)
	settlementService := NewSettlementService(repos.Reservations, repos.Orders, repos.Events, rendererClient, mailer, natsClient)
	scanService := NewScanService(repos.Orders, repos.Events, repos.Scans, natsClient)
	cancellationService := NewCancellationService(repos.Orders, repos.Reservations, repos.Events, paymentClient, mailer, natsClient)

	return &Services{
		Reservations:  reservationService,
		Settlements:   settlementService,
		Scans:         scanService,
		Cancellations: cancellationService,
	}
}
