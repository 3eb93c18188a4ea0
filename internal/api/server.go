package api

import (
	"fmt"
	"net/http"

	"tessera/internal/cache"
	"tessera/internal/config"
	"tessera/internal/database"
	"tessera/internal/external"
	"tessera/internal/handlers"
	"tessera/internal/logger"
	"tessera/internal/messaging"
	"tessera/internal/middleware"
	"tessera/internal/repository"
	"tessera/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		logger.Fatal("Failed to connect to Valkey", "error", err)
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)
	rendererClient := external.NewRendererClient(cfg.Renderer)
	mailer := external.NewMailer(cfg.Mailer)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, paymentClient, rendererClient, mailer)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	{
		reservations := api.Group("/reservations")
		{
			reservations.POST("", h.CreateReservation)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", h.CreatePaymentIntent)
			payments.POST("/confirm", h.ConfirmSettlement)
			payments.POST("/confirm-free", h.ConfirmFreeSettlement)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", h.ListOrders)
			orders.GET("/cancelled", h.ListCancelledOrders)
			orders.GET("/:id", h.GetOrder)
			orders.POST("/cancel-seat", h.CancelSeat)
		}

		// Gate endpoints require scanner basic auth
		tickets := api.Group("/tickets")
		tickets.Use(middleware.ScannerAuth(s.valkey))
		{
			tickets.POST("/scan", h.ScanTicket)
			tickets.GET("/scanned", h.ScannedTickets)
		}

		events := api.Group("/events")
		{
			events.GET("/:id/inventory", h.EventInventory)
		}
	}

	s.router.GET("/health", h.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.NoRoute(notFound)
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter returns the router for testing
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			logger.Get().Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}
