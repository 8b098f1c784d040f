package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/sokohub/settlement-service/internal/application/commands"
	"github.com/sokohub/settlement-service/internal/application/ports"
	"github.com/sokohub/settlement-service/internal/application/use_cases"
	"github.com/sokohub/settlement-service/internal/config"
	"github.com/sokohub/settlement-service/internal/infrastructure/http/handlers"
	"github.com/sokohub/settlement-service/internal/infrastructure/persistence/postgres"
	"github.com/sokohub/settlement-service/internal/infrastructure/persistence/redis"
	"github.com/sokohub/settlement-service/internal/pkg/clock"
	"github.com/sokohub/settlement-service/internal/pkg/generator"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

type Server struct {
	server                *http.Server
	logger                *logger.Logger
	healthHandler         *handlers.HealthHandler
	checkoutHandler       *handlers.CheckoutHandler
	stockRequestHandler   *handlers.StockRequestHandler
	reconciliationHandler *handlers.ReconciliationHandler
}

func NewServer(
	cfg *config.Config,
	db *sql.DB,
	redisConn *redis.Connection,
	gateway ports.PaymentGateway,
	events ports.EventPublisher,
	log *logger.Logger,
) *Server {
	conn := postgres.NewConnectionFromDB(db)
	saleRepo := postgres.NewSaleRepository(conn)
	stockLedger := postgres.NewStockLedger(conn)
	reconStore := postgres.NewReconciliationRepository(conn)

	cache := redis.NewCache(redisConn, log)
	clk := clock.NewRealClock()

	commitService := use_cases.NewCommitService(saleRepo, generator.NewCodeGenerator(), clk, log)
	tracker := use_cases.NewIntentTracker(gateway, clk, log, cfg.Payment.PollInterval(), cfg.Payment.Timeout())
	orchestrator := use_cases.NewSettlementUseCase(
		gateway,
		cache,
		events,
		reconStore,
		tracker,
		clk,
		log,
		cfg.Payment.LockTTL(),
	)

	checkoutCommand := commands.NewCheckoutHandler(stockLedger, commitService, orchestrator, log)
	payStockRequestCommand := commands.NewPayStockRequestHandler(saleRepo, commitService, orchestrator, log)

	checkoutHandler := handlers.NewCheckoutHandler(checkoutCommand, log)
	stockRequestHandler := handlers.NewStockRequestHandler(payStockRequestCommand, log)
	reconciliationHandler := handlers.NewReconciliationHandler(reconStore, log)
	healthHandler := handlers.NewHealthHandler(db, redisConn.GetClient(), log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		server:                server,
		logger:                log,
		healthHandler:         healthHandler,
		checkoutHandler:       checkoutHandler,
		stockRequestHandler:   stockRequestHandler,
		reconciliationHandler: reconciliationHandler,
	}
}

func (s *Server) ListenAndServe() error {
	s.server.Handler = s.setupRoutes()

	s.logger.Info("Starting HTTP server", "address", s.server.Addr)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
