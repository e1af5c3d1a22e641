package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/accounting-ledger/internal/api_gateway/handler"
	"github.com/accounting-ledger/internal/api_gateway/service"
	"github.com/accounting-ledger/internal/config"
)

// Server serves the ledger API
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer wires the handlers of the three services onto one router
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	ledgerService service.LedgerService,
	infoService service.InfoService,
	journalService service.JournalService,
) *Server {
	switch cfg.Application.Env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	httpRouter := gin.New()

	ledgerHandler := handler.NewLedgerHandler(log, ledgerService, cfg.Accounting.Clock())
	infoHandler := handler.NewInfoHandler(log, infoService)
	journalHandler := handler.NewJournalHandler(log, journalService)

	setupRouter(log, httpRouter, ledgerHandler, infoHandler, journalHandler)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           httpRouter,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for in-process tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start blocks serving requests until Stop is called
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
