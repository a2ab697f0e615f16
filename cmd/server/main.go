package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pbxwatch/backend/internal/api"
	"github.com/pbxwatch/backend/internal/config"
	"github.com/pbxwatch/backend/internal/ingest"
	"github.com/pbxwatch/backend/internal/metrics"
	"github.com/pbxwatch/backend/internal/query"
	"github.com/pbxwatch/backend/internal/storage"
	"github.com/pbxwatch/backend/internal/ticker"
	"github.com/pbxwatch/backend/internal/websocket"
	"github.com/pbxwatch/backend/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting pbxwatch backend server")

	// Create record store
	store, err := storage.NewStore(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create record store")
	}

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broadcast per-stream ingest status to connected clients
	tickerService := ticker.NewTicker(hub, cfg.StatusInterval, log.Logger)
	go tickerService.Start(ctx)

	// Create WebSocket handler
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Create ingest receiver
	receiver := ingest.NewReceiver(store, log.Logger)

	// Create query facade and view handlers
	facade := query.New(store, log.Logger)
	dataHandler := api.NewDataHandler(store, facade, log.Logger)
	viewsHandler := api.NewViewsHandler(facade, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes
	r.Get("/health", healthHandler)

	// Ingest routes (for PBX exporters and the simulator)
	r.Route("/stream", func(r chi.Router) {
		r.Post("/", receiver.HandleCalls)
		r.Post("/advanced-calls", receiver.HandleAdvancedCalls)
		r.Post("/agent-status", receiver.HandleAgentStatus)
		r.Post("/profile-availability", receiver.HandleProfileAvailability)
		r.Get("/stats", receiver.GetStats)
	})

	// Query routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/data", dataHandler.GetData)
		r.Post("/data/delete", dataHandler.DeleteData)
		r.Get("/threads", viewsHandler.GetThreads)
		r.Get("/billing", viewsHandler.GetBilling)
		r.Get("/countries", viewsHandler.GetCountries)
		r.Get("/metrics", metrics.Get().Handler())
	})

	// WebSocket stream-status feed
	r.Get("/ws", wsHandler.ServeHTTP)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Cancel ticker context
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"pbxwatch-backend"}`)
}
