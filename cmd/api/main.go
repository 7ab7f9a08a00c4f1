// Package main is the entry point for the STAC-IT API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/stacit/stacit/backend/api"
	"github.com/stacit/stacit/backend/internal/config"
	"github.com/stacit/stacit/backend/internal/handler"
	"github.com/stacit/stacit/backend/internal/metrics"
	"github.com/stacit/stacit/backend/internal/middleware"
	"github.com/stacit/stacit/backend/internal/repo"
	"github.com/stacit/stacit/backend/internal/service"
	"github.com/stacit/stacit/backend/internal/sms"
	"github.com/stacit/stacit/backend/internal/suggest"
	"github.com/stacit/stacit/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	if cfg.RunMigrations {
		if err := migrate(cfg.DatabaseURL); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Services ---------------------------------------------------------
	m := metrics.New()
	opts := service.Options{Location: cfg.Location, Logger: logger, Metrics: m}

	// Suggestion calls can take a while; the client timeout stays below the
	// server's WriteTimeout so a slow backend still gets a JSON error back.
	outbound := &http.Client{Timeout: 45 * time.Second}

	stacRepo := repo.NewStacRepo(pool)
	flowRepo := repo.NewFlowRepo(cfg.FlowTTL, cfg.FlowTTL/2)
	gateway := sms.New(cfg.SMSGatewayURL, cfg.SMSGatewayToken, &http.Client{Timeout: 15 * time.Second})
	if !gateway.Available() {
		slog.Warn("SMS_GATEWAY_URL not set, sharing is disabled")
	}

	shareSvc := service.NewShareService(stacRepo, gateway, opts)
	srv := handler.NewServer(
		service.NewFlowService(flowRepo, stacRepo, suggest.NewClient(cfg.SuggestionURL, outbound, m), shareSvc, opts),
		service.NewStacService(stacRepo, opts),
		shareSvc,
		service.NewProfileService(repo.NewProfileRepo(pool), opts),
		logger,
	)

	verifier, err := middleware.NewVerifier(cfg.SessionSecret)
	if err != nil {
		slog.Error("failed to configure session verifier", "error", err)
		os.Exit(1)
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Metrics →
	// Recoverer → CORS → MaxBodySize.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMetricsHandler(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", m.Handler())
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	r.Mount("/", srv.Handler(middleware.NewAuthHandler(verifier, logger)))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending goose migrations over a short-lived database/sql
// connection, which is what goose requires.
func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", n)
	return nil
}
