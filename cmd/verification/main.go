package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	credstore "vouch/internal/credential/store"
	"vouch/internal/platform/config"
	"vouch/internal/platform/health"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/metrics"
	verificationhandler "vouch/internal/verification/handler"
	"vouch/internal/verification/issuer"
	verificationservice "vouch/internal/verification/service"
	"vouch/internal/verification/tracer"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.VerificationFromEnv()
	log := logger.New("verification")

	log.Info("initializing verification service",
		"addr", cfg.Addr,
		"worker_id", cfg.WorkerID,
		"issuance_url", cfg.IssuanceURL,
	)

	store, err := newStore(cfg.DBPath, log)
	if err != nil {
		log.Error("failed to open credential store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metricSet := metrics.New(registry)

	issuerClient := issuer.New(issuer.Config{
		BaseURL: cfg.IssuanceURL,
		Timeout: cfg.ReconcileTimeout,
	})

	svc := verificationservice.New(store, cfg.WorkerID,
		verificationservice.WithIssuer(issuerClient),
		verificationservice.WithLogger(log),
		verificationservice.WithMetrics(metricSet),
		verificationservice.WithTracer(tracer.NewOTel()),
	)

	router := httpserver.NewRouter(log, cfg.AllowedOrigins, registry, metricSet,
		health.New(cfg.WorkerID),
		verificationhandler.New(svc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(srv, log)
}

func newStore(dbPath string, log *slog.Logger) (credstore.Store, error) {
	if dbPath == "" {
		log.Info("using in-memory credential store")
		return credstore.NewMemory(), nil
	}
	log.Info("using sqlite credential store", "path", dbPath)
	return credstore.NewSQLite(dbPath)
}

func waitForShutdown(srv *http.Server, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
