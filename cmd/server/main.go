package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gassure/escrowd/internal/config"
	"github.com/gassure/escrowd/internal/escrow"
	"github.com/gassure/escrowd/internal/notary"
	"github.com/gassure/escrowd/internal/server"
	"github.com/gassure/escrowd/internal/service"
	"github.com/gassure/escrowd/internal/storage/sqlite"
	"github.com/gassure/escrowd/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	seed := escrow.Seed{
		BuyerBalance:  cfg.SeedBuyerBalance,
		SellerBalance: cfg.SeedSellerBalance,
	}

	// Initialize SQLite storage (migrations + seed run here)
	store, err := sqlite.New(cfg.DBPath, seed)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	var ledger notary.Service = notary.Disabled{}
	if cfg.NotaryURL != "" {
		ledger = notary.NewClient(cfg.NotaryURL)
		slog.Info("notarization ledger configured", "endpoint", cfg.NotaryURL)
	} else {
		slog.Warn("NOTARY_URL not set, notarization submissions will fail and be recorded on events")
	}

	pipeline := notary.NewPipeline(ledger, store, notary.PipelineConfig{
		Workers:   cfg.NotaryWorkers,
		QueueSize: cfg.NotaryQueueSize,
		Timeout:   cfg.NotaryTimeout,
	})

	svc := service.NewSettlementService(store, pipeline, seed)
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.New(svc).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "address", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	// Drain in-flight notarizations after the HTTP surface stops
	// producing new dispatches.
	pipeline.Close()
}
