package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/trendscout/api"
	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/config"
	"github.com/use-agent/trendscout/flow"
	"github.com/use-agent/trendscout/logging"
	"github.com/use-agent/trendscout/store"
	"github.com/use-agent/trendscout/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logging.Init(cfg.Log)
	slog.Info("trendscout starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxConcurrent", cfg.Server.MaxConcurrent,
		"store", cfg.Store.Driver,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	profile, err := cfg.Profile()
	if err != nil {
		slog.Error("invalid proxy configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ── 3. Open the snapshot store ──────────────────────────────────
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// ── 4. Wire the capture runner ──────────────────────────────────
	opts := []flow.Option{}
	if cfg.Webhook.URL != "" {
		opts = append(opts, flow.WithNotifier(webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)))
		slog.Info("webhook notifications enabled", "url", cfg.Webhook.URL)
	}
	runner := flow.NewRunner(browser.NewRodLauncher(), st, profile, cfg.Credentials(), opts...)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(ctx, runner, cfg, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// A capture can take minutes; give in-flight ones the request timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("trendscout stopped")
}
