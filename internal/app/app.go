// Package app wires configuration into the tailoring service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dgallion1/doctailor/internal/api"
	"github.com/dgallion1/doctailor/internal/config"
	"github.com/dgallion1/doctailor/internal/metrics"
	"github.com/dgallion1/doctailor/internal/pipeline"
	"github.com/dgallion1/doctailor/internal/reapply"
	"github.com/dgallion1/doctailor/internal/rewrite"
	"github.com/dgallion1/doctailor/internal/storage"
	"github.com/dgallion1/doctailor/internal/telemetry"
)

// NewRewriter builds the configured provider client.
func NewRewriter(ctx context.Context, cfg config.Config) (rewrite.Rewriter, error) {
	return rewrite.NewRewriter(ctx, rewrite.Config{
		Provider:    cfg.LLMProvider,
		APIKey:      cfg.RewriteAPIKey(),
		Model:       cfg.RewriteModel(),
		MaxTokens:   cfg.RewriteMaxTokens,
		Temperature: cfg.RewriteTemperature,
		Timeout:     cfg.RewriteTimeout,
	})
}

// CloseRewriter releases provider resources, if the provider holds any.
func CloseRewriter(rw rewrite.Rewriter) {
	switch c := rw.(type) {
	case interface{ Close() error }:
		_ = c.Close()
	case interface{ Close() }:
		c.Close()
	}
}

// NewTailor builds a Tailor from configuration.
func NewTailor(cfg config.Config, fetcher storage.Fetcher, rw rewrite.Rewriter, log *slog.Logger, m *metrics.Metrics) (pipeline.Tailor, error) {
	policy, err := reapply.ParsePolicy(cfg.LinePolicy)
	if err != nil {
		return pipeline.Tailor{}, err
	}
	return pipeline.Tailor{
		Fetcher:      fetcher,
		Rewriter:     rw,
		Logger:       log,
		Metrics:      m,
		Tracer:       telemetry.Tracer(),
		MaxChunkSize: cfg.MaxChunkSize,
		Concurrency:  cfg.RewriteConcurrency,
		Retries:      cfg.RewriteRetries,
		Policy:       policy,
	}, nil
}

// Serve runs the HTTP API and the job workers until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	shutdownTracing, err := telemetry.Init(ctx, log, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	// Initialize clients.
	store, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}
	provider, err := NewRewriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer CloseRewriter(provider)
	stats := rewrite.NewLLMStats(cfg.LLMStatsWindow)
	rw := rewrite.Instrument(provider, stats)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	fetcher := &storage.LocatorFetcher{
		HTTP:    storage.NewHTTPFetcher(cfg.RewriteTimeout),
		Objects: &storage.ObjectFetcher{Store: store},
	}
	tailor, err := NewTailor(cfg, fetcher, rw, log, m)
	if err != nil {
		return err
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, store, tailor, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, rw, stats, m, reg, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		orch.Stop()
	}()

	log.Info("starting doctailor",
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"model", rw.Model(),
		"line_policy", tailor.Policy.String(),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-done
	return nil
}
