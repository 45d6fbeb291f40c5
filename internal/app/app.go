package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"metricsindexer/apps/indexer/features/lookup"
	"metricsindexer/apps/indexer/internal/config"
	"metricsindexer/apps/indexer/internal/indexer"
	"metricsindexer/apps/indexer/internal/middleware"
	"metricsindexer/apps/indexer/internal/ratelimit"
	"metricsindexer/apps/indexer/internal/usecase"
	"metricsindexer/apps/indexer/internal/worker"
)

type App struct {
	Handler  http.Handler
	Consumer *worker.IndexerConsumer
	Indexer  indexer.StringIndexer

	port int
}

func New(cfg *config.Config, reg *usecase.Registry, db *sql.DB, pub worker.EventPublisher) (*App, error) {
	limiter := ratelimit.NewWritesLimiter(reg)
	idx := indexer.NewStaticStringsIndexer(indexer.NewPostgresIndexer(db, reg, limiter))

	consumer, err := worker.NewIndexerConsumer(reg, cfg.UseCase(), idx, pub)
	if err != nil {
		return nil, err
	}

	lookupHandler := lookup.NewHandler(reg, idx)

	mux := http.NewServeMux()
	mux.Handle("GET /use-cases", middleware.CorrelationID(http.HandlerFunc(lookupHandler.List)))
	mux.Handle("GET /use-cases/{use_case}", middleware.CorrelationID(http.HandlerFunc(lookupHandler.Get)))
	mux.Handle("GET /use-cases/{use_case}/resolve", middleware.CorrelationID(http.HandlerFunc(lookupHandler.Resolve)))
	mux.Handle("GET /use-cases/{use_case}/strings/{id}", middleware.CorrelationID(http.HandlerFunc(lookupHandler.ReverseResolve)))

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:  mux,
		Consumer: consumer,
		Indexer:  idx,
		port:     cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
