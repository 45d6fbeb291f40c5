package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"metricsindexer/apps/indexer/internal/app"
	"metricsindexer/apps/indexer/internal/config"
	"metricsindexer/apps/indexer/internal/logger"
)

func main() {
	// Initialize structured logger
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("indexer stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// 1. Register ingest configuration per use case
	reg := app.BuildRegistry(cfg)

	// 2. Infrastructure
	deps, err := app.Bootstrap(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer deps.Close()

	a, err := app.New(cfg, reg, deps.DB, deps.NSQProducer)
	if err != nil {
		return err
	}

	// 3. Consumer on the selected use case's input topic
	nsqCfg := nsq.NewConfig()
	if cfg.NSQMaxInFlight > 0 {
		nsqCfg.MaxInFlight = cfg.NSQMaxInFlight
	}
	consumer, err := nsq.NewConsumer(a.Consumer.InputTopic(), cfg.NSQChannel, nsqCfg)
	if err != nil {
		return err
	}
	consumer.AddHandler(a.Consumer)

	if cfg.NSQLookupd != "" {
		err = consumer.ConnectToNSQLookupd(cfg.NSQLookupd)
	} else {
		err = consumer.ConnectToNSQD(cfg.NSQDHost)
	}
	if err != nil {
		return err
	}
	defer func() {
		consumer.Stop()
		<-consumer.StopChan
	}()

	slog.Info("indexer consumer connected",
		"use_case", cfg.UseCase().String(),
		"input_topic", a.Consumer.InputTopic(),
		"output_topic", a.Consumer.OutputTopic(),
	)

	// 4. Start Server
	return a.Run(ctx)
}
