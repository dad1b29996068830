// Command seed-loader fetches the upstream transaction dataset and replaces
// the configured store's contents with it. Run it once to initialize a
// database, or on a schedule to refresh it.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"salestats/internal/amqp"
	"salestats/internal/backend"
	"salestats/internal/config"
	applog "salestats/internal/log"
	"salestats/internal/seed"
)

func main() {
	logCfg := applog.DefaultConfig()
	logCfg.Component = "seed-loader"
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting seed-loader")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	// Reseed notifications are optional; without a broker the load still runs.
	var events seed.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			defer client.Close()
			events = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	fetcher := seed.NewFetcher(&http.Client{Timeout: 30 * time.Second}, cfg.SeedURL)
	loader := seed.NewLoader(fetcher, res.Store, events)

	n, err := loader.Run(ctx)
	if err != nil {
		logger.Error("Seed load failed", "error", err, "source", cfg.SeedURL)
		os.Exit(1)
	}

	logger.Info("Seed load completed", "count", n, "backend", cfg.DataBackend)
}
