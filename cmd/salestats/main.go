package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salestats/internal/amqp"
	"salestats/internal/backend"
	"salestats/internal/cache"
	"salestats/internal/config"
	apphttp "salestats/internal/http"
	applog "salestats/internal/log"
	"salestats/internal/report"
)

func main() {
	logCfg := applog.DefaultConfig()
	logCfg.Component = "salestats"
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
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

	// Shared Redis cache when configured, otherwise a per-process LRU.
	var respCache cache.ResponseCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.CacheTTL)
		defer redisCache.Close()
		respCache = redisCache
		logger.Info("Using Redis response cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	} else {
		respCache = cache.NewLocalCache(256, cfg.CacheTTL)
		logger.Info("Using in-process response cache", "ttl", cfg.CacheTTL)
	}

	// Reseed events flush the response cache so fresh data is served right
	// away; without a broker the TTL alone bounds staleness.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, cache staleness bounded by TTL only", "error", err)
		} else {
			defer amqpClient.Close()
			go func() {
				err := amqpClient.ConsumeDatasetReplaced(ctx, amqp.FlushCacheOnReplace(ctx, respCache))
				if err != nil && err != context.Canceled {
					logger.Error("Dataset event consumption stopped", "error", err)
				}
			}()
			logger.Info("Subscribed to dataset events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	reports := report.NewService(res.Store)
	srv := apphttp.NewServer(":"+cfg.Port, reports, respCache, cfg.QueryTimeout)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting salestats server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
