// Package main runs the background worker that executes queued ballot runs.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pydata-london/meetup-ballot/config"
	"github.com/pydata-london/meetup-ballot/internal/app"
	"github.com/pydata-london/meetup-ballot/internal/worker"
	"github.com/pydata-london/meetup-ballot/pkg/queue"
	"github.com/pydata-london/meetup-ballot/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if !cfg.Redis.Enabled() {
		logger.Fatal("load config", zap.String("reason", "REDIS_ADDR is required for the worker"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	runner, err := app.NewRunner(ctx, cfg, rdb, logger)
	if err != nil {
		logger.Fatal("ballot setup", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewBallotProcessor(runner, jobQueue, logger)

	logger.Info("worker started")
	processor.Run(ctx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
