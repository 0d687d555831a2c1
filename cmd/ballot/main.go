// Package main runs the RSVP ballot once; meant to be started by a scheduler.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pydata-london/meetup-ballot/config"
	"github.com/pydata-london/meetup-ballot/internal/app"
	"github.com/pydata-london/meetup-ballot/internal/ballot"
	"github.com/pydata-london/meetup-ballot/pkg/redis"
)

func main() {
	force := pflag.Bool("force", false, "run even if the next event is outside the ballot window")
	dryRun := pflag.Bool("dry-run", false, "draw members but do not mark their RSVPs")
	pflag.Parse()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	if !cfg.Trigger.Triggered() && !*force {
		logger.Info("script is neither run from cron nor manually triggered")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without lock", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	runner, err := app.NewRunner(ctx, cfg, rdb, logger)
	if err != nil {
		logger.Fatal("ballot setup", zap.Error(err))
	}

	run(ctx, runner, ballot.RunOptions{Force: *force, DryRun: *dryRun}, logger)
}

// run executes the ballot and logs any failure instead of crashing.
func run(ctx context.Context, runner *ballot.Runner, opts ballot.RunOptions, logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("ballot panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	logger.Info("running the rsvp ballot")
	res, err := runner.Run(ctx, opts)
	if err != nil {
		logger.Error("ballot failed", zap.Error(err))
		return
	}
	logger.Info("ballot finished",
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
		zap.String("event_id", res.EventID),
		zap.Int("admitted", res.Admitted()),
		zap.Int("failed", len(res.Failed)),
		zap.Bool("dry_run", res.DryRun),
	)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
