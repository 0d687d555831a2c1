// Package app wires configuration into a ballot runner.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pydata-london/meetup-ballot/config"
	"github.com/pydata-london/meetup-ballot/internal/ballot"
	"github.com/pydata-london/meetup-ballot/internal/meetup"
	"github.com/pydata-london/meetup-ballot/pkg/redis"
	"github.com/pydata-london/meetup-ballot/pkg/storage"
)

// NewMeetupClient builds the platform client from config.
func NewMeetupClient(cfg *config.Config, logger *zap.Logger) *meetup.Client {
	return meetup.NewClient(meetup.Config{
		BaseURL:    cfg.Meetup.BaseURL,
		URLName:    cfg.Meetup.URLName,
		Token:      cfg.Meetup.Key,
		Timeout:    cfg.Meetup.Timeout,
		MaxRetries: cfg.Meetup.MaxRetries,
	}, logger)
}

// LoadExceptions reads the configured exception list, connecting to S3 only for s3:// paths.
func LoadExceptions(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ballot.Exceptions, error) {
	path := cfg.Ballot.ExceptionsPath
	var store ballot.ObjectOpener
	if _, _, ok := ballot.SplitS3URI(path); ok {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		store = s3Client
	}
	exceptions, err := ballot.LoadExceptions(ctx, path, store)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Info("loaded member exceptions", zap.String("path", path), zap.Int("count", len(exceptions)))
	}
	return exceptions, nil
}

// NewRunner builds the ballot runner. rdb may be nil, in which case runs are not locked.
func NewRunner(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zap.Logger) (*ballot.Runner, error) {
	exceptions, err := LoadExceptions(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	client := NewMeetupClient(cfg, logger)
	engine := ballot.NewEngine(client, ballot.Options{
		Capacity:   cfg.Ballot.MaxRSVPs,
		Exceptions: exceptions,
		Limiter:    ballot.NewLookupLimiter(cfg.Ballot.LookupRate, cfg.Ballot.LookupBurst),
	}, logger)

	var locker ballot.Locker
	if rdb != nil {
		locker = rdb
	}
	return ballot.NewRunner(client, engine, locker, ballot.RunnerConfig{
		BeforeDays: cfg.Ballot.BeforeDays,
		LockKey:    cfg.LockKey(),
		LockTTL:    cfg.Ballot.LockTTL,
	}, logger), nil
}
