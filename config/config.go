package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Meetup  MeetupConfig
	Ballot  BallotConfig
	Trigger TriggerConfig
	Redis   RedisConfig
	AWS     AWSConfig
	Server  ServerConfig
}

// MeetupConfig holds the platform API settings.
type MeetupConfig struct {
	Key        string        `env:"MEETUP_KEY,required,notEmpty"`
	URLName    string        `env:"MEETUP_URLNAME,required,notEmpty"`
	BaseURL    string        `env:"MEETUP_BASE_URL" envDefault:"https://api.meetup.com"`
	Timeout    time.Duration `env:"MEETUP_TIMEOUT" envDefault:"30s"`
	MaxRetries int           `env:"MEETUP_MAX_RETRIES" envDefault:"3"`
}

// BallotConfig holds the lottery settings.
type BallotConfig struct {
	MaxRSVPs   int `env:"MAX_RSVPS,required"`
	BeforeDays int `env:"RSVP_BEFORE_DAYS,required"`
	// ExceptionsPath is a local CSV path or an s3://bucket/key URI; empty disables the list.
	ExceptionsPath string        `env:"BALLOT_EXCEPTIONS_PATH"`
	LookupRate     float64       `env:"BALLOT_LOOKUP_RATE" envDefault:"3"`
	LookupBurst    int           `env:"BALLOT_LOOKUP_BURST" envDefault:"5"`
	LockTTL        time.Duration `env:"BALLOT_LOCK_TTL" envDefault:"30m"`
}

// TriggerConfig tells whether the process was started by the scheduler or by hand.
type TriggerConfig struct {
	EventType string `env:"TRAVIS_EVENT_TYPE"`
	Manual    string `env:"MANUAL_BALLOT_TRIGGER"`
}

// Triggered reports whether a cron or manual trigger is present.
func (t TriggerConfig) Triggered() bool {
	return t.EventType != "" || t.Manual != ""
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Enabled reports whether Redis is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AWSConfig holds credentials for reading the exception list from S3.
type AWSConfig struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// ServerConfig holds trigger API settings.
type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	TriggerToken string        `env:"TRIGGER_TOKEN"` // empty = no token check
}

func loadDotEnv() {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)
}

// Load reads the full ballot configuration from environment, with optional .env file.
// A missing required setting is an error.
func Load() (*Config, error) {
	loadDotEnv()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServer reads only the settings the trigger API needs.
func LoadServer() (*Config, error) {
	loadDotEnv()

	var cfg Config
	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if !cfg.Redis.Enabled() {
		return nil, errors.New("REDIS_ADDR is required for the trigger API")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Ballot.MaxRSVPs < 0 {
		errs = append(errs, fmt.Errorf("MAX_RSVPS must not be negative, got %d", c.Ballot.MaxRSVPs))
	}
	if c.Ballot.BeforeDays < 0 {
		errs = append(errs, fmt.Errorf("RSVP_BEFORE_DAYS must not be negative, got %d", c.Ballot.BeforeDays))
	}
	if c.Meetup.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("MEETUP_MAX_RETRIES must be at least 1, got %d", c.Meetup.MaxRetries))
	}
	return errors.Join(errs...)
}

// LockKey is the Redis key guarding ballot runs for the group.
func (c *Config) LockKey() string {
	return "ballot:lock:" + c.Meetup.URLName
}
