// Package ballot runs the RSVP lottery for the next event of a group.
package ballot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pydata-london/meetup-ballot/internal/meetup"
)

// Platform is the part of the meetup client the engine needs.
type Platform interface {
	NextEventID(ctx context.Context) (string, error)
	RSVPs(ctx context.Context, eventID string) ([]meetup.RSVP, error)
	MemberName(ctx context.Context, id meetup.MemberID) (string, error)
	MarkRSVPsYes(ctx context.Context, eventID string, ids []meetup.MemberID) []meetup.MemberID
}

// Status is the outcome kind of a run.
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusNoEvent     Status = "no_event"
	StatusAlreadyFull Status = "already_full"
	StatusNotDue      Status = "not_due"
	StatusLocked      Status = "locked"
)

// RunOptions control a single run.
type RunOptions struct {
	RunID  string
	Force  bool // ignore the days-before-event window
	DryRun bool // draw but do not commit
}

// Result describes one run.
type Result struct {
	RunID   string
	Status  Status
	EventID string
	Counts  map[meetup.Response]int
	Draw
	Spam   []meetup.MemberID
	Failed []meetup.MemberID
	DryRun bool
}

// Options configure an Engine.
type Options struct {
	Capacity   int
	Exceptions Exceptions
	// Limiter paces member lookups; nil means no pacing.
	Limiter *rate.Limiter
	Rand    Rand
}

// NewLookupLimiter returns a token bucket allowing perSecond lookups with the given burst.
// A non-positive rate disables pacing.
func NewLookupLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// Engine draws attendees for the next event.
type Engine struct {
	platform   Platform
	capacity   int
	exceptions Exceptions
	limiter    *rate.Limiter
	rnd        Rand
	logger     *zap.Logger
}

// NewEngine creates a ballot engine.
func NewEngine(platform Platform, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Engine{
		platform:   platform,
		capacity:   opts.Capacity,
		exceptions: opts.Exceptions,
		limiter:    opts.Limiter,
		rnd:        rnd,
		logger:     logger,
	}
}

// Run executes one ballot. A missing event or a full event is reported through
// Result.Status, not as an error.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	res := &Result{RunID: opts.RunID, DryRun: opts.DryRun}
	log := e.logger.With(zap.String("run_id", opts.RunID))

	eventID, err := e.platform.NextEventID(ctx)
	if err != nil {
		if errors.Is(err, meetup.ErrNoUpcomingEvent) {
			log.Info("no upcoming event, nothing to do", zap.Error(err))
			res.Status = StatusNoEvent
			return res, nil
		}
		return nil, fmt.Errorf("next event: %w", err)
	}
	res.EventID = eventID
	log = log.With(zap.String("event_id", eventID))

	rsvps, err := e.platform.RSVPs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	res.Counts = meetup.ResponseCounts(rsvps)
	yes := res.Counts[meetup.ResponseYes]
	log.Info("current rsvps",
		zap.Int("total", len(rsvps)),
		zap.Int("yes", yes),
		zap.Int("waitlist", res.Counts[meetup.ResponseWaitlist]),
		zap.Int("no", res.Counts[meetup.ResponseNo]),
	)

	if AlreadyRan(res.Counts, e.capacity) {
		log.Info("event already at capacity, skipping draw", zap.Int("capacity", e.capacity))
		res.Status = StatusAlreadyFull
		return res, nil
	}

	organizers := meetup.OrganizerIDs(rsvps)
	candidates := meetup.CandidateIDs(rsvps)
	log.Info("filtering spam members", zap.Int("candidates", len(candidates)), zap.Int("organizers", len(organizers)))
	clean, spam, err := e.FilterCandidates(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("filter candidates: %w", err)
	}
	res.Spam = spam

	res.Draw = Plan(organizers, clean, yes, e.capacity, e.rnd)
	log.Info("drew members",
		zap.Int("clean", len(clean)),
		zap.Int("spam", len(spam)),
		zap.Int("available", res.Available),
		zap.Int("sample_size", res.SampleSize),
	)

	attending := res.Attending()
	if opts.DryRun {
		log.Info("dry run, not marking rsvps", zap.Int("admitted", len(attending)))
	} else {
		res.Failed = e.platform.MarkRSVPsYes(ctx, eventID, attending)
	}
	res.Status = StatusCompleted
	log.Info("ballot completed", zap.Int("admitted", len(attending)), zap.Int("failed", len(res.Failed)))
	return res, nil
}
