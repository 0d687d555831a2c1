package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pydata-london/meetup-ballot/internal/ballot"
	"github.com/pydata-london/meetup-ballot/pkg/queue"
)

// BallotRunner runs one ballot.
type BallotRunner interface {
	Run(ctx context.Context, opts ballot.RunOptions) (*ballot.Result, error)
}

// JobSource hands out jobs and takes failed ones back.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// BallotProcessor executes manually triggered ballot runs from the queue.
type BallotProcessor struct {
	runner  BallotRunner
	queue   JobSource
	backoff time.Duration
	logger  *zap.Logger
}

// NewBallotProcessor creates a ballot run processor.
func NewBallotProcessor(runner BallotRunner, q JobSource, logger *zap.Logger) *BallotProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BallotProcessor{runner: runner, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one ballot run job.
func (p *BallotProcessor) Process(ctx context.Context, job *queue.Job) (*ballot.Result, error) {
	if job.Type != queue.JobTypeBallotRun {
		return nil, fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.BallotRunPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	res, err := p.runner.Run(ctx, ballot.RunOptions{
		RunID:  job.ID,
		Force:  payload.Force,
		DryRun: payload.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("run ballot: %w", err)
	}
	p.logger.Info("ballot job completed",
		zap.String("job_id", job.ID),
		zap.String("requested_by", payload.RequestedBy),
		zap.String("status", string(res.Status)),
		zap.String("event_id", res.EventID),
		zap.Int("admitted", res.Admitted()),
	)
	return res, nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *BallotProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ballot worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if _, err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(context.WithoutCancel(ctx), job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *BallotProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
