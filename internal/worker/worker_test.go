package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pydata-london/meetup-ballot/internal/ballot"
	"github.com/pydata-london/meetup-ballot/pkg/queue"
)

type fakeRunner struct {
	mu   sync.Mutex
	opts []ballot.RunOptions
	err  error
}

func (f *fakeRunner) Run(_ context.Context, opts ballot.RunOptions) (*ballot.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &ballot.Result{RunID: opts.RunID, Status: ballot.StatusCompleted}, nil
}

func (f *fakeRunner) calls() []ballot.RunOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ballot.RunOptions(nil), f.opts...)
}

type fakeSource struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
}

func (s *fakeSource) Dequeue(ctx context.Context) (*queue.Job, error) {
	s.mu.Lock()
	if len(s.jobs) > 0 {
		j := s.jobs[0]
		s.jobs = s.jobs[1:]
		s.mu.Unlock()
		return j, nil
	}
	s.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Millisecond):
		return nil, nil
	}
}

func (s *fakeSource) Retry(_ context.Context, job *queue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retried = append(s.retried, job)
	return nil
}

func (s *fakeSource) retries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retried)
}

func ballotJob(t *testing.T, payload queue.BallotRunPayload) *queue.Job {
	t.Helper()
	job, err := queue.NewBallotRunJob(payload)
	require.NoError(t, err)
	return job
}

func TestProcess_PassesOptions(t *testing.T) {
	r := &fakeRunner{}
	p := NewBallotProcessor(r, &fakeSource{}, nil)
	job := ballotJob(t, queue.BallotRunPayload{Force: true, DryRun: true})

	res, err := p.Process(t.Context(), job)
	require.NoError(t, err)
	assert.Equal(t, ballot.StatusCompleted, res.Status)
	assert.Equal(t, []ballot.RunOptions{{RunID: job.ID, Force: true, DryRun: true}}, r.calls())
}

func TestProcess_UnknownType(t *testing.T) {
	p := NewBallotProcessor(&fakeRunner{}, &fakeSource{}, nil)

	_, err := p.Process(t.Context(), &queue.Job{Type: "email", Payload: json.RawMessage(`{}`)})
	assert.ErrorContains(t, err, "unknown job type")
}

func TestRun_RetriesFailedJobs(t *testing.T) {
	r := &fakeRunner{err: errors.New("platform down")}
	src := &fakeSource{jobs: []*queue.Job{ballotJob(t, queue.BallotRunPayload{})}}
	p := NewBallotProcessor(r, src, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return src.retries() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Len(t, r.calls(), 1)
}
