package services

import (
	"context"
	"time"

	"github.com/jsukup/ratemybeard/internal/metrics"
	"github.com/jsukup/ratemybeard/internal/providers"
	"github.com/jsukup/ratemybeard/pkg/domain"
)

const (
	DefaultPollMaxAttempts = 30
	DefaultPollInterval    = 2 * time.Second
)

// JobPoller tracks a submitted job until it reaches a terminal state or the
// attempt budget runs out. The budget is independent per model; two pollers
// for the same invocation run concurrently on their own budgets.
type JobPoller interface {
	AwaitCompletion(ctx context.Context, job *domain.ModelJob) (domain.JobStatus, error)
}

type jobPoller struct {
	provider    providers.InferenceProvider
	maxAttempts int
	interval    time.Duration
}

func NewJobPoller(provider providers.InferenceProvider, maxAttempts int, interval time.Duration) JobPoller {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &jobPoller{provider: provider, maxAttempts: maxAttempts, interval: interval}
}

// AwaitCompletion runs a sleep-then-query loop. A transport error on any
// status check aborts polling immediately; the check itself is not retried.
func (p *jobPoller) AwaitCompletion(ctx context.Context, job *domain.ModelJob) (domain.JobStatus, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := sleepOrDone(ctx, p.interval); err != nil {
			// Cancellation mid-poll counts against the model as a timeout;
			// the in-flight request is abandoned, not awaited.
			return domain.JobStatus{}, ErrPredictionTimeout
		}

		status, err := p.provider.GetJob(ctx, job.ID)
		if err != nil {
			return domain.JobStatus{}, err
		}
		metrics.PollAttemptsTotal.WithLabelValues(string(job.Model)).Inc()

		switch status.State {
		case domain.JobSucceeded:
			return status, nil
		case domain.JobFailed:
			return status, &PredictionFailedError{Model: job.Model, Reason: status.Err}
		}
	}
	return domain.JobStatus{}, ErrPredictionTimeout
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
