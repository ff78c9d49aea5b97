package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jsukup/ratemybeard/internal/providers"
	"github.com/jsukup/ratemybeard/pkg/domain"
)

// JobLauncher starts one remote inference job for a model. It never retries:
// a rejected submission surfaces as providers.ErrProviderUnavailable and the
// orchestrator decides what to do with it.
type JobLauncher interface {
	Launch(ctx context.Context, model domain.Model, imagePayload string) (*domain.ModelJob, error)
}

type jobLauncher struct {
	provider providers.InferenceProvider
	versions map[domain.Model]string
	now      func() time.Time
}

func NewJobLauncher(provider providers.InferenceProvider, versions map[domain.Model]string, now func() time.Time) JobLauncher {
	if now == nil {
		now = time.Now
	}
	return &jobLauncher{provider: provider, versions: versions, now: now}
}

func (l *jobLauncher) Launch(ctx context.Context, model domain.Model, imagePayload string) (*domain.ModelJob, error) {
	version, ok := l.versions[model]
	if !ok || version == "" {
		return nil, fmt.Errorf("%w: no version configured for model %s", providers.ErrProviderUnavailable, model)
	}

	// Callers normally hand over a normalized payload already; bare base64
	// still gets the default data-URL prefix here before dispatch.
	payload, err := domain.NormalizeImagePayload(imagePayload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	jobID, status, err := l.provider.CreateJob(ctx, version, payload)
	if err != nil {
		return nil, err
	}
	return &domain.ModelJob{
		Model:         model,
		ID:            jobID,
		SubmittedAt:   l.now(),
		InitialStatus: status,
	}, nil
}
