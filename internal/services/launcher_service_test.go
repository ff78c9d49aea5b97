package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jsukup/ratemybeard/internal/providers"
	"github.com/jsukup/ratemybeard/pkg/domain"
)

func TestLaunchSubmitsNormalizedPayload(t *testing.T) {
	var gotVersion, gotPayload string
	provider := &stubProvider{
		createFn: func(_ context.Context, version, imageDataURL string) (string, domain.JobStatus, error) {
			gotVersion = version
			gotPayload = imageDataURL
			return "job-1", domain.JobStatus{State: domain.JobPending}, nil
		},
	}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	launcher := NewJobLauncher(provider, testVersions(), func() time.Time { return fixed })

	job, err := launcher.Launch(context.Background(), domain.ModelSCUT, testImage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID != "job-1" || job.Model != domain.ModelSCUT {
		t.Errorf("unexpected job: %+v", job)
	}
	if !job.SubmittedAt.Equal(fixed) {
		t.Errorf("expected pinned submission time, got %v", job.SubmittedAt)
	}
	if gotVersion != "acct/scut:v1" {
		t.Errorf("unexpected version %q", gotVersion)
	}
	if !strings.HasPrefix(gotPayload, "data:image/jpeg;base64,") {
		t.Errorf("expected data-URL payload, got %q", gotPayload)
	}
}

func TestLaunchMissingVersion(t *testing.T) {
	launcher := NewJobLauncher(&stubProvider{}, map[domain.Model]string{}, nil)

	_, err := launcher.Launch(context.Background(), domain.ModelSCUT, testImage)
	if !errors.Is(err, providers.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestLaunchInvalidPayload(t *testing.T) {
	launcher := NewJobLauncher(&stubProvider{}, testVersions(), nil)

	_, err := launcher.Launch(context.Background(), domain.ModelSCUT, "not base64!!")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLaunchPropagatesProviderError(t *testing.T) {
	provider := &stubProvider{
		createFn: func(_ context.Context, _, _ string) (string, domain.JobStatus, error) {
			return "", domain.JobStatus{}, providers.ErrProviderUnavailable
		},
	}
	launcher := NewJobLauncher(provider, testVersions(), nil)

	_, err := launcher.Launch(context.Background(), domain.ModelMEBeauty, testImage)
	if !errors.Is(err, providers.ErrProviderUnavailable) {
		t.Fatalf("expected provider error passed through, got %v", err)
	}
}
