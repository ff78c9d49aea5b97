package services

import (
	"context"
	"sync/atomic"

	"github.com/jsukup/ratemybeard/pkg/domain"
)

// stubProvider lets each test script submission and polling behavior.
type stubProvider struct {
	createFn func(ctx context.Context, version, imageDataURL string) (string, domain.JobStatus, error)
	getFn    func(ctx context.Context, jobID string) (domain.JobStatus, error)

	createCalls int64
	getCalls    int64
}

func (s *stubProvider) CreateJob(ctx context.Context, version, imageDataURL string) (string, domain.JobStatus, error) {
	atomic.AddInt64(&s.createCalls, 1)
	return s.createFn(ctx, version, imageDataURL)
}

func (s *stubProvider) GetJob(ctx context.Context, jobID string) (domain.JobStatus, error) {
	atomic.AddInt64(&s.getCalls, 1)
	return s.getFn(ctx, jobID)
}

func testVersions() map[domain.Model]string {
	return map[domain.Model]string{
		domain.ModelSCUT:     "acct/scut:v1",
		domain.ModelMEBeauty: "acct/mebeauty:v1",
	}
}

const testImage = "aGVsbG8gd29ybGQ="
