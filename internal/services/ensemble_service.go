package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jsukup/ratemybeard/internal/metrics"
	"github.com/jsukup/ratemybeard/internal/providers"
	"github.com/jsukup/ratemybeard/pkg/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultPipelineTimeout = 90 * time.Second

// EnsembleService drives the full prediction pipeline for one image: both
// model jobs launched and tracked concurrently, per-model failures degraded
// to fallback scores, results merged by the combiner.
type EnsembleService interface {
	RunEnsemble(ctx context.Context, rawImage string) (*domain.EnsembleResult, error)
}

type ensembleService struct {
	launcher JobLauncher
	poller   JobPoller
	logger   *slog.Logger
	now      func() time.Time
	deadline time.Duration

	// rng backs fallback-score generation; injected so tests can pin the
	// sequence. Guarded because both model tasks may fall back concurrently.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEnsembleService(launcher JobLauncher, poller JobPoller, logger *slog.Logger, now func() time.Time, deadline time.Duration, rng *rand.Rand) EnsembleService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	if deadline <= 0 {
		deadline = DefaultPipelineTimeout
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ensembleService{
		launcher: launcher,
		poller:   poller,
		logger:   logger,
		now:      now,
		deadline: deadline,
		rng:      rng,
	}
}

func (s *ensembleService) RunEnsemble(ctx context.Context, rawImage string) (*domain.EnsembleResult, error) {
	payload, err := domain.NormalizeImagePayload(rawImage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	analysisID := uuid.NewString()
	start := s.now()

	ctx, span := otel.Tracer("ratemybeard/ensemble").Start(ctx, "ensemble.run",
		trace.WithAttributes(attribute.String("analysis_id", analysisID)),
	)
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	outcomes := make(chan domain.ModelResult, 2)
	for _, model := range []domain.Model{domain.ModelSCUT, domain.ModelMEBeauty} {
		go func(m domain.Model) {
			outcomes <- s.resolveModel(runCtx, analysisID, m, payload)
		}(model)
	}

	// Wait-for-both barrier: the combiner needs both contributions even when
	// degraded, so there is no early return on first completion. Only the
	// global deadline breaks the wait, abandoning in-flight work via cancel.
	results := make(map[domain.Model]domain.ModelResult, 2)
	for len(results) < 2 {
		if runCtx.Err() != nil {
			return nil, s.pipelineAborted(runCtx, span, analysisID)
		}
		select {
		case <-runCtx.Done():
			return nil, s.pipelineAborted(runCtx, span, analysisID)
		case r := <-outcomes:
			results[r.Model] = r
		}
	}

	elapsed := s.now().Sub(start)
	res := Combine(results[domain.ModelSCUT], results[domain.ModelMEBeauty], elapsed)

	span.SetAttributes(
		attribute.Float64("ensemble.score", res.CombinedScore),
		attribute.String("ensemble.provenance", string(res.Provenance)),
		attribute.Int64("ensemble.elapsed_ms", res.ElapsedMS),
	)
	metrics.EnsembleRunsTotal.WithLabelValues(string(res.Provenance)).Inc()
	metrics.EnsembleLatencySeconds.Observe(elapsed.Seconds())

	s.logger.Info("ensemble completed",
		"analysisId", analysisID,
		"score", res.CombinedScore,
		"scutScore", res.Scut.Score,
		"mebeautyScore", res.Mebeauty.Score,
		"provenance", res.Provenance,
		"elapsedMs", res.ElapsedMS,
	)
	return &res, nil
}

func (s *ensembleService) pipelineAborted(runCtx context.Context, span trace.Span, analysisID string) error {
	err := runCtx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		metrics.PipelineTimeoutsTotal.Inc()
		span.SetStatus(codes.Error, "pipeline deadline exceeded")
		s.logger.Warn("ensemble aborted on global deadline", "analysisId", analysisID, "deadline", s.deadline)
		return ErrPipelineTimeout
	}
	span.SetStatus(codes.Error, err.Error())
	return err
}

// resolveModel runs one model's state machine to a terminal or fallback
// outcome. It never returns an error: every per-model failure mode degrades
// to a fallback score so the ensemble can still produce something.
func (s *ensembleService) resolveModel(ctx context.Context, analysisID string, model domain.Model, payload string) domain.ModelResult {
	ctx, span := otel.Tracer("ratemybeard/ensemble").Start(ctx, "ensemble.model",
		trace.WithAttributes(
			attribute.String("analysis_id", analysisID),
			attribute.String("model", string(model)),
		),
	)
	defer span.End()

	launchedAt := s.now()

	job, err := s.launcher.Launch(ctx, model, payload)
	if err != nil {
		return s.fallbackResult(analysisID, model, span, err)
	}

	status := job.InitialStatus
	if !status.State.Terminal() {
		status, err = s.poller.AwaitCompletion(ctx, job)
		if err != nil {
			return s.fallbackResult(analysisID, model, span, err)
		}
	}
	if status.State != domain.JobSucceeded {
		return s.fallbackResult(analysisID, model, span, &PredictionFailedError{Model: model, Reason: status.Err})
	}

	metrics.PredictionsTotal.WithLabelValues(string(model), "real").Inc()
	metrics.PredictionLatencySeconds.WithLabelValues(string(model)).Observe(s.now().Sub(launchedAt).Seconds())
	span.SetAttributes(attribute.Float64("model.score", status.Score))
	return domain.ModelResult{Model: model, Score: status.Score, Provenance: domain.ProvenanceReal}
}

// fallbackResult synthesizes a placeholder score, uniformly distributed over
// the valid score domain. It is a deliberate degradation signal, always
// tagged so it cannot pass for a genuine prediction.
func (s *ensembleService) fallbackResult(analysisID string, model domain.Model, span trace.Span, cause error) domain.ModelResult {
	s.rngMu.Lock()
	score := roundScore(domain.ScoreMin + s.rng.Float64()*(domain.ScoreMax-domain.ScoreMin))
	s.rngMu.Unlock()

	kind := errorKind(cause)
	metrics.PredictionsTotal.WithLabelValues(string(model), "fallback").Inc()
	metrics.ProviderErrorsTotal.WithLabelValues(string(model), kind).Inc()
	span.RecordError(cause)
	span.SetStatus(codes.Error, kind)
	span.SetAttributes(attribute.Bool("model.fallback", true))

	s.logger.Warn("model prediction degraded to fallback",
		"analysisId", analysisID,
		"model", model,
		"kind", kind,
		"err", cause,
	)
	return domain.ModelResult{Model: model, Score: score, Provenance: domain.ProvenanceFallback}
}

func errorKind(err error) string {
	var failed *PredictionFailedError
	switch {
	case errors.Is(err, providers.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.As(err, &failed):
		return "prediction_failed"
	case errors.Is(err, ErrPredictionTimeout):
		return "prediction_timeout"
	default:
		return "transport"
	}
}
