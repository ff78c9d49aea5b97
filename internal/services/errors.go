package services

import (
	"errors"
	"fmt"

	"github.com/jsukup/ratemybeard/pkg/domain"
)

var (
	// ErrPredictionTimeout means one model's polling budget was exhausted
	// without reaching a terminal state. Converted to a fallback score by
	// the orchestrator.
	ErrPredictionTimeout = errors.New("prediction polling budget exhausted")

	// ErrPipelineTimeout means the global deadline elapsed before both
	// models resolved. Unlike per-model failures this is never converted
	// to a fallback; it surfaces to the caller as a hard error.
	ErrPipelineTimeout = errors.New("ensemble pipeline deadline exceeded")

	// ErrInvalidInput rejects a malformed or missing image payload before
	// any network call is made.
	ErrInvalidInput = errors.New("invalid input")
)

// PredictionFailedError reports that the provider explicitly failed a
// submitted job.
type PredictionFailedError struct {
	Model  domain.Model
	Reason string
}

func (e *PredictionFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("prediction failed for model %s", e.Model)
	}
	return fmt.Sprintf("prediction failed for model %s: %s", e.Model, e.Reason)
}
