package domain

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

type Model string

const (
	ModelSCUT     Model = "scut"
	ModelMEBeauty Model = "mebeauty"
)

// Score domain shared by both models. Fallback scores are drawn from the
// same range so a degraded result is still plausible downstream.
const (
	ScoreMin = 0.0
	ScoreMax = 5.0
)

type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Terminal reports whether no further state transition can occur for a job
// within one pipeline invocation.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// ModelJob is one in-flight remote inference request. The job id is assigned
// by the provider at submission and never changes.
type ModelJob struct {
	Model       Model     `json:"model"`
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
	// InitialStatus is the status returned at submission time. Providers
	// honoring synchronous-if-possible submission may hand back a job that
	// is already terminal, in which case polling is skipped.
	InitialStatus JobStatus `json:"initialStatus"`
}

// JobStatus is the polled state of a ModelJob. Score is only meaningful when
// State is succeeded; Err only when State is failed.
type JobStatus struct {
	State JobState `json:"state"`
	Score float64  `json:"score,omitempty"`
	Err   string   `json:"error,omitempty"`
}

type Provenance string

const (
	ProvenanceReal     Provenance = "real"
	ProvenanceFallback Provenance = "fallback"
	ProvenanceMixed    Provenance = "mixed"
)

// CombineProvenance merges two per-model provenance tags into the tag for
// the ensemble: real+real=real, fallback+fallback=fallback, otherwise mixed.
func CombineProvenance(a, b Provenance) Provenance {
	if a == ProvenanceReal && b == ProvenanceReal {
		return ProvenanceReal
	}
	if a == ProvenanceFallback && b == ProvenanceFallback {
		return ProvenanceFallback
	}
	return ProvenanceMixed
}

// ModelResult is the final outcome for one model, real or substituted.
type ModelResult struct {
	Model      Model      `json:"model"`
	Score      float64    `json:"score"`
	Provenance Provenance `json:"provenance"`
}

// EnsembleResult is the pipeline output returned synchronously to the caller.
type EnsembleResult struct {
	Scut          ModelResult   `json:"scut"`
	Mebeauty      ModelResult   `json:"mebeauty"`
	CombinedScore float64       `json:"combinedScore"`
	Provenance    Provenance    `json:"provenance"`
	Elapsed       time.Duration `json:"-"`
	ElapsedMS     int64         `json:"elapsedMs"`
}

var ErrInvalidImagePayload = errors.New("invalid image payload")

const defaultDataURLPrefix = "data:image/jpeg;base64,"

// NormalizeImagePayload turns raw caller input (bare base64 or an already
// prefixed data URL) into the data-URL form the inference provider expects.
// Malformed input is rejected here, before any network call.
func NormalizeImagePayload(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidImagePayload
	}
	if strings.HasPrefix(raw, "data:") {
		idx := strings.Index(raw, ";base64,")
		if idx < 0 {
			return "", ErrInvalidImagePayload
		}
		if !validBase64(raw[idx+len(";base64,"):]) {
			return "", ErrInvalidImagePayload
		}
		return raw, nil
	}
	if !validBase64(raw) {
		return "", ErrInvalidImagePayload
	}
	return defaultDataURLPrefix + raw, nil
}

func validBase64(s string) bool {
	if s == "" {
		return false
	}
	if _, err := base64.StdEncoding.DecodeString(s); err == nil {
		return true
	}
	_, err := base64.RawStdEncoding.DecodeString(s)
	return err == nil
}
