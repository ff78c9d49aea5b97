package services

import (
	"math"
	"time"

	"github.com/jsukup/ratemybeard/pkg/domain"
)

// Combine merges the two per-model results into one ensemble result. It is a
// pure function: fallback substitution happens upstream in the orchestrator,
// so both inputs are always already resolved. The combined score is the
// arithmetic mean regardless of provenance, rounded to 2 decimals for
// display.
func Combine(scut, mebeauty domain.ModelResult, elapsed time.Duration) domain.EnsembleResult {
	combined := roundScore((scut.Score + mebeauty.Score) / 2)
	return domain.EnsembleResult{
		Scut:          scut,
		Mebeauty:      mebeauty,
		CombinedScore: combined,
		Provenance:    domain.CombineProvenance(scut.Provenance, mebeauty.Provenance),
		Elapsed:       elapsed,
		ElapsedMS:     elapsed.Milliseconds(),
	}
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
