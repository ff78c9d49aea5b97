package services

import (
	"testing"
	"time"

	"github.com/jsukup/ratemybeard/pkg/domain"
)

func TestCombineMean(t *testing.T) {
	tests := []struct {
		name     string
		scut     float64
		mebeauty float64
		want     float64
	}{
		{"typical", 3.2, 4.0, 3.6},
		{"equal", 2.5, 2.5, 2.5},
		{"rounding", 3.333, 3.333, 3.33},
		{"half rounds up", 3.125, 3.125, 3.13},
		{"lower bound", 0, 0, 0},
		{"upper bound", 5, 5, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Combine(
				domain.ModelResult{Model: domain.ModelSCUT, Score: tc.scut, Provenance: domain.ProvenanceReal},
				domain.ModelResult{Model: domain.ModelMEBeauty, Score: tc.mebeauty, Provenance: domain.ProvenanceReal},
				time.Second,
			)
			if res.CombinedScore != tc.want {
				t.Errorf("expected combined %v, got %v", tc.want, res.CombinedScore)
			}
		})
	}
}

func TestCombineProvenanceAndTiming(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.Provenance
		want domain.Provenance
	}{
		{"both real", domain.ProvenanceReal, domain.ProvenanceReal, domain.ProvenanceReal},
		{"both fallback", domain.ProvenanceFallback, domain.ProvenanceFallback, domain.ProvenanceFallback},
		{"real left", domain.ProvenanceReal, domain.ProvenanceFallback, domain.ProvenanceMixed},
		{"real right", domain.ProvenanceFallback, domain.ProvenanceReal, domain.ProvenanceMixed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Combine(
				domain.ModelResult{Model: domain.ModelSCUT, Score: 1, Provenance: tc.a},
				domain.ModelResult{Model: domain.ModelMEBeauty, Score: 2, Provenance: tc.b},
				1500*time.Millisecond,
			)
			if res.Provenance != tc.want {
				t.Errorf("expected provenance %s, got %s", tc.want, res.Provenance)
			}
			if res.ElapsedMS != 1500 {
				t.Errorf("expected 1500ms elapsed, got %d", res.ElapsedMS)
			}
		})
	}
}

func TestCombineKeepsPerModelResults(t *testing.T) {
	scut := domain.ModelResult{Model: domain.ModelSCUT, Score: 4.1, Provenance: domain.ProvenanceReal}
	mb := domain.ModelResult{Model: domain.ModelMEBeauty, Score: 2.9, Provenance: domain.ProvenanceFallback}

	res := Combine(scut, mb, 0)
	if res.Scut != scut || res.Mebeauty != mb {
		t.Errorf("per-model results should pass through unchanged: %+v", res)
	}
}
