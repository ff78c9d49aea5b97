package domain

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestJobStateTerminal(t *testing.T) {
	tests := []struct {
		state    JobState
		terminal bool
	}{
		{JobPending, false},
		{JobRunning, false},
		{JobSucceeded, true},
		{JobFailed, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.terminal {
			t.Errorf("state %s: Terminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestCombineProvenanceTable(t *testing.T) {
	tests := []struct {
		a, b Provenance
		want Provenance
	}{
		{ProvenanceReal, ProvenanceReal, ProvenanceReal},
		{ProvenanceReal, ProvenanceFallback, ProvenanceMixed},
		{ProvenanceFallback, ProvenanceReal, ProvenanceMixed},
		{ProvenanceFallback, ProvenanceFallback, ProvenanceFallback},
	}
	for _, tt := range tests {
		if got := CombineProvenance(tt.a, tt.b); got != tt.want {
			t.Errorf("CombineProvenance(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalizeImagePayloadBareBase64(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))
	got, err := NormalizeImagePayload(raw)
	if err != nil {
		t.Fatalf("NormalizeImagePayload: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Errorf("expected default data-URL prefix, got %q", got)
	}
	if !strings.HasSuffix(got, raw) {
		t.Errorf("expected original payload preserved, got %q", got)
	}
}

func TestNormalizeImagePayloadDataURLPassthrough(t *testing.T) {
	raw := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png bytes"))
	got, err := NormalizeImagePayload(raw)
	if err != nil {
		t.Fatalf("NormalizeImagePayload: %v", err)
	}
	if got != raw {
		t.Errorf("expected data URL unchanged, got %q", got)
	}
}

func TestNormalizeImagePayloadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not base64", "this is !!! not base64 ???"},
		{"data url without base64 marker", "data:image/png,rawbytes"},
		{"data url with bad payload", "data:image/png;base64,@@@@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NormalizeImagePayload(tt.raw); err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
		})
	}
}
