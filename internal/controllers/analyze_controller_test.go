package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jsukup/ratemybeard/internal/services"
	"github.com/jsukup/ratemybeard/pkg/domain"

	"github.com/gin-gonic/gin"
)

type stubEnsemble struct {
	res *domain.EnsembleResult
	err error
}

func (s *stubEnsemble) RunEnsemble(_ context.Context, _ string) (*domain.EnsembleResult, error) {
	return s.res, s.err
}

func analyzeEngine(svc services.EnsembleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/v1/analyze", NewAnalyzeController(svc).Handle)
	return engine
}

func postAnalyze(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAnalyzeSuccess(t *testing.T) {
	svc := &stubEnsemble{res: &domain.EnsembleResult{
		Scut:          domain.ModelResult{Model: domain.ModelSCUT, Score: 3.2, Provenance: domain.ProvenanceReal},
		Mebeauty:      domain.ModelResult{Model: domain.ModelMEBeauty, Score: 4.0, Provenance: domain.ProvenanceReal},
		CombinedScore: 3.6,
		Provenance:    domain.ProvenanceReal,
		Elapsed:       1200 * time.Millisecond,
		ElapsedMS:     1200,
	}}
	w := postAnalyze(analyzeEngine(svc), `{"image_data":"aGVsbG8="}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool    `json:"success"`
		Score   float64 `json:"score"`
		Details struct {
			ScutScore     float64 `json:"scut_score"`
			MebeautyScore float64 `json:"mebeauty_score"`
			EnsembleScore float64 `json:"ensemble_score"`
		} `json:"details"`
		ProcessingTimeMS int64  `json:"processing_time_ms"`
		Provider         string `json:"provider"`
		Provenance       string `json:"provenance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !resp.Success || resp.Score != 3.6 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Details.ScutScore != 3.2 || resp.Details.MebeautyScore != 4.0 || resp.Details.EnsembleScore != 3.6 {
		t.Errorf("unexpected details: %+v", resp.Details)
	}
	if resp.ProcessingTimeMS != 1200 {
		t.Errorf("expected processing_time_ms 1200, got %d", resp.ProcessingTimeMS)
	}
	if resp.Provider != "replicate" || resp.Provenance != "real" {
		t.Errorf("unexpected provider/provenance: %s/%s", resp.Provider, resp.Provenance)
	}
}

func TestAnalyzeFallbackProviderLabel(t *testing.T) {
	svc := &stubEnsemble{res: &domain.EnsembleResult{
		Scut:          domain.ModelResult{Model: domain.ModelSCUT, Score: 2.1, Provenance: domain.ProvenanceFallback},
		Mebeauty:      domain.ModelResult{Model: domain.ModelMEBeauty, Score: 3.3, Provenance: domain.ProvenanceFallback},
		CombinedScore: 2.7,
		Provenance:    domain.ProvenanceFallback,
	}}
	w := postAnalyze(analyzeEngine(svc), `{"image_data":"aGVsbG8="}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["provider"] != "fallback" {
		t.Errorf("expected fallback provider label, got %v", resp["provider"])
	}
}

func TestAnalyzeMissingBody(t *testing.T) {
	for _, body := range []string{``, `{}`, `{"image_data":""}`, `not json`} {
		w := postAnalyze(analyzeEngine(&stubEnsemble{}), body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", services.ErrInvalidInput, http.StatusBadRequest},
		{"pipeline timeout", services.ErrPipelineTimeout, http.StatusGatewayTimeout},
		{"internal", context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postAnalyze(analyzeEngine(&stubEnsemble{err: tc.err}), `{"image_data":"aGVsbG8="}`)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
			var resp map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if success, _ := resp["success"].(bool); success {
				t.Error("expected success=false on error")
			}
		})
	}
}
