package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jsukup/ratemybeard/pkg/domain"
)

// ErrProviderUnavailable means the provider rejected a submission outright or
// could not be reached. The launcher never retries it; degradation policy
// lives in the ensemble orchestrator.
var ErrProviderUnavailable = errors.New("inference provider unavailable")

// InferenceProvider exposes the submit/poll-by-id semantics the pipeline
// needs. The wire shape behind it is provider-defined and opaque to callers.
type InferenceProvider interface {
	CreateJob(ctx context.Context, version string, imageDataURL string) (jobID string, status domain.JobStatus, err error)
	GetJob(ctx context.Context, jobID string) (domain.JobStatus, error)
}

type replicateProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

const defaultReplicateBaseURL = "https://api.replicate.com"

func NewReplicateProvider(baseURL, token string) InferenceProvider {
	if baseURL == "" {
		baseURL = defaultReplicateBaseURL
	}
	return &replicateProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Image string `json:"image"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (p *replicateProvider) CreateJob(ctx context.Context, version string, imageDataURL string) (string, domain.JobStatus, error) {
	if p.token == "" {
		return "", domain.JobStatus{}, fmt.Errorf("%w: api token not configured", ErrProviderUnavailable)
	}

	body, _ := json.Marshal(predictionRequest{Version: version, Input: predictionInput{Image: imageDataURL}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return "", domain.JobStatus{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Token "+p.token)
	req.Header.Set("Content-Type", "application/json")
	// Ask the provider to hold the request open and answer with a terminal
	// prediction when it can do so quickly; under load it still returns an
	// in-progress job for polling.
	req.Header.Set("Prefer", "wait")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", domain.JobStatus{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.JobStatus{}, fmt.Errorf("%w: submit returned status %d: %s", ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var pr predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", domain.JobStatus{}, fmt.Errorf("%w: decode submit response: %v", ErrProviderUnavailable, err)
	}
	if pr.ID == "" {
		return "", domain.JobStatus{}, fmt.Errorf("%w: empty prediction id in submit response", ErrProviderUnavailable)
	}
	return pr.ID, pr.toJobStatus(), nil
}

func (p *replicateProvider) GetJob(ctx context.Context, jobID string) (domain.JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/predictions/"+jobID, nil)
	if err != nil {
		return domain.JobStatus{}, err
	}
	req.Header.Set("Authorization", "Token "+p.token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.JobStatus{}, fmt.Errorf("poll prediction %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.JobStatus{}, fmt.Errorf("poll prediction %s: status %d: %s", jobID, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var pr predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return domain.JobStatus{}, fmt.Errorf("poll prediction %s: decode response: %w", jobID, err)
	}
	return pr.toJobStatus(), nil
}

func (r predictionResponse) toJobStatus() domain.JobStatus {
	st := domain.JobStatus{State: mapProviderState(r.Status), Err: r.Error}
	if st.State == domain.JobSucceeded {
		// A succeeded prediction with a missing or unreadable output scores
		// 0 rather than failing. Preserved from the original system; see
		// DESIGN.md before "fixing" it.
		st.Score = extractScore(r.Output)
	}
	return st
}

func mapProviderState(s string) domain.JobState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "starting", "queued", "pending":
		return domain.JobPending
	case "processing", "running":
		return domain.JobRunning
	case "succeeded":
		return domain.JobSucceeded
	default:
		return domain.JobFailed
	}
}

// extractScore pulls a numeric score out of the provider-defined output
// field: a bare number, the first element of a numeric array, or an object
// with a "score" key.
func extractScore(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return arr[0]
	}
	var obj struct {
		Score *float64 `json:"score"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Score != nil {
		return *obj.Score
	}
	return 0
}
