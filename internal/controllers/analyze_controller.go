package controllers

import (
	"errors"
	"net/http"

	"github.com/jsukup/ratemybeard/internal/services"
	"github.com/jsukup/ratemybeard/pkg/domain"

	"github.com/gin-gonic/gin"
)

type analyzeController struct{ svc services.EnsembleService }

func NewAnalyzeController(svc services.EnsembleService) *analyzeController {
	return &analyzeController{svc}
}

type analyzeReq struct {
	ImageData string `json:"image_data" binding:"required"`
}

type analyzeDetails struct {
	ScutScore     float64 `json:"scut_score"`
	MebeautyScore float64 `json:"mebeauty_score"`
	EnsembleScore float64 `json:"ensemble_score"`
}

type analyzeResp struct {
	Success          bool              `json:"success"`
	Score            float64           `json:"score"`
	Details          analyzeDetails    `json:"details"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
	Provider         string            `json:"provider"`
	Provenance       domain.Provenance `json:"provenance"`
}

func (h *analyzeController) Handle(c *gin.Context) {
	var req analyzeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "image_data is required"})
		return
	}

	res, err := h.svc.RunEnsemble(c.Request.Context(), req.ImageData)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid image_data"})
		case errors.Is(err, services.ErrPipelineTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"success": false, "error": "analysis timed out"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "analysis failed"})
		}
		return
	}

	c.JSON(http.StatusOK, analyzeResp{
		Success: true,
		Score:   res.CombinedScore,
		Details: analyzeDetails{
			ScutScore:     res.Scut.Score,
			MebeautyScore: res.Mebeauty.Score,
			EnsembleScore: res.CombinedScore,
		},
		ProcessingTimeMS: res.ElapsedMS,
		Provider:         providerLabel(res.Provenance),
		Provenance:       res.Provenance,
	})
}

// providerLabel names the scoring source for the caller. A mixed result still
// reports the real provider; the provenance field carries the distinction.
func providerLabel(p domain.Provenance) string {
	if p == domain.ProvenanceFallback {
		return "fallback"
	}
	return "replicate"
}
