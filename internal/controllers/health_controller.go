package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type healthController struct{ redis *redis.Client }

func NewHealthController(redisClient *redis.Client) *healthController {
	return &healthController{redis: redisClient}
}

// Handle reports liveness. Redis backs only rate limiting, so its state is
// surfaced as a detail rather than failing the check.
func (h *healthController) Handle(c *gin.Context) {
	redisStatus := "ok"
	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "unavailable"
		}
	} else {
		redisStatus = "disabled"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisStatus})
}
