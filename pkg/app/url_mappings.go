package app

import (
	"github.com/jsukup/ratemybeard/internal/controllers"
	"github.com/jsukup/ratemybeard/internal/middleware"
	"github.com/jsukup/ratemybeard/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	v1 := app.Engine.Group("/v1")
	{
		v1.POST("/analyze",
			middleware.RateLimitAnalyze(app.RateLimiter, ratelimit.Bucket(app.Config.RateLimit.Analyze)),
			controllers.NewAnalyzeController(app.Ensemble).Handle,
		)
	}

	app.Engine.GET("/healthz", controllers.NewHealthController(app.Redis).Handle)
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
