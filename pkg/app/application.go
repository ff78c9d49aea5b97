package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jsukup/ratemybeard/internal/metrics"
	"github.com/jsukup/ratemybeard/internal/middleware"
	"github.com/jsukup/ratemybeard/internal/providers"
	"github.com/jsukup/ratemybeard/internal/ratelimit"
	"github.com/jsukup/ratemybeard/internal/services"
	"github.com/jsukup/ratemybeard/internal/tracing"
	"github.com/jsukup/ratemybeard/pkg/config"
	"github.com/jsukup/ratemybeard/pkg/domain"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Ensemble        services.EnsembleService
	Logger          *slog.Logger
	Redis           *redis.Client
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithInferenceProvider swaps the inference backend, mainly for tests.
func WithInferenceProvider(provider providers.InferenceProvider) ApplicationOption {
	return func(app *Application) error {
		app.Ensemble = buildEnsemble(app.Config, provider, app.Logger)
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
	limiter := ratelimit.NewTokenBucketLimiter(redisClient)

	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "ratemybeard", "env", cfg.Env)
	slog.SetDefault(logger)

	metrics.RegisterRedisCollector(redisClient, logger)

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  cfg.TracingServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		SampleRatio:  cfg.TraceSampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}

	provider := providers.NewReplicateProvider(cfg.ReplicateBaseURL, cfg.ReplicateToken)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware(cfg.TracingServiceName),
	)

	app := &Application{
		Config:          cfg,
		Engine:          engine,
		Ensemble:        buildEnsemble(cfg, provider, logger),
		Logger:          logger,
		Redis:           redisClient,
		RateLimiter:     limiter,
		TracingShutdown: shutdown,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

func buildEnsemble(cfg *config.Config, provider providers.InferenceProvider, logger *slog.Logger) services.EnsembleService {
	versions := map[domain.Model]string{
		domain.ModelSCUT:     cfg.ScutModelVersion,
		domain.ModelMEBeauty: cfg.MebeautyModelVersion,
	}
	launcher := services.NewJobLauncher(provider, versions, time.Now)
	poller := services.NewJobPoller(provider, cfg.PollMaxAttempts, time.Duration(cfg.PollIntervalMillis)*time.Millisecond)
	return services.NewEnsembleService(
		launcher,
		poller,
		logger,
		time.Now,
		time.Duration(cfg.PipelineTimeoutSeconds)*time.Second,
		nil,
	)
}
