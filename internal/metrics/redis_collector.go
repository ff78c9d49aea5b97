package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// redisCollector surfaces the amount of live rate-limit state as a gauge so
// operators can see how many distinct clients are currently tracked.
type redisCollector struct {
	rdb    *redis.Client
	logger *slog.Logger

	bucketsActiveDesc *prometheus.Desc
}

func newRedisCollector(rdb *redis.Client, logger *slog.Logger) *redisCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCollector{
		rdb:    rdb,
		logger: logger,
		bucketsActiveDesc: prometheus.NewDesc(
			"ratemybeard_ratelimit_buckets_active",
			"Current number of live token-bucket entries in redis.",
			nil,
			nil,
		),
	}
}

func (c *redisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bucketsActiveDesc
}

func (c *redisCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}

	// Keep redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var count float64
	iter := c.rdb.Scan(ctx, 0, "ratemybeard:rl:*", 1000).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}

	m, err := prometheus.NewConstMetric(c.bucketsActiveDesc, prometheus.GaugeValue, count)
	if err != nil {
		return
	}
	ch <- m
}

var registerRedisCollectorOnce sync.Once

func RegisterRedisCollector(rdb *redis.Client, logger *slog.Logger) {
	registerRedisCollectorOnce.Do(func() {
		prometheus.MustRegister(newRedisCollector(rdb, logger))
	})
}
