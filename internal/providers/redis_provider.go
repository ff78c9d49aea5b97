package providers

import "github.com/go-redis/redis/v8"

// NewRedisProvider builds the shared redis client used for rate-limit state
// and the prometheus collector.
func NewRedisProvider(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}
