package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type RateLimitConfig struct {
	Analyze RateLimitBucketConfig `yaml:"analyze"`
}

type Config struct {
	Port          int    `yaml:"port"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
	Env           string `yaml:"env"`

	ReplicateToken       string `yaml:"replicateToken"`
	ReplicateBaseURL     string `yaml:"replicateBaseUrl"`
	ScutModelVersion     string `yaml:"scutModelVersion"`
	MebeautyModelVersion string `yaml:"mebeautyModelVersion"`

	PollMaxAttempts        int `yaml:"pollMaxAttempts"`
	PollIntervalMillis     int `yaml:"pollIntervalMillis"`
	PipelineTimeoutSeconds int `yaml:"pipelineTimeoutSeconds"`

	RateLimit RateLimitConfig `yaml:"rateLimit"`

	TracingEnabled     bool    `yaml:"tracingEnabled"`
	TracingServiceName string  `yaml:"tracingServiceName"`
	OTLPEndpoint       string  `yaml:"otlpEndpoint"`
	OTLPInsecure       bool    `yaml:"otlpInsecure"`
	TraceSampleRatio   float64 `yaml:"traceSampleRatio"`
}

// LoadConfigOptional behaves like LoadConfig but tolerates an empty or
// missing config file, falling back to env vars and defaults.
func LoadConfigOptional(filePath string) (*Config, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return finishConfig(&Config{})
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return finishConfig(&Config{})
	}
	return LoadConfig(filePath)
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return finishConfig(&c)
}

func finishConfig(c *Config) (*Config, error) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("REPLICATE_API_TOKEN"); v != "" {
		c.ReplicateToken = v
	}
	if v := os.Getenv("REPLICATE_BASE_URL"); v != "" {
		c.ReplicateBaseURL = v
	}
	if v := os.Getenv("SCUT_MODEL_VERSION"); v != "" {
		c.ScutModelVersion = v
	}
	if v := os.Getenv("MEBEAUTY_MODEL_VERSION"); v != "" {
		c.MebeautyModelVersion = v
	}
	if v := os.Getenv("POLL_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollMaxAttempts = n
		}
	}
	if v := os.Getenv("POLL_INTERVAL_MILLIS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollIntervalMillis = n
		}
	}
	if v := os.Getenv("PIPELINE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PipelineTimeoutSeconds = n
		}
	}

	if c.Port == 0 {
		c.Port = 8080
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.ScutModelVersion == "" {
		c.ScutModelVersion = "jsukup/scut-fbp5500-resnet50"
	}
	if c.MebeautyModelVersion == "" {
		c.MebeautyModelVersion = "jsukup/mebeauty-resnet50"
	}
	if c.PollMaxAttempts <= 0 {
		c.PollMaxAttempts = 30
	}
	if c.PollIntervalMillis <= 0 {
		c.PollIntervalMillis = 2000
	}
	if c.PipelineTimeoutSeconds <= 0 {
		c.PipelineTimeoutSeconds = 90
	}
	if c.ReplicateToken == "" {
		// Not fatal here: every launch will fail with a provider-unavailable
		// error and degrade to fallback scoring.
		log.Println("Warning: ReplicateToken not set; predictions will fall back")
	}

	return c, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.ReplicateBaseURL != "" {
		u, err := url.Parse(c.ReplicateBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, "replicateBaseUrl must be a valid http(s) URL")
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, "port must be in [0, 65535]")
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, "traceSampleRatio must be in [0, 1]")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
