package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Jobs      JobConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

type JobConfig struct {
	MaxWorkers      int
	JobTimeout      time.Duration
	CleanupInterval time.Duration
	ResultTTL       time.Duration
}

// RateLimitConfig bounds requests per client IP; RPS <= 0 disables limiting
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type LoggingConfig struct {
	Level string
}

// Load reads the service configuration from the environment
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("MAX_BODY_BYTES", int64(10*1024*1024)) // 10MB

	v.SetDefault("JOB_MAX_WORKERS", 4)
	v.SetDefault("JOB_TIMEOUT", 10*time.Minute)
	v.SetDefault("JOB_CLEANUP_INTERVAL", 5*time.Minute)
	v.SetDefault("JOB_RESULT_TTL", 1*time.Hour)

	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Address:      v.GetString("SERVER_ADDRESS"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
			MaxBodyBytes: v.GetInt64("MAX_BODY_BYTES"),
		},
		Jobs: JobConfig{
			MaxWorkers:      v.GetInt("JOB_MAX_WORKERS"),
			JobTimeout:      v.GetDuration("JOB_TIMEOUT"),
			CleanupInterval: v.GetDuration("JOB_CLEANUP_INTERVAL"),
			ResultTTL:       v.GetDuration("JOB_RESULT_TTL"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if cfg.Jobs.MaxWorkers < 1 {
		cfg.Jobs.MaxWorkers = 1
	}

	return cfg, nil
}
