package engine

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages engine tuning using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("kmeans.iterations", 10)
	v.SetDefault("community.max_passes", 20)
	v.SetDefault("community.random_seed", int64(42))

	// Performance parameters
	v.SetDefault("centrality.num_workers", runtime.NumCPU())
	v.SetDefault("centrality.top_n", 5)

	// Logging parameters
	v.SetDefault("logging.level", "info")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) KMeansIterations() int   { return c.v.GetInt("kmeans.iterations") }
func (c *Config) CommunityMaxPasses() int { return c.v.GetInt("community.max_passes") }
func (c *Config) CommunitySeed() int64    { return c.v.GetInt64("community.random_seed") }
func (c *Config) CentralityWorkers() int  { return c.v.GetInt("centrality.num_workers") }
func (c *Config) CentralityTopN() int     { return c.v.GetInt("centrality.top_n") }
func (c *Config) LogLevel() string        { return c.v.GetString("logging.level") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "engine").Logger()
}
