// Package main provides the graphlab CLI entry point.
package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "graphlab",
	Short: "Graph analytics over typed entity/relation datasets",
	Long: `graphlab runs clustering, community detection, association rule mining and
centrality analysis over heterogeneous entity/relation graphs.

Use "graphlab run" for a one-off analysis of a request document and
"graphlab serve" to start the HTTP analysis service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		setupLogging(logLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "engine configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error); defaults to LOG_LEVEL or info")
	rootCmd.Version = Version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
}

// setupLogging configures the global zerolog logger on stderr
func setupLogging(level string) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// loadEngineConfig builds the engine config from --config and --log-level
func loadEngineConfig() (*engine.Config, error) {
	cfg := engine.NewConfig()
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return nil, errors.Wrapf(err, "loading config %s", configPath)
		}
	}
	if logLevel != "" {
		cfg.Set("logging.level", logLevel)
	}
	return cfg, nil
}
