package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"helloasso-export/internal/config"
	"helloasso-export/internal/logger"
	"helloasso-export/internal/pipeline"
)

// main runs one export from the command line, for manual runs and backfills
// outside the scheduled trigger.
func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	period := flag.String("period", "", "period to export as YYYY-MM (default: previous calendar month)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	runner, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire the export pipeline")
	}
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn().Err(err).Msg("Cleanup failed")
		}
	}()

	if err := runner.Run(ctx, time.Now(), *period); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Println("Export completed successfully.")
}
