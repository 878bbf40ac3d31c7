package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"

	"fhir-data-pipeline/internal/config"
	"fhir-data-pipeline/internal/fhir"
	"fhir-data-pipeline/internal/pipeline"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	sourceDir := flag.String("source", cfg.SourceDir, "directory of generated record files")
	limit := flag.Int("limit", cfg.FileLimit, "max files to load, 0 for no limit")
	force := flag.Bool("force", false, "load even when the store is already populated")
	flag.Parse()

	client := fhir.NewClient(cfg.StoreBaseURL, cfg.RequestTimeout, log)
	loader := pipeline.NewLoader(client, log)
	poller := pipeline.NewPoller(client, cfg.PollInterval, log)
	runner := pipeline.NewRunner(client, loader, poller, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()

	summary, err := runner.ReloadFromSource(ctx, pipeline.ReloadOptions{
		SourceDir:        *sourceDir,
		Limit:            *limit,
		Force:            *force,
		VerifyType:       cfg.VerifyResourceType,
		MinVerifyCount:   cfg.MinVerifyCount,
		ReachableTimeout: cfg.ReachableTimeout,
		VerifyTimeout:    cfg.VerifyTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("reload failed")
	}

	log.Info().
		Int("total", summary.Stats.TotalFiles).
		Int("loaded", summary.Stats.Loaded).
		Int("failed", summary.Stats.Failed).
		Int("verified", summary.VerifiedCount).
		Msg("reload complete")
}
