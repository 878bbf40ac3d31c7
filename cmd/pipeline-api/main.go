package main

import (
	"os"

	"github.com/rs/zerolog"

	"fhir-data-pipeline/internal/api"
	"fhir-data-pipeline/internal/api/handler"
	"fhir-data-pipeline/internal/config"
	"fhir-data-pipeline/internal/fhir"
	"fhir-data-pipeline/internal/pipeline"
	"fhir-data-pipeline/internal/store"
	"fhir-data-pipeline/pkg/router"
)

// @title FHIR Data Pipeline API
// @version 1.0
// @description Synthetic clinical record ingestion and per-patient aggregation pipeline
// @BasePath /api/v1
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open run store")
	}
	defer st.Close()

	client := fhir.NewClient(cfg.StoreBaseURL, cfg.RequestTimeout, log)
	poller := pipeline.NewPoller(client, cfg.PollInterval, log)
	agg := pipeline.NewAggregator(client, cfg.MaxPages, log)

	h := handler.New(cfg, st, client, poller, agg, log)

	r := router.New(log)
	api.RegisterRoutes(r, h)

	if err := r.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
