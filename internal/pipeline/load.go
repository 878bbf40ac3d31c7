package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"fhir-data-pipeline/internal/fhir"
	"fhir-data-pipeline/internal/model"
)

// Loader drives the corpus through the store, one file at a time.
// Failure isolation is the key property: a malformed file or a rejected
// request counts against the failed tally and never aborts the run.
type Loader struct {
	client *fhir.Client
	log    zerolog.Logger

	// OnFileError, when set, observes every per-file failure. Used by the
	// API layer to persist per-run error detail.
	OnFileError func(path string, err error)
}

func NewLoader(client *fhir.Client, log zerolog.Logger) *Loader {
	return &Loader{
		client: client,
		log:    log.With().Str("component", "bulk-loader").Logger(),
	}
}

// LoadDirectory processes every discovered file under root independently,
// in scan order, optionally truncated to limit files (0 means no limit).
// Stats accumulate across all processed files and are returned once the
// whole corpus has been attempted.
func (l *Loader) LoadDirectory(ctx context.Context, root string, limit int) model.LoadStats {
	files := ScanCorpus(root)
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	var stats model.LoadStats
	for _, path := range files {
		stats.TotalFiles++
		if err := l.loadFile(ctx, path); err != nil {
			stats.Failed++
			l.log.Warn().Err(err).Str("file", path).Msg("file load failed")
			if l.OnFileError != nil {
				l.OnFileError(path, err)
			}
			continue
		}
		stats.Loaded++
	}

	l.log.Info().
		Int("total", stats.TotalFiles).
		Int("loaded", stats.Loaded).
		Int("failed", stats.Failed).
		Str("dir", root).
		Msg("bulk load finished")
	return stats
}

// loadFile parses one file as a bundle or, failing that, as a single bare
// resource, and submits it to the store.
func (l *Loader) loadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &model.ParseError{Path: path, Err: err}
	}

	var probe struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return &model.ParseError{Path: path, Err: err}
	}
	if probe.ResourceType == "" {
		return &model.ParseError{Path: path, Err: fmt.Errorf("missing resourceType")}
	}

	if probe.ResourceType == "Bundle" {
		var bundle model.ClinicalBundle
		if err := json.Unmarshal(data, &bundle); err != nil {
			return &model.ParseError{Path: path, Err: err}
		}
		return l.client.SubmitTransaction(ctx, BuildTransaction(&bundle))
	}

	var rec model.ResourceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return &model.ParseError{Path: path, Err: err}
	}
	rec = NormalizeResource(rec)
	if rec.ID() != "" {
		return l.client.UpsertResource(ctx, rec)
	}
	return l.client.CreateResource(ctx, rec)
}
