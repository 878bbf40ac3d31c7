package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fhir-data-pipeline/internal/config"
	"fhir-data-pipeline/internal/fhir"
	"fhir-data-pipeline/internal/model"
	"fhir-data-pipeline/internal/pipeline"
	"fhir-data-pipeline/internal/store"
	"fhir-data-pipeline/pkg/utils"
)

// Handler carries the wired pipeline components. All configuration comes in
// through cfg; handlers never read process state directly.
type Handler struct {
	cfg    config.Config
	store  *store.Store
	client *fhir.Client
	poller *pipeline.Poller
	agg    *pipeline.Aggregator
	log    zerolog.Logger
}

func New(cfg config.Config, st *store.Store, client *fhir.Client, poller *pipeline.Poller, agg *pipeline.Aggregator, log zerolog.Logger) *Handler {
	return &Handler{cfg: cfg, store: st, client: client, poller: poller, agg: agg, log: log}
}

// CreateLoadRequest is the body of POST /loads. Unset fields fall back to
// the configured defaults.
type CreateLoadRequest struct {
	SourceDir string `json:"sourceDir,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
	Force     bool   `json:"force"`
}

// CreateLoad triggers a reload-from-source run
// @Summary Trigger a bulk load
// @Description Start an asynchronous reload of the source corpus into the record store
// @Tags loads
// @Accept json
// @Produce json
// @Param load body CreateLoadRequest false "Load options"
// @Success 202 {object} map[string]interface{} "Run accepted"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /loads [post]
func (h *Handler) CreateLoad(w http.ResponseWriter, r *http.Request) {
	var req CreateLoadRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
	}

	opts := pipeline.ReloadOptions{
		SourceDir:        h.cfg.SourceDir,
		Limit:            h.cfg.FileLimit,
		Force:            req.Force,
		VerifyType:       h.cfg.VerifyResourceType,
		MinVerifyCount:   h.cfg.MinVerifyCount,
		ReachableTimeout: h.cfg.ReachableTimeout,
		VerifyTimeout:    h.cfg.VerifyTimeout,
	}
	if req.SourceDir != "" {
		opts.SourceDir = req.SourceDir
	}
	if req.Limit != nil {
		opts.Limit = *req.Limit
	}

	runID := uuid.New().String()
	if err := h.store.CreateRun(runID, opts.SourceDir, opts.Limit, opts.Force); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	go h.executeRun(runID, opts)

	h.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"runId":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	})
}

// executeRun drives one reload to completion in the background, persisting
// every per-file failure and the final summary.
func (h *Handler) executeRun(runID string, opts pipeline.ReloadOptions) {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.JobTimeout)
	defer cancel()

	loader := pipeline.NewLoader(h.client, h.log)
	loader.OnFileError = func(path string, err error) {
		if saveErr := h.store.SaveRunError(runID, path, err.Error()); saveErr != nil {
			h.log.Error().Err(saveErr).Str("run", runID).Msg("failed to persist run error")
		}
	}
	runner := pipeline.NewRunner(h.client, loader, h.poller, h.log)

	h.store.UpdateRunStatus(runID, "running")
	summary, err := runner.ReloadFromSource(ctx, opts)
	if err != nil {
		h.log.Error().Err(err).Str("run", runID).Msg("load run failed")
		h.store.SaveRunError(runID, "", err.Error())
		h.store.CompleteRun(runID, summary, "failed")
		return
	}
	h.store.CompleteRun(runID, summary, "completed")
}

// ListLoads lists all load runs
// @Summary List load runs
// @Tags loads
// @Produce json
// @Success 200 {array} store.RunRecord "Runs, newest first"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /loads [get]
func (h *Handler) ListLoads(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	h.writeJSON(w, http.StatusOK, runs)
}

// GetLoad returns one load run
// @Summary Get load run
// @Tags loads
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} store.RunRecord "Run detail"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /loads/{id} [get]
func (h *Handler) GetLoad(w http.ResponseWriter, r *http.Request) {
	runID := utils.PathSegment(r.URL.Path, 3)
	run, err := h.store.GetRun(runID)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// GetLoadErrors returns the per-file failures recorded for one run
// @Summary Get load run errors
// @Tags loads
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} store.RunError "Recorded failures"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /loads/{id}/errors [get]
func (h *Handler) GetLoadErrors(w http.ResponseWriter, r *http.Request) {
	runID := utils.PathSegment(r.URL.Path, 3)
	runErrors, err := h.store.RunErrors(runID)
	if err != nil {
		http.Error(w, "Failed to fetch run errors", http.StatusInternalServerError)
		return
	}
	if runErrors == nil {
		runErrors = []store.RunError{}
	}
	h.writeJSON(w, http.StatusOK, runErrors)
}

// StoreStatus reports store reachability and the current verify-type count
// @Summary Record store status
// @Tags store
// @Produce json
// @Success 200 {object} map[string]interface{} "Status"
// @Router /store/status [get]
func (h *Handler) StoreStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"reachable":    false,
		"resourceType": h.cfg.VerifyResourceType,
		"count":        0,
	}
	if code, err := h.client.Metadata(r.Context()); err == nil {
		status["reachable"] = code < 500
		status["metadataStatus"] = code
	}
	if n, err := h.client.ResourceCount(r.Context(), h.cfg.VerifyResourceType); err == nil {
		status["count"] = n
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	var rejected *model.StoreRejectedError
	var transport *model.TransportError
	switch {
	case errors.As(err, &rejected), errors.As(err, &transport):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
