package handler

import (
	"net/http"

	"fhir-data-pipeline/internal/model"
	"fhir-data-pipeline/internal/pipeline"
	"fhir-data-pipeline/pkg/utils"
)

// aggregationQueryFromRequest maps the request's query parameters onto an
// AggregationQuery. The page-size default is applied here — the aggregator
// itself never defaults anything.
func (h *Handler) aggregationQueryFromRequest(r *http.Request, patientID string) model.AggregationQuery {
	params := r.URL.Query()
	return model.AggregationQuery{
		PatientID:     patientID,
		PageSize:      utils.ParseInt(params.Get("pageSize"), h.cfg.PageSize),
		ResourceTypes: utils.SplitList(params.Get("types")),
		TypeFilters:   utils.SplitList(params.Get("typeFilters")),
		Elements:      utils.SplitList(params.Get("elements")),
		SummaryMode:   params.Get("summary"),
		Start:         params.Get("start"),
		End:           params.Get("end"),
		Since:         params.Get("since"),
	}
}

// PatientEverything returns every resource associated with a patient
// @Summary Everything for one patient
// @Description Aggregate all resources for a patient across every result page
// @Tags patients
// @Produce json
// @Param id path string true "Patient ID"
// @Param pageSize query int false "Page size for the first request"
// @Param types query string false "Comma-separated resource-type allowlist"
// @Param typeFilters query string false "Comma-separated type-level sub-filters"
// @Param elements query string false "Comma-separated element projection"
// @Param summary query string false "Summary mode"
// @Param start query string false "Start date bound"
// @Param end query string false "End date bound"
// @Param since query string false "Incremental since marker"
// @Success 200 {object} map[string]interface{} "Flattened resource list"
// @Failure 502 {object} map[string]interface{} "Store rejected the request or was unreachable"
// @Router /patients/{id}/everything [get]
func (h *Handler) PatientEverything(w http.ResponseWriter, r *http.Request) {
	patientID := utils.PathSegment(r.URL.Path, 3)
	if patientID == "" {
		http.Error(w, "Patient ID is required", http.StatusBadRequest)
		return
	}

	query := h.aggregationQueryFromRequest(r, patientID)
	resources, err := h.agg.PatientEverything(r.Context(), query)
	if err != nil {
		h.log.Warn().Err(err).Str("patient", patientID).Msg("everything aggregation failed")
		h.writeStoreError(w, err)
		return
	}
	if resources == nil {
		resources = []model.ResourceRecord{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"patientId": patientID,
		"count":     len(resources),
		"resources": resources,
	})
}

// ExportPatient aggregates a patient view and writes it to the export dir
// @Summary Export a patient view to disk
// @Tags patients
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} pipeline.ExportResult "Written artifacts"
// @Failure 502 {object} map[string]interface{} "Store rejected the request or was unreachable"
// @Router /patients/{id}/export [post]
func (h *Handler) ExportPatient(w http.ResponseWriter, r *http.Request) {
	patientID := utils.PathSegment(r.URL.Path, 3)
	if patientID == "" {
		http.Error(w, "Patient ID is required", http.StatusBadRequest)
		return
	}

	query := h.aggregationQueryFromRequest(r, patientID)
	resources, err := h.agg.PatientEverything(r.Context(), query)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	result, err := pipeline.ExportPatientView(h.cfg.ExportDir, patientID, resources)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// PreviewSource returns bounded head previews of the source corpus
// @Summary Preview source corpus files
// @Description Diagnostic listing of data files with their leading content lines
// @Tags source
// @Produce json
// @Param depth query int false "Directory depth cap" default(2)
// @Param perDir query int false "Files per directory cap" default(5)
// @Param lines query int false "Content lines per file" default(10)
// @Success 200 {object} map[string]interface{} "Previews"
// @Router /source/preview [get]
func (h *Handler) PreviewSource(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	opts := pipeline.PreviewOptions{
		MaxDepth:       utils.ParseInt(params.Get("depth"), 2),
		MaxFilesPerDir: utils.ParseInt(params.Get("perDir"), 5),
		HeadLines:      utils.ParseInt(params.Get("lines"), 10),
	}

	previews := pipeline.PreviewCorpus(h.cfg.SourceDir, opts)
	if previews == nil {
		previews = []pipeline.FilePreview{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sourceDir": h.cfg.SourceDir,
		"files":     previews,
	})
}
