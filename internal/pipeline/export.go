package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"fhir-data-pipeline/internal/model"
)

// ExportResult describes the artifacts written for one patient view.
type ExportResult struct {
	JSONPath      string         `json:"jsonPath"`
	CSVPath       string         `json:"csvPath"`
	ResourceCount int            `json:"resourceCount"`
	TypeCounts    map[string]int `json:"typeCounts"`
	ExportedAt    time.Time      `json:"exportedAt"`
}

// ExportPatientView writes an aggregated patient record set to disk: the full
// resource list as pretty-printed JSON plus a per-type count summary CSV.
// Parent directories are created as needed.
func ExportPatientView(outputDir, patientID string, resources []model.ResourceRecord) (ExportResult, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("create output dir: %w", err)
	}

	typeCounts := make(map[string]int)
	for _, rec := range resources {
		typeCounts[rec.ResourceType()]++
	}

	jsonPath := filepath.Join(outputDir, patientID+".json")
	data, err := json.MarshalIndent(resources, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode patient view: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write %s: %w", jsonPath, err)
	}

	csvPath := filepath.Join(outputDir, patientID+"_summary.csv")
	if err := writeTypeCounts(csvPath, typeCounts); err != nil {
		return ExportResult{}, err
	}

	return ExportResult{
		JSONPath:      jsonPath,
		CSVPath:       csvPath,
		ResourceCount: len(resources),
		TypeCounts:    typeCounts,
		ExportedAt:    time.Now().UTC(),
	}, nil
}

func writeTypeCounts(path string, typeCounts map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer f.Close()

	types := make([]string, 0, len(typeCounts))
	for t := range typeCounts {
		types = append(types, t)
	}
	sort.Strings(types)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"resource_type", "count"}); err != nil {
		return err
	}
	for _, t := range types {
		if err := w.Write([]string{t, strconv.Itoa(typeCounts[t])}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
