package model

// AggregationQuery shapes one "everything for this patient" retrieval.
// Every field except PatientID is optional; unset fields are omitted from the
// first-page URL rather than defaulted — defaults belong to the caller.
// The query only controls the first page: once the store issues a
// continuation link, that link supersedes all of these parameters.
type AggregationQuery struct {
	PatientID     string   `json:"patientId"`
	PageSize      int      `json:"pageSize,omitempty"`
	ResourceTypes []string `json:"resourceTypes,omitempty"`
	TypeFilters   []string `json:"typeFilters,omitempty"`
	Elements      []string `json:"elements,omitempty"`
	SummaryMode   string   `json:"summaryMode,omitempty"`
	Start         string   `json:"start,omitempty"`
	End           string   `json:"end,omitempty"`
	Since         string   `json:"since,omitempty"`
}
