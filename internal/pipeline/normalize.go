package pipeline

import "fhir-data-pipeline/internal/model"

// claimUseRepairs remaps retired STU3 Claim.use codes to their R4
// equivalents. Bulk generators straddling FHIR versions still emit the old
// codes, which current stores reject.
var claimUseRepairs = map[string]string{
	"complete":    "claim",
	"proposed":    "preauthorization",
	"exploratory": "predetermination",
}

// NormalizeResource returns a copy of rec with known cross-version field
// incompatibilities repaired. Pure and total: unknown resource types and
// unrecognized values pass through unchanged, and nothing is ever dropped.
func NormalizeResource(rec model.ResourceRecord) model.ResourceRecord {
	if rec == nil {
		return nil
	}

	out := make(model.ResourceRecord, len(rec))
	for k, v := range rec {
		out[k] = v
	}

	if out.ResourceType() == "Claim" {
		if use, ok := out["use"].(string); ok {
			if current, ok := claimUseRepairs[use]; ok {
				out["use"] = current
			}
		}
	}
	return out
}
