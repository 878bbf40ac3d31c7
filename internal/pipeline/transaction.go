package pipeline

import (
	"net/http"

	"fhir-data-pipeline/internal/model"
)

// BuildTransaction converts a collection bundle into an equivalent
// transaction bundle: each resource is normalized, entries with a stable id
// get an idempotent PUT directive, entries without one get a POST, and
// entries without a resource are dropped. Temporary identifiers are carried
// over verbatim so intra-bundle references still resolve server-side, and
// relative entry order is preserved.
//
// A bundle that is already a transaction is only normalized; its structure
// and request directives pass through unchanged.
func BuildTransaction(bundle *model.ClinicalBundle) *model.ClinicalBundle {
	if bundle.Kind == model.KindTransaction {
		for i, entry := range bundle.Entries {
			if entry.Resource != nil {
				bundle.Entries[i].Resource = NormalizeResource(entry.Resource)
			}
		}
		return bundle
	}

	out := &model.ClinicalBundle{
		ResourceType: "Bundle",
		Kind:         model.KindTransaction,
	}
	for _, entry := range bundle.Entries {
		if entry.Resource == nil {
			continue
		}
		resource := NormalizeResource(entry.Resource)
		request := &model.TransactionRequest{
			Method: http.MethodPost,
			URL:    resource.ResourceType(),
		}
		if id := resource.ID(); id != "" {
			request.Method = http.MethodPut
			request.URL = resource.ResourceType() + "/" + id
		}
		out.Entries = append(out.Entries, model.BundleEntry{
			TemporaryID: entry.TemporaryID,
			Resource:    resource,
			Request:     request,
		})
	}
	return out
}
