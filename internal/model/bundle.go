package model

// Bundle kinds understood by the pipeline. Collections carry no transactional
// semantics; transactions are applied by the store as one atomic unit.
const (
	KindCollection  = "collection"
	KindTransaction = "transaction"
)

// ResourceRecord is a schema-agnostic clinical resource. Everything except
// resourceType and id is opaque to the pipeline.
type ResourceRecord map[string]interface{}

// ResourceType returns the resourceType field, or "" when absent.
func (r ResourceRecord) ResourceType() string {
	t, _ := r["resourceType"].(string)
	return t
}

// ID returns the stable identifier of the resource, or "" when the store is
// expected to assign one.
func (r ResourceRecord) ID() string {
	id, _ := r["id"].(string)
	return id
}

// ClinicalBundle is an ordered container of resources read from one data file.
type ClinicalBundle struct {
	ResourceType string        `json:"resourceType"`
	Kind         string        `json:"type"`
	Entries      []BundleEntry `json:"entry"`
}

// BundleEntry wraps one resource. TemporaryID (the wire-level fullUrl) is the
// identifier other entries in the same bundle use to reference this one before
// the store has assigned a permanent id; it must survive transaction building
// verbatim so intra-bundle references resolve server-side.
type BundleEntry struct {
	TemporaryID string              `json:"fullUrl,omitempty"`
	Resource    ResourceRecord      `json:"resource,omitempty"`
	Request     *TransactionRequest `json:"request,omitempty"`
}

// TransactionRequest is the per-entry directive applied by the store.
// PUT targets {type}/{id} and is an idempotent upsert; POST targets {type}
// and creates a duplicate on every replay.
type TransactionRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}
