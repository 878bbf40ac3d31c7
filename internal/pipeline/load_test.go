package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fhir-data-pipeline/internal/fhir"
	"fhir-data-pipeline/internal/model"
)

type storeRequest struct {
	Method string
	Path   string
	Body   []byte
}

// fakeStore is an httptest-backed record store that captures every request
// and answers 200 unless told otherwise.
type fakeStore struct {
	mu          sync.Mutex
	requests    []storeRequest
	reject      map[string]int // "METHOD path" → status
	countTotals map[string]int // resource type → _summary=count total
	srv         *httptest.Server
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	fs := &fakeStore{reject: make(map[string]int)}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.requests = append(fs.requests, storeRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		status, rejected := fs.reject[r.Method+" "+r.URL.Path]
		total, counted := fs.countTotals[strings.TrimPrefix(r.URL.Path, "/")]
		fs.mu.Unlock()
		if rejected {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/fhir+json")
		if r.URL.Query().Get("_summary") == "count" && counted {
			fmt.Fprintf(w, `{"resourceType":"Bundle","total":%d}`, total)
			return
		}
		w.Write([]byte(`{"resourceType":"Bundle"}`))
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeStore) recorded() []storeRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]storeRequest(nil), fs.requests...)
}

func (fs *fakeStore) find(method, path string) []storeRequest {
	var matches []storeRequest
	for _, req := range fs.recorded() {
		if req.Method == method && req.Path == path {
			matches = append(matches, req)
		}
	}
	return matches
}

func newTestLoader(fs *fakeStore) *Loader {
	client := fhir.NewClient(fs.srv.URL, 5*time.Second, zerolog.Nop())
	return NewLoader(client, zerolog.Nop())
}

func TestLoadDirectoryBundleAndBareResource(t *testing.T) {
	// The canonical 2-file corpus: a transaction bundle holding an
	// identified Patient, and a bare Observation without an id.
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a_bundle.json"), `{
		"resourceType": "Bundle",
		"type": "transaction",
		"entry": [{
			"resource": {"resourceType": "Patient", "id": "123"},
			"request": {"method": "PUT", "url": "Patient/123"}
		}]
	}`)
	writeFile(t, filepath.Join(root, "b_observation.json"), `{"resourceType": "Observation", "status": "final"}`)

	fs := newFakeStore(t)
	stats := newTestLoader(fs).LoadDirectory(context.Background(), root, 0)

	assert.Equal(t, model.LoadStats{TotalFiles: 2, Loaded: 2, Failed: 0}, stats)

	// The bundle goes to the store root as one transaction carrying the
	// PUT Patient/123 directive.
	transactions := fs.find(http.MethodPost, "/")
	require.Len(t, transactions, 1)
	var bundle model.ClinicalBundle
	require.NoError(t, json.Unmarshal(transactions[0].Body, &bundle))
	require.Len(t, bundle.Entries, 1)
	assert.Equal(t, http.MethodPut, bundle.Entries[0].Request.Method)
	assert.Equal(t, "Patient/123", bundle.Entries[0].Request.URL)

	// The bare resource is POSTed for a server-assigned id.
	assert.Len(t, fs.find(http.MethodPost, "/Observation"), 1)
}

func TestLoadDirectoryBareResourceWithIDIsUpserted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patient.json"), `{"resourceType": "Patient", "id": "p9"}`)

	fs := newFakeStore(t)
	stats := newTestLoader(fs).LoadDirectory(context.Background(), root, 0)

	assert.Equal(t, model.LoadStats{TotalFiles: 1, Loaded: 1}, stats)
	assert.Len(t, fs.find(http.MethodPut, "/Patient/p9"), 1)
}

func TestLoadDirectoryIsolatesMalformedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), `{"resourceType": "Patient", "id": "1"}`)
	writeFile(t, filepath.Join(root, "b.json"), `this is not json`)
	writeFile(t, filepath.Join(root, "c.json"), `{"resourceType": "Patient", "id": "3"}`)

	fs := newFakeStore(t)
	loader := newTestLoader(fs)

	var failedPaths []string
	loader.OnFileError = func(path string, err error) {
		failedPaths = append(failedPaths, path)
		var parseErr *model.ParseError
		assert.ErrorAs(t, err, &parseErr)
	}

	stats := loader.LoadDirectory(context.Background(), root, 0)

	assert.Equal(t, model.LoadStats{TotalFiles: 3, Loaded: 2, Failed: 1}, stats)
	assert.Equal(t, []string{filepath.Join(root, "b.json")}, failedPaths)
	// The two healthy files were still attempted.
	assert.Len(t, fs.find(http.MethodPut, "/Patient/1"), 1)
	assert.Len(t, fs.find(http.MethodPut, "/Patient/3"), 1)
}

func TestLoadDirectoryCountsStoreRejectionAsFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "p.json"), `{"resourceType": "Patient", "id": "x"}`)

	fs := newFakeStore(t)
	fs.reject["PUT /Patient/x"] = http.StatusUnprocessableEntity

	stats := newTestLoader(fs).LoadDirectory(context.Background(), root, 0)
	assert.Equal(t, model.LoadStats{TotalFiles: 1, Failed: 1}, stats)
}

func TestLoadDirectoryMissingResourceType(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "odd.json"), `{"hello": "world"}`)

	fs := newFakeStore(t)
	stats := newTestLoader(fs).LoadDirectory(context.Background(), root, 0)

	assert.Equal(t, model.LoadStats{TotalFiles: 1, Failed: 1}, stats)
	assert.Empty(t, fs.recorded())
}

func TestLoadDirectoryHonorsLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), `{"resourceType": "Patient", "id": "1"}`)
	writeFile(t, filepath.Join(root, "b.json"), `{"resourceType": "Patient", "id": "2"}`)
	writeFile(t, filepath.Join(root, "c.json"), `{"resourceType": "Patient", "id": "3"}`)

	fs := newFakeStore(t)
	stats := newTestLoader(fs).LoadDirectory(context.Background(), root, 2)

	assert.Equal(t, model.LoadStats{TotalFiles: 2, Loaded: 2}, stats)
	// Lexicographic order: a.json and b.json make the cut.
	assert.Len(t, fs.find(http.MethodPut, "/Patient/1"), 1)
	assert.Len(t, fs.find(http.MethodPut, "/Patient/2"), 1)
	assert.Empty(t, fs.find(http.MethodPut, "/Patient/3"))
}

func TestReplaySemantics(t *testing.T) {
	// Identified resources upsert to the same location twice; anonymous
	// resources create twice.
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patient.json"), `{"resourceType": "Patient", "id": "stable"}`)
	writeFile(t, filepath.Join(root, "obs.json"), `{"resourceType": "Observation"}`)

	fs := newFakeStore(t)
	loader := newTestLoader(fs)

	loader.LoadDirectory(context.Background(), root, 0)
	loader.LoadDirectory(context.Background(), root, 0)

	// Both replays target the identical PUT location — the store keeps one
	// copy — while each replayed POST asks for a fresh server-assigned id.
	assert.Len(t, fs.find(http.MethodPut, "/Patient/stable"), 2)
	assert.Len(t, fs.find(http.MethodPost, "/Observation"), 2)
}
