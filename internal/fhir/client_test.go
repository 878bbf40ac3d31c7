package fhir

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fhir-data-pipeline/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, zerolog.Nop())
}

func TestURLJoining(t *testing.T) {
	c := NewClient("http://store:8080/fhir/", time.Second, zerolog.Nop())
	assert.Equal(t, "http://store:8080/fhir/metadata", c.URL("metadata"))
	assert.Equal(t, "http://store:8080/fhir/Patient/1", c.URL("/Patient/1"))
	assert.Equal(t, "http://store:8080/fhir/", c.URL(""))
}

func TestMetadataReportsStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	status, err := c.Metadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestMetadataUnreachableStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	_, err := c.Metadata(context.Background())

	var transport *model.TransportError
	assert.ErrorAs(t, err, &transport)
}

func TestResourceCount(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Patient", r.URL.Path)
		assert.Equal(t, "count", r.URL.Query().Get("_summary"))
		w.Write([]byte(`{"resourceType":"Bundle","type":"searchset","total":117}`))
	}))

	n, err := c.ResourceCount(context.Background(), "Patient")
	require.NoError(t, err)
	assert.Equal(t, 117, n)
}

func TestResourceCountMissingTotal(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resourceType":"Bundle","type":"searchset"}`))
	}))

	_, err := c.ResourceCount(context.Background(), "Patient")
	assert.ErrorContains(t, err, "no total")
}

func TestUpsertAndCreateTargetURLs(t *testing.T) {
	var method, path string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, c.UpsertResource(context.Background(), model.ResourceRecord{"resourceType": "Patient", "id": "42"}))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/Patient/42", path)

	require.NoError(t, c.CreateResource(context.Background(), model.ResourceRecord{"resourceType": "Observation"}))
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/Observation", path)
}

func TestSubmitTransactionPostsToRoot(t *testing.T) {
	var path string
	var body []byte
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"resourceType":"Bundle","type":"transaction-response"}`))
	}))

	bundle := &model.ClinicalBundle{
		ResourceType: "Bundle",
		Kind:         model.KindTransaction,
		Entries: []model.BundleEntry{{
			Resource: model.ResourceRecord{"resourceType": "Patient", "id": "1"},
			Request:  &model.TransactionRequest{Method: http.MethodPut, URL: "Patient/1"},
		}},
	}
	require.NoError(t, c.SubmitTransaction(context.Background(), bundle))

	assert.Equal(t, "/", path)
	var sent model.ClinicalBundle
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, model.KindTransaction, sent.Kind)
}

func TestSendRejectionCarriesOutcomeIssues(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"resourceType":"OperationOutcome","issue":[
			{"severity":"error","diagnostics":"Patient.birthDate is malformed"},
			{"severity":"warning","details":{"text":"code system unknown"}}
		]}`))
	}))

	err := c.UpsertResource(context.Background(), model.ResourceRecord{"resourceType": "Patient", "id": "1"})

	var rejected *model.StoreRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnprocessableEntity, rejected.Status)
	assert.Equal(t, []string{
		"error: Patient.birthDate is malformed",
		"warning: code system unknown",
	}, rejected.Issues)
}

func TestFetchPage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resourceType":"Bundle",
			"link":[
				{"relation":"self","url":"http://store/self"},
				{"relation":"next","url":"http://store/next-page"}
			],
			"entry":[
				{"resource":{"resourceType":"Patient","id":"a"}},
				{"search":{"mode":"include"}},
				{"resource":{"resourceType":"Observation","id":"b"}}
			]}`))
	}))

	resources, next, err := c.FetchPage(context.Background(), c.URL("Patient/a/$everything"))
	require.NoError(t, err)

	assert.Equal(t, "http://store/next-page", next)
	require.Len(t, resources, 2) // resource-less entry is skipped
	assert.Equal(t, "a", resources[0].ID())
	assert.Equal(t, "b", resources[1].ID())
}

func TestFetchPageNoNextLink(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resourceType":"Bundle","link":[{"relation":"self","url":"x"}]}`))
	}))

	_, next, err := c.FetchPage(context.Background(), c.URL("Patient"))
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestOutcomeIssues(t *testing.T) {
	t.Run("diagnostics preferred over details and code", func(t *testing.T) {
		issues := outcomeIssues([]byte(`{"resourceType":"OperationOutcome","issue":[
			{"severity":"error","code":"invalid","diagnostics":"bad date","details":{"text":"ignored"}}
		]}`))
		assert.Equal(t, []string{"error: bad date"}, issues)
	})

	t.Run("falls back to details then code", func(t *testing.T) {
		issues := outcomeIssues([]byte(`{"resourceType":"OperationOutcome","issue":[
			{"severity":"error","code":"invalid","details":{"text":"from details"}},
			{"severity":"fatal","code":"structure"}
		]}`))
		assert.Equal(t, []string{"error: from details", "fatal: structure"}, issues)
	})

	t.Run("non-outcome body yields nil", func(t *testing.T) {
		assert.Nil(t, outcomeIssues([]byte(`{"resourceType":"Bundle"}`)))
		assert.Nil(t, outcomeIssues([]byte(`<html>gateway error</html>`)))
	})
}
