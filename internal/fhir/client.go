package fhir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fhir-data-pipeline/internal/model"
)

const fhirMIMEType = "application/fhir+json"

// Client talks to the external FHIR record store over its REST surface.
// The store is independently owned; the client never assumes exclusive
// access to it.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "fhir-client").Logger(),
	}
}

// URL joins a store-relative path onto the configured base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Metadata probes the store's capability statement and reports the HTTP
// status. A TransportError means the store was not reachable at all.
func (c *Client) Metadata(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL("metadata"), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &model.TransportError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// ResourceCount issues a count-only query for one resource type and returns
// the store-reported total.
func (c *Client) ResourceCount(ctx context.Context, resourceType string) (int, error) {
	page, err := c.fetchBundle(ctx, c.URL(resourceType+"?_summary=count"))
	if err != nil {
		return 0, err
	}
	if page.Total == nil {
		return 0, fmt.Errorf("count query for %s: response carries no total", resourceType)
	}
	return *page.Total, nil
}

// UpsertResource PUTs an identifier-bearing resource to {type}/{id}.
// Safe to replay: the store replaces-or-creates at the caller-chosen id.
func (c *Client) UpsertResource(ctx context.Context, rec model.ResourceRecord) error {
	path := rec.ResourceType() + "/" + rec.ID()
	return c.send(ctx, http.MethodPut, c.URL(path), rec)
}

// CreateResource POSTs a resource without an identifier to {type}.
// Not safe to replay: the store assigns a fresh id on every call.
func (c *Client) CreateResource(ctx context.Context, rec model.ResourceRecord) error {
	return c.send(ctx, http.MethodPost, c.URL(rec.ResourceType()), rec)
}

// SubmitTransaction POSTs a transaction-kind bundle to the store root, which
// applies all entries as a single atomic unit.
func (c *Client) SubmitTransaction(ctx context.Context, bundle *model.ClinicalBundle) error {
	return c.send(ctx, http.MethodPost, c.URL(""), bundle)
}

// FetchPage retrieves one result page at the given absolute URL and returns
// its resources in entry order plus the continuation link, "" when the result
// set is exhausted. Entries without a resource are skipped.
func (c *Client) FetchPage(ctx context.Context, pageURL string) ([]model.ResourceRecord, string, error) {
	page, err := c.fetchBundle(ctx, pageURL)
	if err != nil {
		return nil, "", err
	}

	var resources []model.ResourceRecord
	for _, entry := range page.Entry {
		if entry.Resource == nil {
			continue
		}
		resources = append(resources, entry.Resource)
	}

	var next string
	for _, link := range page.Link {
		if link.Relation == "next" {
			next = link.URL
			break
		}
	}
	return resources, next, nil
}

// searchBundle is the subset of a store response bundle the pipeline reads.
type searchBundle struct {
	Total *int `json:"total"`
	Link  []struct {
		Relation string `json:"relation"`
		URL      string `json:"url"`
	} `json:"link"`
	Entry []struct {
		Resource model.ResourceRecord `json:"resource"`
	} `json:"entry"`
}

func (c *Client) fetchBundle(ctx context.Context, url string) (*searchBundle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", fhirMIMEType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &model.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.StoreRejectedError{Status: resp.StatusCode, Issues: outcomeIssues(body)}
	}

	var page searchBundle
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", url, err)
	}
	return &page, nil
}

func (c *Client) send(ctx context.Context, method, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", fhirMIMEType)
	req.Header.Set("Accept", fhirMIMEType)

	resp, err := c.http.Do(req)
	if err != nil {
		return &model.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &model.StoreRejectedError{Status: resp.StatusCode, Issues: outcomeIssues(respBody)}
	}

	c.log.Debug().Str("method", method).Str("url", url).Int("status", resp.StatusCode).Msg("store request succeeded")
	return nil
}
