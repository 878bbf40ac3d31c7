package pipeline

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"context"

	"github.com/rs/zerolog"

	"fhir-data-pipeline/internal/fhir"
	"fhir-data-pipeline/internal/model"
)

// Aggregator retrieves the complete per-patient record view via the store's
// $everything operation, following continuation links until the result set
// is exhausted. Page fetches are strictly sequential; a failure on any page
// aborts the whole call with no partial result.
type Aggregator struct {
	client   *fhir.Client
	maxPages int
	log      zerolog.Logger
}

// NewAggregator builds an aggregator. maxPages is a defensive ceiling on the
// number of continuation links followed per call; 0 disables it.
func NewAggregator(client *fhir.Client, maxPages int, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		client:   client,
		maxPages: maxPages,
		log:      log.With().Str("component", "everything-aggregator").Logger(),
	}
}

// PatientEverything returns all resources the store associates with the
// patient in query, flattened across every result page in page order.
func (a *Aggregator) PatientEverything(ctx context.Context, query model.AggregationQuery) ([]model.ResourceRecord, error) {
	pageURL := a.firstPageURL(query)

	var all []model.ResourceRecord
	pages := 0
	for pageURL != "" {
		if a.maxPages > 0 && pages >= a.maxPages {
			return nil, fmt.Errorf("everything for patient %s: page ceiling of %d exceeded, store keeps returning continuation links", query.PatientID, a.maxPages)
		}
		resources, next, err := a.client.FetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		all = append(all, resources...)
		pages++
		// The server's continuation link already encodes all paging state;
		// it supersedes the original query entirely.
		pageURL = next
	}

	a.log.Debug().
		Str("patient", query.PatientID).
		Int("pages", pages).
		Int("resources", len(all)).
		Msg("everything aggregation complete")
	return all, nil
}

// firstPageURL builds the initial $everything URL from the query. Unset
// fields are simply omitted — no defaulting happens here.
func (a *Aggregator) firstPageURL(query model.AggregationQuery) string {
	params := url.Values{}
	if query.PageSize > 0 {
		params.Set("_count", strconv.Itoa(query.PageSize))
	}
	if len(query.ResourceTypes) > 0 {
		params.Set("_type", strings.Join(query.ResourceTypes, ","))
	}
	if len(query.TypeFilters) > 0 {
		params.Set("_typeFilter", strings.Join(query.TypeFilters, ","))
	}
	if len(query.Elements) > 0 {
		params.Set("_elements", strings.Join(query.Elements, ","))
	}
	if query.SummaryMode != "" {
		params.Set("_summary", query.SummaryMode)
	}
	if query.Start != "" {
		params.Set("start", query.Start)
	}
	if query.End != "" {
		params.Set("end", query.End)
	}
	if query.Since != "" {
		params.Set("_since", query.Since)
	}

	pageURL := a.client.URL("Patient/" + query.PatientID + "/$everything")
	if encoded := params.Encode(); encoded != "" {
		pageURL += "?" + encoded
	}
	return pageURL
}
