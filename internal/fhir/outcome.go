package fhir

import (
	"encoding/json"
	"fmt"
)

// operationOutcome is the structured diagnostic payload stores return on
// rejected requests.
type operationOutcome struct {
	ResourceType string `json:"resourceType"`
	Issue        []struct {
		Severity    string `json:"severity"`
		Code        string `json:"code"`
		Diagnostics string `json:"diagnostics"`
		Details     struct {
			Text string `json:"text"`
		} `json:"details"`
	} `json:"issue"`
}

// outcomeIssues extracts human-readable issue texts from an error body.
// Bodies that are not an OperationOutcome yield nil — the HTTP status alone
// has to carry the message then.
func outcomeIssues(body []byte) []string {
	var outcome operationOutcome
	if err := json.Unmarshal(body, &outcome); err != nil || outcome.ResourceType != "OperationOutcome" {
		return nil
	}

	var issues []string
	for _, issue := range outcome.Issue {
		text := issue.Diagnostics
		if text == "" {
			text = issue.Details.Text
		}
		if text == "" {
			text = issue.Code
		}
		if text == "" {
			continue
		}
		if issue.Severity != "" {
			text = fmt.Sprintf("%s: %s", issue.Severity, text)
		}
		issues = append(issues, text)
	}
	return issues
}
