// Package e2e drives a running talentgate server through its HTTP API with
// godog scenarios. Point TALENTGATE_E2E_URL at the server under test.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TestContext carries request/response state across the steps of one
// scenario.
type TestContext struct {
	baseURL string
	client  *http.Client

	lastStatus int
	lastBody   []byte

	candidateID string
	documentIDs []string
	policyID    string
}

// NewTestContext creates a context targeting the given server.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears scenario state. Call between scenarios.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.candidateID = ""
	tc.documentIDs = nil
	tc.policyID = ""
}

// POST sends a JSON body and records the response.
func (tc *TestContext) POST(path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(http.MethodPost, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

// GET records the response for a read.
func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

// DELETE records the response for a delete.
func (tc *TestContext) DELETE(path string) error {
	req, err := http.NewRequest(http.MethodDelete, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// Status returns the last response status code.
func (tc *TestContext) Status() int { return tc.lastStatus }

// ResponseField extracts a top-level field from the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("parse response %q: %w", tc.lastBody, err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, tc.lastBody)
	}
	return v, nil
}

// ResponseList parses the last response as a JSON array.
func (tc *TestContext) ResponseList() ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(tc.lastBody, &list); err != nil {
		return nil, fmt.Errorf("parse response list %q: %w", tc.lastBody, err)
	}
	return list, nil
}

// CandidateID returns the candidate created by this scenario.
func (tc *TestContext) CandidateID() string { return tc.candidateID }

// SetCandidateID stores the scenario's candidate.
func (tc *TestContext) SetCandidateID(id string) { tc.candidateID = id }

// AddDocumentID stores an uploaded document id.
func (tc *TestContext) AddDocumentID(id string) { tc.documentIDs = append(tc.documentIDs, id) }

// DocumentIDs returns the scenario's uploaded documents.
func (tc *TestContext) DocumentIDs() []string { return tc.documentIDs }
