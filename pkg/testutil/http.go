// Package testutil holds the helpers handler tests share: raw-body request
// builders, coded-error assertions, and request-context injection that stands
// in for the middleware chain.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRequestWithBody builds a JSON request from a raw body string. Taking the
// body raw keeps malformed-payload cases expressible without fighting the
// marshaller.
func NewRequestWithBody(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest runs one request through the handler and captures the response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// DecodeResponse unmarshals the recorded body into T, failing with the raw
// body so a surprise error payload is visible in the test output.
func DecodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "response body: %s", rec.Body.String())
	return out
}

// AssertStatusAndError checks the status code and the code in the error body
// the domain-error writer produces.
func AssertStatusAndError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	assert.Equal(t, wantStatus, rec.Code, rec.Body.String())
	body := DecodeResponse[map[string]any](t, rec)
	assert.Equal(t, wantCode, body["error"])
}
