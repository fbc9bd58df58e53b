// Package testutil provides common test utilities and helpers for VisaDesk tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/visadesk/visadesk/internal/api"
	"github.com/visadesk/visadesk/internal/models"
	"github.com/visadesk/visadesk/internal/store"
)

// NewTestServer creates a test API server over a fresh in-memory store.
func NewTestServer(opts ...api.Option) (*api.Server, *store.InMemoryStore) {
	st := store.NewInMemoryStore()
	return api.NewServer(st, opts...), st
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a JSON response body into a generic map.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return response
}

// CreateHTTPRequest creates an HTTP request for testing.
func CreateHTTPRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// SeedLeads adds sample lead records to the store for testing.
func SeedLeads(t *testing.T, st store.Store, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		lead := models.NewLead("4915551234567", "Student Visa", map[string]string{"name": "Asha"})
		if err := st.AddLead(lead); err != nil {
			t.Fatalf("failed to seed lead: %v", err)
		}
	}
}
