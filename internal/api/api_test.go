package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/visadesk/visadesk/internal/api"
	"github.com/visadesk/visadesk/internal/models"
	"github.com/visadesk/visadesk/internal/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	server, _ := testutil.NewTestServer()

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodGet, "/health"))

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health")
	resp := testutil.AssertJSONResponse(t, rr)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp["status"])
	}
}

func TestHealthRejectsPost(t *testing.T) {
	server, _ := testutil.NewTestServer()

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodPost, "/health"))

	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "health POST")
}

func TestLeadsEndpoint(t *testing.T) {
	server, st := testutil.NewTestServer()
	testutil.SeedLeads(t, st, 2)

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodGet, "/leads"))

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "leads")
	var leads []models.Lead
	if err := decodeJSON(rr, &leads); err != nil {
		t.Fatalf("failed to decode leads: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].Flow != "Student Visa" || leads[0].Name != "Asha" {
		t.Errorf("unexpected lead: %+v", leads[0])
	}
}

func TestStatsEndpoint(t *testing.T) {
	server, st := testutil.NewTestServer()
	testutil.SeedLeads(t, st, 3)
	if err := st.SaveSessions(map[string]*models.Session{"4915551234567": models.NewSession()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodGet, "/stats"))

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "stats")
	resp := testutil.AssertJSONResponse(t, rr)
	if resp["sessions"] != float64(1) {
		t.Errorf("expected 1 session, got %v", resp["sessions"])
	}
	if resp["leads"] != float64(3) {
		t.Errorf("expected 3 leads, got %v", resp["leads"])
	}
}

func TestWebhookMount(t *testing.T) {
	called := false
	server, _ := testutil.NewTestServer(api.WithWebhook(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodPost, "/webhook/twilio"))

	if !called {
		t.Error("expected webhook handler to be invoked")
	}
}

func TestWebhookNotMountedByDefault(t *testing.T) {
	server, _ := testutil.NewTestServer()

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodPost, "/webhook/twilio"))

	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "unmounted webhook")
}

func decodeJSON(rr *httptest.ResponseRecorder, v interface{}) error {
	return json.NewDecoder(rr.Body).Decode(v)
}
