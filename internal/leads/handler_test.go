package leads

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

func newTestRouter(t *testing.T) (*chi.Mux, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	h := NewHandler(repo, logging.New("error"))

	r := chi.NewRouter()
	r.Post("/api/v1/leads/web", h.CreateWebLead)
	r.Get("/api/v1/leads", h.ListLeads)
	r.Get("/api/v1/leads/{id}", h.GetLead)
	r.Patch("/api/v1/leads/{id}/status", h.UpdateStatus)
	return r, repo
}

func TestHandler_CreateWebLead(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(CreateLeadRequest{
		Name:            "Jordan Smith",
		Phone:           "+15555550123",
		VehicleInterest: "2024 Honda Civic",
		Source:          "web_form",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/leads/web", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var lead Lead
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&lead))
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, StatusNew, lead.Status)
}

func TestHandler_CreateWebLeadValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(CreateLeadRequest{Phone: "+15555550123"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/leads/web", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetLead(t *testing.T) {
	router, repo := newTestRouter(t)

	lead, err := repo.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(),
		&CreateLeadRequest{Name: "Sam", Email: "sam@example.com"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leads/"+lead.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/v1/leads/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestHandler_ListLeads(t *testing.T) {
	router, repo := newTestRouter(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	for _, name := range []string{"A", "B", "C"} {
		_, err := repo.Create(ctx, &CreateLeadRequest{Name: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leads?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListLeadsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)

	bad := httptest.NewRecorder()
	router.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/api/v1/leads?limit=9999", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHandler_UpdateStatus(t *testing.T) {
	router, repo := newTestRouter(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	lead, err := repo.Create(ctx, &CreateLeadRequest{Name: "Sam", Email: "sam@example.com"})
	require.NoError(t, err)

	body := bytes.NewBufferString(`{"status":"engaged"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/leads/"+lead.ID+"/status", body))
	require.Equal(t, http.StatusNoContent, rec.Code)

	invalid := httptest.NewRecorder()
	router.ServeHTTP(invalid, httptest.NewRequest(http.MethodPatch, "/api/v1/leads/"+lead.ID+"/status",
		bytes.NewBufferString(`{"status":"bogus"}`)))
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}
