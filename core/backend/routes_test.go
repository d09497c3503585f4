package backend_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rentdesk/core/access"
	"github.com/relabs-tech/rentdesk/core/backend"
)

// TestVersion verifies that the /version endpoint works
func TestVersion(t *testing.T) {
	s := newTestService(t)
	var version struct {
		Version string `json:"version"`
	}
	_, err := s.client.RawGet("/version", &version)
	require.NoError(t, err)
	assert.Equal(t, "unset", version.Version)

	backend.Version = "another version"
	defer func() { backend.Version = "unset" }()

	_, err = s.client.RawGet("/version", &version)
	require.NoError(t, err)
	assert.Equal(t, "another version", version.Version)
}

// TestStatistics verifies that the /rentdesk/statistics endpoint returns information about the backend
func TestStatistics(t *testing.T) {
	s := newTestService(t)
	seedLedger(t, s)
	_, err := s.client.Collection("settings").Singleton().Upsert(map[string]interface{}{"currency": "VND"}, nil)
	require.NoError(t, err)

	status, err := s.client.RawGet("/rentdesk/statistics", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)

	type stats struct {
		Resource string `json:"resource"`
		Count    int64  `json:"count"`
	}
	var details struct {
		Collections []stats `json:"collections"`
		Singletons  []stats `json:"singletons"`
	}
	admin := s.client.WithAdminAuthorization()
	_, h, err := admin.RawGetWithHeader("/rentdesk/statistics", nil, &details)
	require.NoError(t, err)
	etag := h.Get("Etag")
	assert.NotEmpty(t, etag)

	counts := map[string]int64{}
	for _, c := range details.Collections {
		counts[c.Resource] = c.Count
	}
	assert.Equal(t, int64(3), counts["rooms"])
	assert.Equal(t, int64(8), counts["transactions"])
	assert.Equal(t, []stats{{Resource: "settings", Count: 1}}, details.Singletons)

	status, _, err = admin.RawGetWithHeader("/rentdesk/statistics", map[string]string{"If-None-Match": etag}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, status)
}

func TestSessionRoute(t *testing.T) {
	s := newTestService(t)

	status, err := s.client.RawGet("/session", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	var session access.Session
	_, err = s.client.WithUser(7, "manager").RawGet("/session", &session)
	require.NoError(t, err)
	assert.Equal(t, access.Session{UserID: 7, Roles: []string{"manager"}}, session)
}

func TestEnvelope(t *testing.T) {
	s := newTestService(t)

	request := func(method, path, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, r)
		return rec
	}

	rec := request(http.MethodPost, "/tenants", `{"full_name":"Vo E"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"data":{`)
	assert.Contains(t, rec.Body.String(), `"storage_key":"tenant_1"`)

	rec = request(http.MethodGet, "/tenants", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"full_name":"Vo E"`)

	rec = request(http.MethodGet, "/empty", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = request(http.MethodPost, "/tenants", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"request body must be a JSON object"}`, rec.Body.String())

	rec = request(http.MethodPost, "/tenants", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(http.MethodGet, "/tenants/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"tenant 7 not found"}`, rec.Body.String())

	rec = request(http.MethodGet, "/notifications", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(http.MethodDelete, "/tenants/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"message":"deleted successfully","id":1}}`, rec.Body.String())
}

func TestHeaderSession(t *testing.T) {
	s := newTestService(t)
	s.router.Use(access.NewHeaderMiddleware())
	seedNotifications(t, s)

	r := httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
	r.Header.Set(access.UserIDHeader, "8")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"count":1}}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	s := newTestService(t)

	r := httptest.NewRequest(http.MethodOptions, "/rooms", nil)
	r.Header.Set("Origin", "https://app.rentdesk.dev")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/rooms", nil)
	r.Header.Set("Origin", "https://app.rentdesk.dev")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
