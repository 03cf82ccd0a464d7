package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scaha-mcp/internal/store"
)

type fakeQueryLog struct {
	runs  []store.QueryRun
	err   error
	limit int
}

func (f *fakeQueryLog) Recent(_ context.Context, limit int) ([]store.QueryRun, error) {
	f.limit = limit
	return f.runs, f.err
}

func TestHealthCheck(t *testing.T) {
	router := NewRouter(Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"status": "healthy", "service": "scaha-mcp", "version": "1.0.0"}, body)
}

type failingDatabase struct{}

func (failingDatabase) HealthCheck(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestHealthCheckDegraded(t *testing.T) {
	router := NewRouter(Options{Database: failingDatabase{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Contains(t, body["database"], "connection refused")
}

func TestOptionalRoutesDisabled(t *testing.T) {
	router := NewRouter(Options{})

	for _, path := range []string{"/mcp", "/ws/queries", "/api/v1/queries/recent"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestMCPRouteIsMounted(t *testing.T) {
	called := false
	router := NewRouter(Options{MCP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(Options{})

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://claude.ai")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecentQueries(t *testing.T) {
	started := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	ql := &fakeQueryLog{runs: []store.QueryRun{
		{ID: "q-2", Tool: "get_schedule", Status: "started", StartedAt: started},
		{ID: "q-1", Tool: "get_team_roster", Status: "completed", Rows: 3, StartedAt: started,
			FinishedAt: sql.NullTime{Time: started.Add(time.Second), Valid: true}},
	}}
	router := NewRouter(Options{QueryLog: ql})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/queries/recent?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, ql.limit)

	var body struct {
		Count   int                `json:"count"`
		Queries []queryRunResponse `json:"queries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Nil(t, body.Queries[0].FinishedAt)
	require.NotNil(t, body.Queries[1].FinishedAt)
	assert.Equal(t, 3, body.Queries[1].Rows)
}

func TestRecentQueriesErrors(t *testing.T) {
	ql := &fakeQueryLog{err: errors.New("connection refused")}
	router := NewRouter(Options{QueryLog: ql})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/queries/recent?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/queries/recent", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, defaultRecentLimit, ql.limit)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
