package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gear6io/sqllab/server/config"
	"github.com/gear6io/sqllab/server/progress"
	"github.com/gear6io/sqllab/server/runner"
	"github.com/gear6io/sqllab/server/sandbox"
	"github.com/gear6io/sqllab/server/tutorial"
	"github.com/gear6io/sqllab/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sb, err := sandbox.Open(context.Background(), config.DatabaseConfig{Path: ":memory:", Seed: true}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sb.Close() })

	catalog, err := tutorial.Load()
	require.NoError(t, err)
	store := progress.NewStore(sb.DB(), zerolog.Nop())

	r := runner.New(sb, runner.NewExecutionManager(zerolog.Nop(), 10),
		runner.Options{Progress: store, Catalog: catalog}, zerolog.Nop())

	cfg := config.LoadDefaultConfig().Server
	return NewServer(cfg, Deps{Runner: r, Schema: sb, Catalog: catalog, Progress: store}, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return resp, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	_, err := uuid.Parse(resp.Header.Get(SessionHeader))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/api/validate", `{"query": "SELECT * FROM employees;"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["allowed"])

	resp, body = do(t, s, http.MethodPost, "/api/validate", `{"query": "drop table sales;"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "Query contains dangerous keyword: DROP", body["reason"])
	assert.Equal(t, "DROP", body["keyword"])

	resp, _ = do(t, s, http.MethodPost, "/api/validate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuery(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/api/query",
		`{"query": "SELECT dept_name, budget FROM departments ORDER BY dept_id;"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	assert.NotEmpty(t, body["query_id"])
	assert.Equal(t, []any{"dept_name", "budget"}, body["columns"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 5)
	assert.Equal(t, []any{"Engineering", float64(2000000)}, rows[0])
	assert.Contains(t, body["report"], "📈 Result Analysis:")

	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, float64(5), analysis["row_count"])
}

func TestQueryRejected(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/api/query", `{"query": "SELECT * FROM employees"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "Query should end with a semicolon (;)", body["reason"])
	assert.NotEmpty(t, body["query_id"])
}

func TestQueryErrors(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/api/query", `{"query": "SELECT * FROM ghosts;"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "runner.query_failed", body["code"])
	assert.NotEmpty(t, body["context"].(map[string]any)["query_id"])

	resp, body = do(t, s, http.MethodPost, "/api/query", `{"query": "   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "http.query_required", body["code"])

	resp, _ = do(t, s, http.MethodPost, "/api/query", `{"query": "SELECT 1;", "lesson_id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQueryWithLessonRecordsProgress(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/api/query",
		`{"query": "SELECT COUNT(*) AS total_employees FROM employees;", "lesson_id": "aggregation"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	lesson := body["lesson"].(map[string]any)
	assert.Equal(t, "aggregation", lesson["lesson_id"])
	assert.Equal(t, true, lesson["completed"])

	_, body = do(t, s, http.MethodGet, "/api/tutorials", "")
	tutorials := body["tutorials"].([]any)
	require.Len(t, tutorials, 5)
	for _, raw := range tutorials {
		entry := raw.(map[string]any)
		assert.Equal(t, entry["id"] == "aggregation", entry["completed"], entry["id"])
	}
}

func TestTables(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodGet, "/api/tables", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"departments", "employees", "projects", "sales", "tutorial_progress"}, body["tables"])

	resp, body = do(t, s, http.MethodGet, "/api/tables/sales", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SELECT * FROM sales LIMIT 5;", body["preview_query"])
	columns := body["columns"].([]any)
	assert.Equal(t, "sale_id", columns[0].(map[string]any)["name"])

	resp, body = do(t, s, http.MethodGet, "/api/tables/ghosts", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "sandbox.table_not_found", body["code"])

	resp, _ = do(t, s, http.MethodGet, "/api/tables/bad-name", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTutorial(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodGet, "/api/tutorials/joins", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "JOIN Operations", body["title"])

	resp, _ = do(t, s, http.MethodGet, "/api/tutorials/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQueriesHistory(t *testing.T) {
	s := newTestServer(t)
	session := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query": "SELECT 1 AS one;"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, session)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, session, resp.Header.Get(SessionHeader))

	do(t, s, http.MethodPost, "/api/query", `{"query": "DELETE FROM sales;"}`)

	_, body := do(t, s, http.MethodGet, "/api/queries", "")
	queries := body["queries"].([]any)
	require.Len(t, queries, 2)
	first := queries[0].(map[string]any)
	assert.Equal(t, "completed", first["status"])
	assert.Equal(t, session, first["session"])
	assert.Equal(t, "http", first["source"])
	assert.Equal(t, "rejected", queries[1].(map[string]any)["status"])

	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["total"])
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	resp, _ := do(t, s, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQueryInfo(t *testing.T) {
	s := newTestServer(t)

	_, ran := do(t, s, http.MethodPost, "/api/query", `{"query": "SELECT 1 AS one;"}`)
	id := ran["query_id"].(string)

	resp, body := do(t, s, http.MethodGet, "/api/queries/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, float64(1), body["row_count"])

	resp, body = do(t, s, http.MethodGet, "/api/queries/"+utils.GenerateULIDString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "runner.query_not_found", body["code"])

	resp, body = do(t, s, http.MethodGet, "/api/queries/not-a-ulid", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "http.invalid_query_id", body["code"])
}

func TestCancelQuery(t *testing.T) {
	s := newTestServer(t)
	manager := s.deps.Runner.Manager()

	id := utils.GenerateULIDString()
	_, qctx := manager.StartQuery(context.Background(), id, "SELECT 1;", "", "http")

	_, body := do(t, s, http.MethodGet, "/api/queries?status=running", "")
	running := body["queries"].([]any)
	require.Len(t, running, 1)
	assert.Equal(t, id, running[0].(map[string]any)["id"])

	resp, body := do(t, s, http.MethodDelete, "/api/queries/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])
	assert.ErrorIs(t, qctx.Err(), context.Canceled)

	_, body = do(t, s, http.MethodGet, "/api/queries?status=running", "")
	assert.Empty(t, body["queries"])

	resp, body = do(t, s, http.MethodDelete, "/api/queries/"+id, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "runner.query_not_running", body["code"])

	resp, _ = do(t, s, http.MethodDelete, "/api/queries/"+utils.GenerateULIDString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, s, http.MethodGet, "/api/queries?status=failed", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSweepDropsOldHistory(t *testing.T) {
	s := newTestServer(t)
	s.cfg.HistoryMaxAge = time.Millisecond
	manager := s.deps.Runner.Manager()

	do(t, s, http.MethodPost, "/api/query", `{"query": "SELECT 1 AS one;"}`)
	do(t, s, http.MethodPost, "/api/query", `{"query": "DELETE FROM sales;"}`)
	running := utils.GenerateULIDString()
	manager.StartQuery(context.Background(), running, "SELECT 2;", "", "http")

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, s.sweep())

	queries := manager.ListQueries()
	require.Len(t, queries, 1)
	assert.Equal(t, running, queries[0].ID)
}

func TestCleanupLoopStopsWithServer(t *testing.T) {
	s := newTestServer(t)
	s.cfg.HistoryMaxAge = time.Millisecond

	do(t, s, http.MethodPost, "/api/query", `{"query": "SELECT 1 AS one;"}`)

	s.wg.Add(1)
	go s.cleanupLoop()

	assert.Eventually(t, func() bool {
		return len(s.deps.Runner.Manager().ListQueries()) == 0
	}, time.Second, 5*time.Millisecond)

	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

type brokenSchema struct{}

func (brokenSchema) Tables(context.Context) ([]string, error) {
	return nil, fmt.Errorf("disk I/O error")
}

func (brokenSchema) TableSchema(context.Context, string) ([]sandbox.ColumnInfo, error) {
	return nil, fmt.Errorf("disk I/O error")
}

func TestUncodedFailureIsInternal(t *testing.T) {
	s := newTestServer(t)
	s.deps.Schema = brokenSchema{}

	resp, body := do(t, s, http.MethodGet, "/api/tables", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "common.internal", body["code"])
	assert.Equal(t, "disk I/O error", body["error"])
}
