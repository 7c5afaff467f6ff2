package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight/internal/agent"
	"github.com/coinsight/coinsight/internal/errors"
	"github.com/coinsight/coinsight/internal/warehouse"
)

type fakeRetriever struct{}

func (fakeRetriever) Retrieve(_ context.Context, _ string, _ int) (string, []string, error) {
	return "Table: current_top_10", []string{"current_top_10"}, nil
}

type fakeGenerator struct {
	sql string
}

func (f fakeGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return f.sql, nil
}

type fakeExecutor struct {
	rows []warehouse.Row
	err  error
}

func (f fakeExecutor) Execute(_ context.Context, _ string) ([]warehouse.Row, error) {
	return f.rows, f.err
}

func (fakeExecutor) Backend() string { return "duckdb (mock)" }
func (fakeExecutor) Close() error    { return nil }

type fakeFormatter struct{}

func (fakeFormatter) Format(_ context.Context, _, _ string, _ []warehouse.Row) (string, error) {
	return "Bitcoin is trading at $95,432.10.", nil
}

func testAgent(gen fakeGenerator, exec fakeExecutor) *agent.Agent {
	return agent.New(agent.Config{
		Retriever: fakeRetriever{},
		Generator: gen,
		Executor:  exec,
		Formatter: fakeFormatter{},
		MaxRows:   200,
		TopN:      2,
	})
}

func healthyAgent() *agent.Agent {
	return testAgent(
		fakeGenerator{sql: "SELECT symbol, price_usd FROM current_top_10 LIMIT 200"},
		fakeExecutor{rows: []warehouse.Row{{"symbol": "BTC", "price_usd": 95432.10}}},
	)
}

func testServer(a *agent.Agent) http.Handler {
	return NewServer(a, "duckdb (mock)", func() []string {
		return []string{"current_top_10", "btc_dominance_trend"}
	}, nil).Handler()
}

func postQuery(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func TestQueryHappyPath(t *testing.T) {
	rr := postQuery(t, testServer(healthyAgent()),
		`{"question": "what is the price of Bitcoin?"}`)

	require.Equal(t, http.StatusOK, rr.Code)

	var result agent.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))

	assert.Equal(t, "what is the price of Bitcoin?", result.Question)
	assert.Equal(t, "Bitcoin is trading at $95,432.10.", result.Answer)
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, []string{"current_top_10"}, result.TablesUsed)
}

func TestQueryNoAgentReturns503(t *testing.T) {
	rr := postQuery(t, testServer(nil), `{"question": "what is the price of Bitcoin?"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestQueryBadJSON(t *testing.T) {
	rr := postQuery(t, testServer(healthyAgent()), `{"question": `)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestQueryLengthBounds(t *testing.T) {
	handler := testServer(healthyAgent())

	rr := postQuery(t, handler, `{"question": "hi"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	long, err := json.Marshal(map[string]string{"question": strings.Repeat("x", 501)})
	require.NoError(t, err)

	rr = postQuery(t, handler, string(long))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestQueryValidationErrorReturns422(t *testing.T) {
	a := testAgent(fakeGenerator{sql: "DROP TABLE current_top_10"}, fakeExecutor{})

	rr := postQuery(t, testServer(a), `{"question": "please drop everything"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, string(errors.ErrTypeValidation), resp.Type)
	assert.NotEmpty(t, resp.Error)
}

func TestQueryExecutionErrorReturns500WithGenericMessage(t *testing.T) {
	a := testAgent(
		fakeGenerator{sql: "SELECT secret_column FROM current_top_10 LIMIT 200"},
		fakeExecutor{err: errors.New(errors.ErrTypeExecution, "column secret_column does not exist")},
	)

	rr := postQuery(t, testServer(a), `{"question": "what is the secret?"}`)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, string(errors.ErrTypeExecution), resp.Type)
	assert.NotContains(t, resp.Error, "secret_column")
}

func TestHealthReady(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := httptest.NewRecorder()

	testServer(healthyAgent()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["index_ready"])
	assert.Equal(t, "duckdb (mock)", body["backend"])
}

func TestHealthUnready(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := httptest.NewRecorder()

	testServer(nil).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSchemaEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/schema", nil)
	rr := httptest.NewRecorder()

	testServer(healthyAgent()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Backend string   `json:"backend"`
		Tables  []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, "duckdb (mock)", body.Backend)
	assert.Equal(t, []string{"current_top_10", "btc_dominance_trend"}, body.Tables)
}

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/metrics", nil)
	rr := httptest.NewRecorder()

	testServer(healthyAgent()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "coinsight_question_duration_seconds")
}

func TestSetAgentSwap(t *testing.T) {
	server := NewServer(nil, "duckdb (mock)", nil, nil)
	handler := server.Handler()

	rr := postQuery(t, handler, `{"question": "what is the price of Bitcoin?"}`)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	server.SetAgent(healthyAgent())

	rr = postQuery(t, handler, `{"question": "what is the price of Bitcoin?"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}
