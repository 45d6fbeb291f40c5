package lookup_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metricsindexer/apps/indexer/features/lookup"
	"metricsindexer/apps/indexer/internal/indexer"
	"metricsindexer/apps/indexer/internal/usecase"
)

func newMux(t *testing.T, reg *usecase.Registry, idx *indexer.SimpleIndexer) *http.ServeMux {
	t.Helper()
	h := lookup.NewHandler(reg, idx)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /use-cases", h.List)
	mux.HandleFunc("GET /use-cases/{use_case}", h.Get)
	mux.HandleFunc("GET /use-cases/{use_case}/resolve", h.Resolve)
	mux.HandleFunc("GET /use-cases/{use_case}/strings/{id}", h.ReverseResolve)
	return mux
}

func perfRegistry() *usecase.Registry {
	r := usecase.NewRegistry()
	r.Register(usecase.IngestConfiguration{
		UseCase:              usecase.Performance,
		DbModel:              usecase.PerfStringIndexer,
		InputTopic:           "ingest-performance-metrics",
		OutputTopic:          "snuba-generic-metrics",
		InternalMetricsTag:   "perf",
		WritesLimiterOptions: map[string]any{"cluster": "perf-cluster"},
	})
	return r
}

func do(mux http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var body map[string]interface{}
	json.NewDecoder(w.Body).Decode(&body)
	return w, body
}

func TestHandler_Get(t *testing.T) {
	mux := newMux(t, perfRegistry(), indexer.NewSimpleIndexer())

	t.Run("Success", func(t *testing.T) {
		w, body := do(mux, "/use-cases/performance")
		assert.Equal(t, http.StatusOK, w.Code)

		data := body["data"].(map[string]interface{})
		assert.Equal(t, "PerfStringIndexer", data["db_model"])
		assert.Equal(t, "ingest-performance-metrics", data["input_topic"])
		assert.Equal(t, "snuba-generic-metrics", data["output_topic"])
		assert.Equal(t, "performance", data["use_case_id"])
		assert.Equal(t, "perf", data["internal_metrics_tag"])
		assert.Equal(t, map[string]interface{}{"cluster": "perf-cluster"}, data["writes_limiter_cluster_options"])
	})

	t.Run("InvalidUseCase", func(t *testing.T) {
		w, body := do(mux, "/use-cases/bogus")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errMap := body["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errMap["code"])
	})

	t.Run("NotRegistered", func(t *testing.T) {
		w, body := do(mux, "/use-cases/releaseHealth")
		assert.Equal(t, http.StatusNotFound, w.Code)
		errMap := body["error"].(map[string]interface{})
		assert.Equal(t, "NOT_FOUND", errMap["code"])
	})
}

func TestHandler_List(t *testing.T) {
	mux := newMux(t, perfRegistry(), indexer.NewSimpleIndexer())

	w, body := do(mux, "/use-cases")
	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)

	t.Run("Empty", func(t *testing.T) {
		w, body := do(newMux(t, usecase.NewRegistry(), indexer.NewSimpleIndexer()), "/use-cases")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, body["data"])
	})
}

func TestHandler_Resolve(t *testing.T) {
	idx := indexer.NewSimpleIndexer()
	id, _, err := idx.Record(context.Background(), usecase.Performance, 1, "my.tag")
	require.NoError(t, err)
	mux := newMux(t, perfRegistry(), idx)

	t.Run("Found", func(t *testing.T) {
		w, body := do(mux, "/use-cases/performance/resolve?org_id=1&string=my.tag")
		assert.Equal(t, http.StatusOK, w.Code)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, float64(id), data["id"])
	})

	t.Run("Missing", func(t *testing.T) {
		w, _ := do(mux, "/use-cases/performance/resolve?org_id=2&string=my.tag")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("BadOrg", func(t *testing.T) {
		w, _ := do(mux, "/use-cases/performance/resolve?org_id=abc&string=my.tag")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Reverse", func(t *testing.T) {
		w, body := do(mux, "/use-cases/performance/strings/10000")
		assert.Equal(t, http.StatusOK, w.Code)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "my.tag", data["string"])
	})
}
