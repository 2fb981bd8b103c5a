package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-compliance-go/internal/config"
	"call-compliance-go/internal/dataset"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/metrics"
	"call-compliance-go/internal/processor"
	"call-compliance-go/internal/sink"
	"call-compliance-go/internal/types"
)

func testServer(t *testing.T, store *sink.SQLiteSink, load func(string) ([]types.CallJob, error)) http.Handler {
	t.Helper()
	log := logger.NewWithOptions(logger.Options{Environment: "test", Output: &bytes.Buffer{}})
	m := metrics.New()
	var sk sink.Sink = sink.Discard{}
	if store != nil {
		sk = store
	}
	cfg := config.Default()
	cfg.DemoLimit = 2
	s := &server{
		cfg:     cfg,
		proc:    processor.New(processor.Config{Sink: sk, Metrics: m, Logger: log}),
		store:   store,
		metrics: m,
		log:     log,
		load:    load,
	}
	return s.routes()
}

func postJob(t *testing.T, h http.Handler, job types.CallJob) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(job)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/evaluate", bytes.NewReader(body)))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer(t, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestEvaluate(t *testing.T) {
	h := testServer(t, nil, nil)
	rec := postJob(t, h, types.CallJob{
		RecordingID: "rec-1",
		ProductType: "ACA",
		Transcript:  "[0:00] Agent: you are approved for this benefit\n[0:03] Customer: wow",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res types.CallResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Result)
	assert.Equal(t, 0, res.Result.ComplianceScore)
	assert.True(t, res.Result.AutoFailTriggered)
	assert.Equal(t, "AF-01", res.Result.AutoFailReasons[0].Code)
}

func TestEvaluate_BadRequests(t *testing.T) {
	h := testServer(t, nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/evaluate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusBadRequest, postJob(t, h, types.CallJob{Transcript: "x"}).Code)
}

func TestDemo(t *testing.T) {
	load := func(string) ([]types.CallJob, error) {
		return []types.CallJob{
			{RecordingID: "a", ProductType: "ACA", Transcript: "[0:00] Agent: act now, last chance"},
			{RecordingID: "b", ProductType: "MEDICARE", Transcript: "[0:00] Agent: hello"},
			{RecordingID: "c", Transcript: "[0:00] Agent: ignored by the limit"},
		}, nil
	}
	rec := httptest.NewRecorder()
	testServer(t, nil, load).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demo", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp demoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "a", resp.Results[0].RecordingID)
	assert.Equal(t, 2, resp.Summary.TotalCalls)
	assert.Equal(t, 2, resp.Insight.Evaluated)
	assert.NotEmpty(t, resp.ActionCard.Action)
}

func TestDemo_NoData(t *testing.T) {
	load := func(string) ([]types.CallJob, error) { return nil, dataset.ErrNoData }
	rec := httptest.NewRecorder()
	testServer(t, nil, load).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demo", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResults(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer(t, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results?recording_id=x", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	store, err := sink.OpenSQLite(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer store.Close()
	h := testServer(t, store, nil)

	postJob(t, h, types.CallJob{RecordingID: "rec-9", Transcript: "[0:00] Agent: hello"})

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results?recording_id=rec-9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []types.CallResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "rec-9", got[0].RecordingID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results?recording_id=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

}

func TestMetricsEndpoint(t *testing.T) {
	h := testServer(t, nil, nil)
	postJob(t, h, types.CallJob{RecordingID: "rec-1", ProductType: "ACA", Transcript: "[0:00] Agent: hi"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "compliance_evaluations_total")
}
