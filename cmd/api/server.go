package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"call-compliance-go/internal/actionable"
	"call-compliance-go/internal/aggregator"
	"call-compliance-go/internal/config"
	"call-compliance-go/internal/dataset"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/metrics"
	"call-compliance-go/internal/processor"
	"call-compliance-go/internal/sink"
	"call-compliance-go/internal/types"
)

const maxBodyBytes = 10 << 20

type server struct {
	cfg     config.Config
	proc    *processor.Processor
	store   *sink.SQLiteSink // nil when SQLITE_PATH is unset
	metrics *metrics.Metrics
	log     *logger.Logger
	load    func(path string) ([]types.CallJob, error)
}

type demoResponse struct {
	Results    []types.CallResult    `json:"results"`
	Summary    dataset.Summary       `json:"summary"`
	Insight    aggregator.Insight    `json:"insight"`
	ActionCard actionable.ActionCard `json:"action_card"`
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/evaluate", s.handleEvaluate)
	mux.HandleFunc("/demo", s.handleDemo)
	mux.HandleFunc("/results", s.handleResults)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

// handleEvaluate scores one call posted as a JSON CallJob.
func (s *server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "evaluate")
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var job types.CallJob
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&job); err != nil {
		reqLog.WithField("error", err.Error()).Warn("invalid call job")
		http.Error(w, "invalid call job: "+err.Error(), http.StatusBadRequest)
		return
	}
	if job.RecordingID == "" {
		reqLog.Warn("missing recording_id")
		http.Error(w, "missing recording_id", http.StatusBadRequest)
		return
	}
	reqLog = reqLog.WithField("recording_id", job.RecordingID)

	res := s.proc.ProcessCall(r.Context(), job)
	status := http.StatusOK
	if res.Error != "" {
		reqLog.WithField("error", res.Error).Warn("processor returned error")
		status = http.StatusBadGateway
	}
	reqLog.WithField("duration_ms", res.DurationMs).Info("processor finished")
	s.writeJSON(w, status, res)
}

// handleDemo evaluates the first rows of the configured dataset.
func (s *server) handleDemo(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "demo")
	jobs, err := s.load(s.cfg.DatasetPath)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("dataset load error")
		status := http.StatusInternalServerError
		if errors.Is(err, dataset.ErrNoData) {
			status = http.StatusNotFound
		}
		http.Error(w, "dataset load error", status)
		return
	}
	if s.cfg.DemoLimit > 0 && len(jobs) > s.cfg.DemoLimit {
		jobs = jobs[:s.cfg.DemoLimit]
	}
	reqLog.WithField("calls", len(jobs)).Info("demo invoked")

	results := s.proc.ProcessBatch(r.Context(), jobs)
	ins := aggregator.Aggregate(results)
	s.writeJSON(w, http.StatusOK, demoResponse{
		Results:    results,
		Summary:    dataset.Summarize(results),
		Insight:    ins,
		ActionCard: actionable.Generate(ins),
	})
}

// handleResults returns stored results for ?recording_id=.
func (s *server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "result store not configured", http.StatusNotImplemented)
		return
	}
	id := r.URL.Query().Get("recording_id")
	if id == "" {
		http.Error(w, "missing recording_id", http.StatusBadRequest)
		return
	}
	results, err := s.store.Lookup(r.Context(), id)
	if err != nil {
		s.log.WithRequest(r).WithField("error", err.Error()).Error("result lookup failed")
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if len(results) == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.WithError(err).Error("failed to write response")
	}
}
