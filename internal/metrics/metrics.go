package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"call-compliance-go/internal/types"
)

// Metrics owns a private registry so tests and multiple engines never
// collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	Evaluations        *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	Scores             *prometheus.HistogramVec
	Violations         *prometheus.CounterVec
	LinesDropped       prometheus.Counter
	Failures           *prometheus.CounterVec
	SinkErrors         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compliance_evaluations_total",
				Help: "Total number of calls evaluated",
			},
			[]string{"campaign", "auto_fail"},
		),
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "compliance_evaluation_duration_seconds",
				Help:    "Wall-clock time to evaluate one call, including segment fetch",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		Scores: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "compliance_score",
				Help:    "Distribution of final compliance scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"campaign"},
		),
		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compliance_violations_total",
				Help: "Violations detected by code and severity",
			},
			[]string{"code", "severity"},
		),
		LinesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "compliance_transcript_lines_dropped_total",
				Help: "Transcript lines skipped because they did not parse",
			},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compliance_evaluation_failures_total",
				Help: "Calls that could not be evaluated",
			},
			[]string{"reason"},
		),
		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compliance_sink_errors_total",
				Help: "Result publish failures by sink",
			},
			[]string{"sink"},
		),
	}
	m.registry.MustRegister(
		m.Evaluations,
		m.EvaluationDuration,
		m.Scores,
		m.Violations,
		m.LinesDropped,
		m.Failures,
		m.SinkErrors,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveResult records one finished evaluation.
func (m *Metrics) ObserveResult(res *types.ComplianceResult, took time.Duration) {
	m.EvaluationDuration.Observe(took.Seconds())
	if res == nil {
		return
	}
	m.Evaluations.WithLabelValues(res.Campaign, strconv.FormatBool(res.AutoFailTriggered)).Inc()
	m.Scores.WithLabelValues(res.Campaign).Observe(float64(res.ComplianceScore))
	for _, v := range res.AutoFailReasons {
		m.Violations.WithLabelValues(v.Code, string(v.Severity)).Inc()
	}
	for _, v := range res.ComplianceWarnings {
		m.Violations.WithLabelValues(v.Code, string(v.Severity)).Inc()
	}
	m.LinesDropped.Add(float64(res.ScoringMetadata.TranscriptLinesDropped))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          m.registry,
	})
}
