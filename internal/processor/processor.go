// internal/processor/processor.go
package processor

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/metrics"
	"call-compliance-go/internal/pipeline"
	"call-compliance-go/internal/sink"
	"call-compliance-go/internal/transcription"
	"call-compliance-go/internal/types"
)

// SegmentFetcher supplies two-channel STT output for calls that arrive
// with neither segments nor a transcript.
type SegmentFetcher interface {
	FetchSegments(ctx context.Context, recordingID, audioURL string) (transcription.Segments, error)
}

type Config struct {
	Engine  *pipeline.Engine
	Fetcher SegmentFetcher
	Sink    sink.Sink
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	// Timeout bounds each call, fetch included.
	Timeout time.Duration
	// Workers bounds ProcessBatch concurrency. Defaults to runtime.NumCPU().
	Workers int
}

type Processor struct {
	engine  *pipeline.Engine
	fetcher SegmentFetcher
	sink    sink.Sink
	metrics *metrics.Metrics
	log     *logger.Logger
	timeout time.Duration
	workers int
}

func New(cfg Config) *Processor {
	p := &Processor{
		engine:  cfg.Engine,
		fetcher: cfg.Fetcher,
		sink:    cfg.Sink,
		metrics: cfg.Metrics,
		log:     cfg.Logger,
		timeout: cfg.Timeout,
		workers: cfg.Workers,
	}
	if p.engine == nil {
		p.engine = pipeline.New(pipeline.Options{})
	}
	if p.sink == nil {
		p.sink = sink.Discard{}
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}
	if p.log == nil {
		p.log = logger.New()
	}
	p.log = p.log.Component("processor")
	if p.timeout <= 0 {
		p.timeout = 40 * time.Second
	}
	if p.workers <= 0 {
		p.workers = runtime.NumCPU()
	}
	return p
}

// ProcessCall evaluates one call. Failures are reported in CallResult.Error;
// the result is still published so the audit trail records the attempt.
func (p *Processor) ProcessCall(ctx context.Context, job types.CallJob) types.CallResult {
	log := p.log.WithCall(job.RecordingID, job.JobID)
	start := time.Now()
	res := types.CallResult{RecordingID: job.RecordingID, JobID: job.JobID}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.fill(cctx, &job); err != nil {
		res.Error = fmt.Sprintf("transcription error: %v", err)
		p.metrics.Failures.WithLabelValues("transcription").Inc()
		log.WithField("error", err.Error()).Warn("segment fetch failed")
		return p.finish(ctx, res, start)
	}

	done := make(chan types.ComplianceResult, 1)
	go func() { done <- p.engine.Evaluate(job) }()

	select {
	case <-cctx.Done():
		res.Error = fmt.Sprintf("evaluation aborted: %v", cctx.Err())
		p.metrics.Failures.WithLabelValues("timeout").Inc()
		log.WithField("timeout", p.timeout.String()).Warn("evaluation did not finish in time")
	case r := <-done:
		res.Result = &r
		log.WithFields(map[string]interface{}{
			"campaign":         r.Campaign,
			"compliance_score": r.ComplianceScore,
			"auto_fail":        r.AutoFailTriggered,
			"warnings":         len(r.ComplianceWarnings),
		}).Info("call evaluated")
	}
	return p.finish(ctx, res, start)
}

// fill fetches segments when the job carries no call content of its own.
func (p *Processor) fill(ctx context.Context, job *types.CallJob) error {
	if job.HasSegments() || job.Transcript != "" || p.fetcher == nil {
		return nil
	}
	segs, err := p.fetcher.FetchSegments(ctx, job.RecordingID, job.AudioURL)
	if err != nil {
		return err
	}
	job.Agent, job.Customer = segs.Agent, segs.Customer
	return nil
}

func (p *Processor) finish(ctx context.Context, res types.CallResult, start time.Time) types.CallResult {
	took := time.Since(start)
	res.DurationMs = took.Milliseconds()
	p.metrics.ObserveResult(res.Result, took)
	if err := p.sink.Publish(ctx, res); err != nil {
		p.metrics.SinkErrors.WithLabelValues(p.sink.Name()).Inc()
		p.log.WithCall(res.RecordingID, res.JobID).WithField("error", err.Error()).Error("failed to publish result")
	}
	return res
}

// ProcessBatch evaluates jobs on a bounded worker pool. Results come back in
// input order; one call failing never stops the others.
func (p *Processor) ProcessBatch(ctx context.Context, jobs []types.CallJob) []types.CallResult {
	results := make([]types.CallResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = p.ProcessCall(gctx, job)
			return nil
		})
	}
	_ = g.Wait()
	p.log.WithField("calls", len(jobs)).WithField("workers", p.workers).Info("batch finished")
	return results
}

func (p *Processor) Close() error { return p.sink.Close() }
