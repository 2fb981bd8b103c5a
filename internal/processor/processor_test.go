package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/metrics"
	"call-compliance-go/internal/transcription"
	"call-compliance-go/internal/types"
)

type fetchFunc func(ctx context.Context, id, audioURL string) (transcription.Segments, error)

func (f fetchFunc) FetchSegments(ctx context.Context, id, audioURL string) (transcription.Segments, error) {
	return f(ctx, id, audioURL)
}

type recordingSink struct {
	mu   sync.Mutex
	got  []types.CallResult
	fail bool
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) Publish(_ context.Context, r types.CallResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, r)
	if s.fail {
		return errors.New("sink down")
	}
	return nil
}
func (s *recordingSink) Close() error { return nil }

func quiet() *logger.Logger {
	return logger.NewWithOptions(logger.Options{Environment: "test", Output: &bytes.Buffer{}})
}

const approvedCall = "[0:00] Agent: Good news, you are approved.\n[0:04] Customer: great"

func TestProcessCall_Transcript(t *testing.T) {
	s := &recordingSink{}
	m := metrics.New()
	p := New(Config{Sink: s, Metrics: m, Logger: quiet()})

	res := p.ProcessCall(context.Background(), types.CallJob{
		RecordingID: "rec-1", JobID: "job-1", ProductType: "ACA", Transcript: approvedCall,
	})
	require.Empty(t, res.Error)
	require.NotNil(t, res.Result)
	assert.Equal(t, "rec-1", res.RecordingID)
	assert.True(t, res.Result.AutoFailTriggered)
	assert.GreaterOrEqual(t, res.DurationMs, int64(0))

	require.Len(t, s.got, 1)
	assert.Equal(t, "job-1", s.got[0].JobID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("ACA", "true")))
}

func TestProcessCall_FetchesSegments(t *testing.T) {
	var asked, askedURL string
	fetch := fetchFunc(func(_ context.Context, id, audioURL string) (transcription.Segments, error) {
		asked, askedURL = id, audioURL
		return transcription.Segments{
			Agent:    []types.Segment{{Start: 0, End: 10, Text: "hello there my friend"}},
			Customer: []types.Segment{{Start: 5, End: 7, Text: "yes"}},
		}, nil
	})
	p := New(Config{Fetcher: fetch, Logger: quiet()})

	res := p.ProcessCall(context.Background(), types.CallJob{
		RecordingID: "rec-7", ProductType: "medicare", AudioURL: "https://cdn.example.com/rec-7.wav",
	})
	require.NotNil(t, res.Result)
	assert.Equal(t, "rec-7", asked)
	assert.Equal(t, "https://cdn.example.com/rec-7.wav", askedURL)
	require.NotNil(t, res.Result.Timeline)
	assert.Equal(t, 2, res.Result.Timeline.CustomerSeconds)
}

func TestProcessCall_TranscriptSkipsFetch(t *testing.T) {
	fetch := fetchFunc(func(context.Context, string, string) (transcription.Segments, error) {
		t.Fatal("fetch should not be called")
		return transcription.Segments{}, nil
	})
	res := New(Config{Fetcher: fetch, Logger: quiet()}).
		ProcessCall(context.Background(), types.CallJob{RecordingID: "r", Transcript: approvedCall})
	assert.NotNil(t, res.Result)
}

func TestProcessCall_FetchError(t *testing.T) {
	s := &recordingSink{}
	m := metrics.New()
	fetch := fetchFunc(func(context.Context, string, string) (transcription.Segments, error) {
		return transcription.Segments{}, transcription.ErrNotConfigured
	})
	res := New(Config{Fetcher: fetch, Sink: s, Metrics: m, Logger: quiet()}).
		ProcessCall(context.Background(), types.CallJob{RecordingID: "rec-2"})

	assert.Nil(t, res.Result)
	assert.Contains(t, res.Error, "transcription error")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("transcription")))
	require.Len(t, s.got, 1)
	assert.Equal(t, res.Error, s.got[0].Error)
}

func TestProcessCall_Timeout(t *testing.T) {
	fetch := fetchFunc(func(ctx context.Context, _, _ string) (transcription.Segments, error) {
		<-ctx.Done()
		return transcription.Segments{}, ctx.Err()
	})
	res := New(Config{Fetcher: fetch, Timeout: 20 * time.Millisecond, Logger: quiet()}).
		ProcessCall(context.Background(), types.CallJob{RecordingID: "slow"})
	assert.Contains(t, res.Error, context.DeadlineExceeded.Error())
}

func TestProcessCall_SinkErrorKeepsResult(t *testing.T) {
	m := metrics.New()
	res := New(Config{Sink: &recordingSink{fail: true}, Metrics: m, Logger: quiet()}).
		ProcessCall(context.Background(), types.CallJob{RecordingID: "r", Transcript: approvedCall})
	assert.NotNil(t, res.Result)
	assert.Empty(t, res.Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkErrors.WithLabelValues("recording")))
}

func TestProcessBatch_OrderAndLimit(t *testing.T) {
	var inFlight, peak int32
	fetch := fetchFunc(func(_ context.Context, id, _ string) (transcription.Segments, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return transcription.Segments{Agent: []types.Segment{{Start: 0, End: 2, Text: id}}}, nil
	})
	p := New(Config{Fetcher: fetch, Workers: 2, Logger: quiet()})

	jobs := make([]types.CallJob, 8)
	for i := range jobs {
		jobs[i] = types.CallJob{RecordingID: fmt.Sprintf("rec-%d", i)}
	}
	results := p.ProcessBatch(context.Background(), jobs)

	require.Len(t, results, len(jobs))
	for i, r := range results {
		assert.Equal(t, jobs[i].RecordingID, r.RecordingID)
		require.NotNil(t, r.Result)
		assert.Contains(t, r.Result.Transcript, jobs[i].RecordingID)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
