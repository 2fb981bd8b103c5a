package transcription

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-compliance-go/internal/logger"
)

func quietClient(url string, opts ...Option) *Client {
	opts = append([]Option{
		WithRetry(time.Millisecond, 500*time.Millisecond),
		WithLogger(logger.NewWithOptions(logger.Options{Environment: "test", Output: &bytes.Buffer{}})),
	}, opts...)
	return New(url, opts...)
}

func TestFetchSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/segments", r.URL.Path)
		assert.Equal(t, "rec-42", r.URL.Query().Get("recording_id"))
		assert.False(t, r.URL.Query().Has("audio_url"))
		w.Write([]byte(`{"agent":[{"start":0,"end":10,"text":"hello there my friend"}],
			"customer":[{"start":5,"end":7,"text":"yes","words":[{"text":"yes","start":5.1,"end":5.4}]}]}`))
	}))
	defer srv.Close()

	segs, err := quietClient(srv.URL+"/").FetchSegments(context.Background(), "rec-42", "")
	require.NoError(t, err)
	require.Len(t, segs.Agent, 1)
	require.Len(t, segs.Customer, 1)
	assert.Equal(t, "hello there my friend", segs.Agent[0].Text)
	require.Len(t, segs.Customer[0].Words, 1)
	assert.InDelta(t, 5.4, *segs.Customer[0].Words[0].End, 1e-9)
}

func TestFetchSegments_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			// empty body
		default:
			w.Write([]byte(`{"agent":[],"customer":[]}`))
		}
	}))
	defer srv.Close()

	_, err := quietClient(srv.URL).FetchSegments(context.Background(), "rec-1", "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchSegments_PermanentFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("recording_id") == "missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"agent": "not a list"}`))
	}))
	defer srv.Close()
	c := quietClient(srv.URL)

	_, err := c.FetchSegments(context.Background(), "missing", "")
	assert.ErrorContains(t, err, "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = c.FetchSegments(context.Background(), "garbled", "")
	assert.ErrorContains(t, err, "json decode error")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchSegments_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := quietClient(srv.URL, WithRetry(time.Millisecond, time.Minute)).FetchSegments(ctx, "rec-1", "")
	assert.Error(t, err)
}

func TestFetchSegments_NotConfigured(t *testing.T) {
	_, err := quietClient("").FetchSegments(context.Background(), "rec-1", "")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestFetchSegments_Mock(t *testing.T) {
	segs, err := quietClient("", WithMock(true)).FetchSegments(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.NotEmpty(t, segs.Agent)
	assert.NotEmpty(t, segs.Customer)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("TRANSCRIBE_URL", "")
	t.Setenv("USE_MOCK_TRANSCRIBE", "true")
	_, err := NewFromEnv(WithLogger(logger.NewWithOptions(logger.Options{Output: &bytes.Buffer{}}))).
		FetchSegments(context.Background(), "x", "")
	assert.NoError(t, err)
}

func TestFetchSegments_PassesAudioURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rec-3", r.URL.Query().Get("recording_id"))
		assert.Equal(t, "https://cdn.example.com/rec 3.wav", r.URL.Query().Get("audio_url"))
		w.Write([]byte(`{"agent":[],"customer":[]}`))
	}))
	defer srv.Close()

	_, err := quietClient(srv.URL).FetchSegments(context.Background(), "rec-3", "https://cdn.example.com/rec 3.wav")
	require.NoError(t, err)
}
