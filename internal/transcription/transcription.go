package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

var ErrNotConfigured = errors.New("transcription: TRANSCRIBE_URL not set")

// Segments is the two-channel STT output for one recording.
type Segments struct {
	Agent    []types.Segment `json:"agent"`
	Customer []types.Segment `json:"customer"`
}

type Client struct {
	baseURL    string
	mock       bool
	httpClient *http.Client
	initial    time.Duration
	maxElapsed time.Duration
	log        *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithRetry tunes the exponential backoff used for transient failures.
func WithRetry(initial, maxElapsed time.Duration) Option {
	return func(c *Client) { c.initial, c.maxElapsed = initial, maxElapsed }
}

// WithMock makes FetchSegments return a canned two-channel call.
func WithMock(on bool) Option { return func(c *Client) { c.mock = on } }

func WithLogger(l *logger.Logger) Option { return func(c *Client) { c.log = l } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 12 * time.Second},
		initial:    backoff.DefaultInitialInterval,
		maxElapsed: 12 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = logger.New()
	}
	c.log = c.log.Component("transcription")
	return c
}

// NewFromEnv reads TRANSCRIBE_URL and USE_MOCK_TRANSCRIBE.
func NewFromEnv(opts ...Option) *Client {
	opts = append([]Option{WithMock(os.Getenv("USE_MOCK_TRANSCRIBE") == "true")}, opts...)
	return New(os.Getenv("TRANSCRIBE_URL"), opts...)
}

// FetchSegments downloads the diarized segments for a recording. audioURL is
// optional and lets the service transcribe a recording it has not seen. Transient
// failures (transport errors, 5xx, empty bodies) are retried; 4xx responses
// and undecodable payloads are returned immediately.
func (c *Client) FetchSegments(ctx context.Context, recordingID, audioURL string) (Segments, error) {
	if c.mock {
		return mockSegments(), nil
	}
	if c.baseURL == "" {
		return Segments{}, ErrNotConfigured
	}
	u, err := url.Parse(c.baseURL + "/segments")
	if err != nil {
		return Segments{}, fmt.Errorf("transcription url: %w", err)
	}
	q := u.Query()
	q.Set("recording_id", recordingID)
	if audioURL != "" {
		q.Set("audio_url", audioURL)
	}
	u.RawQuery = q.Encode()

	var out Segments
	if err := c.getJSON(ctx, u.String(), &out); err != nil {
		c.log.WithCall(recordingID, "").WithField("error", err.Error()).Warn("segment fetch failed")
		return Segments{}, err
	}
	c.log.WithCall(recordingID, "").WithFields(map[string]interface{}{
		"agent_segments":    len(out.Agent),
		"customer_segments": len(out.Customer),
	}).Debug("segments fetched")
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initial
	bo.MaxElapsedTime = c.maxElapsed

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("request rejected %d: %s", resp.StatusCode, string(body)))
		case len(body) == 0:
			return fmt.Errorf("empty body")
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %w", err))
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.WithField("retry_in", wait.String()).WithField("error", err.Error()).Debug("retrying segment fetch")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return fmt.Errorf("fetch segments: %w", err)
	}
	return nil
}

func f(v float64) *float64 { return &v }

func mockSegments() Segments {
	return Segments{
		Agent: []types.Segment{
			{Start: 0, End: 6, Text: "Hi, my name is Alex and this call is being recorded."},
			{Start: 7, End: 15, Text: "You may qualify for a health government subsidy under the Affordable Care Act."},
			{Start: 18, End: 22, Text: "Do you currently have Medicare or Medicaid?"},
			{Start: 25, End: 28, Text: "Do you have work insurance?"},
			{Start: 31, End: 35, Text: "What is your household income?"},
			{Start: 39, End: 46, Text: "Great, I will connect you with a licensed agent now, okay?",
				Words: []types.Word{
					{Text: "Great,", Start: f(39), End: f(39.6)},
					{Text: "I", Start: f(39.7), End: f(39.8)},
					{Text: "will", Start: f(39.9), End: f(40.2)},
					{Text: "connect", Start: f(40.3), End: f(40.9)},
					{Text: "you", Start: f(41), End: f(41.2)},
					{Text: "with", Start: f(41.3), End: f(41.5)},
					{Text: "a", Start: f(41.6), End: f(41.7)},
					{Text: "licensed", Start: f(43.1), End: f(43.6)},
					{Text: "agent", Start: f(43.7), End: f(44.1)},
					{Text: "now,", Start: f(44.2), End: f(44.6)},
					{Text: "okay?", Start: f(44.8), End: f(45.5)},
				}},
		},
		Customer: []types.Segment{
			{Start: 16, End: 17, Text: "yes"},
			{Start: 23, End: 24, Text: "no"},
			{Start: 29, End: 30, Text: "no"},
			{Start: 36, End: 38, Text: "about forty thousand"},
			{Start: 41.8, End: 43, Text: "sounds good"},
			{Start: 47, End: 48, Text: "yes"},
		},
	}
}
