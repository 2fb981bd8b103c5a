package types

// Speaker identifies the channel a segment or line belongs to.
type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
	SpeakerSilence  Speaker = "silence"
)

// Label is the capitalized form used in rendered transcripts.
func (s Speaker) Label() string {
	switch s {
	case SpeakerAgent:
		return "Agent"
	case SpeakerCustomer:
		return "Customer"
	case "":
		return "Unknown"
	}
	return string(s)
}

type Word struct {
	Text  string   `json:"text"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

type Segment struct {
	Speaker Speaker `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Words   []Word  `json:"words,omitempty"`
}

type MergedTurn struct {
	Segment
	SplitFromOverlap bool `json:"split_from_overlap"`
}

type TranscriptLine struct {
	Timestamp string  `json:"timestamp"`
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	Seconds   int     `json:"seconds"`
}

// UpstreamItem is a checklist verdict produced before the rule engine runs
// (for example by a reviewer or an earlier AI pass).
type UpstreamItem struct {
	Status     string `json:"status"`
	Evidence   string `json:"evidence,omitempty"`
	Time       string `json:"time,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
}

// CallJob is one call to evaluate. Either both segment lists or Transcript is set.
type CallJob struct {
	RecordingID string                  `json:"recording_id"`
	JobID       string                  `json:"job_id,omitempty"`
	ProductType string                  `json:"product_type"`
	AudioURL    string                  `json:"audio_url,omitempty"`
	Agent       []Segment               `json:"agent_segments,omitempty"`
	Customer    []Segment               `json:"customer_segments,omitempty"`
	Transcript  string                  `json:"transcript,omitempty"`
	Upstream    map[string]UpstreamItem `json:"upstream_analysis,omitempty"`
}

// HasSegments reports whether the job carries two-channel STT output.
func (j CallJob) HasSegments() bool {
	return len(j.Agent) > 0 || len(j.Customer) > 0
}

// CallResult is returned per call by the processor and the API.
type CallResult struct {
	RecordingID string            `json:"recording_id"`
	JobID       string            `json:"job_id,omitempty"`
	Result      *ComplianceResult `json:"result,omitempty"`
	DurationMs  int64             `json:"duration_ms"`
	Error       string            `json:"error,omitempty"`
}
