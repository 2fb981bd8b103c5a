// internal/types/compliance_models.go
package types

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusNA   Status = "N/A"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// --------------------------------------------
// Evidence
// --------------------------------------------
type Evidence struct {
	Found     bool    `json:"found"`
	Timestamp string  `json:"timestamp,omitempty"`
	Speaker   Speaker `json:"speaker,omitempty"`
	Snippet   string  `json:"snippet,omitempty"`
}

// --------------------------------------------
// Checklist
// --------------------------------------------
type ChecklistItemSpec struct {
	Key                      string   `json:"key"`
	Name                     string   `json:"name"`
	Weight                   int      `json:"weight"`
	Critical                 bool     `json:"critical"`
	RequiresCustomerResponse bool     `json:"requiresCustomerResponse"`
	// ValidNames are alternate keys upstream analysis may file this item under.
	ValidNames []string `json:"validNames,omitempty"`
}

type ChecklistResult struct {
	Order int `json:"order"`
	ChecklistItemSpec
	Status     Status `json:"status"`
	Evidence   string `json:"evidence"`
	Time       string `json:"time"`
	Confidence int    `json:"confidence"`

	// LineIndex is the transcript line that evidenced a PASS, -1 when the
	// verdict came from upstream analysis without a located line.
	LineIndex int `json:"-"`
}

// --------------------------------------------
// Violations
// --------------------------------------------
type Violation struct {
	Code        string   `json:"code"`
	Violation   string   `json:"violation"`
	Description string   `json:"description"`
	Trigger     string   `json:"trigger"`
	Timestamp   *string  `json:"timestamp"`
	Evidence    string   `json:"evidence"`
	Speaker     Speaker  `json:"speaker"`
	Severity    Severity `json:"severity"`
}

type Moment struct {
	Item      string `json:"item"`
	Timestamp string `json:"timestamp"`
	Evidence  string `json:"evidence"`
}

type CriticalMoments struct {
	AutoFails []Violation `json:"auto_fails"`
	Warnings  []Violation `json:"warnings"`
	Passes    []Moment    `json:"passes"`
}

// --------------------------------------------
// Script adherence
// --------------------------------------------
type PhraseMatch struct {
	Phrase   string   `json:"phrase"`
	Required bool     `json:"required"`
	Order    int      `json:"order"`
	Matched  string   `json:"matched,omitempty"`
	Evidence Evidence `json:"evidence"`
}

type TerminologyIssue struct {
	Term      string   `json:"term"`
	Severity  Severity `json:"severity"`
	Category  string   `json:"category"`
	Timestamp string   `json:"timestamp,omitempty"`
	Speaker   Speaker  `json:"speaker,omitempty"`
	Snippet   string   `json:"snippet,omitempty"`
}

type ScoreCalculation struct {
	PhraseMatchScore      float64 `json:"phrase_match_score"`
	SequenceScore         float64 `json:"sequence_score"`
	ResponseHandlingScore float64 `json:"response_handling_score"`
	TerminologyScore      float64 `json:"terminology_score"`
}

type ScriptAdherence struct {
	Score              int                `json:"score"`
	Level              string             `json:"level"`
	KeyPhrasesFound    []string           `json:"key_phrases_found"`
	KeyPhrasesMissing  []string           `json:"key_phrases_missing"`
	KeyPhraseEvidence  []PhraseMatch      `json:"key_phrase_evidence"`
	SequenceCorrect    bool               `json:"sequence_correct"`
	SequenceViolations int                `json:"sequence_violations"`
	TerminologyIssues  []TerminologyIssue `json:"terminology_issues"`
	Calculation        ScoreCalculation   `json:"calculation"`
}

// --------------------------------------------
// Language assessment
// --------------------------------------------
type EmpathyMoment struct {
	Phrase    string `json:"phrase"`
	Timestamp string `json:"timestamp"`
	Snippet   string `json:"snippet"`
}

type LanguageAssessment struct {
	ScriptAdherence  string          `json:"script_adherence"`
	EmpathyDisplayed bool            `json:"empathy_displayed"`
	EmpathyDetails   []EmpathyMoment `json:"empathy_details"`
}

// --------------------------------------------
// Timeline
// --------------------------------------------
type Marker struct {
	Seconds   int     `json:"seconds"`
	Timestamp string  `json:"timestamp"`
	Speaker   Speaker `json:"speaker,omitempty"`
	Label     string  `json:"label"`
	Snippet   string  `json:"snippet,omitempty"`
}

type Timeline struct {
	DurationSeconds int       `json:"duration_seconds"`
	Assignments     []Speaker `json:"-"`
	AgentSeconds    int       `json:"agent_seconds"`
	CustomerSeconds int       `json:"customer_seconds"`
	SilenceSeconds  int       `json:"silence_seconds"`
	AgentPct        float64   `json:"agent_pct"`
	CustomerPct     float64   `json:"customer_pct"`
	SilencePct      float64   `json:"silence_pct"`
	TalkRatio       *float64  `json:"talk_ratio"`
	DominantSpeaker string    `json:"dominant_speaker"`
	Markers         []Marker  `json:"markers"`
}

// --------------------------------------------
// FINAL output handed to persistence
// --------------------------------------------
type ScoringMetadata struct {
	Processor              string   `json:"processor"`
	ProcessedAt            string   `json:"processed_at"`
	CampaignDetected       string   `json:"campaign_detected"`
	TranscriptLinesParsed  int      `json:"transcript_lines_parsed"`
	TranscriptLinesDropped int      `json:"transcript_lines_dropped"`
	AgentLines             int      `json:"agent_lines"`
	CustomerLines          int      `json:"customer_lines"`
	AutoFailCodesChecked   []string `json:"auto_fail_codes_checked"`
	CriticalItemsFailed    []string `json:"critical_items_failed"`
	TerminologyIssuesFound int      `json:"terminology_issues_found"`
	SafeExceptionWindow    int      `json:"safe_exception_window"`
}

type ComplianceResult struct {
	EvaluationID       string             `json:"evaluation_id"`
	RecordingID        string             `json:"recording_id,omitempty"`
	JobID              string             `json:"job_id,omitempty"`
	Campaign           string             `json:"campaign"`
	ProductType        string             `json:"product_type"`
	ComplianceScore    int                `json:"compliance_score"`
	AutoFailTriggered  bool               `json:"auto_fail_triggered"`
	AutoFailReasons    []Violation        `json:"auto_fail_reasons"`
	ComplianceWarnings []Violation        `json:"compliance_warnings"`
	CriticalMoments    CriticalMoments    `json:"critical_moments"`
	Checklist          []ChecklistResult  `json:"checklist"`
	ScriptAdherence    ScriptAdherence    `json:"script_adherence"`
	LanguageAssessment LanguageAssessment `json:"language_assessment"`
	ScoringMetadata    ScoringMetadata    `json:"scoring_metadata"`
	Timeline           *Timeline          `json:"timeline,omitempty"`
	Transcript         string             `json:"transcript,omitempty"`
}
