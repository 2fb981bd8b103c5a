// internal/pipeline/pipeline.go
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"call-compliance-go/internal/checklist"
	"call-compliance-go/internal/matcher"
	"call-compliance-go/internal/merge"
	"call-compliance-go/internal/rules"
	"call-compliance-go/internal/scoring"
	"call-compliance-go/internal/timeline"
	"call-compliance-go/internal/transcript"
	"call-compliance-go/internal/types"
	"call-compliance-go/internal/violations"
)

// ProcessorName is reported in scoring metadata.
const ProcessorName = "deterministic-rule-engine"

type Options struct {
	// SafeExceptionWindow is passed to the matcher and violation detector.
	SafeExceptionWindow int
	// Now stamps processed_at. Defaults to time.Now.
	Now func() time.Time
	// NewID generates evaluation ids. Defaults to uuid.NewString.
	NewID func() string
}

// Engine evaluates calls. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.SafeExceptionWindow < 0 {
		opts.SafeExceptionWindow = 0
	}
	return &Engine{opts: opts}
}

// Evaluate runs the full rule engine over one call. Segment input is merged
// into an exclusive transcript first; otherwise job.Transcript is parsed.
func (e *Engine) Evaluate(job types.CallJob) types.ComplianceResult {
	var (
		tr *transcript.Transcript
		tl *types.Timeline
	)
	if job.HasSegments() {
		turns := merge.Merge(job.Agent, job.Customer)
		built := timeline.Build(turns)
		tl = &built
		tr = transcript.FromTurns(turns)
	} else {
		tr = transcript.Parse(job.Transcript)
	}

	campaign, tmpl := rules.Resolve(job.ProductType)

	adh := matcher.Match(tr, tmpl, matcher.Options{SafeExceptionWindow: e.opts.SafeExceptionWindow})
	found := violations.Detect(tr, tmpl, violations.Options{SafeExceptionWindow: e.opts.SafeExceptionWindow})
	cl := checklist.Extract(tr, tmpl, job.Upstream)
	for _, v := range cl.Violations {
		found.Add(v)
	}

	score, autoFail := scoring.Finalize(scoring.ComplianceScore(cl.Items), found.AutoFails)

	return types.ComplianceResult{
		EvaluationID:       e.opts.NewID(),
		RecordingID:        job.RecordingID,
		JobID:              job.JobID,
		Campaign:           string(campaign),
		ProductType:        job.ProductType,
		ComplianceScore:    score,
		AutoFailTriggered:  autoFail,
		AutoFailReasons:    found.AutoFails,
		ComplianceWarnings: found.Warnings,
		CriticalMoments: types.CriticalMoments{
			AutoFails: found.AutoFails,
			Warnings:  found.Warnings,
			Passes:    passes(cl.Items),
		},
		Checklist:       cl.Items,
		ScriptAdherence: adh.Adherence,
		LanguageAssessment: types.LanguageAssessment{
			ScriptAdherence:  adh.Adherence.Level,
			EmpathyDisplayed: len(adh.Empathy) > 0,
			EmpathyDetails:   adh.Empathy,
		},
		ScoringMetadata: types.ScoringMetadata{
			Processor:              ProcessorName,
			ProcessedAt:            e.opts.Now().UTC().Format(time.RFC3339),
			CampaignDetected:       string(campaign),
			TranscriptLinesParsed:  len(tr.Lines),
			TranscriptLinesDropped: tr.Dropped,
			AgentLines:             len(tr.AgentLines()),
			CustomerLines:          len(tr.CustomerLines()),
			AutoFailCodesChecked:   violations.CheckedCodes(),
			CriticalItemsFailed:    cl.FailedCritical,
			TerminologyIssuesFound: len(adh.Adherence.TerminologyIssues),
			SafeExceptionWindow:    e.opts.SafeExceptionWindow,
		},
		Timeline:   tl,
		Transcript: tr.Text(),
	}
}

func passes(items []types.ChecklistResult) []types.Moment {
	out := []types.Moment{}
	for _, it := range items {
		if it.Status == types.StatusPass {
			out = append(out, types.Moment{Item: it.Name, Timestamp: it.Time, Evidence: it.Evidence})
		}
	}
	return out
}
