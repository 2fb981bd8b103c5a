package matcher

import (
	"math"
	"strings"

	"call-compliance-go/internal/rules"
	"call-compliance-go/internal/transcript"
	"call-compliance-go/internal/types"
)

const (
	phraseWeight           = 40.0
	sequenceWeight         = 20.0
	sequencePenalty        = 5.0
	responseWeight         = 20.0
	terminologyWeight      = 20.0
	criticalTermPenalty    = 10.0
	warningTermPenalty     = 5.0
	levelHighThreshold     = 80
	levelModerateThreshold = 60
)

const (
	LevelHigh     = "high"
	LevelModerate = "moderate"
	LevelLow      = "low"
)

type Options struct {
	// SafeExceptionWindow limits safe-exception lookups to this many lines
	// around the offending line. Zero searches the whole transcript.
	SafeExceptionWindow int
}

type Result struct {
	Adherence types.ScriptAdherence
	Empathy   []types.EmpathyMoment
}

type hit struct {
	match types.PhraseMatch
	found bool
}

// Match scores how closely the call followed the campaign script.
func Match(tr *transcript.Transcript, tmpl *rules.CampaignTemplate, opts Options) Result {
	phrases := tmpl.KeyPhrases()
	hits := findPhrases(tr, phrases)

	ad := types.ScriptAdherence{
		KeyPhrasesFound:   []string{},
		KeyPhrasesMissing: []string{},
		KeyPhraseEvidence: make([]types.PhraseMatch, 0, len(hits)),
		TerminologyIssues: []types.TerminologyIssue{},
		Level:             LevelLow,
	}
	for _, h := range hits {
		ad.KeyPhraseEvidence = append(ad.KeyPhraseEvidence, h.match)
		if h.found {
			ad.KeyPhrasesFound = append(ad.KeyPhrasesFound, h.match.Phrase)
		} else {
			ad.KeyPhrasesMissing = append(ad.KeyPhrasesMissing, h.match.Phrase)
		}
	}
	if tr.Empty() {
		return Result{Adherence: ad, Empathy: []types.EmpathyMoment{}}
	}

	required, foundRequired := 0, 0
	for _, h := range hits {
		if h.match.Required {
			required++
			if h.found {
				foundRequired++
			}
		}
	}
	phraseScore := 0.0
	if required > 0 {
		phraseScore = float64(foundRequired) / float64(required) * phraseWeight
	}

	violations := sequenceViolations(hits)
	sequenceScore := math.Max(0, sequenceWeight-float64(violations)*sequencePenalty)

	issues, terminologyScore := Terminology(tr, opts.SafeExceptionWindow)
	responseScore := ResponseHandlingScore(tr)

	ad.SequenceViolations = violations
	ad.SequenceCorrect = violations == 0
	ad.TerminologyIssues = issues
	ad.Calculation = types.ScoreCalculation{
		PhraseMatchScore:      round2(phraseScore),
		SequenceScore:         sequenceScore,
		ResponseHandlingScore: responseScore,
		TerminologyScore:      terminologyScore,
	}
	ad.Score = int(math.Round(phraseScore + sequenceScore + responseScore + terminologyScore))
	ad.Level = Level(ad.Score)

	return Result{Adherence: ad, Empathy: Empathy(tr)}
}

// findPhrases locates each key phrase (or a variation) in the transcript.
// The first candidate that matches wins.
func findPhrases(tr *transcript.Transcript, phrases []rules.KeyPhrase) []hit {
	out := make([]hit, 0, len(phrases))
	for _, k := range phrases {
		h := hit{match: types.PhraseMatch{Phrase: k.Phrase, Required: k.Required, Order: k.Order}}
		if tr.Empty() {
			out = append(out, h)
			continue
		}
		for _, cand := range k.Candidates() {
			if !tr.Contains(cand) {
				continue
			}
			h.found = true
			h.match.Matched = cand
			if line := tr.FindLine(cand); line >= 0 {
				h.match.Evidence = tr.Evidence(line)
			} else {
				// matched across line boundaries; no single line to cite
				h.match.Evidence = types.Evidence{Found: true}
			}
			break
		}
		out = append(out, h)
	}
	return out
}

// sequenceViolations walks found phrases in template order and counts each
// phrase whose order is lower than the highest order already seen. Only going
// backwards counts; skipped steps are not violations.
func sequenceViolations(hits []hit) int {
	violations, highest := 0, 0
	for _, h := range hits {
		if !h.found {
			continue
		}
		if h.match.Order < highest {
			violations++
			continue
		}
		highest = h.match.Order
	}
	return violations
}

// ResponseHandlingScore checks that the customer answered the agent's
// screening questions.
func ResponseHandlingScore(tr *transcript.Transcript) float64 {
	customer := len(tr.CustomerLines())
	if customer == 0 {
		return 0
	}
	questions := 0
	for _, i := range tr.AgentLines() {
		line := tr.LowerLine(i)
		if !strings.Contains(line, "?") {
			continue
		}
		for _, term := range rules.CriticalQuestionTerms() {
			if strings.Contains(line, term) {
				questions++
				break
			}
		}
	}
	if questions == 0 {
		return responseWeight
	}
	return math.Round(math.Min(float64(customer)/float64(questions), 1) * responseWeight)
}

// Terminology finds banned terms and returns the issues with the resulting
// terminology sub-score.
func Terminology(tr *transcript.Transcript, window int) ([]types.TerminologyIssue, float64) {
	issues := []types.TerminologyIssue{}
	score := terminologyWeight
	for _, bt := range rules.BannedTerms() {
		if !tr.Contains(bt.Term) {
			continue
		}
		line := tr.FindLine(bt.Term)
		if tr.AnyNear(bt.SafeExceptions, line, window) {
			continue
		}
		if bt.Severity == types.SeverityCritical {
			score -= criticalTermPenalty
		} else {
			if bt.Category == rules.CategoryFinancial && customerOnly(tr, bt.Term) {
				continue
			}
			score -= warningTermPenalty
		}
		issue := types.TerminologyIssue{Term: bt.Term, Severity: bt.Severity, Category: bt.Category}
		if line >= 0 {
			ev := tr.Evidence(line)
			issue.Timestamp, issue.Speaker, issue.Snippet = ev.Timestamp, ev.Speaker, ev.Snippet
		}
		issues = append(issues, issue)
	}
	return issues, math.Max(0, score)
}

// Empathy lists agent lines that carry an empathy phrase.
func Empathy(tr *transcript.Transcript) []types.EmpathyMoment {
	out := []types.EmpathyMoment{}
	for _, i := range tr.AgentLines() {
		for _, p := range rules.EmpathyPhrases() {
			if tr.LineContains(i, p) {
				ev := tr.Evidence(i)
				out = append(out, types.EmpathyMoment{Phrase: p, Timestamp: ev.Timestamp, Snippet: ev.Snippet})
				break
			}
		}
	}
	return out
}

func Level(score int) string {
	switch {
	case score >= levelHighThreshold:
		return LevelHigh
	case score >= levelModerateThreshold:
		return LevelModerate
	}
	return LevelLow
}

// customerOnly reports whether term appears in customer lines and never in
// agent lines.
func customerOnly(tr *transcript.Transcript, term string) bool {
	for _, i := range tr.AgentLines() {
		if tr.LineContains(i, term) {
			return false
		}
	}
	for _, i := range tr.CustomerLines() {
		if tr.LineContains(i, term) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
