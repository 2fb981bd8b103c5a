// Package checklist fills the campaign checklist from upstream verdicts and
// transcript evidence, and derives the checklist-driven violations.
package checklist

import (
	"strings"
	"unicode"

	"call-compliance-go/internal/rules"
	"call-compliance-go/internal/scoring"
	"call-compliance-go/internal/transcript"
	"call-compliance-go/internal/types"
)

const (
	transcriptConfidence = 75
	// customer lines inspected for an answer after a confirmation question
	responseLookahead = 3
)

type Result struct {
	Items          []types.ChecklistResult
	FailedCritical []string
	// Violations holds AF-02 (critical) and AF-06 (warning) findings.
	Violations []types.Violation
}

// Extract evaluates every item of tmpl's checklist in campaign order.
func Extract(tr *transcript.Transcript, tmpl *rules.CampaignTemplate, upstream map[string]types.UpstreamItem) Result {
	specs := tmpl.Checklist()
	res := Result{
		Items:          make([]types.ChecklistResult, 0, len(specs)),
		FailedCritical: []string{},
		Violations:     []types.Violation{},
	}
	for i, spec := range specs {
		item := evaluate(tr, spec, upstream)
		item.Order = i + 1
		res.Items = append(res.Items, item)
		if spec.Critical && item.Status != types.StatusPass {
			res.FailedCritical = append(res.FailedCritical, spec.Name)
		}
	}
	if tr.Empty() {
		return res
	}

	if len(res.FailedCritical) > 0 {
		names := strings.Join(res.FailedCritical, ", ")
		res.Violations = append(res.Violations,
			rules.Rule(rules.AF02).Violation(names, types.Evidence{Snippet: "Critical items not completed: " + names}))
	}
	for _, item := range res.Items {
		if !item.RequiresCustomerResponse || item.Status != types.StatusPass || item.LineIndex < 0 {
			continue
		}
		if !answered(tr, item.LineIndex) {
			res.Violations = append(res.Violations,
				rules.Rule(rules.AF06).Violation(item.Name, tr.Evidence(item.LineIndex)))
		}
	}
	return res
}

// evaluate prefers a usable upstream verdict and otherwise searches agent
// lines for the item's candidate phrases.
func evaluate(tr *transcript.Transcript, spec types.ChecklistItemSpec, upstream map[string]types.UpstreamItem) types.ChecklistResult {
	item := types.ChecklistResult{ChecklistItemSpec: spec, Status: types.StatusFail, LineIndex: -1}

	if up, ok := upstreamVerdict(spec, upstream); ok {
		item.Status = scoring.NormalizeStatus(up.Status)
		item.Evidence, item.Time, item.Confidence = up.Evidence, up.Time, up.Confidence
		if item.Status != types.StatusFail {
			return item
		}
	}

	agent := tr.AgentLines()
	for _, cand := range rules.ChecklistCandidates(spec.Key) {
		for _, i := range agent {
			if !tr.LineContains(i, cand) {
				continue
			}
			ev := tr.Evidence(i)
			item.Status = types.StatusPass
			item.Evidence, item.Time = ev.Snippet, ev.Timestamp
			item.Confidence = transcriptConfidence
			item.LineIndex = i
			return item
		}
	}
	return item
}

// upstreamVerdict looks the item up by key, then by any of its valid names.
func upstreamVerdict(spec types.ChecklistItemSpec, upstream map[string]types.UpstreamItem) (types.UpstreamItem, bool) {
	if up, ok := upstream[spec.Key]; ok {
		return up, true
	}
	for _, name := range spec.ValidNames {
		if up, ok := upstream[name]; ok {
			return up, true
		}
	}
	return types.UpstreamItem{}, false
}

// answered reports whether one of the next few customer lines after line
// holds an acknowledgement word.
func answered(tr *transcript.Transcript, line int) bool {
	seen := 0
	for _, i := range tr.CustomerLines() {
		if i <= line {
			continue
		}
		if hasAcknowledgement(tr.LowerLine(i)) {
			return true
		}
		seen++
		if seen == responseLookahead {
			break
		}
	}
	return false
}

func hasAcknowledgement(line string) bool {
	words := strings.FieldsFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
	for _, w := range words {
		for _, ack := range rules.Acknowledgements() {
			if w == ack {
				return true
			}
		}
	}
	return false
}
