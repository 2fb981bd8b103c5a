// Package violations evaluates the auto-fail rule table against a transcript.
package violations

import (
	"call-compliance-go/internal/rules"
	"call-compliance-go/internal/transcript"
	"call-compliance-go/internal/types"
)

// structural AF-08 check: the prospect never spoke but the agent kept going
const noResponseAgentLines = 3

type Options struct {
	// SafeExceptionWindow limits safe-exception lookups to this many lines
	// around the trigger line. Zero searches the whole transcript.
	SafeExceptionWindow int
}

// Findings holds detected violations split by severity.
type Findings struct {
	AutoFails []types.Violation
	Warnings  []types.Violation
}

func NewFindings() Findings {
	return Findings{AutoFails: []types.Violation{}, Warnings: []types.Violation{}}
}

// Add routes v by severity. Warnings never set the auto-fail flag.
func (f *Findings) Add(v types.Violation) {
	if v.Severity == types.SeverityWarning {
		f.Warnings = append(f.Warnings, v)
		return
	}
	f.AutoFails = append(f.AutoFails, v)
}

// Triggered reports whether any critical violation was found.
func (f Findings) Triggered() bool {
	for _, v := range f.AutoFails {
		if v.Severity == types.SeverityCritical {
			return true
		}
	}
	return false
}

// Detect runs every transcript-driven rule. AF-02 and AF-06 are produced
// by the checklist extractor; AF-07 needs disposition data and is skipped.
func Detect(tr *transcript.Transcript, tmpl *rules.CampaignTemplate, opts Options) Findings {
	f := NewFindings()
	if tr.Empty() {
		return f
	}
	for _, r := range rules.AutoFailRules() {
		var (
			v  types.Violation
			ok bool
		)
		switch r.Method {
		case rules.MethodPattern:
			v, ok = matchPattern(tr, r, opts.SafeExceptionWindow)
			if !ok && r.Code == rules.AF08 {
				v, ok = noResponse(tr, r)
			}
		case rules.MethodCampaignDisqualifier:
			v, ok = transferredDisqualified(tr, r, tmpl.Disqualifiers())
		case rules.MethodChecklistCompletion, rules.MethodCustomerResponse, rules.MethodDisposition:
			continue
		}
		if ok {
			f.Add(v)
		}
	}
	return f
}

// CheckedCodes lists the codes an evaluation covers, in code order.
func CheckedCodes() []string {
	var out []string
	for _, r := range rules.AutoFailRules() {
		if r.Method == rules.MethodDisposition {
			continue
		}
		out = append(out, r.Code.String())
	}
	return out
}

// matchPattern reports the first trigger present in the transcript. A safe
// exception near that trigger suppresses the rule entirely.
func matchPattern(tr *transcript.Transcript, r rules.ViolationRule, window int) (types.Violation, bool) {
	for _, trig := range r.Triggers() {
		if !tr.Contains(trig) {
			continue
		}
		line := tr.FindLine(trig)
		if tr.AnyNear(r.SafeExceptions(), line, window) {
			return types.Violation{}, false
		}
		return r.Violation(trig, tr.Evidence(line)), true
	}
	return types.Violation{}, false
}

func noResponse(tr *transcript.Transcript, r rules.ViolationRule) (types.Violation, bool) {
	agent := tr.AgentLines()
	if len(tr.CustomerLines()) > 0 || len(agent) <= noResponseAgentLines {
		return types.Violation{}, false
	}
	return r.Violation("no customer response", tr.Evidence(agent[len(agent)-1])), true
}

// transferredDisqualified fires when the customer states a disqualifier and
// the call still mentions a transfer.
func transferredDisqualified(tr *transcript.Transcript, r rules.ViolationRule, disqualifiers []string) (types.Violation, bool) {
	transfer := false
	for _, t := range rules.TransferTerms() {
		if tr.Contains(t) {
			transfer = true
			break
		}
	}
	if !transfer {
		return types.Violation{}, false
	}
	for _, i := range tr.CustomerLines() {
		for _, d := range disqualifiers {
			if tr.LineContains(i, d) {
				return r.Violation(d, tr.Evidence(i)), true
			}
		}
	}
	return types.Violation{}, false
}
