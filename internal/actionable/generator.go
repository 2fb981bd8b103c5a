package actionable

import (
	"fmt"

	"call-compliance-go/internal/aggregator"
	"call-compliance-go/internal/rules"
)

// a checklist item missed on at least this share of calls earns a card
const missedItemThreshold = 0.35

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

var coaching = map[rules.Code]string{
	rules.AF01: "Retrain on eligibility language: \"you may qualify\", never \"you are approved\"",
	rules.AF02: "Add the missing disclosures to the opening script and audit the first 30 seconds",
	rules.AF03: "Require the non-affiliation disclaimer before any mention of Medicare or the government",
	rules.AF04: "Block SSN and bank questions in the screener; escalate any occurrence to compliance",
	rules.AF05: "Pull recordings for supervisor review and schedule conduct coaching",
	rules.AF06: "Pause after each screening question until the prospect answers",
	rules.AF08: "Disconnect unresponsive calls instead of transferring",
	rules.AF09: "Remove urgency phrases from rebuttal sheets",
	rules.AF10: "Drill the disqualifier list and end the call politely when one is heard",
	rules.AF11: "Remove all references to cash or gift cards from pitches",
	rules.AF12: "Acknowledge do-not-call requests verbatim and flag the number",
	rules.AF13: "Qualify cost statements with \"depending on your income\"",
	rules.AF14: "Never advise cancelling existing coverage; defer to the licensed agent",
}

// Generate picks the single most useful coaching action for the batch.
func Generate(ins aggregator.Insight) ActionCard {
	if top := aggregator.Top(ins.ViolationCounts, 1); len(top) == 1 && ins.Evaluated > 0 {
		code, ok := rules.ParseCode(top[0].Label)
		if ok {
			rule := rules.Rule(code)
			return ActionCard{
				Insight: fmt.Sprintf("%s %s on %d of %d calls (%.0f%%)",
					rule.Code, rule.Name, top[0].Count, ins.Evaluated, pct(top[0].Count, ins.Evaluated)),
				Action: coaching[code],
				Impact: "Each occurrence zeroes the call score; removing it recovers billable transfers",
			}
		}
	}
	if top := aggregator.Top(ins.MissedItems, 1); len(top) == 1 && ins.Evaluated > 0 {
		rate := float64(top[0].Count) / float64(ins.Evaluated)
		if rate >= missedItemThreshold {
			return ActionCard{
				Insight: fmt.Sprintf("%q missed on %.0f%% of calls", top[0].Label, rate*100),
				Action:  "Add a script prompt for this checklist item and spot-check weekly",
				Impact:  "Raises checklist coverage and compliance scores",
			}
		}
	}
	return ActionCard{
		Insight: "No systematic compliance gap detected",
		Action:  "Keep sampling calls for review",
		Impact:  "Low immediate intervention",
	}
}

func pct(n, total int) float64 { return float64(n) / float64(total) * 100 }
