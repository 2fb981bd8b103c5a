package aggregator

import (
	"math"
	"sort"

	"call-compliance-go/internal/types"
)

// Insight summarizes compliance patterns across a batch of evaluated calls.
type Insight struct {
	Calls                  int                `json:"calls"`
	Evaluated              int                `json:"evaluated"`
	AverageScore           float64            `json:"average_score"`
	AutoFailRateByCampaign map[string]float64 `json:"auto_fail_rate_by_campaign"`
	ViolationCounts        map[string]int     `json:"violation_counts"`
	WarningCounts          map[string]int     `json:"warning_counts"`
	MissedItems            map[string]int     `json:"missed_items"`
}

// Ranked is a label with its count, used for top-N views.
type Ranked struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func Aggregate(results []types.CallResult) Insight {
	ins := Insight{
		Calls:                  len(results),
		AutoFailRateByCampaign: map[string]float64{},
		ViolationCounts:        map[string]int{},
		WarningCounts:          map[string]int{},
		MissedItems:            map[string]int{},
	}
	total := map[string]int{}
	failed := map[string]int{}
	scoreSum := 0
	for _, cr := range results {
		r := cr.Result
		if r == nil {
			continue
		}
		ins.Evaluated++
		scoreSum += r.ComplianceScore
		total[r.Campaign]++
		if r.AutoFailTriggered {
			failed[r.Campaign]++
		}
		for _, v := range r.AutoFailReasons {
			ins.ViolationCounts[v.Code]++
		}
		for _, v := range r.ComplianceWarnings {
			ins.WarningCounts[v.Code]++
		}
		for _, it := range r.Checklist {
			if it.Status == types.StatusFail {
				ins.MissedItems[it.Name]++
			}
		}
	}
	for c, n := range total {
		ins.AutoFailRateByCampaign[c] = float64(failed[c]) / float64(n)
	}
	if ins.Evaluated > 0 {
		ins.AverageScore = math.Round(float64(scoreSum)/float64(ins.Evaluated)*10) / 10
	}
	return ins
}

// Top returns counts sorted by count descending, then label, capped at n
// (n <= 0 means all).
func Top(counts map[string]int, n int) []Ranked {
	out := make([]Ranked, 0, len(counts))
	for k, v := range counts {
		out = append(out, Ranked{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
