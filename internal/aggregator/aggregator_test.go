package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"call-compliance-go/internal/types"
)

func result(campaign string, score int, autoFail bool, codes ...string) types.CallResult {
	r := &types.ComplianceResult{Campaign: campaign, ComplianceScore: score, AutoFailTriggered: autoFail}
	for _, c := range codes {
		r.AutoFailReasons = append(r.AutoFailReasons, types.Violation{Code: c, Severity: types.SeverityCritical})
	}
	return types.CallResult{Result: r}
}

func TestAggregate(t *testing.T) {
	withWarning := result("MEDICARE", 90, false)
	withWarning.Result.ComplianceWarnings = []types.Violation{{Code: "AF-06", Severity: types.SeverityWarning}}
	withWarning.Result.Checklist = []types.ChecklistResult{
		{ChecklistItemSpec: types.ChecklistItemSpec{Name: "TPMO Disclaimer"}, Status: types.StatusFail},
		{ChecklistItemSpec: types.ChecklistItemSpec{Name: "Zip Code Verification"}, Status: types.StatusNA},
	}

	ins := Aggregate([]types.CallResult{
		result("ACA", 0, true, "AF-01", "AF-02"),
		result("ACA", 100, false),
		result("ACA", 0, true, "AF-01"),
		withWarning,
		{RecordingID: "broken", Error: "timeout"},
	})

	assert.Equal(t, 5, ins.Calls)
	assert.Equal(t, 4, ins.Evaluated)
	assert.Equal(t, 47.5, ins.AverageScore)
	assert.InDelta(t, 2.0/3.0, ins.AutoFailRateByCampaign["ACA"], 1e-9)
	assert.Equal(t, 0.0, ins.AutoFailRateByCampaign["MEDICARE"])
	assert.Equal(t, map[string]int{"AF-01": 2, "AF-02": 1}, ins.ViolationCounts)
	assert.Equal(t, map[string]int{"AF-06": 1}, ins.WarningCounts)
	assert.Equal(t, map[string]int{"TPMO Disclaimer": 1}, ins.MissedItems)
}

func TestAggregate_Empty(t *testing.T) {
	ins := Aggregate(nil)
	assert.Zero(t, ins.Evaluated)
	assert.Zero(t, ins.AverageScore)
	assert.Empty(t, ins.ViolationCounts)
}

func TestTop(t *testing.T) {
	got := Top(map[string]int{"AF-09": 2, "AF-01": 5, "AF-03": 2, "AF-14": 1}, 3)
	assert.Equal(t, []Ranked{{"AF-01", 5}, {"AF-03", 2}, {"AF-09", 2}}, got)
	assert.Len(t, Top(map[string]int{"a": 1, "b": 1}, 0), 2)
}
