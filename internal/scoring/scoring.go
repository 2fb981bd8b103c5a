// Package scoring turns checklist verdicts into the final compliance score.
package scoring

import (
	"math"
	"strings"

	"call-compliance-go/internal/types"
)

// NormalizeStatus maps any upstream status string onto PASS, FAIL or N/A.
// Unknown and empty values are FAIL. Applying it twice changes nothing.
func NormalizeStatus(raw string) types.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pass", "met", "yes", "true", "1":
		return types.StatusPass
	case "n/a", "na", "not applicable":
		return types.StatusNA
	}
	return types.StatusFail
}

// ComplianceScore is the weighted share of passed items, ignoring N/A items
// in both numerator and denominator.
func ComplianceScore(items []types.ChecklistResult) int {
	total, earned := 0, 0
	for _, it := range items {
		switch it.Status {
		case types.StatusNA:
			continue
		case types.StatusPass:
			earned += it.Weight
		}
		total += it.Weight
	}
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(earned) / float64(total) * 100))
}

// Finalize applies the auto-fail override: any critical violation forces
// the score to 0.
func Finalize(score int, autoFails []types.Violation) (int, bool) {
	for _, v := range autoFails {
		if v.Severity == types.SeverityCritical {
			return 0, true
		}
	}
	return score, false
}
