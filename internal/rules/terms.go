package rules

import "call-compliance-go/internal/types"

const CategoryFinancial = "financial"

type BannedTerm struct {
	Term           string
	Severity       types.Severity
	Category       string
	SafeExceptions []string
}

var bannedTerms = []BannedTerm{
	{Term: "guaranteed", Severity: types.SeverityCritical, Category: "guarantee",
		SafeExceptions: []string{"not guaranteed", "no guarantee", "isn't guaranteed", "can't guarantee", "cannot guarantee"}},
	{Term: "100% free", Severity: types.SeverityCritical, Category: "misrepresentation"},
	{Term: "free money", Severity: types.SeverityCritical, Category: CategoryFinancial},
	{Term: "obamacare", Severity: types.SeverityWarning, Category: "branding"},
	{Term: "cash", Severity: types.SeverityWarning, Category: CategoryFinancial},
	{Term: "payment", Severity: types.SeverityWarning, Category: CategoryFinancial},
	{Term: "cheap", Severity: types.SeverityWarning, Category: "quality"},
	{Term: "government program", Severity: types.SeverityWarning, Category: "affiliation",
		SafeExceptions: []string{"not a government program"}},
}

// BannedTerms returns the terminology blacklist.
func BannedTerms() []BannedTerm {
	out := make([]BannedTerm, len(bannedTerms))
	for i, b := range bannedTerms {
		b.SafeExceptions = clone(b.SafeExceptions)
		out[i] = b
	}
	return out
}

var empathyPhrases = []string{
	"i understand", "i'm sorry", "i am sorry", "sorry to hear", "i appreciate",
	"thank you for your patience", "take your time", "that makes sense", "no worries",
}

func EmpathyPhrases() []string { return clone(empathyPhrases) }

// acknowledgements count as a customer answering a compliance question.
var acknowledgements = []string{"yes", "yeah", "correct", "right", "okay", "ok", "no", "nope", "uh-huh", "mhm"}

func Acknowledgements() []string { return clone(acknowledgements) }

// criticalQuestionTerms mark agent questions that need a customer answer.
var criticalQuestionTerms = []string{"medicare", "medicaid", "work insurance", "okay", "correct"}

func CriticalQuestionTerms() []string { return clone(criticalQuestionTerms) }

// transferTerms show the agent proceeded to hand the prospect on.
var transferTerms = []string{"transfer", "connect you"}

func TransferTerms() []string { return clone(transferTerms) }

// checklistCandidates are searched in order against agent lines when no
// upstream verdict exists for an item.
var checklistCandidates = map[string][]string{
	"recorded_line_disclosure":    {"recorded line", "recorded call", "call is recorded", "being recorded", "may be recorded"},
	"agent_introduction":          {"my name is", "this is", "i'm calling from", "calling from"},
	"subsidy_explanation":         {"affordable care act", "health government subsidy", "government subsidy", "subsidy", "tax credit"},
	"qualification_language":      {"you may qualify", "may be eligible", "might qualify", "see if you qualify"},
	"medicare_medicaid_check":     {"medicare or medicaid", "medicare", "medicaid"},
	"work_insurance_check":        {"work insurance", "insurance through work", "insurance through your job", "employer"},
	"income_verification":         {"household income", "annual income", "how much do you make", "income"},
	"transfer_consent":            {"transfer you", "connect you", "licensed agent", "bring on"},
	"tpmo_disclaimer":             {"we do not offer every plan", "do not offer every plan", "don't offer every plan", "1-800-medicare", "medicare.gov"},
	"medicare_parts_verification": {"part a and part b", "parts a and b", "part a and b", "red white and blue card", "medicare card"},
	"medicaid_check":              {"medicaid", "dual eligible", "state assistance"},
	"zip_code_verification":       {"zip code", "zip"},
	"benefits_explanation":        {"benefits", "dental", "vision", "hearing", "giveback"},
}

// ChecklistCandidates returns the evidence phrases for a checklist key.
func ChecklistCandidates(key string) []string { return clone(checklistCandidates[key]) }
