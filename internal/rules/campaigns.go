package rules

import (
	"strings"

	"call-compliance-go/internal/types"
)

type Campaign string

const (
	CampaignACA      Campaign = "ACA"
	CampaignMedicare Campaign = "MEDICARE"
)

type KeyPhrase struct {
	Phrase     string
	Variations []string
	Required   bool
	Order      int
}

// Candidates lists the phrase followed by its variations, in match priority.
func (k KeyPhrase) Candidates() []string {
	return append([]string{k.Phrase}, k.Variations...)
}

// CampaignTemplate is the immutable script and checklist for one campaign.
type CampaignTemplate struct {
	campaign      Campaign
	keyPhrases    []KeyPhrase
	checklist     []types.ChecklistItemSpec
	disqualifiers []string
}

// NewTemplate builds a template from caller-owned data; the inputs are copied.
func NewTemplate(c Campaign, phrases []KeyPhrase, checklist []types.ChecklistItemSpec, disqualifiers []string) *CampaignTemplate {
	t := &CampaignTemplate{campaign: c, keyPhrases: phrases, checklist: checklist, disqualifiers: disqualifiers}
	return &CampaignTemplate{
		campaign:      c,
		keyPhrases:    t.KeyPhrases(),
		checklist:     t.Checklist(),
		disqualifiers: t.Disqualifiers(),
	}
}

func (t *CampaignTemplate) Campaign() Campaign { return t.campaign }

func (t *CampaignTemplate) KeyPhrases() []KeyPhrase {
	out := make([]KeyPhrase, len(t.keyPhrases))
	for i, k := range t.keyPhrases {
		k.Variations = clone(k.Variations)
		out[i] = k
	}
	return out
}

func (t *CampaignTemplate) Checklist() []types.ChecklistItemSpec {
	out := make([]types.ChecklistItemSpec, len(t.checklist))
	for i, c := range t.checklist {
		c.ValidNames = clone(c.ValidNames)
		out[i] = c
	}
	return out
}

// Disqualifiers are customer statements that end eligibility for the campaign.
func (t *CampaignTemplate) Disqualifiers() []string { return clone(t.disqualifiers) }

var recordedLine = KeyPhrase{
	Phrase:     "recorded line",
	Variations: []string{"call is being recorded", "call is recorded", "recorded call", "call may be recorded"},
	Required:   true,
	Order:      1,
}

var acaTemplate = &CampaignTemplate{
	campaign: CampaignACA,
	keyPhrases: []KeyPhrase{
		recordedLine,
		{Phrase: "affordable care act", Variations: []string{"health government subsidy", "government subsidy", "health subsidy"}, Required: true, Order: 2},
		{Phrase: "you may qualify", Variations: []string{"may be eligible", "might qualify"}, Required: true, Order: 3},
		{Phrase: "medicare or medicaid", Variations: []string{"medicare", "medicaid"}, Required: true, Order: 4},
		{Phrase: "work insurance", Variations: []string{"insurance through work", "insurance through your job", "through your employer"}, Required: true, Order: 5},
		{Phrase: "household income", Variations: []string{"annual income", "how much do you make"}, Required: false, Order: 6},
		{Phrase: "licensed agent", Variations: []string{"licensed insurance agent", "licensed specialist", "connect you", "transfer you"}, Required: false, Order: 7},
	},
	checklist: []types.ChecklistItemSpec{
		{Key: "recorded_line_disclosure", Name: "Recorded Line Disclosure", Weight: 15, Critical: true, ValidNames: []string{"recording_disclosure", "recorded_line"}},
		{Key: "agent_introduction", Name: "Agent Introduction", Weight: 10, ValidNames: []string{"introduction", "agent_intro"}},
		{Key: "subsidy_explanation", Name: "Subsidy / ACA Explanation", Weight: 10, ValidNames: []string{"aca_explanation"}},
		{Key: "qualification_language", Name: "Qualification Language", Weight: 15, Critical: true, ValidNames: []string{"qualification"}},
		{Key: "medicare_medicaid_check", Name: "Medicare / Medicaid Screening", Weight: 15, Critical: true, RequiresCustomerResponse: true, ValidNames: []string{"medicare_check"}},
		{Key: "work_insurance_check", Name: "Employer Insurance Screening", Weight: 15, Critical: true, RequiresCustomerResponse: true, ValidNames: []string{"employer_insurance_check"}},
		{Key: "income_verification", Name: "Household Income Verification", Weight: 10, RequiresCustomerResponse: true, ValidNames: []string{"income_check"}},
		{Key: "transfer_consent", Name: "Transfer Consent", Weight: 10, RequiresCustomerResponse: true, ValidNames: []string{"transfer"}},
	},
	disqualifiers: []string{
		"i have medicare", "i'm on medicare", "i am on medicare",
		"i have medicaid", "i'm on medicaid", "i am on medicaid",
		"insurance through work", "insurance through my job", "i have work insurance", "my employer covers",
	},
}

var medicareTemplate = &CampaignTemplate{
	campaign: CampaignMedicare,
	keyPhrases: []KeyPhrase{
		recordedLine,
		{Phrase: "licensed insurance agent", Variations: []string{"licensed agent", "licensed specialist"}, Required: true, Order: 2},
		{Phrase: "we do not offer every plan", Variations: []string{"do not offer every plan", "don't offer every plan", "1-800-medicare"}, Required: true, Order: 3},
		{Phrase: "part a and part b", Variations: []string{"parts a and b", "part a and b", "red white and blue card", "medicare card"}, Required: true, Order: 4},
		{Phrase: "medicaid", Variations: []string{"dual eligible", "state assistance"}, Required: true, Order: 5},
		{Phrase: "zip code", Variations: []string{"zip"}, Required: false, Order: 6},
		{Phrase: "benefits", Variations: []string{"dental", "vision", "giveback"}, Required: false, Order: 7},
		{Phrase: "transfer you", Variations: []string{"connect you", "bring on"}, Required: false, Order: 8},
	},
	checklist: []types.ChecklistItemSpec{
		{Key: "recorded_line_disclosure", Name: "Recorded Line Disclosure", Weight: 15, Critical: true, ValidNames: []string{"recording_disclosure", "recorded_line"}},
		{Key: "agent_introduction", Name: "Agent Introduction", Weight: 10, ValidNames: []string{"introduction", "agent_intro"}},
		{Key: "tpmo_disclaimer", Name: "TPMO Disclaimer", Weight: 15, Critical: true, ValidNames: []string{"tpmo", "tpmo_disclosure"}},
		{Key: "medicare_parts_verification", Name: "Medicare Parts A & B Verification", Weight: 15, Critical: true, RequiresCustomerResponse: true, ValidNames: []string{"parts_verification"}},
		{Key: "medicaid_check", Name: "Medicaid Screening", Weight: 15, Critical: true, RequiresCustomerResponse: true, ValidNames: []string{"medicaid_screening"}},
		{Key: "zip_code_verification", Name: "Zip Code Verification", Weight: 10, RequiresCustomerResponse: true, ValidNames: []string{"zip_code"}},
		{Key: "benefits_explanation", Name: "Benefits Explanation", Weight: 10, ValidNames: []string{"benefits"}},
		{Key: "transfer_consent", Name: "Transfer Consent", Weight: 10, RequiresCustomerResponse: true, ValidNames: []string{"transfer"}},
	},
	disqualifiers: []string{
		"i have medicaid", "i'm on medicaid", "i am on medicaid",
		"i don't have part a", "i don't have part b", "i only have part a",
		"i'm not on medicare", "i am not on medicare", "i'm under 65", "i am under 65",
	},
}

// WHATIF is sold under the Medicare script; it aliases the same template.
var templates = map[string]*CampaignTemplate{
	"ACA":      acaTemplate,
	"MEDICARE": medicareTemplate,
	"WHATIF":   medicareTemplate,
}

// Resolve maps a free-text product type to its campaign. It never fails:
// unknown product types fall back to ACA.
func Resolve(productType string) (Campaign, *CampaignTemplate) {
	if t, ok := templates[strings.ToUpper(strings.TrimSpace(productType))]; ok {
		return t.campaign, t
	}
	return CampaignACA, acaTemplate
}

// Template returns the template registered for c.
func Template(c Campaign) *CampaignTemplate {
	_, t := Resolve(string(c))
	return t
}
