package rules

import (
	"fmt"
	"strconv"
	"strings"

	"call-compliance-go/internal/types"
)

// Code is one of the fixed auto-fail categories AF-01..AF-14.
type Code int

const (
	AF01 Code = iota + 1 // guaranteeing approval
	AF02                 // skipping compliance
	AF03                 // misrepresenting affiliation
	AF04                 // requesting sensitive data
	AF05                 // unprofessional conduct
	AF06                 // unconfirmed compliance
	AF07                 // wrong disposition
	AF08                 // no-response transfer
	AF09                 // pressure tactics
	AF10                 // transferring DQ prospects
	AF11                 // cash or gift promises
	AF12                 // ignoring do-not-call
	AF13                 // misleading cost claims
	AF14                 // advising plan cancellation
)

const NumCodes = 14

func (c Code) String() string { return fmt.Sprintf("AF-%02d", int(c)) }

// Valid reports whether c is one of the enumerated codes.
func (c Code) Valid() bool { return c >= AF01 && c <= AF14 }

type DetectionMethod string

const (
	MethodPattern              DetectionMethod = "pattern"
	MethodChecklistCompletion  DetectionMethod = "checklist_completion"
	MethodCustomerResponse     DetectionMethod = "customer_response_check"
	MethodDisposition          DetectionMethod = "disposition_validation"
	MethodCampaignDisqualifier DetectionMethod = "campaign_disqualifier"
)

type ViolationRule struct {
	Code        Code
	Name        string
	Description string
	Severity    types.Severity
	Method      DetectionMethod

	triggers       []string
	safeExceptions []string
}

func (r ViolationRule) Triggers() []string       { return clone(r.triggers) }
func (r ViolationRule) SafeExceptions() []string { return clone(r.safeExceptions) }

// Violation builds the reported violation for this rule.
func (r ViolationRule) Violation(trigger string, ev types.Evidence) types.Violation {
	v := types.Violation{
		Code:        r.Code.String(),
		Violation:   r.Name,
		Description: r.Description,
		Trigger:     trigger,
		Evidence:    ev.Snippet,
		Speaker:     ev.Speaker,
		Severity:    r.Severity,
	}
	if ev.Timestamp != "" {
		ts := ev.Timestamp
		v.Timestamp = &ts
	}
	return v
}

// autoFailRules is indexed by Code-1. Assigning it to a [NumCodes] array
// below makes a missing or extra rule a compile error.
var autoFailRules = [...]ViolationRule{
	{
		Code:        AF01,
		Name:        "Guaranteeing Approval",
		Description: "Agent promised approval or eligibility instead of stating the prospect may qualify",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers: []string{
			"you are approved", "you're approved", "you have been approved", "guaranteed approval",
			"you definitely qualify", "you will qualify", "you are guaranteed",
		},
		safeExceptions: []string{"you may qualify", "may be eligible", "might qualify", "subject to approval"},
	},
	{
		Code:        AF02,
		Name:        "Skipping Compliance",
		Description: "One or more critical compliance checklist items were not completed",
		Severity:    types.SeverityCritical,
		Method:      MethodChecklistCompletion,
	},
	{
		Code:        AF03,
		Name:        "Misrepresenting Affiliation",
		Description: "Agent implied they represent Medicare, Social Security or another government body",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers: []string{
			"calling from medicare", "calling from the government", "we are medicare", "we're medicare",
			"i work for medicare", "government agency", "from social security",
		},
		safeExceptions: []string{
			"not affiliated with", "not the government", "not a government agency", "not calling from medicare",
		},
	},
	{
		Code:        AF04,
		Name:        "Requesting Sensitive Information",
		Description: "Agent asked for SSN, bank or card details on a screening call",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers: []string{
			"social security number", "your ssn", "bank account number", "routing number",
			"credit card number", "debit card number",
		},
		safeExceptions: []string{
			"never ask for your", "do not need your social security", "don't need your social security", "won't ask for",
		},
	},
	{
		Code:        AF05,
		Name:        "Unprofessional Conduct",
		Description: "Agent used insulting or dismissive language toward the prospect",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers:    []string{"shut up", "stupid", "idiot", "dumb", "whatever lady", "hang up on you"},
	},
	{
		Code:        AF06,
		Name:        "Unconfirmed Compliance",
		Description: "A compliance question requiring customer confirmation received no customer response",
		// downgraded from critical: verification may already have happened upstream
		Severity: types.SeverityWarning,
		Method:   MethodCustomerResponse,
	},
	{
		Code:        AF07,
		Name:        "Wrong Disposition",
		Description: "Call disposition does not match the conversation outcome",
		Severity:    types.SeverityCritical,
		Method:      MethodDisposition,
	},
	{
		Code:        AF08,
		Name:        "No-Response Transfer",
		Description: "Agent continued or transferred a call where the prospect never responded",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers: []string{
			"are you still there", "can you hear me", "hello? hello", "transfer you anyway",
		},
		safeExceptions: []string{"i can hear you", "i'm here", "i am here", "still here"},
	},
	{
		Code:        AF09,
		Name:        "Pressure Tactics",
		Description: "Agent used urgency or scarcity to pressure the prospect",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers: []string{
			"offer expires today", "only available today", "act now", "last chance", "limited time offer",
		},
	},
	{
		Code:        AF10,
		Name:        "Transferring DQ Prospects",
		Description: "Prospect disclosed a disqualifier but the agent proceeded to transfer",
		Severity:    types.SeverityCritical,
		Method:      MethodCampaignDisqualifier,
	},
	{
		Code:        AF11,
		Name:        "Cash or Gift Promises",
		Description: "Agent offered cash, gift cards or money as an inducement",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers:    []string{"free money", "cash back", "gift card", "check in the mail", "free cash", "cash card"},
		safeExceptions: []string{"no cash", "not cash"},
	},
	{
		Code:        AF12,
		Name:        "Ignoring Do-Not-Call Request",
		Description: "Prospect asked not to be called and the request was not acknowledged",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers: []string{
			"take me off your list", "stop calling me", "do not call me", "don't call me",
			"remove me from your list", "put me on your do not call",
		},
		safeExceptions: []string{
			"i'll remove you", "i will remove you", "we will remove you", "removing you from our list", "i'll take you off",
		},
	},
	{
		Code:        AF13,
		Name:        "Misleading Cost Claims",
		Description: "Agent described coverage as free or zero cost without qualification",
		Severity:    types.SeverityWarning,
		Method:      MethodPattern,
		triggers: []string{
			"no cost to you", "zero premium", "$0 premium", "free insurance", "free health insurance",
			"won't cost you anything",
		},
		safeExceptions: []string{"depending on", "may vary", "based on your income"},
	},
	{
		Code:        AF14,
		Name:        "Advising Plan Cancellation",
		Description: "Agent told the prospect to cancel or drop existing coverage",
		Severity:    types.SeverityCritical,
		Method:      MethodPattern,
		triggers: []string{
			"cancel your current plan", "drop your current plan", "cancel your coverage",
			"you should cancel", "drop your coverage",
		},
		safeExceptions: []string{"do not cancel", "don't cancel", "until your new plan"},
	},
}

var _ [NumCodes]ViolationRule = autoFailRules

// Rule returns the rule for c. It panics on a code outside AF-01..AF-14.
func Rule(c Code) ViolationRule {
	if !c.Valid() {
		panic(fmt.Sprintf("rules: unknown auto-fail code %d", int(c)))
	}
	return autoFailRules[c-1]
}

// AutoFailRules returns every rule in code order.
func AutoFailRules() []ViolationRule {
	out := autoFailRules
	return out[:]
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// ParseCode maps "AF-01" (or "af01") back to its Code.
func ParseCode(s string) (Code, bool) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	n, err := strconv.Atoi(strings.TrimPrefix(s, "AF"))
	if err != nil || !strings.HasPrefix(s, "AF") {
		return 0, false
	}
	c := Code(n)
	return c, c.Valid()
}
