package violations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-compliance-go/internal/rules"
	"call-compliance-go/internal/transcript"
	"call-compliance-go/internal/types"
)

func detect(t *testing.T, c rules.Campaign, opts Options, lines ...string) Findings {
	t.Helper()
	return Detect(transcript.Parse(strings.Join(lines, "\n")), rules.Template(c), opts)
}

func codes(vs []types.Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func TestDetect_GuaranteedApproval(t *testing.T) {
	f := detect(t, rules.CampaignACA, Options{},
		"[0:00] Agent: Good news, you are approved for this benefit.",
		"[0:04] Customer: great",
	)
	require.Len(t, f.AutoFails, 1)
	v := f.AutoFails[0]
	assert.Equal(t, "AF-01", v.Code)
	assert.Equal(t, "you are approved", v.Trigger)
	require.NotNil(t, v.Timestamp)
	assert.Equal(t, "0:00", *v.Timestamp)
	assert.Equal(t, types.SpeakerAgent, v.Speaker)
	assert.Equal(t, types.SeverityCritical, v.Severity)
	assert.True(t, f.Triggered())
}

func TestDetect_SafeExceptionSuppresses(t *testing.T) {
	f := detect(t, rules.CampaignACA, Options{},
		"[0:00] Agent: You may qualify for a subsidy.",
		"[0:30] Customer: ok",
		"[1:00] Agent: and then you are approved once the carrier signs off",
	)
	assert.Empty(t, f.AutoFails)
	assert.False(t, f.Triggered())
}

func TestDetect_SafeExceptionWindow(t *testing.T) {
	lines := []string{
		"[0:00] Agent: You may qualify for a subsidy.",
		"[0:10] Customer: ok",
		"[0:20] Customer: go on",
		"[0:30] Customer: sure",
		"[0:40] Agent: you are approved",
	}
	assert.Empty(t, detect(t, rules.CampaignACA, Options{}, lines...).AutoFails)

	f := detect(t, rules.CampaignACA, Options{SafeExceptionWindow: 2}, lines...)
	assert.Equal(t, []string{"AF-01"}, codes(f.AutoFails))
}

func TestDetect_MisleadingCostIsWarningOnly(t *testing.T) {
	f := detect(t, rules.CampaignACA, Options{},
		"[0:00] Agent: This is free health insurance for you.",
		"[0:04] Customer: really?",
	)
	assert.Empty(t, f.AutoFails)
	assert.Equal(t, []string{"AF-13"}, codes(f.Warnings))
	assert.False(t, f.Triggered())
}

func TestDetect_OneViolationPerCode(t *testing.T) {
	f := detect(t, rules.CampaignACA, Options{},
		"[0:00] Agent: act now, this is your last chance",
		"[0:04] Customer: no",
		"[0:08] Agent: act now",
	)
	require.Equal(t, []string{"AF-09"}, codes(f.AutoFails))
	assert.Equal(t, "act now", f.AutoFails[0].Trigger)
}

func TestDetect_NoResponseStructural(t *testing.T) {
	f := detect(t, rules.CampaignMedicare, Options{},
		"[0:00] Agent: hi there",
		"[0:05] Agent: hello",
		"[0:10] Agent: anyone?",
		"[0:15] Agent: ok I'll try later",
	)
	require.Equal(t, []string{"AF-08"}, codes(f.AutoFails))
	assert.Equal(t, "no customer response", f.AutoFails[0].Trigger)
	assert.Equal(t, "0:15", *f.AutoFails[0].Timestamp)

	short := detect(t, rules.CampaignMedicare, Options{},
		"[0:00] Agent: hi there",
		"[0:05] Agent: hello",
	)
	assert.Empty(t, short.AutoFails)
}

func TestDetect_NoResponseTrigger(t *testing.T) {
	f := detect(t, rules.CampaignACA, Options{},
		"[0:00] Agent: can you hear me?",
		"[0:05] Customer: ...",
	)
	require.Equal(t, []string{"AF-08"}, codes(f.AutoFails))
	assert.Equal(t, "can you hear me", f.AutoFails[0].Trigger)
}

func TestDetect_DisqualifiedTransfer(t *testing.T) {
	f := detect(t, rules.CampaignACA, Options{},
		"[0:00] Agent: Do you have Medicare or Medicaid?",
		"[0:04] Customer: Yes, I'm on Medicare.",
		"[0:08] Agent: Okay, let me transfer you.",
	)
	require.Equal(t, []string{"AF-10"}, codes(f.AutoFails))
	v := f.AutoFails[0]
	assert.Equal(t, "i'm on medicare", v.Trigger)
	assert.Equal(t, types.SpeakerCustomer, v.Speaker)
}

func TestDetect_DisqualifierWithoutTransfer(t *testing.T) {
	f := detect(t, rules.CampaignACA, Options{},
		"[0:00] Agent: Do you have Medicare or Medicaid?",
		"[0:04] Customer: I'm on Medicare.",
		"[0:08] Agent: Then I can't help you today, goodbye.",
	)
	assert.Empty(t, f.AutoFails)
}

func TestDetect_DisqualifierIsCampaignSpecific(t *testing.T) {
	lines := []string{
		"[0:00] Agent: Do you have Medicare?",
		"[0:04] Customer: I have medicare, yes.",
		"[0:08] Agent: Great, let me connect you.",
	}
	assert.Equal(t, []string{"AF-10"}, codes(detect(t, rules.CampaignACA, Options{}, lines...).AutoFails))
	assert.Empty(t, detect(t, rules.CampaignMedicare, Options{}, lines...).AutoFails)
}

func TestDetect_EmptyTranscript(t *testing.T) {
	f := Detect(transcript.Parse(""), rules.Template(rules.CampaignACA), Options{})
	assert.Empty(t, f.AutoFails)
	assert.Empty(t, f.Warnings)
	assert.NotNil(t, f.AutoFails)
}

func TestCheckedCodes(t *testing.T) {
	got := CheckedCodes()
	assert.Len(t, got, rules.NumCodes-1)
	assert.NotContains(t, got, "AF-07")
	assert.Equal(t, "AF-01", got[0])
	assert.Equal(t, "AF-14", got[len(got)-1])
}

func TestFindings_Add(t *testing.T) {
	f := NewFindings()
	f.Add(rules.Rule(rules.AF06).Violation("x", types.Evidence{}))
	assert.False(t, f.Triggered())
	f.Add(rules.Rule(rules.AF02).Violation("y", types.Evidence{}))
	assert.True(t, f.Triggered())
	assert.Len(t, f.Warnings, 1)
	assert.Len(t, f.AutoFails, 1)
}
