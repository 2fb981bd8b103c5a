package timeline

import (
	"fmt"
	"math"
	"sort"

	"call-compliance-go/internal/transcript"
	"call-compliance-go/internal/types"
)

const (
	markerEvery        = 5    // turns between checkpoint markers
	markerGapSeconds   = 2.0  // pause that earns a marker
	endMarkerSlack     = 10.0 // seconds after the last marker before an end marker is added
	dominanceThreshold = 60.0 // percent of call time
)

const (
	DominantAgent    = "agent"
	DominantCustomer = "customer"
	DominantBalanced = "balanced"
)

// Build assigns every second of the call to at most one speaker and derives
// talk-time metrics and playback markers. Agent claims win over customer
// claims for the same second.
func Build(turns []types.MergedTurn) types.Timeline {
	sorted := make([]types.MergedTurn, len(turns))
	copy(sorted, turns)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	maxEnd := 0.0
	for _, t := range sorted {
		maxEnd = math.Max(maxEnd, t.End)
	}
	dur := int(math.Ceil(maxEnd))

	assign := make([]types.Speaker, dur)
	for i := range assign {
		assign[i] = types.SpeakerSilence
	}
	claim(assign, sorted, types.SpeakerAgent)
	claim(assign, sorted, types.SpeakerCustomer)

	tl := types.Timeline{DurationSeconds: dur, Assignments: assign}
	for _, s := range assign {
		switch s {
		case types.SpeakerAgent:
			tl.AgentSeconds++
		case types.SpeakerCustomer:
			tl.CustomerSeconds++
		default:
			tl.SilenceSeconds++
		}
	}
	if dur > 0 {
		tl.AgentPct = pct(tl.AgentSeconds, dur)
		tl.CustomerPct = pct(tl.CustomerSeconds, dur)
		tl.SilencePct = pct(tl.SilenceSeconds, dur)
	}
	if tl.CustomerSeconds > 0 {
		r := math.Round(float64(tl.AgentSeconds)/float64(tl.CustomerSeconds)*100) / 100
		tl.TalkRatio = &r
	}
	switch {
	case tl.AgentPct > dominanceThreshold:
		tl.DominantSpeaker = DominantAgent
	case tl.CustomerPct > dominanceThreshold:
		tl.DominantSpeaker = DominantCustomer
	default:
		tl.DominantSpeaker = DominantBalanced
	}
	tl.Markers = markers(sorted, maxEnd)
	return tl
}

// TalkRatioLabel renders the agent/customer ratio, "N/A" when undefined.
func TalkRatioLabel(tl types.Timeline) string {
	if tl.TalkRatio == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *tl.TalkRatio)
}

func claim(assign []types.Speaker, turns []types.MergedTurn, who types.Speaker) {
	for _, t := range turns {
		if t.Speaker != who {
			continue
		}
		from := max(int(math.Floor(t.Start)), 0)
		to := min(int(math.Ceil(t.End)), len(assign))
		for s := from; s < to; s++ {
			if assign[s] == types.SpeakerSilence {
				assign[s] = who
			}
		}
	}
}

func markers(turns []types.MergedTurn, maxEnd float64) []types.Marker {
	out := []types.Marker{}
	for i, t := range turns {
		label := ""
		switch {
		case i == 0:
			label = "call start"
		case t.Speaker != turns[i-1].Speaker:
			label = "speaker change"
		case t.Start-turns[i-1].End > markerGapSeconds:
			label = "after pause"
		case i%markerEvery == 0:
			label = "checkpoint"
		}
		if label == "" {
			continue
		}
		// a pause ahead of a speaker change is still worth flagging
		if i > 0 && label == "speaker change" && t.Start-turns[i-1].End > markerGapSeconds {
			label = "speaker change after pause"
		}
		secs := max(int(math.Floor(t.Start)), 0)
		out = append(out, types.Marker{
			Seconds:   secs,
			Timestamp: transcript.FormatSeconds(secs),
			Speaker:   t.Speaker,
			Label:     label,
			Snippet:   transcript.Snippet(t.Text),
		})
	}
	if len(out) > 0 && maxEnd-float64(out[len(out)-1].Seconds) > endMarkerSlack {
		end := int(math.Floor(maxEnd))
		out = append(out, types.Marker{
			Seconds:   end,
			Timestamp: transcript.FormatSeconds(end),
			Label:     "end of call",
		})
	}
	return out
}

func pct(n, total int) float64 {
	return math.Round(float64(n)/float64(total)*1000) / 10
}
