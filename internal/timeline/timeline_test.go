package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-compliance-go/internal/merge"
	"call-compliance-go/internal/types"
)

func turn(s types.Speaker, start, end float64, text string) types.MergedTurn {
	return types.MergedTurn{Segment: types.Segment{Speaker: s, Start: start, End: end, Text: text}}
}

func TestBuild_OverlapExampleIsExclusive(t *testing.T) {
	turns := merge.Merge(
		[]types.Segment{{Start: 0, End: 10, Text: "hello there my friend"}},
		[]types.Segment{{Start: 5, End: 7, Text: "sure"}},
	)
	tl := Build(turns)

	require.Len(t, tl.Assignments, 10)
	for s := 0; s < 5; s++ {
		assert.Equal(t, types.SpeakerAgent, tl.Assignments[s], "second %d", s)
	}
	assert.Equal(t, types.SpeakerCustomer, tl.Assignments[5])
	assert.Equal(t, types.SpeakerCustomer, tl.Assignments[6])
	for s := 7; s < 10; s++ {
		assert.Equal(t, types.SpeakerAgent, tl.Assignments[s], "second %d", s)
	}
	assert.Equal(t, 8, tl.AgentSeconds)
	assert.Equal(t, 2, tl.CustomerSeconds)
	assert.Equal(t, 0, tl.SilenceSeconds)
	assert.Equal(t, 80.0, tl.AgentPct)
	require.NotNil(t, tl.TalkRatio)
	assert.Equal(t, 4.0, *tl.TalkRatio)
	assert.Equal(t, DominantAgent, tl.DominantSpeaker)
}

func TestBuild_AgentWinsContestedSeconds(t *testing.T) {
	tl := Build([]types.MergedTurn{
		turn(types.SpeakerCustomer, 0, 4, "talking over"),
		turn(types.SpeakerAgent, 2, 6, "me too"),
	})
	assert.Equal(t, []types.Speaker{
		types.SpeakerCustomer, types.SpeakerCustomer,
		types.SpeakerAgent, types.SpeakerAgent, types.SpeakerAgent, types.SpeakerAgent,
	}, tl.Assignments)
	assert.Equal(t, DominantAgent, tl.DominantSpeaker)
}

func TestBuild_NoCustomerMeansNoRatio(t *testing.T) {
	tl := Build([]types.MergedTurn{
		turn(types.SpeakerAgent, 0, 2, "hello"),
		turn(types.SpeakerAgent, 5, 6, "hello?"),
	})
	assert.Nil(t, tl.TalkRatio)
	assert.Equal(t, "N/A", TalkRatioLabel(tl))
	assert.Equal(t, 3, tl.SilenceSeconds)
	assert.Equal(t, 50.0, tl.AgentPct)
	assert.Equal(t, DominantBalanced, tl.DominantSpeaker)
}

func TestBuild_Markers(t *testing.T) {
	tl := Build([]types.MergedTurn{
		turn(types.SpeakerAgent, 0, 2, "one"),
		turn(types.SpeakerAgent, 2, 3, "two"),
		turn(types.SpeakerCustomer, 3, 4, "three"),
		turn(types.SpeakerCustomer, 8, 9, "four"),
		turn(types.SpeakerCustomer, 9, 10, "five"),
		turn(types.SpeakerCustomer, 10, 11, "six"),
		turn(types.SpeakerCustomer, 11, 40, "seven"),
	})

	labels := make([]string, 0, len(tl.Markers))
	for _, m := range tl.Markers {
		labels = append(labels, m.Timestamp+" "+m.Label)
	}
	assert.Equal(t, []string{
		"0:00 call start",
		"0:03 speaker change",
		"0:08 after pause",
		"0:10 checkpoint",
		"0:40 end of call",
	}, labels)
}

func TestBuild_Empty(t *testing.T) {
	tl := Build(nil)
	assert.Zero(t, tl.DurationSeconds)
	assert.Empty(t, tl.Markers)
	assert.Equal(t, DominantBalanced, tl.DominantSpeaker)
}

func TestBuild_ExclusivityInvariant(t *testing.T) {
	turns := merge.Merge(
		[]types.Segment{{Start: 0, End: 12.5, Text: "a b c d e f"}, {Start: 14, End: 20, Text: "g h"}},
		[]types.Segment{{Start: 3.2, End: 8.7, Text: "x y z"}, {Start: 11, End: 16, Text: "w"}},
	)
	tl := Build(turns)
	total := tl.AgentSeconds + tl.CustomerSeconds + tl.SilenceSeconds
	assert.Equal(t, tl.DurationSeconds, total)
	for _, s := range tl.Assignments {
		assert.Contains(t, []types.Speaker{types.SpeakerAgent, types.SpeakerCustomer, types.SpeakerSilence}, s)
	}
}
