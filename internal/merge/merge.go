package merge

import (
	"math"
	"sort"
	"strings"

	"call-compliance-go/internal/types"
)

// Merge splits each channel around the other's interjections and returns the
// union of both channels ordered by start time (agent first on ties).
func Merge(agent, customer []types.Segment) []types.MergedTurn {
	a := withSpeaker(agent, types.SpeakerAgent)
	c := withSpeaker(customer, types.SpeakerCustomer)

	turns := append(SplitOverlaps(a, c), SplitOverlaps(c, a)...)
	sort.SliceStable(turns, func(i, j int) bool {
		if turns[i].Start != turns[j].Start {
			return turns[i].Start < turns[j].Start
		}
		return turns[i].Speaker == types.SpeakerAgent && turns[j].Speaker != types.SpeakerAgent
	})
	return turns
}

// SplitOverlaps returns the primary speaker's turns with every secondary
// segment that starts strictly inside a primary segment cut out of it.
// The primary text resumes after the secondary segment ends.
func SplitOverlaps(primary, secondary []types.Segment) []types.MergedTurn {
	var out []types.MergedTurn
	for _, seg := range primary {
		var overlaps []types.Segment
		for _, s := range secondary {
			if s.Start > seg.Start && s.Start < seg.End {
				overlaps = append(overlaps, s)
			}
		}
		if len(overlaps) == 0 {
			if strings.TrimSpace(seg.Text) != "" {
				out = append(out, types.MergedTurn{Segment: seg})
			}
			continue
		}
		sort.SliceStable(overlaps, func(i, j int) bool { return overlaps[i].Start < overlaps[j].Start })
		out = append(out, split(seg, overlaps)...)
	}
	return out
}

func split(seg types.Segment, overlaps []types.Segment) []types.MergedTurn {
	c := newCutter(seg)
	var out []types.MergedTurn

	currentStart := seg.Start
	for _, o := range overlaps {
		if currentStart >= seg.End {
			break
		}
		if o.Start > currentStart {
			words, text := c.take(currentStart, o.Start)
			if strings.TrimSpace(text) != "" {
				out = append(out, chunk(seg, currentStart, o.Start, text, words))
			}
		}
		c.resume(o.End)
		currentStart = math.Max(currentStart, o.End)
	}

	if currentStart < seg.End {
		words, text := c.rest()
		if strings.TrimSpace(text) != "" {
			out = append(out, chunk(seg, currentStart, seg.End, text, words))
		}
	}
	return out
}

func chunk(seg types.Segment, start, end float64, text string, words []types.Word) types.MergedTurn {
	return types.MergedTurn{
		Segment: types.Segment{
			Speaker: seg.Speaker,
			Start:   start,
			End:     end,
			Text:    text,
			Words:   words,
		},
		SplitFromOverlap: true,
	}
}

// cutter hands out consecutive runs of a segment's words.
type cutter struct {
	seg    types.Segment
	tokens []string
	timed  bool
	cursor int
}

func newCutter(seg types.Segment) *cutter {
	c := &cutter{seg: seg, timed: hasWordTimes(seg.Words)}
	if c.timed {
		for _, w := range seg.Words {
			c.tokens = append(c.tokens, w.Text)
		}
	} else {
		c.tokens = strings.Fields(seg.Text)
	}
	return c
}

// take returns the words spoken between from and splitPoint.
func (c *cutter) take(from, splitPoint float64) ([]types.Word, string) {
	end := c.cursor
	if c.timed {
		// last word finishing at or before the split point
		for i := c.cursor; i < len(c.seg.Words); i++ {
			if wordEnd(c.seg.Words[i]) <= splitPoint {
				end = i + 1
			}
		}
	} else {
		dur := c.seg.End - c.seg.Start
		if dur > 0 {
			n := int(math.Ceil(float64(len(c.tokens)) * (splitPoint - from) / dur))
			end = c.cursor + max(n, 0)
		}
	}
	end = min(end, len(c.tokens))
	return c.emit(end)
}

// resume skips the words spoken while the other speaker held the floor.
func (c *cutter) resume(at float64) {
	idx := c.cursor
	if c.timed {
		for idx < len(c.seg.Words) && wordStart(c.seg.Words[idx]) < at {
			idx++
		}
	} else {
		dur := c.seg.End - c.seg.Start
		if dur > 0 {
			idx = int(math.Ceil(float64(len(c.tokens)) * (at - c.seg.Start) / dur))
		}
	}
	c.cursor = min(max(c.cursor, idx), len(c.tokens))
}

func (c *cutter) rest() ([]types.Word, string) {
	return c.emit(len(c.tokens))
}

func (c *cutter) emit(end int) ([]types.Word, string) {
	if end <= c.cursor {
		return nil, ""
	}
	text := strings.Join(c.tokens[c.cursor:end], " ")
	var words []types.Word
	if c.timed {
		words = append(words, c.seg.Words[c.cursor:end]...)
	}
	c.cursor = end
	return words, text
}

func hasWordTimes(words []types.Word) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if w.Start == nil && w.End == nil {
			return false
		}
	}
	return true
}

func wordEnd(w types.Word) float64 {
	if w.End != nil {
		return *w.End
	}
	return *w.Start
}

func wordStart(w types.Word) float64 {
	if w.Start != nil {
		return *w.Start
	}
	return *w.End
}

func withSpeaker(segs []types.Segment, s types.Speaker) []types.Segment {
	out := make([]types.Segment, len(segs))
	copy(out, segs)
	for i := range out {
		out[i].Speaker = s
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
