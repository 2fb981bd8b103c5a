package transcript

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"call-compliance-go/internal/types"
)

// SnippetLimit caps evidence snippets, in characters.
const SnippetLimit = 100

var lineRe = regexp.MustCompile(`^\[([^\]]*)\]\s*([^:]+?)\s*:\s*(.*)$`)

// Transcript is the parsed, indexed form of a call used by every matcher.
// It is built once per evaluation and never mutated afterwards.
type Transcript struct {
	Lines   []types.TranscriptLine
	Dropped int

	text       string
	lower      string
	lowerLines []string
	offsets    []int // byte offset of each line within text
}

// Parse reads canonical "[m:ss] Speaker: text" lines in file order.
// Lines that do not match the format are skipped and counted in Dropped.
func Parse(raw string) *Transcript {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	t := &Transcript{text: raw, lower: strings.ToLower(raw)}
	offset := 0
	for _, l := range strings.Split(raw, "\n") {
		start := offset
		offset += len(l) + 1
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		m := lineRe.FindStringSubmatch(l)
		if m == nil {
			t.Dropped++
			continue
		}
		t.offsets = append(t.offsets, start)
		secs := ParseTimeToSeconds(m[1])
		t.Lines = append(t.Lines, types.TranscriptLine{
			Timestamp: FormatSeconds(secs),
			Speaker:   normalizeSpeaker(m[2]),
			Text:      strings.TrimSpace(m[3]),
			Seconds:   secs,
		})
	}
	t.index()
	return t
}

// FromTurns renders merged turns into canonical lines and indexes them.
func FromTurns(turns []types.MergedTurn) *Transcript {
	lines := Lines(turns)
	raw := Render(lines)
	t := &Transcript{Lines: lines, text: raw, lower: strings.ToLower(raw)}
	offset := 0
	for _, l := range strings.Split(raw, "\n") {
		t.offsets = append(t.offsets, offset)
		offset += len(l) + 1
	}
	if len(lines) == 0 {
		t.offsets = nil
	}
	t.index()
	return t
}

// Lines converts merged turns into transcript lines, one per turn.
func Lines(turns []types.MergedTurn) []types.TranscriptLine {
	out := make([]types.TranscriptLine, 0, len(turns))
	for _, turn := range turns {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		secs := int(math.Floor(turn.Start))
		if secs < 0 {
			secs = 0
		}
		out = append(out, types.TranscriptLine{
			Timestamp: FormatSeconds(secs),
			Speaker:   turn.Speaker,
			Text:      text,
			Seconds:   secs,
		})
	}
	return out
}

// Render produces the canonical text form of lines.
func Render(lines []types.TranscriptLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s: %s", l.Timestamp, l.Speaker.Label(), l.Text)
	}
	return b.String()
}

func (t *Transcript) index() {
	t.lowerLines = make([]string, len(t.Lines))
	for i, l := range t.Lines {
		t.lowerLines[i] = strings.ToLower(l.Text)
	}
}

// ParseTimeToSeconds converts "m:ss" (or "h:mm:ss") to seconds.
// Any non-numeric component counts as 0, so malformed input never fails.
func ParseTimeToSeconds(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	total := 0
	for _, p := range strings.Split(s, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			n = 0
		}
		total = total*60 + n
	}
	if total < 0 {
		return 0
	}
	return total
}

// FormatSeconds renders seconds as "m:ss".
func FormatSeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

// Snippet truncates text to SnippetLimit characters, adding an ellipsis.
func Snippet(text string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) <= SnippetLimit {
		return string(r)
	}
	return string(r[:SnippetLimit]) + "..."
}

func normalizeSpeaker(label string) types.Speaker {
	l := strings.ToLower(strings.TrimSpace(label))
	switch l {
	case "agent", "rep", "representative", "advisor", "speaker 1", "speaker_0":
		return types.SpeakerAgent
	case "customer", "client", "caller", "prospect", "speaker 2", "speaker_1":
		return types.SpeakerCustomer
	}
	return types.Speaker(l)
}

func (t *Transcript) Text() string { return t.text }

// Empty reports whether there is nothing to evaluate. Text with no parseable
// line counts as empty: it carries no timestamped evidence.
func (t *Transcript) Empty() bool {
	return len(t.Lines) == 0
}

// Contains is a case-insensitive substring search over the whole transcript.
func (t *Transcript) Contains(sub string) bool {
	return t.Index(sub) >= 0
}

// Index returns the byte offset of the first case-insensitive match, or -1.
func (t *Transcript) Index(sub string) int {
	if sub == "" {
		return -1
	}
	return strings.Index(t.lower, strings.ToLower(sub))
}

// LineAt maps a byte offset from Index to the line containing it, or -1.
func (t *Transcript) LineAt(offset int) int {
	if offset < 0 || len(t.offsets) == 0 {
		return -1
	}
	i := sort.Search(len(t.offsets), func(i int) bool { return t.offsets[i] > offset })
	return i - 1
}

// FindLine returns the first line whose text contains sub, or -1.
func (t *Transcript) FindLine(sub string) int {
	return t.FindLineFrom(sub, 0)
}

// FindLineFrom is FindLine starting at line index from.
func (t *Transcript) FindLineFrom(sub string, from int) int {
	if sub == "" {
		return -1
	}
	needle := strings.ToLower(sub)
	for i := max(from, 0); i < len(t.lowerLines); i++ {
		if strings.Contains(t.lowerLines[i], needle) {
			return i
		}
	}
	return -1
}

// LineContains reports whether line i contains sub, case-insensitively.
func (t *Transcript) LineContains(i int, sub string) bool {
	if i < 0 || i >= len(t.lowerLines) || sub == "" {
		return false
	}
	return strings.Contains(t.lowerLines[i], strings.ToLower(sub))
}

// LowerLine returns the lower-cased text of line i.
func (t *Transcript) LowerLine(i int) string {
	if i < 0 || i >= len(t.lowerLines) {
		return ""
	}
	return t.lowerLines[i]
}

// ContainsNear looks for sub within window lines on either side of line.
// A window of 0 or an unknown line searches the whole transcript.
func (t *Transcript) ContainsNear(sub string, line, window int) bool {
	if window <= 0 || line < 0 || line >= len(t.Lines) {
		return t.Contains(sub)
	}
	lo, hi := max(line-window, 0), min(line+window, len(t.Lines)-1)
	for i := lo; i <= hi; i++ {
		if t.LineContains(i, sub) {
			return true
		}
	}
	return false
}

// AnyNear reports whether any of subs appears near line (see ContainsNear).
func (t *Transcript) AnyNear(subs []string, line, window int) bool {
	for _, s := range subs {
		if t.ContainsNear(s, line, window) {
			return true
		}
	}
	return false
}

// SpeakerLines returns the indexes of lines spoken by s, in order.
func (t *Transcript) SpeakerLines(s types.Speaker) []int {
	var out []int
	for i, l := range t.Lines {
		if l.Speaker == s {
			out = append(out, i)
		}
	}
	return out
}

func (t *Transcript) AgentLines() []int    { return t.SpeakerLines(types.SpeakerAgent) }
func (t *Transcript) CustomerLines() []int { return t.SpeakerLines(types.SpeakerCustomer) }

// Evidence builds located evidence for line i.
func (t *Transcript) Evidence(i int) types.Evidence {
	if i < 0 || i >= len(t.Lines) {
		return types.Evidence{}
	}
	l := t.Lines[i]
	return types.Evidence{
		Found:     true,
		Timestamp: l.Timestamp,
		Speaker:   l.Speaker,
		Snippet:   Snippet(l.Text),
	}
}
