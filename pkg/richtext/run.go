package richtext

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

type RunKind uint8

const (
	KindPlain RunKind = iota
	KindMention
	KindChoice
)

// MentionSigil marks the first character of a mention token.
const MentionSigil = "@"

var (
	ErrLockedRun  = errors.New("richtext: position is inside a locked run")
	ErrOutOfRange = errors.New("richtext: position out of range")
)

func (k RunKind) String() string {
	switch k {
	case KindMention:
		return "mention"
	case KindChoice:
		return "choice"
	default:
		return "text"
	}
}

func parseRunKind(s string) RunKind {
	switch s {
	case "mention":
		return KindMention
	case "choice":
		return KindChoice
	default:
		return KindPlain
	}
}

// TextRun is a span of text sharing one style and kind. Mention and choice
// runs, and any locked run, are atomic: the cursor never rests inside them.
type TextRun struct {
	Text    string
	Style   string
	Kind    RunKind
	Locked  bool
	Label   string
	Payload map[string]string
	Options []string
}

func NewTextRun(text, style string) TextRun {
	text = Normalize(text)
	run := TextRun{Text: text, Style: style}
	if isMentionToken(text) {
		run.Kind = KindMention
		run.Locked = true
	}
	return run
}

func NewMention(text, style string) TextRun {
	return TextRun{Text: Normalize(text), Style: style, Kind: KindMention, Locked: true}
}

// NewChoice builds a choice run showing options[selected].
func NewChoice(options []string, selected int, style string) TextRun {
	opts := make([]string, 0, len(options))
	for _, o := range options {
		opts = append(opts, Normalize(o))
	}
	run := TextRun{Style: style, Kind: KindChoice, Locked: true, Options: opts}
	if selected >= 0 && selected < len(opts) {
		run.Text = opts[selected]
	}
	return run
}

func (r TextRun) Len() int {
	return utf8.RuneCountInString(r.Text)
}

func (r TextRun) Atomic() bool {
	return r.Locked || r.Kind != KindPlain
}

// Selected returns the index of the chosen option of a choice run, or -1.
func (r TextRun) Selected() int {
	return slices.Index(r.Options, r.Text)
}

func (r TextRun) Clone() TextRun {
	out := r
	if r.Payload != nil {
		out.Payload = maps.Clone(r.Payload)
	}
	if r.Options != nil {
		out.Options = slices.Clone(r.Options)
	}
	return out
}

func (r TextRun) Equal(o TextRun) bool {
	return r.Text == o.Text && r.sameAttrs(o) && slices.Equal(r.Options, o.Options)
}

// sameAttrs reports whether r and o differ only in text.
func (r TextRun) sameAttrs(o TextRun) bool {
	return r.Style == o.Style &&
		r.Kind == o.Kind &&
		r.Locked == o.Locked &&
		r.Label == o.Label &&
		maps.Equal(r.Payload, o.Payload)
}

func (r TextRun) mergeable(o TextRun) bool {
	return !r.Atomic() && !o.Atomic() && r.sameAttrs(o)
}

func (r TextRun) withText(text string) TextRun {
	out := r.Clone()
	out.Text = text
	return out
}

// SplitRun splits run at a rune offset. Splitting an atomic run anywhere but
// its edges fails with ErrLockedRun.
func SplitRun(run TextRun, offset int) (TextRun, TextRun, error) {
	n := run.Len()
	if offset < 0 || offset > n {
		return TextRun{}, TextRun{}, ErrOutOfRange
	}
	if run.Atomic() && offset > 0 && offset < n {
		return TextRun{}, TextRun{}, ErrLockedRun
	}
	b := byteOffset(run.Text, offset)
	return run.withText(run.Text[:b]), run.withText(run.Text[b:]), nil
}

// RunsFromText converts raw text without line breaks into runs. Every
// whitespace-delimited token starting with the mention sigil becomes a locked
// mention run.
func RunsFromText(text, style string) []TextRun {
	text = Normalize(text)
	var out []TextRun
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			out = append(out, TextRun{Text: plain.String(), Style: style})
			plain.Reset()
		}
	}
	rest := text
	for rest != "" {
		if strings.HasPrefix(rest, " ") {
			plain.WriteByte(' ')
			rest = rest[1:]
			continue
		}
		end := strings.IndexByte(rest, ' ')
		if end < 0 {
			end = len(rest)
		}
		tok := rest[:end]
		if isMentionToken(tok) {
			flush()
			out = append(out, TextRun{Text: tok, Style: style, Kind: KindMention, Locked: true})
		} else {
			plain.WriteString(tok)
		}
		rest = rest[end:]
	}
	flush()
	if len(out) == 0 {
		out = append(out, TextRun{Style: style})
	}
	return out
}

func isMentionToken(s string) bool {
	return len(s) > len(MentionSigil) && strings.HasPrefix(s, MentionSigil) && !strings.ContainsRune(s, ' ')
}

func runsText(runs []TextRun) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func runsLen(runs []TextRun) int {
	n := 0
	for _, r := range runs {
		n += r.Len()
	}
	return n
}

func cloneRuns(runs []TextRun) []TextRun {
	out := make([]TextRun, len(runs))
	for i, r := range runs {
		out[i] = r.Clone()
	}
	return out
}

// byteOffset converts a rune offset into a byte offset of s, clamped.
func byteOffset(s string, runeOff int) int {
	if runeOff <= 0 {
		return 0
	}
	i := 0
	for b := range s {
		if i == runeOff {
			return b
		}
		i++
	}
	return len(s)
}
