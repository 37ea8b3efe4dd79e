package richtext

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MarkdownTags configures the tag dialect used by the markdown codec.
type MarkdownTags struct {
	StyleStart      string `toml:"style_start" yaml:"style_start" json:"styleStart"`
	StyleEnd        string `toml:"style_end" yaml:"style_end" json:"styleEnd"`
	MentionStart    string `toml:"mention_start" yaml:"mention_start" json:"mentionStart"`
	MentionEnd      string `toml:"mention_end" yaml:"mention_end" json:"mentionEnd"`
	ChoiceStart     string `toml:"choice_start" yaml:"choice_start" json:"choiceStart"`
	ChoiceEnd       string `toml:"choice_end" yaml:"choice_end" json:"choiceEnd"`
	Separator       string `toml:"separator" yaml:"separator" json:"separator"`
	SelectedMarker  string `toml:"selected_marker" yaml:"selected_marker" json:"selectedMarker"`
	OptionSeparator string `toml:"option_separator" yaml:"option_separator" json:"optionSeparator"`
	DefaultStyle    string `toml:"default_style" yaml:"default_style" json:"defaultStyle"`
}

func DefaultMarkdownTags() MarkdownTags {
	return MarkdownTags{
		StyleStart:      "<<",
		StyleEnd:        ">>",
		MentionStart:    "@[",
		MentionEnd:      "@]",
		ChoiceStart:     "(¬(",
		ChoiceEnd:       ")¬)",
		Separator:       "::",
		SelectedMarker:  "**",
		OptionSeparator: "||",
		DefaultStyle:    "default",
	}
}

// WithDefaults fills every unset tag from DefaultMarkdownTags.
func (t MarkdownTags) WithDefaults() MarkdownTags {
	d := DefaultMarkdownTags()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&t.StyleStart, d.StyleStart)
	fill(&t.StyleEnd, d.StyleEnd)
	fill(&t.MentionStart, d.MentionStart)
	fill(&t.MentionEnd, d.MentionEnd)
	fill(&t.ChoiceStart, d.ChoiceStart)
	fill(&t.ChoiceEnd, d.ChoiceEnd)
	fill(&t.Separator, d.Separator)
	fill(&t.SelectedMarker, d.SelectedMarker)
	fill(&t.OptionSeparator, d.OptionSeparator)
	fill(&t.DefaultStyle, d.DefaultStyle)
	return t
}

var (
	ErrUnterminatedTag  = errors.New("richtext: markdown tag is not terminated")
	ErrMisorderedTag    = errors.New("richtext: markdown tags are out of order")
	ErrUnexpectedEndTag = errors.New("richtext: markdown end tag without start tag")
)

// Violation is one problem found while importing markdown. Line and Column
// are 0-based; Column counts characters.
type Violation struct {
	Line   int
	Column int
	Tag    string
	Err    error
}

func (v Violation) Error() string {
	return fmt.Sprintf("line %d col %d: %q: %v", v.Line+1, v.Column+1, v.Tag, v.Err)
}

func (v Violation) Unwrap() error {
	return v.Err
}

// MarkdownError aggregates every distinct violation of one import.
type MarkdownError struct {
	Violations []Violation
}

func (e *MarkdownError) Error() string {
	if len(e.Violations) == 1 {
		return "richtext: markdown: " + e.Violations[0].Error()
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("richtext: markdown: %d violations: %s", len(e.Violations), strings.Join(msgs, "; "))
}

func (e *MarkdownError) Unwrap() []error {
	out := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v
	}
	return out
}

func (e *MarkdownError) add(v Violation) {
	for _, have := range e.Violations {
		if have == v {
			return
		}
	}
	e.Violations = append(e.Violations, v)
}

// ExportMarkdown writes c in the tag dialect. Labels, payloads, locks of
// plain runs and alignment are not representable and are dropped.
func ExportMarkdown(c *Content, tags MarkdownTags) string {
	tags = tags.WithDefaults()
	lines := make([]string, len(c.Lines))
	for i := range c.Lines {
		var b strings.Builder
		for _, r := range c.Lines[i].Runs {
			writeMarkdownRun(&b, r, tags)
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

func writeMarkdownRun(b *strings.Builder, r TextRun, tags MarkdownTags) {
	style := r.Style
	if style == tags.DefaultStyle {
		style = ""
	}
	switch r.Kind {
	case KindMention:
		b.WriteString(tags.MentionStart)
		b.WriteString(markdownBody(style, r.Text, tags))
		b.WriteString(tags.MentionEnd)
	case KindChoice:
		opts := r.Options
		if len(opts) == 0 {
			opts = []string{r.Text}
		}
		parts := make([]string, len(opts))
		for i, o := range opts {
			if o == r.Text {
				o = tags.SelectedMarker + o
			}
			parts[i] = o
		}
		b.WriteString(tags.ChoiceStart)
		b.WriteString(markdownBody(style, strings.Join(parts, tags.OptionSeparator), tags))
		b.WriteString(tags.ChoiceEnd)
	default:
		if style == "" {
			b.WriteString(r.Text)
			return
		}
		b.WriteString(tags.StyleStart)
		b.WriteString(markdownBody(style, r.Text, tags))
		b.WriteString(tags.StyleEnd)
	}
}

func markdownBody(style, value string, tags MarkdownTags) string {
	if style != "" || strings.Contains(value, tags.Separator) {
		return style + tags.Separator + value
	}
	return value
}

type markdownConstruct struct {
	kind  RunKind
	start string
	end   string
}

// ImportMarkdown parses the tag dialect with the tags of props. On any
// violation it returns a *MarkdownError listing all of them and no content.
func ImportMarkdown(s string, props Props) (*Content, error) {
	tags := props.MarkdownTags.WithDefaults()
	constructs := []markdownConstruct{
		{kind: KindPlain, start: tags.StyleStart, end: tags.StyleEnd},
		{kind: KindMention, start: tags.MentionStart, end: tags.MentionEnd},
		{kind: KindChoice, start: tags.ChoiceStart, end: tags.ChoiceEnd},
	}
	merr := &MarkdownError{}
	c := &Content{Props: props}
	for i, raw := range splitLines(s) {
		runs := parseMarkdownLine(raw, i, tags, constructs, merr)
		c.Lines = append(c.Lines, Line{Runs: normalizeRuns(runs), Alignment: props.Alignment, DecimalPercent: props.DecimalPercent})
	}
	if len(merr.Violations) > 0 {
		return nil, merr
	}
	return c, nil
}

func parseMarkdownLine(s string, lineNo int, tags MarkdownTags, constructs []markdownConstruct, merr *MarkdownError) []TextRun {
	var runs []TextRun
	col := func(byteIdx int) int { return utf8.RuneCountInString(s[:byteIdx]) }
	pos := 0
	for pos < len(s) {
		idx, con := nextStartTag(s[pos:], constructs)
		if idx >= 0 {
			idx = lastAdjacent(s[pos:], idx, con.start)
		}
		verbatim := s[pos:]
		if idx >= 0 {
			verbatim = s[pos : pos+idx]
		}
		for _, cst := range constructs {
			if j := strings.Index(verbatim, cst.end); j >= 0 {
				merr.add(Violation{Line: lineNo, Column: col(pos + j), Tag: cst.end, Err: ErrUnexpectedEndTag})
			}
		}
		if verbatim != "" {
			runs = append(runs, TextRun{Text: Normalize(verbatim)})
		}
		if idx < 0 {
			break
		}

		tagAt := pos + idx
		bodyAt := tagAt + len(con.start)
		end := strings.Index(s[bodyAt:], con.end)
		if end < 0 {
			merr.add(Violation{Line: lineNo, Column: col(tagAt), Tag: con.start, Err: ErrUnterminatedTag})
			break
		}
		end = lastAdjacent(s[bodyAt:], end, con.end)
		body := s[bodyAt : bodyAt+end]
		if stray := strayTag(body, constructs); stray != "" {
			merr.add(Violation{Line: lineNo, Column: col(tagAt), Tag: stray, Err: ErrMisorderedTag})
		} else {
			runs = append(runs, markdownRun(con.kind, body, tags))
		}
		pos = bodyAt + end + len(con.end)
	}
	return runs
}

// nextStartTag finds the nearest start tag, preferring the longest on a tie.
func nextStartTag(s string, constructs []markdownConstruct) (int, markdownConstruct) {
	best := -1
	var found markdownConstruct
	for _, cst := range constructs {
		i := strings.Index(s, cst.start)
		if i < 0 {
			continue
		}
		if best < 0 || i < best || (i == best && len(cst.start) > len(found.start)) {
			best, found = i, cst
		}
	}
	return best, found
}

// lastAdjacent moves a match of tag at i forward while tag also starts
// inside or right after it, so "<<<" and ">>>" leave the extra character
// with the text instead of the tag.
func lastAdjacent(s string, i int, tag string) int {
	for moved := true; moved; {
		moved = false
		for k := 1; k <= len(tag) && i+k <= len(s); k++ {
			if strings.HasPrefix(s[i+k:], tag) {
				i += k
				moved = true
				break
			}
		}
	}
	return i
}

// strayTag returns the first tag found inside a segment body.
func strayTag(body string, constructs []markdownConstruct) string {
	for _, cst := range constructs {
		if strings.Contains(body, cst.start) {
			return cst.start
		}
		if strings.Contains(body, cst.end) {
			return cst.end
		}
	}
	return ""
}

func markdownRun(kind RunKind, body string, tags MarkdownTags) TextRun {
	style, value := "", body
	if i := strings.Index(body, tags.Separator); i >= 0 {
		style, value = body[:i], body[i+len(tags.Separator):]
	}
	if style == tags.DefaultStyle {
		style = ""
	}
	switch kind {
	case KindMention:
		return TextRun{Text: Normalize(value), Style: style, Kind: KindMention, Locked: true}
	case KindChoice:
		run := TextRun{Style: style, Kind: KindChoice, Locked: true}
		for _, opt := range strings.Split(value, tags.OptionSeparator) {
			if strings.HasPrefix(opt, tags.SelectedMarker) {
				opt = strings.TrimPrefix(opt, tags.SelectedMarker)
				run.Text = Normalize(opt)
			}
			run.Options = append(run.Options, Normalize(opt))
		}
		return run
	default:
		return TextRun{Text: Normalize(value), Style: style}
	}
}
