package richtext

import (
	"maps"
	"strings"
	"unicode/utf8"
)

// Style is the presentation of a style tag, e.g. {"color": "#c00"}.
type Style map[string]string

// Props are the document-wide settings of a Content.
type Props struct {
	Alignment         Alignment
	DecimalPercent    int
	Styles            map[string]Style
	MarkdownTags      MarkdownTags
	AllowMultiLine    bool
	AllowMarkdownMode bool
	ShowMarkdownMode  bool
}

func DefaultProps() Props {
	return Props{
		Alignment:         AlignStart,
		DecimalPercent:    50,
		Styles:            map[string]Style{},
		MarkdownTags:      DefaultMarkdownTags(),
		AllowMultiLine:    true,
		AllowMarkdownMode: true,
	}
}

func (p Props) Clone() Props {
	out := p
	out.Styles = make(map[string]Style, len(p.Styles))
	for k, v := range p.Styles {
		out.Styles[k] = maps.Clone(v)
	}
	return out
}

func (p Props) Equal(o Props) bool {
	return p.Alignment == o.Alignment &&
		p.DecimalPercent == o.DecimalPercent &&
		p.MarkdownTags == o.MarkdownTags &&
		p.AllowMultiLine == o.AllowMultiLine &&
		p.AllowMarkdownMode == o.AllowMarkdownMode &&
		p.ShowMarkdownMode == o.ShowMarkdownMode &&
		maps.EqualFunc(p.Styles, o.Styles, func(a, b Style) bool { return maps.Equal(a, b) })
}

// Content is a whole document: lines, settings and the current selection.
type Content struct {
	Lines     []Line
	Props     Props
	Selection Selection
}

func New(props Props) *Content {
	c := &Content{Props: props}
	c.Lines = []Line{c.newLine()}
	return c
}

// FromText builds a Content from plain text, one line per line break.
func FromText(text string, props Props) *Content {
	c := &Content{Props: props}
	for _, raw := range splitLines(text) {
		line := LineFromText(raw)
		line.Alignment = props.Alignment
		line.DecimalPercent = props.DecimalPercent
		c.Lines = append(c.Lines, line)
	}
	return c
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func (c *Content) newLine() Line {
	return Line{Runs: []TextRun{{}}, Alignment: c.Props.Alignment, DecimalPercent: c.Props.DecimalPercent}
}

func (c *Content) Text() string {
	parts := make([]string, len(c.Lines))
	for i := range c.Lines {
		parts[i] = c.Lines[i].Text()
	}
	return strings.Join(parts, "\n")
}

func (c *Content) Clone() *Content {
	out := &Content{Props: c.Props.Clone(), Selection: c.Selection, Lines: make([]Line, len(c.Lines))}
	for i := range c.Lines {
		out.Lines[i] = c.Lines[i].Clone()
	}
	return out
}

// Equal compares lines and props; the selection is not part of the value.
func (c *Content) Equal(o *Content) bool {
	if c == nil || o == nil {
		return c == o
	}
	if len(c.Lines) != len(o.Lines) || !c.Props.Equal(o.Props) {
		return false
	}
	for i := range c.Lines {
		if !c.Lines[i].Equal(&o.Lines[i]) {
			return false
		}
	}
	return true
}

func (c *Content) Geometry() Geometry {
	return GeometryOf(c.Lines)
}

func (c *Content) validPos(p Position) bool {
	return p.Line >= 0 && p.Line < len(c.Lines) && p.Char >= 0 && p.Char <= c.Lines[p.Line].Len()
}

func (c *Content) valid(sel Selection) bool {
	return c.validPos(sel.Anchor()) && c.validPos(sel.Focus())
}

// widen returns the ordered bounds of sel grown to atomic run edges.
func (c *Content) widen(sel Selection) (Position, Position) {
	start, end := sel.Start(), sel.End()
	if start.Line == end.Line {
		start.Char, end.Char = widenToAtoms(c.Lines[start.Line].Runs, start.Char, end.Char)
		return start, end
	}
	start.Char, _ = widenToAtoms(c.Lines[start.Line].Runs, start.Char, start.Char)
	_, end.Char = widenToAtoms(c.Lines[end.Line].Runs, end.Char, end.Char)
	return start, end
}

// MergeLines appends line index+1 to line index.
func (c *Content) MergeLines(index int) {
	if index < 0 || index+1 >= len(c.Lines) {
		return
	}
	joint := c.Lines[index].Len()
	merged := append(cloneRuns(c.Lines[index].Runs), cloneRuns(c.Lines[index+1].Runs)...)
	c.Lines[index].Runs = normalizeRuns(merged)
	c.Lines = append(c.Lines[:index+1], c.Lines[index+2:]...)

	shift := func(p Position) Position {
		switch {
		case p.Line == index+1:
			return Position{Line: index, Char: joint + p.Char}
		case p.Line > index+1:
			return Position{Line: p.Line - 1, Char: p.Char}
		}
		return p
	}
	c.Selection = Range(shift(c.Selection.Anchor()), shift(c.Selection.Focus()))
	c.CheckStatus()
}

// SplitLine breaks the line at sel, removing a selected range first.
func (c *Content) SplitLine(sel Selection) {
	if !c.valid(sel) {
		return
	}
	at, _ := c.widen(sel)
	if !sel.Collapsed() {
		c.Splice(sel, nil)
	} else {
		_, end := c.widen(sel)
		at = end
	}
	next, err := c.Lines[at.Line].SplitLine(at.Char)
	if err != nil || next == nil {
		return
	}
	c.Lines = append(c.Lines, Line{})
	copy(c.Lines[at.Line+2:], c.Lines[at.Line+1:])
	c.Lines[at.Line+1] = *next
	c.Selection = Caret(at.Line+1, 0)
}

// DeleteCharacter deletes before (backspace) or after the caret, joining
// lines at line edges. A character of an atomic run takes the whole run. A
// range is removed like RemoveSection.
func (c *Content) DeleteCharacter(isBackspace bool, sel Selection) []Line {
	if !c.valid(sel) {
		return nil
	}
	if !sel.Collapsed() {
		return c.Splice(sel, nil)
	}
	p := sel.Focus()
	line := &c.Lines[p.Line]
	var target Selection
	switch {
	case isBackspace && p.Char > 0:
		target = Range(Position{p.Line, p.Char - 1}, p)
	case isBackspace && p.Line > 0:
		target = Range(Position{p.Line - 1, c.Lines[p.Line-1].Len()}, p)
	case !isBackspace && p.Char < line.Len():
		target = Range(p, Position{p.Line, p.Char + 1})
	case !isBackspace && p.Line < len(c.Lines)-1:
		target = Range(p, Position{p.Line + 1, 0})
	default:
		return nil
	}
	start, end := target.Start(), target.End()
	if start.Line == end.Line {
		removed, _ := line.SubRuns(start.Char, end.Char)
		if err := line.DeleteCharacterAt(start.Char); err == nil {
			c.Selection = Caret(start.Line, start.Char)
			return []Line{{Runs: normalizeRuns(removed), Alignment: line.Alignment, DecimalPercent: line.DecimalPercent}}
		}
	}
	return c.Splice(target, nil)
}

// RemoveSection cuts the range out and returns it as standalone lines.
func (c *Content) RemoveSection(sel Selection) []Line {
	return c.Splice(sel, nil)
}

// Splice removes the range of sel and inserts incoming at its start. It
// returns the removed lines. Out-of-range selections change nothing.
func (c *Content) Splice(sel Selection, incoming []Line) []Line {
	if !c.valid(sel) {
		return nil
	}
	start, end := c.widen(sel)
	var removed []Line
	if start != end {
		removed = c.cut(start, end)
	}
	caret := start
	if len(incoming) > 0 {
		caret = c.insertLines(start, incoming)
	}
	c.Selection = Caret(caret.Line, caret.Char)
	return removed
}

func (c *Content) cut(start, end Position) []Line {
	first := &c.Lines[start.Line]
	if start.Line == end.Line {
		mid, err := first.removeRange(start.Char, end.Char)
		if err != nil {
			return nil
		}
		return []Line{{Runs: normalizeRuns(mid), Alignment: first.Alignment, DecimalPercent: first.DecimalPercent}}
	}
	last := &c.Lines[end.Line]
	head, firstTail, err := splitRunsAt(first.Runs, start.Char)
	if err != nil {
		return nil
	}
	lastHead, tail, err := splitRunsAt(last.Runs, end.Char)
	if err != nil {
		return nil
	}
	removed := make([]Line, 0, end.Line-start.Line+1)
	removed = append(removed, Line{Runs: normalizeRuns(firstTail), Alignment: first.Alignment, DecimalPercent: first.DecimalPercent})
	for i := start.Line + 1; i < end.Line; i++ {
		removed = append(removed, c.Lines[i].Clone())
	}
	removed = append(removed, Line{Runs: normalizeRuns(lastHead), Alignment: last.Alignment, DecimalPercent: last.DecimalPercent})

	first.Runs = normalizeRuns(append(head, tail...))
	c.Lines = append(c.Lines[:start.Line+1], c.Lines[end.Line+1:]...)
	return removed
}

// insertLines splices lines in at p and returns the caret after them.
func (c *Content) insertLines(p Position, incoming []Line) Position {
	line := &c.Lines[p.Line]
	left, right, err := splitRunsAt(line.Runs, p.Char)
	if err != nil {
		return p
	}
	if len(incoming) == 1 {
		runs := append(append(left, cloneRuns(incoming[0].Runs)...), right...)
		line.Runs = normalizeRuns(runs)
		return Position{Line: p.Line, Char: p.Char + runsLen(incoming[0].Runs)}
	}
	line.Runs = normalizeRuns(append(left, cloneRuns(incoming[0].Runs)...))
	n := len(incoming)
	added := make([]Line, 0, n-1)
	for i := 1; i < n-1; i++ {
		added = append(added, incoming[i].Clone())
	}
	// The host line's trailing text keeps the host alignment.
	lastIn := incoming[n-1]
	last := Line{
		Runs:           normalizeRuns(append(cloneRuns(lastIn.Runs), right...)),
		Alignment:      lastIn.Alignment,
		DecimalPercent: lastIn.DecimalPercent,
	}
	if runsLen(right) > 0 {
		last.Alignment, last.DecimalPercent = line.Alignment, line.DecimalPercent
	}
	added = append(added, last)
	tailLines := append([]Line(nil), c.Lines[p.Line+1:]...)
	c.Lines = append(append(c.Lines[:p.Line+1], added...), tailLines...)
	return Position{Line: p.Line + n - 1, Char: runsLen(lastIn.Runs)}
}

// InsertText types text at sel. Typed text takes the style of the plain run
// left of the caret and is never promoted to a mention.
func (c *Content) InsertText(sel Selection, text string) {
	if !c.valid(sel) || text == "" {
		return
	}
	start, _ := c.widen(sel)
	style := c.typingStyle(start)
	parts := splitLines(text)
	lines := make([]Line, len(parts))
	for i, part := range parts {
		lines[i] = Line{Runs: []TextRun{{Text: Normalize(part), Style: style}}, Alignment: c.Lines[start.Line].Alignment, DecimalPercent: c.Lines[start.Line].DecimalPercent}
	}
	c.Splice(sel, lines)
}

func (c *Content) typingStyle(p Position) string {
	line := &c.Lines[p.Line]
	idx := line.runIndexAt(max(p.Char-1, 0))
	if p.Char == 0 {
		idx = 0
	}
	if idx < 0 || line.Runs[idx].Atomic() {
		return ""
	}
	return line.Runs[idx].Style
}

func (c *Content) ApplyStyle(tag string, sel Selection) {
	c.eachLineSpan(sel, func(l *Line, a, b int) { l.ApplyStyle(tag, a, b) })
}

func (c *Content) RemoveStyle(sel Selection) {
	c.eachLineSpan(sel, func(l *Line, a, b int) { l.RemoveStyle(a, b) })
}

func (c *Content) eachLineSpan(sel Selection, fn func(l *Line, a, b int)) {
	if !c.valid(sel) {
		return
	}
	start, end := sel.Start(), sel.End()
	for i := start.Line; i <= end.Line; i++ {
		a, b := 0, c.Lines[i].Len()
		if i == start.Line {
			a = start.Char
		}
		if i == end.Line {
			b = end.Char
		}
		fn(&c.Lines[i], a, b)
	}
	c.CheckStatus()
}

// SetAlignment sets the alignment of every line touched by sel. percent is
// the decimal split position and only matters for AlignDecimal.
func (c *Content) SetAlignment(sel Selection, a Alignment, percent int) {
	if !c.valid(sel) {
		return
	}
	for i := sel.Start().Line; i <= sel.End().Line; i++ {
		c.Lines[i].Alignment = a
		if a == AlignDecimal {
			c.Lines[i].DecimalPercent = clampInt(percent, 0, 100)
		}
	}
}

func (c *Content) StyleAt(line, char int) (string, bool) {
	if line < 0 || line >= len(c.Lines) {
		return "", false
	}
	return c.Lines[line].StyleAt(char)
}

// TextPositions finds every occurrence of needle. Matches never cross line
// breaks. It returns nil when there is none.
func (c *Content) TextPositions(needle string) []Selection {
	if needle == "" {
		return nil
	}
	n := utf8.RuneCountInString(needle)
	var out []Selection
	for i := range c.Lines {
		text := c.Lines[i].Text()
		from := 0
		for {
			idx := strings.Index(text[from:], needle)
			if idx < 0 {
				break
			}
			char := utf8.RuneCountInString(text[:from+idx])
			out = append(out, Range(Position{i, char}, Position{i, char + n}))
			from += idx + len(needle)
		}
	}
	return out
}

// SelectChoice switches the choice run at (line, char) to one of its options.
func (c *Content) SelectChoice(line, char, option int) error {
	if line < 0 || line >= len(c.Lines) {
		return ErrOutOfRange
	}
	l := &c.Lines[line]
	off := 0
	for i, r := range l.Runs {
		n := r.Len()
		if r.Kind == KindChoice && char >= off && (char < off+n || char == off) {
			if option < 0 || option >= len(r.Options) {
				return ErrOutOfRange
			}
			runs := cloneRuns(l.Runs)
			runs[i].Text = r.Options[option]
			l.Runs = normalizeRuns(runs)
			c.CheckStatus()
			return nil
		}
		off += n
	}
	return ErrOutOfRange
}

// CheckStatus clamps the selection and keeps it off atomic run interiors. A
// caret inside an atomic run selects that run.
func (c *Content) CheckStatus() {
	g := c.Geometry()
	s := g.Clamp(c.Selection)
	if s.Collapsed() {
		if sp, ok := g.atomAt(s.Focus()); ok {
			s = Range(Position{s.FocusLine, sp.Start}, Position{s.FocusLine, sp.End})
		}
		c.Selection = s
		return
	}
	start, end := c.widen(s)
	if s.FocusAt() == FocusAtStart {
		c.Selection = Range(end, start)
	} else {
		c.Selection = Range(start, end)
	}
}
