package richtext

import (
	"fmt"
	"strings"
)

type Alignment uint8

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignDecimal
	AlignEnd
)

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignDecimal:
		return "decimal"
	case AlignEnd:
		return "end"
	default:
		return "start"
	}
}

func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "start", "left":
		return AlignStart, nil
	case "center":
		return AlignCenter, nil
	case "decimal":
		return AlignDecimal, nil
	case "end", "right":
		return AlignEnd, nil
	default:
		return AlignStart, fmt.Errorf("richtext: unknown alignment %q", s)
	}
}

// Line is an ordered run list with per-line presentation settings.
type Line struct {
	Runs           []TextRun
	Alignment      Alignment
	DecimalPercent int
}

func NewLine(runs ...TextRun) Line {
	return Line{Runs: normalizeRuns(runs), DecimalPercent: 50}
}

// LineFromText builds a line from raw text using RunsFromText.
func LineFromText(text string) Line {
	return NewLine(RunsFromText(text, "")...)
}

func (l *Line) Len() int {
	return runsLen(l.Runs)
}

func (l *Line) Text() string {
	return runsText(l.Runs)
}

func (l *Line) Clone() Line {
	out := *l
	out.Runs = cloneRuns(l.Runs)
	return out
}

func (l *Line) Equal(o *Line) bool {
	if l.Alignment != o.Alignment || l.DecimalPercent != o.DecimalPercent || len(l.Runs) != len(o.Runs) {
		return false
	}
	for i := range l.Runs {
		if !l.Runs[i].Equal(o.Runs[i]) {
			return false
		}
	}
	return true
}

func (l *Line) TextUpTo(pos int) ([]TextRun, error) {
	left, _, err := splitRunsAt(l.Runs, clampInt(pos, 0, l.Len()))
	return left, err
}

func (l *Line) TextFrom(pos int) ([]TextRun, error) {
	_, right, err := splitRunsAt(l.Runs, clampInt(pos, 0, l.Len()))
	return right, err
}

// SubRuns returns the runs covering the characters [a,b).
func (l *Line) SubRuns(a, b int) ([]TextRun, error) {
	if a > b {
		a, b = b, a
	}
	right, err := l.TextFrom(a)
	if err != nil {
		return nil, err
	}
	mid, _, err := splitRunsAt(right, b-clampInt(a, 0, l.Len()))
	return mid, err
}

// SplitLine truncates l to [0,pos) and returns a line holding the rest, or
// nil when pos is past the end of the line.
func (l *Line) SplitLine(pos int) (*Line, error) {
	if pos < 0 || pos > l.Len() {
		return nil, nil
	}
	left, right, err := splitRunsAt(l.Runs, pos)
	if err != nil {
		return nil, err
	}
	next := &Line{Runs: normalizeRuns(carryStyle(right, l.Runs)), Alignment: l.Alignment, DecimalPercent: l.DecimalPercent}
	l.Runs = normalizeRuns(carryStyle(left, l.Runs))
	return next, nil
}

// carryStyle keeps the style of an emptied side so that a blank line created
// by splitting still types in the surrounding style.
func carryStyle(part, from []TextRun) []TextRun {
	if len(part) > 0 || len(from) == 0 {
		return part
	}
	last := from[len(from)-1]
	if last.Atomic() {
		return nil
	}
	return []TextRun{last.withText("")}
}

func (l *Line) DeleteCharacterAt(pos int) error {
	if pos < 0 || pos >= l.Len() {
		return ErrOutOfRange
	}
	off := 0
	for i, r := range l.Runs {
		n := r.Len()
		if pos < off+n {
			if r.Atomic() {
				return ErrLockedRun
			}
			rel := pos - off
			text := r.Text[:byteOffset(r.Text, rel)] + r.Text[byteOffset(r.Text, rel+1):]
			runs := cloneRuns(l.Runs)
			runs[i].Text = text
			l.Runs = normalizeRuns(runs)
			return nil
		}
		off += n
	}
	return ErrOutOfRange
}

// InsertRuns splices runs into the line at pos.
func (l *Line) InsertRuns(runs []TextRun, pos int) error {
	if pos < 0 || pos > l.Len() {
		return ErrOutOfRange
	}
	left, right, err := splitRunsAt(l.Runs, pos)
	if err != nil {
		return err
	}
	merged := make([]TextRun, 0, len(left)+len(runs)+len(right))
	merged = append(merged, left...)
	merged = append(merged, cloneRuns(runs)...)
	merged = append(merged, right...)
	l.Runs = normalizeRuns(merged)
	return nil
}

// removeRange deletes the characters [a,b). Callers widen to atom bounds first.
func (l *Line) removeRange(a, b int) ([]TextRun, error) {
	left, rest, err := splitRunsAt(l.Runs, a)
	if err != nil {
		return nil, err
	}
	mid, right, err := splitRunsAt(rest, b-a)
	if err != nil {
		return nil, err
	}
	l.Runs = normalizeRuns(append(left, right...))
	return mid, nil
}

func (l *Line) ApplyStyle(tag string, start, end int) {
	l.Runs = applyStyleRange(l.Runs, tag, start, end)
}

func (l *Line) RemoveStyle(start, end int) {
	l.Runs = applyStyleRange(l.Runs, "", start, end)
}

// StyleAt returns the style of the character at pos, falling back to the
// character before it at the end of the line.
func (l *Line) StyleAt(pos int) (string, bool) {
	idx := l.runIndexAt(pos)
	if idx < 0 {
		return "", false
	}
	s := l.Runs[idx].Style
	return s, s != ""
}

func (l *Line) runIndexAt(pos int) int {
	n := l.Len()
	if pos < 0 || pos > n || len(l.Runs) == 0 {
		return -1
	}
	if pos == n && n > 0 {
		pos = n - 1
	}
	off := 0
	for i, r := range l.Runs {
		if pos < off+r.Len() {
			return i
		}
		off += r.Len()
	}
	return len(l.Runs) - 1
}

func (l *Line) AtomSpans() []Span {
	return atomSpans(l.Runs)
}

// DecimalParts splits the line for decimal alignment at its first '.'. The
// dot starts the right part. A dot inside an atomic run moves the split to
// that run's start. Without a dot everything is on the left.
func (l *Line) DecimalParts() ([]TextRun, []TextRun) {
	idx := strings.IndexByte(l.Text(), '.')
	if idx < 0 {
		return cloneRuns(l.Runs), nil
	}
	pos := len([]rune(l.Text()[:idx]))
	pos, _ = widenToAtoms(l.Runs, pos, pos)
	left, right, err := splitRunsAt(l.Runs, pos)
	if err != nil {
		return cloneRuns(l.Runs), nil
	}
	return left, right
}
