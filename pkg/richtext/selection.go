package richtext

import (
	"slices"
	"unicode"

	"github.com/rivo/uniseg"
)

// Span is a half-open character range [Start, End) within one line.
type Span struct {
	Start int
	End   int
}

func (s Span) contains(pos int) bool {
	return pos > s.Start && pos < s.End
}

type Position struct {
	Line int
	Char int
}

func ComparePos(a, b Position) int {
	if a.Line < b.Line {
		return -1
	}
	if a.Line > b.Line {
		return 1
	}
	if a.Char < b.Char {
		return -1
	}
	if a.Char > b.Char {
		return 1
	}
	return 0
}

// Selection addresses a range by its fixed anchor and moving focus.
type Selection struct {
	AnchorLine int
	AnchorChar int
	FocusLine  int
	FocusChar  int
}

type FocusAt uint8

const (
	FocusAtEnd FocusAt = iota
	FocusAtStart
)

func Caret(line, char int) Selection {
	return Selection{AnchorLine: line, AnchorChar: char, FocusLine: line, FocusChar: char}
}

func Range(start, end Position) Selection {
	return Selection{AnchorLine: start.Line, AnchorChar: start.Char, FocusLine: end.Line, FocusChar: end.Char}
}

func (s Selection) Anchor() Position { return Position{Line: s.AnchorLine, Char: s.AnchorChar} }
func (s Selection) Focus() Position  { return Position{Line: s.FocusLine, Char: s.FocusChar} }

func (s Selection) Collapsed() bool {
	return s.Anchor() == s.Focus()
}

func (s Selection) Start() Position {
	if ComparePos(s.Anchor(), s.Focus()) <= 0 {
		return s.Anchor()
	}
	return s.Focus()
}

func (s Selection) End() Position {
	if ComparePos(s.Anchor(), s.Focus()) <= 0 {
		return s.Focus()
	}
	return s.Anchor()
}

func (s Selection) FocusAt() FocusAt {
	if ComparePos(s.Focus(), s.Anchor()) < 0 {
		return FocusAtStart
	}
	return FocusAtEnd
}

func (s Selection) withFocus(p Position) Selection {
	s.FocusLine, s.FocusChar = p.Line, p.Char
	return s
}

func (s Selection) withAnchor(p Position) Selection {
	s.AnchorLine, s.AnchorChar = p.Line, p.Char
	return s
}

// Geometry is the part of a Content the cursor machine navigates: line
// lengths, atomic run spans and word stops per line.
type Geometry struct {
	LineLens []int
	Atoms    [][]Span
	Stops    [][]int
}

func (g Geometry) lastLine() int {
	return max(len(g.LineLens)-1, 0)
}

func (g Geometry) lineLen(line int) int {
	if line < 0 || line >= len(g.LineLens) {
		return 0
	}
	return g.LineLens[line]
}

func (g Geometry) atomAt(p Position) (Span, bool) {
	if p.Line < 0 || p.Line >= len(g.Atoms) {
		return Span{}, false
	}
	for _, sp := range g.Atoms[p.Line] {
		if sp.contains(p.Char) {
			return sp, true
		}
	}
	return Span{}, false
}

// Clamp bounds both endpoints to the geometry.
func (g Geometry) Clamp(s Selection) Selection {
	clamp := func(p Position) Position {
		p.Line = clampInt(p.Line, 0, g.lastLine())
		p.Char = clampInt(p.Char, 0, g.lineLen(p.Line))
		return p
	}
	return s.withAnchor(clamp(s.Anchor())).withFocus(clamp(s.Focus()))
}

// GeometryOf derives the navigation table for a run list per line.
func GeometryOf(lines []Line) Geometry {
	g := Geometry{
		LineLens: make([]int, len(lines)),
		Atoms:    make([][]Span, len(lines)),
		Stops:    make([][]int, len(lines)),
	}
	for i := range lines {
		g.LineLens[i] = lines[i].Len()
		g.Atoms[i] = lines[i].AtomSpans()
		g.Stops[i] = wordStops(lines[i].Text(), g.Atoms[i])
	}
	return g
}

// wordStops lists the start and end offsets of every word and atomic run.
func wordStops(text string, atoms []Span) []int {
	var stops []int
	pos := 0
	state := -1
	rest := text
	for rest != "" {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		width := len([]rune(word))
		if isWord(word) {
			stops = append(stops, pos, pos+width)
		}
		pos += width
	}
	for _, sp := range atoms {
		stops = append(stops, sp.Start, sp.End)
	}
	slices.Sort(stops)
	stops = slices.Compact(stops)
	// Stops strictly inside an atom are unreachable.
	return slices.DeleteFunc(stops, func(p int) bool {
		for _, sp := range atoms {
			if sp.contains(p) {
				return true
			}
		}
		return false
	})
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return true
		}
	}
	return false
}

type Direction uint8

const (
	Left Direction = iota
	Right
	Up
	Down
	Home
	End
)

// Move applies one cursor transition. extend keeps the anchor fixed; byWord
// jumps by word and atomic-run stops, or to the document edges.
func (s Selection) Move(g Geometry, dir Direction, extend, byWord bool) Selection {
	s = g.Clamp(s)
	focus := s.Focus()
	switch dir {
	case Left, Right:
		if !extend && !byWord && !s.Collapsed() {
			if dir == Left {
				return collapseAt(s.Start())
			}
			return collapseAt(s.End())
		}
		focus = g.horizontal(focus, dir == Right, byWord)
	case Up, Down:
		focus = g.vertical(focus, dir == Down, byWord)
	case Home:
		if byWord || focus.Char == 0 {
			focus = Position{}
		} else {
			focus.Char = 0
		}
	case End:
		last := g.lastLine()
		if byWord || focus.Char == g.lineLen(focus.Line) {
			focus = Position{Line: last, Char: g.lineLen(last)}
		} else {
			focus.Char = g.lineLen(focus.Line)
		}
	default:
		return s
	}

	next := s.withFocus(focus)
	if !extend {
		next = collapseAt(focus)
	}
	return g.correctAtom(next, s.Focus(), extend)
}

func collapseAt(p Position) Selection {
	return Caret(p.Line, p.Char)
}

func (g Geometry) horizontal(p Position, forward, byWord bool) Position {
	n := g.lineLen(p.Line)
	if byWord {
		if forward {
			if p.Char >= n {
				last := g.lastLine()
				return Position{Line: last, Char: g.lineLen(last)}
			}
			for _, stop := range g.stopsOf(p.Line) {
				if stop > p.Char {
					return Position{Line: p.Line, Char: stop}
				}
			}
			return Position{Line: p.Line, Char: n}
		}
		if p.Char <= 0 {
			return Position{}
		}
		stops := g.stopsOf(p.Line)
		for i := len(stops) - 1; i >= 0; i-- {
			if stops[i] < p.Char {
				return Position{Line: p.Line, Char: stops[i]}
			}
		}
		return Position{Line: p.Line}
	}
	if forward {
		if p.Char < n {
			return Position{Line: p.Line, Char: p.Char + 1}
		}
		if p.Line < g.lastLine() {
			return Position{Line: p.Line + 1}
		}
		return p
	}
	if p.Char > 0 {
		return Position{Line: p.Line, Char: p.Char - 1}
	}
	if p.Line > 0 {
		return Position{Line: p.Line - 1, Char: g.lineLen(p.Line - 1)}
	}
	return p
}

func (g Geometry) vertical(p Position, down, byWord bool) Position {
	line := p.Line
	switch {
	case byWord && down:
		line = g.lastLine()
	case byWord:
		line = 0
	case down && line < g.lastLine():
		line++
	case !down && line > 0:
		line--
	}
	return Position{Line: line, Char: clampInt(p.Char, 0, g.lineLen(line))}
}

func (g Geometry) stopsOf(line int) []int {
	if line < 0 || line >= len(g.Stops) {
		return nil
	}
	return g.Stops[line]
}

// correctAtom moves a focus that landed inside an atomic run to the run's far
// edge in the direction of travel from prev. Without extend the anchor is set
// to the near edge so the whole run ends up selected.
func (g Geometry) correctAtom(s Selection, prev Position, extend bool) Selection {
	focus := s.Focus()
	sp, ok := g.atomAt(focus)
	if !ok {
		return s
	}
	near, far := Position{Line: focus.Line, Char: sp.Start}, Position{Line: focus.Line, Char: sp.End}
	if ComparePos(focus, prev) < 0 {
		near, far = far, near
	}
	s = s.withFocus(far)
	if !extend {
		s = s.withAnchor(near)
	}
	return s
}
