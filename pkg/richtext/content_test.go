package richtext

import (
	"errors"
	"strings"
	"testing"
)

func linesText(lines []Line) string {
	parts := make([]string, len(lines))
	for i := range lines {
		parts[i] = lines[i].Text()
	}
	return strings.Join(parts, "\n")
}

func TestMergeThenSplit(t *testing.T) {
	c := FromText("12\n34\n56", DefaultProps())
	c.MergeLines(0)
	if got := c.Text(); got != "1234\n56" {
		t.Fatalf("unexpected merge result %q", got)
	}
	c.SplitLine(Caret(0, 3))
	if got := c.Text(); got != "123\n4\n56" {
		t.Fatalf("unexpected split result %q", got)
	}
	if c.Selection != Caret(1, 0) {
		t.Fatalf("caret should move to the new line, got %+v", c.Selection)
	}
}

func TestMergeLinesMovesSelection(t *testing.T) {
	c := FromText("12\n34\n56", DefaultProps())
	c.Selection = Caret(2, 2)
	c.MergeLines(0)
	if c.Selection != Caret(1, 2) || !c.valid(c.Selection) {
		t.Fatalf("caret below the merge should move up a line, got %+v", c.Selection)
	}

	c = FromText("12\n34\n56", DefaultProps())
	c.Selection = Range(Position{0, 1}, Position{1, 1})
	c.MergeLines(0)
	if c.Selection != Range(Position{0, 1}, Position{0, 3}) {
		t.Fatalf("selection should follow the joined text, got %+v", c.Selection)
	}
}

func TestMultiLineInsertKeepsHostAlignment(t *testing.T) {
	c := FromText("12.5", DefaultProps())
	c.Lines[0].Alignment, c.Lines[0].DecimalPercent = AlignDecimal, 70
	c.Splice(Caret(0, 2), []Line{LineFromText("a"), LineFromText("b")})
	if c.Text() != "12a\nb.5" {
		t.Fatalf("unexpected text %q", c.Text())
	}
	if c.Lines[1].Alignment != AlignDecimal || c.Lines[1].DecimalPercent != 70 {
		t.Fatalf("host text lost its alignment: %+v", c.Lines[1])
	}

	c.Splice(Caret(1, 3), []Line{LineFromText("c"), LineFromText("d")})
	if c.Lines[2].Text() != "d" || c.Lines[2].Alignment != AlignStart {
		t.Fatalf("a line with no host text keeps its own alignment: %+v", c.Lines[2])
	}
}

func TestRemoveSectionAcrossLines(t *testing.T) {
	c := FromText("123\n456\n789", DefaultProps())
	removed := c.RemoveSection(Range(Position{0, 1}, Position{2, 1}))
	if got := linesText(removed); got != "23\n456\n7" {
		t.Fatalf("unexpected removed text %q", got)
	}
	if got := c.Text(); got != "189" {
		t.Fatalf("unexpected remaining text %q", got)
	}
}

func TestApplyStyleAcrossLines(t *testing.T) {
	c := FromText("123\n456\n789", DefaultProps())
	c.ApplyStyle("shiny", Range(Position{0, 1}, Position{2, 1}))
	want := [][]TextRun{
		{{Text: "1"}, {Text: "23", Style: "shiny"}},
		{{Text: "456", Style: "shiny"}},
		{{Text: "7", Style: "shiny"}, {Text: "89"}},
	}
	for i, runs := range want {
		got := c.Lines[i].Runs
		if len(got) != len(runs) {
			t.Fatalf("line %d: expected %d runs, got %#v", i, len(runs), got)
		}
		for j := range runs {
			if !got[j].Equal(runs[j]) {
				t.Fatalf("line %d run %d: got %#v want %#v", i, j, got[j], runs[j])
			}
		}
	}
}

func TestApplyStyleIsIdempotent(t *testing.T) {
	c := FromText("hello world", DefaultProps())
	sel := Range(Position{0, 2}, Position{0, 7})
	c.ApplyStyle("b", sel)
	once := c.Clone()
	c.ApplyStyle("b", sel)
	if !c.Equal(once) {
		t.Fatalf("second application changed runs: %#v", c.Lines[0].Runs)
	}
	c.RemoveStyle(Range(Position{0, 0}, Position{0, 11}))
	if len(c.Lines[0].Runs) != 1 || c.Lines[0].Runs[0].Style != "" {
		t.Fatalf("remove style should leave one plain run, got %#v", c.Lines[0].Runs)
	}
}

func TestApplyStyleStylesWholeMention(t *testing.T) {
	c := FromText("x @bob y", DefaultProps())
	c.ApplyStyle("hot", Range(Position{0, 3}, Position{0, 4}))
	runs := c.Lines[0].Runs
	if len(runs) != 3 || runs[1].Text != "@bob" || runs[1].Style != "hot" {
		t.Fatalf("mention should be styled whole, got %#v", runs)
	}
	if runs[0].Style != "" || runs[2].Style != "" {
		t.Fatalf("neighbours should stay plain, got %#v", runs)
	}
}

func TestSpliceInverse(t *testing.T) {
	c := FromText("123\n456\n789", DefaultProps())
	orig := c.Clone()
	sel := Range(Position{0, 1}, Position{2, 1})
	removed := c.Splice(sel, nil)
	c.Splice(Caret(0, 1), removed)
	if !c.Equal(orig) {
		t.Fatalf("splice did not restore content: %q", c.Text())
	}
	if c.Selection != Caret(2, 1) {
		t.Fatalf("caret should follow the inserted lines, got %+v", c.Selection)
	}
}

func TestSpliceOutOfRangeIsNoop(t *testing.T) {
	c := FromText("abc", DefaultProps())
	if got := c.Splice(Range(Position{0, 1}, Position{3, 0}), []Line{LineFromText("x")}); got != nil {
		t.Fatalf("expected no removal, got %#v", got)
	}
	if c.Text() != "abc" {
		t.Fatalf("content changed: %q", c.Text())
	}
}

func TestDeleteCharacterJoinsLines(t *testing.T) {
	c := FromText("ab\ncd", DefaultProps())
	c.DeleteCharacter(true, Caret(1, 0))
	if c.Text() != "abcd" || c.Selection != Caret(0, 2) {
		t.Fatalf("unexpected backspace result %q %+v", c.Text(), c.Selection)
	}
	c.DeleteCharacter(false, Caret(0, 1))
	if c.Text() != "acd" {
		t.Fatalf("unexpected delete result %q", c.Text())
	}
	if got := c.DeleteCharacter(false, Caret(0, 3)); got != nil {
		t.Fatalf("delete at document end should do nothing, got %#v", got)
	}
}

func TestBackspaceRemovesWholeMention(t *testing.T) {
	c := FromText("a @bob", DefaultProps())
	removed := c.DeleteCharacter(true, Caret(0, 6))
	if c.Text() != "a " {
		t.Fatalf("mention should be removed whole, got %q", c.Text())
	}
	if linesText(removed) != "@bob" {
		t.Fatalf("unexpected removed text %q", linesText(removed))
	}
	if c.Selection != Caret(0, 2) {
		t.Fatalf("unexpected caret %+v", c.Selection)
	}
}

func TestInsertTextUsesTypingStyle(t *testing.T) {
	c := New(DefaultProps())
	c.Lines[0] = NewLine(TextRun{Text: "ab", Style: "b"})
	c.InsertText(Caret(0, 2), "c")
	if len(c.Lines[0].Runs) != 1 || c.Lines[0].Runs[0].Text != "abc" {
		t.Fatalf("typed text should extend the styled run, got %#v", c.Lines[0].Runs)
	}
	if c.Selection != Caret(0, 3) {
		t.Fatalf("unexpected caret %+v", c.Selection)
	}

	c.InsertText(Caret(0, 1), "x\ny")
	if c.Text() != "ax\nybc" || c.Selection != Caret(1, 1) {
		t.Fatalf("unexpected multi-line insert %q %+v", c.Text(), c.Selection)
	}
}

func TestTypedMentionIsNotPromoted(t *testing.T) {
	c := New(DefaultProps())
	c.InsertText(Caret(0, 0), "@bob ")
	for _, r := range c.Lines[0].Runs {
		if r.Atomic() {
			t.Fatalf("typed text was promoted: %#v", r)
		}
	}
}

func TestCheckStatusExpandsCaretInsideMention(t *testing.T) {
	c := FromText("x @bob y", DefaultProps())
	c.Selection = Caret(0, 4)
	c.CheckStatus()
	if c.Selection != Range(Position{0, 2}, Position{0, 6}) {
		t.Fatalf("caret inside mention should select it, got %+v", c.Selection)
	}
	c.Selection = Range(Position{0, 7}, Position{0, 3})
	c.CheckStatus()
	if c.Selection != Range(Position{0, 7}, Position{0, 2}) {
		t.Fatalf("backward range should widen and keep direction, got %+v", c.Selection)
	}
	c.Selection = Caret(5, 40)
	c.CheckStatus()
	if c.Selection != Caret(0, 8) {
		t.Fatalf("out of range caret should clamp, got %+v", c.Selection)
	}
}

func TestTextPositions(t *testing.T) {
	c := FromText("abab\nxab", DefaultProps())
	got := c.TextPositions("ab")
	want := []Selection{
		Range(Position{0, 0}, Position{0, 2}),
		Range(Position{0, 2}, Position{0, 4}),
		Range(Position{1, 1}, Position{1, 3}),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d matches, got %#v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("match %d: got %+v want %+v", i, got[i], want[i])
		}
	}
	if c.TextPositions("zz") != nil {
		t.Fatalf("expected no matches")
	}
}

func TestSelectChoice(t *testing.T) {
	c := New(DefaultProps())
	c.Lines[0] = NewLine(TextRun{Text: "pick "}, NewChoice([]string{"a", "bb"}, 0, ""))
	if err := c.SelectChoice(0, 5, 1); err != nil {
		t.Fatal(err)
	}
	if c.Lines[0].Runs[1].Text != "bb" || c.Lines[0].Len() != 7 {
		t.Fatalf("choice not switched: %#v", c.Lines[0].Runs)
	}
	if err := c.SelectChoice(0, 5, 9); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := c.SelectChoice(0, 0, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("plain run is not a choice, got %v", err)
	}
}

func TestSetAlignment(t *testing.T) {
	c := FromText("1.5\n22.75\nx", DefaultProps())
	c.SetAlignment(Range(Position{0, 0}, Position{1, 0}), AlignDecimal, 130)
	if c.Lines[0].Alignment != AlignDecimal || c.Lines[1].Alignment != AlignDecimal {
		t.Fatalf("alignment not applied")
	}
	if c.Lines[1].DecimalPercent != 100 {
		t.Fatalf("percent should clamp to 100, got %d", c.Lines[1].DecimalPercent)
	}
	if c.Lines[2].Alignment != AlignStart {
		t.Fatalf("untouched line changed")
	}
}

func TestStyleAtContent(t *testing.T) {
	c := FromText("abc", DefaultProps())
	c.ApplyStyle("b", Range(Position{0, 0}, Position{0, 1}))
	if s, ok := c.StyleAt(0, 0); !ok || s != "b" {
		t.Fatalf("expected b, got %q %v", s, ok)
	}
	if _, ok := c.StyleAt(4, 0); ok {
		t.Fatalf("missing line reported a style")
	}
}
