package richtext

import (
	"errors"
	"testing"
)

func TestLineSplitKeepsStyleOnBothSides(t *testing.T) {
	l := NewLine(TextRun{Text: "hello", Style: "b"})
	next, err := l.SplitLine(2)
	if err != nil {
		t.Fatal(err)
	}
	if l.Text() != "he" || next.Text() != "llo" {
		t.Fatalf("unexpected split %q | %q", l.Text(), next.Text())
	}
	if next.Runs[0].Style != "b" {
		t.Fatalf("right side lost style: %#v", next.Runs)
	}

	tail, err := l.SplitLine(l.Len())
	if err != nil {
		t.Fatal(err)
	}
	if tail.Len() != 0 || tail.Runs[0].Style != "b" {
		t.Fatalf("empty tail should keep style, got %#v", tail.Runs)
	}
	if got, err := l.SplitLine(10); got != nil || err != nil {
		t.Fatalf("split past end should be a no-op, got %#v %v", got, err)
	}
}

func TestLineSplitInsideMentionFails(t *testing.T) {
	l := LineFromText("a @bob")
	if _, err := l.SplitLine(4); !errors.Is(err, ErrLockedRun) {
		t.Fatalf("expected ErrLockedRun, got %v", err)
	}
	if l.Text() != "a @bob" {
		t.Fatalf("failed split changed the line: %q", l.Text())
	}
}

func TestDeleteCharacterAt(t *testing.T) {
	l := LineFromText("abc")
	if err := l.DeleteCharacterAt(1); err != nil {
		t.Fatal(err)
	}
	if l.Text() != "ac" {
		t.Fatalf("unexpected text %q", l.Text())
	}

	m := NewLine(TextRun{Text: "x "}, NewMention("@bob", ""))
	if err := m.DeleteCharacterAt(3); !errors.Is(err, ErrLockedRun) {
		t.Fatalf("expected ErrLockedRun, got %v", err)
	}
	if err := m.DeleteCharacterAt(6); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestInsertRunsMergesNeighbours(t *testing.T) {
	l := LineFromText("ad")
	if err := l.InsertRuns([]TextRun{{Text: "bc"}}, 1); err != nil {
		t.Fatal(err)
	}
	if l.Text() != "abcd" || len(l.Runs) != 1 {
		t.Fatalf("expected one merged run, got %#v", l.Runs)
	}
	if err := l.InsertRuns([]TextRun{{Text: "x"}}, 9); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestAdjacentMentionsStaySeparate(t *testing.T) {
	l := NewLine(NewMention("@a", ""), NewMention("@b", ""))
	if len(l.Runs) != 2 {
		t.Fatalf("atomic runs were merged: %#v", l.Runs)
	}
}

func TestDecimalParts(t *testing.T) {
	l := LineFromText("12.34")
	left, right := l.DecimalParts()
	if runsText(left) != "12" || runsText(right) != ".34" {
		t.Fatalf("unexpected parts %q | %q", runsText(left), runsText(right))
	}

	l = LineFromText("1234")
	left, right = l.DecimalParts()
	if runsText(left) != "1234" || right != nil {
		t.Fatalf("line without a dot should stay left, got %q | %q", runsText(left), runsText(right))
	}

	l = NewLine(TextRun{Text: "x"}, NewMention("@v.1", ""), TextRun{Text: ".5"})
	left, right = l.DecimalParts()
	if runsText(left) != "x" || runsText(right) != "@v.1.5" {
		t.Fatalf("dot inside mention should split before it, got %q | %q", runsText(left), runsText(right))
	}
}

func TestLineStyleAt(t *testing.T) {
	l := NewLine(TextRun{Text: "ab", Style: "b"}, TextRun{Text: "cd"})
	if s, ok := l.StyleAt(1); !ok || s != "b" {
		t.Fatalf("expected style b, got %q %v", s, ok)
	}
	if _, ok := l.StyleAt(2); ok {
		t.Fatalf("unstyled character reported a style")
	}
	if _, ok := l.StyleAt(9); ok {
		t.Fatalf("out of range position reported a style")
	}
}

func TestParseAlignment(t *testing.T) {
	for in, want := range map[string]Alignment{"": AlignStart, "left": AlignStart, "Center": AlignCenter, "decimal": AlignDecimal, "right": AlignEnd} {
		got, err := ParseAlignment(in)
		if err != nil || got != want {
			t.Fatalf("ParseAlignment(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAlignment("justify"); err == nil {
		t.Fatalf("expected error for unknown alignment")
	}
}
