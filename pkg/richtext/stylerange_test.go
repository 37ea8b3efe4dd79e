package richtext

import "testing"

func TestApplyStyleRangeSplitsAndMerges(t *testing.T) {
	runs := []TextRun{{Text: "hello "}, {Text: "world", Style: "b"}}
	got := applyStyleRange(runs, "b", 3, 6)
	if len(got) != 2 {
		t.Fatalf("expected two runs, got %#v", got)
	}
	if got[0].Text != "hel" || got[0].Style != "" {
		t.Fatalf("unexpected head: %#v", got[0])
	}
	if got[1].Text != "lo world" || got[1].Style != "b" {
		t.Fatalf("styled range did not merge with neighbour: %#v", got[1])
	}
}

func TestApplyStyleRangeEmptyTagRemoves(t *testing.T) {
	runs := []TextRun{{Text: "abcdef", Style: "i"}}
	got := applyStyleRange(runs, "", 2, 4)
	if len(got) != 3 || got[1].Text != "cd" || got[1].Style != "" {
		t.Fatalf("unexpected runs: %#v", got)
	}
	if got[0].Style != "i" || got[2].Style != "i" {
		t.Fatalf("outer runs lost style: %#v", got)
	}
}

func TestApplyStyleRangeWidensIntoAtom(t *testing.T) {
	runs := []TextRun{{Text: "hi "}, NewMention("@bob", "")}
	got := applyStyleRange(runs, "u", 1, 4)
	if len(got) != 3 {
		t.Fatalf("expected three runs, got %#v", got)
	}
	if got[2].Kind != KindMention || got[2].Text != "@bob" || got[2].Style != "u" {
		t.Fatalf("mention not styled whole: %#v", got[2])
	}
	if got[1].Text != "i " || got[1].Style != "u" {
		t.Fatalf("unexpected middle run: %#v", got[1])
	}
}

func TestApplyStyleRangeCollapsedIsNoop(t *testing.T) {
	runs := []TextRun{{Text: "abc"}}
	got := applyStyleRange(runs, "b", 2, 2)
	if len(got) != 1 || got[0].Style != "" {
		t.Fatalf("collapsed range changed runs: %#v", got)
	}
}

func TestWidenToAtoms(t *testing.T) {
	runs := []TextRun{{Text: "ab"}, NewMention("@cd", ""), {Text: "ef"}}
	a, b := widenToAtoms(runs, 3, 4)
	if a != 2 || b != 5 {
		t.Fatalf("got [%d,%d), want [2,5)", a, b)
	}
}
