package render

import "testing"

func TestDrawTextWideRunes(t *testing.T) {
	fb := NewFrameBuffer(6, 1)
	x := fb.DrawText(0, 0, "a世b", Cell{Style: "b"})
	if x != 4 {
		t.Fatalf("expected x=4, got %d", x)
	}
	if got := fb.Row(0); got != "a世b" {
		t.Fatalf("unexpected row %q", got)
	}
	if c := fb.At(2, 0); c.Rune != 0 || c.Style != "b" {
		t.Fatalf("expected continuation cell, got %+v", c)
	}
}

func TestFillRectClips(t *testing.T) {
	fb := NewFrameBuffer(4, 3)
	fb.FillRect(-1, -1, 3, 3, Cell{Rune: '#'})
	if fb.Row(0) != "##" || fb.Row(1) != "##" || fb.Row(2) != "" {
		t.Fatalf("unexpected fill:\n%s", fb.String())
	}
	if fb.Set(4, 0, Cell{Rune: 'x'}) {
		t.Fatalf("expected out of bounds set to fail")
	}
}

func TestStrokeRect(t *testing.T) {
	fb := NewFrameBuffer(4, 3)
	fb.StrokeRect(0, 0, 4, 3, Cell{Rune: '-'}, Cell{Rune: '|'}, Cell{Rune: '+'})
	want := "+--+\n|  |\n+--+"
	if got := fb.String(); got != want {
		t.Fatalf("unexpected box:\n%s", got)
	}
}

func TestStringDropsTrailingBlankRows(t *testing.T) {
	fb := NewFrameBuffer(3, 4)
	fb.DrawText(0, 1, "ok", Blank)
	if got := fb.String(); got != "\nok" {
		t.Fatalf("unexpected screen %q", got)
	}
	if TextWidth("世界") != 4 {
		t.Fatalf("expected wide width")
	}
}
