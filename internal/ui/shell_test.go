package ui

import (
	"strings"
	"testing"

	"richtext/internal/platform"
	"richtext/internal/render"
	"richtext/pkg/richtext"
)

func draw(t *testing.T, c *richtext.Content, w, h int, theme Theme, status bool) (*render.FrameBuffer, Layout) {
	t.Helper()
	fb := render.NewFrameBuffer(w, h)
	layout := DrawDocument(fb, platform.FrameOf(c), theme, status)
	return fb, layout
}

func TestLineAlignment(t *testing.T) {
	c := richtext.FromText("ab\nab\nab", richtext.DefaultProps())
	c.Lines[1].Alignment = richtext.AlignCenter
	c.Lines[2].Alignment = richtext.AlignEnd

	fb, layout := draw(t, c, 10, 3, DefaultTheme(), false)
	want := []string{"ab", "    ab", "        ab"}
	for y, w := range want {
		if got := fb.Row(y); got != w {
			t.Fatalf("row %d: expected %q, got %q", y, w, got)
		}
	}
	if len(layout.Lines) != 3 || layout.Lines[2].X != 8 {
		t.Fatalf("unexpected layout %+v", layout.Lines)
	}
}

func TestDecimalAnchor(t *testing.T) {
	c := richtext.FromText("12.5", richtext.DefaultProps())
	c.Lines[0].Alignment = richtext.AlignDecimal
	c.Lines[0].DecimalPercent = 50

	fb, layout := draw(t, c, 10, 1, DefaultTheme(), false)
	if got := fb.Row(0); got != "   12.5" {
		t.Fatalf("unexpected row %q", got)
	}
	if layout.Lines[0].Anchor != 5 {
		t.Fatalf("expected anchor at 5, got %d", layout.Lines[0].Anchor)
	}
	if fb.At(5, 0).Rune != '.' {
		t.Fatalf("expected decimal point on the anchor")
	}
}

func TestSelectionAndMentionCells(t *testing.T) {
	c := richtext.FromText("abcd @bob", richtext.DefaultProps())
	c.Selection = richtext.Range(richtext.Position{Line: 0, Char: 1}, richtext.Position{Line: 0, Char: 3})

	fb, _ := draw(t, c, 12, 1, DefaultTheme(), false)
	for x, want := range []bool{false, true, true, false} {
		if got := fb.At(x, 0).Selected; got != want {
			t.Fatalf("cell %d: expected selected=%v", x, want)
		}
	}
	if got := fb.At(5, 0).Style; got != "mention" {
		t.Fatalf("expected mention style, got %q", got)
	}
}

func TestBoxedThemeWithStatus(t *testing.T) {
	c := richtext.FromText("ab", richtext.DefaultProps())
	c.Props.ShowMarkdownMode = true

	fb, layout := draw(t, c, 12, 4, BoxedTheme(), true)
	if layout.ContentX != 2 || layout.ContentY != 1 || layout.ContentH != 1 {
		t.Fatalf("unexpected layout %+v", layout)
	}
	rows := strings.Split(fb.String(), "\n")
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %q", fb.String())
	}
	if rows[0] != "+----------+" || rows[1] != "| ab       |" {
		t.Fatalf("unexpected frame:\n%s", fb.String())
	}
	if rows[3] != "1:1 markdown" {
		t.Fatalf("unexpected status %q", rows[3])
	}
}

func TestLinesPastContentAreClipped(t *testing.T) {
	c := richtext.FromText("a\nb\nc", richtext.DefaultProps())
	fb, layout := draw(t, c, 4, 2, DefaultTheme(), false)
	if len(layout.Lines) != 2 || fb.String() != "a\nb" {
		t.Fatalf("unexpected clip %q", fb.String())
	}
}
