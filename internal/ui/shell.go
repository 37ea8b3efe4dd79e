package ui

import (
	"fmt"

	"richtext/internal/platform"
	"richtext/internal/render"
	"richtext/pkg/richtext"
)

type Layout struct {
	ContentX  int
	ContentY  int
	ContentW  int
	ContentH  int
	StatusBar int // row of the status line, -1 when hidden
	Lines     []LineLayout
}

// LineLayout records where a document line landed on screen. Anchor is the
// column of the decimal point for decimal lines, -1 otherwise.
type LineLayout struct {
	Y      int
	X      int
	Width  int
	Anchor int
}

func ComputeLayout(w, h int, theme Theme, status bool) Layout {
	border := 0
	if theme.ShowBorder {
		border = 1
	}
	statusH := 0
	if status {
		statusH = 1
	}
	contentX := border + theme.PaddingX
	contentY := border + theme.PaddingY
	contentW := w - 2*contentX
	contentH := h - 2*contentY - statusH
	if contentW < 1 {
		contentW = 1
	}
	if contentH < 0 {
		contentH = 0
	}
	bar := -1
	if status {
		bar = h - 1
	}
	return Layout{
		ContentX:  contentX,
		ContentY:  contentY,
		ContentW:  contentW,
		ContentH:  contentH,
		StatusBar: bar,
	}
}

// DrawDocument paints frame into fb. Lines past the content box are clipped.
func DrawDocument(fb *render.FrameBuffer, frame platform.Frame, theme Theme, status bool) Layout {
	layout := ComputeLayout(fb.W, fb.H, theme, status)
	fb.Clear(theme.Background)
	if theme.ShowBorder {
		h := fb.H
		if status {
			h--
		}
		fb.StrokeRect(0, 0, fb.W, h, theme.BorderH, theme.BorderV, theme.Corner)
	}

	for i, line := range frame.Lines {
		if i >= layout.ContentH {
			break
		}
		y := layout.ContentY + i
		ll := placeLine(line, layout)
		ll.Y = y
		x := ll.X
		for _, parts := range [][]platform.FrameRun{line.Runs, line.Left, line.Right} {
			for _, run := range parts {
				x = drawRun(fb, x, y, i, run, frame.Selection, layout)
			}
		}
		layout.Lines = append(layout.Lines, ll)
	}

	if status {
		fb.DrawText(0, layout.StatusBar, statusText(frame), render.Cell{Style: "status"})
	}
	return layout
}

func placeLine(line platform.FrameLine, layout Layout) LineLayout {
	width := runsWidth(line.Runs) + runsWidth(line.Left) + runsWidth(line.Right)
	ll := LineLayout{Width: width, Anchor: -1}
	free := layout.ContentW - width
	switch line.Alignment {
	case richtext.AlignCenter:
		ll.X = layout.ContentX + max(free, 0)/2
	case richtext.AlignEnd:
		ll.X = layout.ContentX + max(free, 0)
	case richtext.AlignDecimal:
		anchor := layout.ContentX + layout.ContentW*line.DecimalPercent/100
		ll.X = anchor - runsWidth(line.Left)
		if ll.X < layout.ContentX {
			ll.X = layout.ContentX
		}
		ll.Anchor = ll.X + runsWidth(line.Left)
	default:
		ll.X = layout.ContentX
	}
	return ll
}

func drawRun(fb *render.FrameBuffer, x, y, line int, run platform.FrameRun, sel richtext.Selection, layout Layout) int {
	limit := layout.ContentX + layout.ContentW
	char := run.Start
	for _, r := range run.Text {
		if x >= limit {
			return x
		}
		cell := render.Cell{Style: run.Style, Selected: selected(sel, line, char)}
		if run.Kind != richtext.KindPlain && cell.Style == "" {
			cell.Style = run.Kind.String()
		}
		x += fb.DrawRune(x, y, r, cell)
		char++
	}
	return x
}

func selected(sel richtext.Selection, line, char int) bool {
	if sel.Collapsed() {
		return false
	}
	p := richtext.Position{Line: line, Char: char}
	return richtext.ComparePos(p, sel.Start()) >= 0 && richtext.ComparePos(p, sel.End()) < 0
}

func runsWidth(runs []platform.FrameRun) int {
	w := 0
	for _, r := range runs {
		w += render.TextWidth(r.Text)
	}
	return w
}

func statusText(f platform.Frame) string {
	caret := f.Selection.Focus()
	s := fmt.Sprintf("%d:%d", caret.Line+1, caret.Char+1)
	if !f.Selection.Collapsed() {
		start, end := f.Selection.Start(), f.Selection.End()
		s = fmt.Sprintf("%d:%d-%d:%d", start.Line+1, start.Char+1, end.Line+1, end.Char+1)
	}
	if f.MarkdownMode {
		s += " markdown"
	}
	return s
}
