package platform

import "richtext/pkg/richtext"

// FrameRun is one run as the surface draws it. Start is the character
// offset of the run within its line.
type FrameRun struct {
	Text  string
	Style string
	Kind  richtext.RunKind
	Start int
}

// FrameLine holds either Runs, or for decimal alignment the Left and Right
// parts around the decimal point.
type FrameLine struct {
	Alignment      richtext.Alignment
	DecimalPercent int
	Runs           []FrameRun
	Left           []FrameRun
	Right          []FrameRun
}

type Frame struct {
	Lines        []FrameLine
	Selection    richtext.Selection
	Styles       map[string]richtext.Style
	MarkdownMode bool
}

// Surface is the host that displays the content. The model never reads
// back from it.
type Surface interface {
	Name() string
	Render(f Frame) error
	SetSelection(sel richtext.Selection)
}

func FrameOf(c *richtext.Content) Frame {
	f := Frame{
		Lines:        make([]FrameLine, len(c.Lines)),
		Selection:    c.Selection,
		Styles:       c.Props.Styles,
		MarkdownMode: c.Props.ShowMarkdownMode,
	}
	for i := range c.Lines {
		l := &c.Lines[i]
		fl := FrameLine{Alignment: l.Alignment, DecimalPercent: l.DecimalPercent}
		if l.Alignment == richtext.AlignDecimal {
			left, right := l.DecimalParts()
			var off int
			fl.Left, off = frameRuns(left, 0)
			fl.Right, _ = frameRuns(right, off)
		} else {
			fl.Runs, _ = frameRuns(l.Runs, 0)
		}
		f.Lines[i] = fl
	}
	return f
}

func frameRuns(runs []richtext.TextRun, off int) ([]FrameRun, int) {
	out := make([]FrameRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, FrameRun{Text: r.Text, Style: r.Style, Kind: r.Kind, Start: off})
		off += r.Len()
	}
	return out, off
}

// Text returns the line text in drawing order.
func (l FrameLine) Text() string {
	var s string
	for _, parts := range [][]FrameRun{l.Runs, l.Left, l.Right} {
		for _, r := range parts {
			s += r.Text
		}
	}
	return s
}
