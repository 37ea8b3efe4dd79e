package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"richtext/internal/render"
	"richtext/pkg/richtext"
)

func colorProfile(mode string, out io.Writer) (termenv.Profile, error) {
	switch strings.ToLower(mode) {
	case "", "auto":
		return termenv.NewOutput(out).EnvColorProfile(), nil
	case "always", "truecolor":
		return termenv.TrueColor, nil
	case "256":
		return termenv.ANSI256, nil
	case "ansi":
		return termenv.ANSI, nil
	case "never", "none":
		return termenv.Ascii, nil
	default:
		return termenv.Ascii, fmt.Errorf("app: unknown color mode %q", mode)
	}
}

type cellKey struct {
	style    string
	selected bool
}

// paint writes the framebuffer with each cell styled from the document's
// style table. Cells with equal style are emitted as one sequence.
func paint(w io.Writer, fb *render.FrameBuffer, styles map[string]richtext.Style, p termenv.Profile) error {
	rows := strings.Split(fb.String(), "\n")
	for y := range rows {
		var b strings.Builder
		var seg strings.Builder
		var cur cellKey
		flush := func() {
			if seg.Len() > 0 {
				b.WriteString(styled(p, seg.String(), styles, cur))
				seg.Reset()
			}
		}
		width := render.TextWidth(rows[y])
		for x := 0; x < width && x < fb.W; x++ {
			c := fb.At(x, y)
			if c.Rune == 0 {
				continue
			}
			k := cellKey{style: c.Style, selected: c.Selected}
			if k != cur {
				flush()
				cur = k
			}
			seg.WriteRune(c.Rune)
		}
		flush()
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func styled(p termenv.Profile, text string, styles map[string]richtext.Style, k cellKey) string {
	if p == termenv.Ascii || (k.style == "" && !k.selected) {
		return text
	}
	s := p.String(text)
	decl, ok := styles[k.style]
	if !ok && k.style == richtext.KindMention.String() {
		s = s.Underline()
	}
	for prop, val := range decl {
		switch strings.ToLower(prop) {
		case "color":
			s = s.Foreground(p.Color(val))
		case "background", "background-color":
			s = s.Background(p.Color(val))
		case "font-weight":
			if val == "bold" || val == "700" || val == "800" || val == "900" {
				s = s.Bold()
			}
		case "font-style":
			if val == "italic" {
				s = s.Italic()
			}
		case "text-decoration":
			if strings.Contains(val, "underline") {
				s = s.Underline()
			}
			if strings.Contains(val, "line-through") {
				s = s.CrossOut()
			}
		}
	}
	if k.selected {
		s = s.Reverse()
	}
	return s.String()
}
