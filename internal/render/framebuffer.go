package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Cell is one terminal column. A wide rune occupies two cells; the second
// has Rune 0.
type Cell struct {
	Rune     rune
	Style    string
	Selected bool
}

var Blank = Cell{Rune: ' '}

type FrameBuffer struct {
	W     int
	H     int
	Cells []Cell
}

func NewFrameBuffer(w, h int) *FrameBuffer {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	fb := &FrameBuffer{W: w, H: h, Cells: make([]Cell, w*h)}
	fb.Clear(Blank)
	return fb
}

func (fb *FrameBuffer) Clear(c Cell) {
	for i := range fb.Cells {
		fb.Cells[i] = c
	}
}

func (fb *FrameBuffer) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < fb.W && y < fb.H
}

func (fb *FrameBuffer) At(x, y int) Cell {
	if !fb.inside(x, y) {
		return Cell{}
	}
	return fb.Cells[y*fb.W+x]
}

func (fb *FrameBuffer) Set(x, y int, c Cell) bool {
	if !fb.inside(x, y) {
		return false
	}
	fb.Cells[y*fb.W+x] = c
	return true
}

func (fb *FrameBuffer) FillRect(x, y, w, h int, c Cell) {
	if w <= 0 || h <= 0 {
		return
	}
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > fb.W {
		w = fb.W - x
	}
	if y+h > fb.H {
		h = fb.H - y
	}
	if w <= 0 || h <= 0 {
		return
	}
	for row := 0; row < h; row++ {
		off := (y+row)*fb.W + x
		for col := 0; col < w; col++ {
			fb.Cells[off+col] = c
		}
	}
}

// StrokeRect draws a box outline with horizontal, vertical and corner cells.
func (fb *FrameBuffer) StrokeRect(x, y, w, h int, horiz, vert, corner Cell) {
	if w <= 0 || h <= 0 {
		return
	}
	fb.FillRect(x, y, w, 1, horiz)
	fb.FillRect(x, y+h-1, w, 1, horiz)
	fb.FillRect(x, y, 1, h, vert)
	fb.FillRect(x+w-1, y, 1, h, vert)
	fb.Set(x, y, corner)
	fb.Set(x+w-1, y, corner)
	fb.Set(x, y+h-1, corner)
	fb.Set(x+w-1, y+h-1, corner)
}

// DrawRune writes r at (x, y) and returns the number of columns it takes.
// Zero-width runes are dropped; a wide rune that does not fit is clipped.
func (fb *FrameBuffer) DrawRune(x, y int, r rune, c Cell) int {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return 0
	}
	c.Rune = r
	fb.Set(x, y, c)
	for i := 1; i < w; i++ {
		cont := c
		cont.Rune = 0
		fb.Set(x+i, y, cont)
	}
	return w
}

// DrawText writes text starting at (x, y) and returns the x after it.
func (fb *FrameBuffer) DrawText(x, y int, text string, c Cell) int {
	for _, r := range text {
		x += fb.DrawRune(x, y, r, c)
	}
	return x
}

// Row returns the text of row y without trailing blanks.
func (fb *FrameBuffer) Row(y int) string {
	if y < 0 || y >= fb.H {
		return ""
	}
	var b strings.Builder
	for _, c := range fb.Cells[y*fb.W : (y+1)*fb.W] {
		if c.Rune != 0 {
			b.WriteRune(c.Rune)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// String renders every row, dropping trailing empty rows.
func (fb *FrameBuffer) String() string {
	rows := make([]string, fb.H)
	last := -1
	for y := range rows {
		rows[y] = fb.Row(y)
		if rows[y] != "" {
			last = y
		}
	}
	return strings.Join(rows[:last+1], "\n")
}

func TextWidth(s string) int {
	return runewidth.StringWidth(s)
}
