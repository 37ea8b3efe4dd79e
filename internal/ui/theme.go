package ui

import "richtext/internal/render"

type Theme struct {
	Background render.Cell
	BorderH    render.Cell
	BorderV    render.Cell
	Corner     render.Cell
	ShowBorder bool
	PaddingX   int
	PaddingY   int
}

func DefaultTheme() Theme {
	return Theme{
		Background: render.Blank,
		BorderH:    render.Cell{Rune: '-'},
		BorderV:    render.Cell{Rune: '|'},
		Corner:     render.Cell{Rune: '+'},
		ShowBorder: false,
		PaddingX:   0,
		PaddingY:   0,
	}
}

// BoxedTheme draws a border with one column of padding inside it.
func BoxedTheme() Theme {
	t := DefaultTheme()
	t.ShowBorder = true
	t.PaddingX = 1
	return t
}
