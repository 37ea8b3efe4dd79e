package headless

import (
	"errors"
	"sync"

	"richtext/internal/platform"
	"richtext/internal/render"
	"richtext/internal/ui"
	"richtext/pkg/richtext"
)

var ErrClosed = errors.New("headless: surface closed")

// Backend is an off-screen surface that draws every frame into a text-cell
// buffer. It backs the CLI renderer and tests.
type Backend struct {
	mu     sync.Mutex
	theme  ui.Theme
	status bool
	fb     *render.FrameBuffer
	layout ui.Layout
	frames []platform.Frame
	sel    richtext.Selection
	closed bool
}

var _ platform.Surface = (*Backend)(nil)

func New(w, h int) *Backend {
	return &Backend{theme: ui.DefaultTheme(), fb: render.NewFrameBuffer(w, h)}
}

func (b *Backend) WithTheme(theme ui.Theme) *Backend {
	b.theme = theme
	return b
}

// WithStatus reserves the last row for a caret and mode indicator.
func (b *Backend) WithStatus(on bool) *Backend {
	b.status = on
	return b
}

func (b *Backend) Name() string { return "headless" }

func (b *Backend) Render(f platform.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.frames = append(b.frames, f)
	b.sel = f.Selection
	b.layout = ui.DrawDocument(b.fb, f, b.theme, b.status)
	return nil
}

// SetSelection redraws the last frame with a new selection.
func (b *Backend) SetSelection(sel richtext.Selection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.sel == sel {
		return
	}
	b.sel = sel
	if len(b.frames) == 0 {
		return
	}
	f := b.frames[len(b.frames)-1]
	f.Selection = sel
	b.layout = ui.DrawDocument(b.fb, f, b.theme, b.status)
}

func (b *Backend) Selection() richtext.Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sel
}

func (b *Backend) Frames() []platform.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.Frame(nil), b.frames...)
}

func (b *Backend) Last() (platform.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.frames) == 0 {
		return platform.Frame{}, false
	}
	return b.frames[len(b.frames)-1], true
}

func (b *Backend) Layout() ui.Layout {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.layout
}

// Cells returns a copy of the current buffer.
func (b *Backend) Cells() *render.FrameBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *b.fb
	cp.Cells = append([]render.Cell(nil), b.fb.Cells...)
	return &cp
}

func (b *Backend) Screen() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fb.String()
}

func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}
