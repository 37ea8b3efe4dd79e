package editor

import (
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"richtext/internal/platform"
	"richtext/pkg/richtext"
)

var (
	ErrInvalidUTF8          = errors.New("editor: text must be valid UTF-8")
	ErrMarkdownModeDisabled = errors.New("editor: markdown mode is not allowed")
	ErrNoChoice             = errors.New("editor: no choice run at caret")
	ErrNoMention            = errors.New("editor: no mention is being typed there")
)

// Callbacks notify the host after every content change. Nil entries are
// skipped.
type Callbacks struct {
	OnTextChanged func(text string)
	OnTreeChanged func(markup string)
	OnJSONChanged func(snapshot []byte)
	// OnMentionList may run on a lookup goroutine. It may call Mentions but
	// must not edit the content or start lookups.
	OnMentionList func(key MentionKey, list MentionList)
}

type Options struct {
	Callbacks Callbacks
	Lookup    LookupFunc
	Clipboard Clipboard
	Surface   platform.Surface
	Logger    *slog.Logger
}

// Editor applies edit operations to a Content it owns and keeps the host
// surface and callbacks in sync.
type Editor struct {
	content  *richtext.Content
	opts     Options
	log      *slog.Logger
	mentions *MentionTracker
	typing   *MentionKey

	// per-line alignment from before markdown mode
	savedAlign []lineAlign
}

type lineAlign struct {
	alignment richtext.Alignment
	percent   int
}

func New(c *richtext.Content, opts Options) *Editor {
	if c == nil {
		c = richtext.New(richtext.DefaultProps())
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Clipboard == nil {
		opts.Clipboard = SystemClipboard{}
	}
	e := &Editor{content: c, opts: opts, log: opts.Logger}
	e.mentions = NewMentionTracker(opts.Lookup, e.publishMentions, opts.Logger)
	e.content.CheckStatus()
	return e
}

func (e *Editor) publishMentions(key MentionKey, list MentionList) {
	if cb := e.opts.Callbacks.OnMentionList; cb != nil {
		cb(key, list)
	}
}

func (e *Editor) Content() *richtext.Content { return e.content }

func (e *Editor) Selection() richtext.Selection { return e.content.Selection }

func (e *Editor) Text() string { return e.content.Text() }

func (e *Editor) Tree() string { return richtext.ExportTree(e.content) }

func (e *Editor) JSON() ([]byte, error) { return richtext.ExportJSON(e.content) }

func (e *Editor) Markdown() string {
	return richtext.ExportMarkdown(e.content, e.content.Props.MarkdownTags)
}

// Mentions returns the candidate list for a mention being typed.
func (e *Editor) Mentions(key MentionKey) MentionList { return e.mentions.List(key) }

// TypingMention reports the key of the mention token at the caret, if any.
func (e *Editor) TypingMention() (MentionKey, bool) {
	if e.typing == nil {
		return MentionKey{}, false
	}
	return *e.typing, true
}

// Wait blocks until pending mention lookups have published.
func (e *Editor) Wait() { e.mentions.Wait() }

func (e *Editor) Close() { e.mentions.Close() }

// Replace swaps in new content, e.g. after an import.
func (e *Editor) Replace(c *richtext.Content) {
	if c == nil {
		return
	}
	e.content = c
	e.changed("replace")
}

// Render pushes the current state to the surface without changing it.
func (e *Editor) Render() {
	e.render()
}

func (e *Editor) SetSelection(sel richtext.Selection) {
	e.content.Selection = sel
	e.selectionChanged()
}

func (e *Editor) Move(dir richtext.Direction, extend, byWord bool) {
	e.content.Selection = e.content.Selection.Move(e.content.Geometry(), dir, extend, byWord)
	e.selectionChanged()
}

func (e *Editor) SelectAll() {
	last := len(e.content.Lines) - 1
	e.content.Selection = richtext.Range(richtext.Position{}, richtext.Position{Line: last, Char: e.content.Lines[last].Len()})
	e.selectionChanged()
}

func (e *Editor) HasSelection() bool { return !e.content.Selection.Collapsed() }

// SelectedLines returns a copy of the selected range as standalone lines.
func (e *Editor) SelectedLines() []richtext.Line {
	if !e.HasSelection() {
		return nil
	}
	return e.content.Clone().RemoveSection(e.content.Selection)
}

func (e *Editor) SelectedText() string {
	lines := e.SelectedLines()
	parts := make([]string, len(lines))
	for i := range lines {
		parts[i] = lines[i].Text()
	}
	return strings.Join(parts, "\n")
}

func (e *Editor) InsertText(text string) error {
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}
	if text == "" {
		return nil
	}
	if !e.content.Props.AllowMultiLine {
		text = singleLine(text)
	}
	e.content.InsertText(e.content.Selection, text)
	e.changed("insert")
	return nil
}

func singleLine(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(text)
}

// InsertLineBreak splits the line at the caret. It does nothing for
// single-line content.
func (e *Editor) InsertLineBreak() bool {
	if !e.content.Props.AllowMultiLine {
		return false
	}
	e.content.SplitLine(e.content.Selection)
	e.changed("split")
	return true
}

func (e *Editor) Backspace() {
	if e.content.DeleteCharacter(true, e.content.Selection) == nil {
		return
	}
	e.changed("backspace")
}

func (e *Editor) DeleteForward() {
	if e.content.DeleteCharacter(false, e.content.Selection) == nil {
		return
	}
	e.changed("delete")
}

// DeleteWordBackward removes back to the previous word stop on the line.
func (e *Editor) DeleteWordBackward() {
	sel := e.content.Selection
	if !sel.Collapsed() || sel.FocusChar == 0 {
		e.Backspace()
		return
	}
	target := sel.Move(e.content.Geometry(), richtext.Left, true, true)
	e.content.Splice(target, nil)
	e.changed("delete-word")
}

func (e *Editor) DeleteWordForward() {
	sel := e.content.Selection
	if !sel.Collapsed() || sel.FocusChar == e.content.Lines[sel.FocusLine].Len() {
		e.DeleteForward()
		return
	}
	target := sel.Move(e.content.Geometry(), richtext.Right, true, true)
	e.content.Splice(target, nil)
	e.changed("delete-word")
}

func (e *Editor) Copy() error {
	if !e.HasSelection() {
		return nil
	}
	return e.opts.Clipboard.WriteAll(e.SelectedText())
}

func (e *Editor) Cut() error {
	if !e.HasSelection() {
		return nil
	}
	if err := e.opts.Clipboard.WriteAll(e.SelectedText()); err != nil {
		return err
	}
	e.content.RemoveSection(e.content.Selection)
	e.changed("cut")
	return nil
}

// Paste inserts the clipboard at the selection. Clipboard text in any of the
// import formats keeps its structure; plain text promotes mention tokens.
func (e *Editor) Paste() error {
	text, err := e.opts.Clipboard.ReadAll()
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	pasted, format, err := richtext.Import(text, e.content.Props)
	if err != nil {
		return err
	}
	lines := pasted.Lines
	if !e.content.Props.AllowMultiLine && len(lines) > 1 {
		lines = []richtext.Line{joinLines(lines)}
	}
	e.content.Splice(e.content.Selection, lines)
	e.log.Debug("paste", "format", format, "lines", len(lines))
	e.changed("paste")
	return nil
}

func joinLines(lines []richtext.Line) richtext.Line {
	var runs []richtext.TextRun
	for i := range lines {
		if i > 0 {
			runs = append(runs, richtext.TextRun{Text: " "})
		}
		runs = append(runs, lines[i].Runs...)
	}
	out := richtext.NewLine(runs...)
	out.Alignment = lines[0].Alignment
	out.DecimalPercent = lines[0].DecimalPercent
	return out
}

func (e *Editor) ApplyStyle(tag string) {
	if !e.HasSelection() {
		return
	}
	e.content.ApplyStyle(tag, e.content.Selection)
	e.changed("style")
}

func (e *Editor) RemoveStyle() {
	if !e.HasSelection() {
		return
	}
	e.content.RemoveStyle(e.content.Selection)
	e.changed("unstyle")
}

func (e *Editor) SetAlignment(a richtext.Alignment, percent int) {
	e.content.SetAlignment(e.content.Selection, a, percent)
	e.changed("align")
}

// SelectChoice switches the choice run under the caret or selection start.
func (e *Editor) SelectChoice(option int) error {
	p := e.content.Selection.Start()
	if err := e.content.SelectChoice(p.Line, p.Char, option); err != nil {
		if errors.Is(err, richtext.ErrOutOfRange) {
			return ErrNoChoice
		}
		return err
	}
	e.changed("choice")
	return nil
}

// ToggleMarkdownMode switches between rich editing and editing the markdown
// source as plain text. Leaving markdown mode parses the source and fails,
// staying in markdown mode, if it does not parse.
func (e *Editor) ToggleMarkdownMode() error {
	props := e.content.Props
	if !props.AllowMarkdownMode {
		return ErrMarkdownModeDisabled
	}
	if props.ShowMarkdownMode {
		parsed, err := richtext.ImportMarkdown(e.content.Text(), props)
		if err != nil {
			return err
		}
		parsed.Props.ShowMarkdownMode = false
		for i := range parsed.Lines {
			if i < len(e.savedAlign) {
				parsed.Lines[i].Alignment = e.savedAlign[i].alignment
				parsed.Lines[i].DecimalPercent = e.savedAlign[i].percent
			}
		}
		e.savedAlign = nil
		e.content = parsed
		e.changed("markdown-off")
		return nil
	}

	e.savedAlign = e.savedAlign[:0]
	for i := range e.content.Lines {
		e.savedAlign = append(e.savedAlign, lineAlign{e.content.Lines[i].Alignment, e.content.Lines[i].DecimalPercent})
	}
	source := strings.Split(e.Markdown(), "\n")
	src := &richtext.Content{Props: props}
	src.Props.ShowMarkdownMode = true
	for _, s := range source {
		src.Lines = append(src.Lines, richtext.NewLine(richtext.TextRun{Text: richtext.Normalize(s)}))
	}
	e.content = src
	e.changed("markdown-on")
	return nil
}

// AcceptMention replaces the token typed at key with a locked mention built
// from c.
func (e *Editor) AcceptMention(key MentionKey, c Candidate) error {
	if key.Line < 0 || key.Line >= len(e.content.Lines) {
		return ErrNoMention
	}
	end, ok := tokenEnd(&e.content.Lines[key.Line], key.Char)
	if !ok {
		return ErrNoMention
	}
	text := c.Text
	if text == "" {
		text = richtext.MentionSigil + c.Label
	}
	style, _ := e.content.StyleAt(key.Line, key.Char)
	run := richtext.NewMention(text, style)
	run.Label = c.Label
	run.Payload = c.Payload

	e.mentions.Cancel(key)
	e.typing = nil
	sel := richtext.Range(richtext.Position{Line: key.Line, Char: key.Char}, richtext.Position{Line: key.Line, Char: end})
	e.content.Splice(sel, []richtext.Line{{Runs: []richtext.TextRun{run}}})
	e.changed("mention")
	return nil
}

func (e *Editor) selectionChanged() {
	e.content.CheckStatus()
	e.trackMention()
	if s := e.opts.Surface; s != nil {
		s.SetSelection(e.content.Selection)
	}
}

func (e *Editor) changed(op string) {
	e.content.CheckStatus()
	e.trackMention()
	e.render()

	cb := e.opts.Callbacks
	if cb.OnTextChanged != nil {
		cb.OnTextChanged(e.content.Text())
	}
	if cb.OnTreeChanged != nil {
		cb.OnTreeChanged(richtext.ExportTree(e.content))
	}
	if cb.OnJSONChanged != nil {
		b, err := richtext.ExportJSON(e.content)
		if err != nil {
			e.log.Error("json export failed", "err", err)
		} else {
			cb.OnJSONChanged(b)
		}
	}
	e.log.Debug("content changed", "op", op, "lines", len(e.content.Lines))
}

func (e *Editor) render() {
	s := e.opts.Surface
	if s == nil {
		return
	}
	if err := s.Render(platform.FrameOf(e.content)); err != nil {
		e.log.Warn("render failed", "surface", s.Name(), "err", err)
	}
	s.SetSelection(e.content.Selection)
}

// trackMention issues a lookup when the caret sits at the end of a typed
// mention token and drops the previous token when it moved elsewhere.
func (e *Editor) trackMention() {
	key, token, ok := e.mentionAtCaret()
	if e.typing != nil && (!ok || *e.typing != key) {
		e.mentions.Cancel(*e.typing)
		e.typing = nil
	}
	if !ok || e.content.Props.ShowMarkdownMode {
		return
	}
	if e.typing != nil && e.mentions.List(key).Token == token {
		return
	}
	e.typing = &key
	e.mentions.Request(key, token)
}

func (e *Editor) mentionAtCaret() (MentionKey, string, bool) {
	sel := e.content.Selection
	if !sel.Collapsed() {
		return MentionKey{}, "", false
	}
	line := &e.content.Lines[sel.FocusLine]
	start, token, ok := tokenBefore(line, sel.FocusChar)
	if !ok {
		return MentionKey{}, "", false
	}
	return MentionKey{Line: sel.FocusLine, Char: start}, token, true
}

// tokenBefore finds the plain-text word that ends at char and starts with
// the mention sigil.
func tokenBefore(l *richtext.Line, char int) (int, string, bool) {
	off := 0
	for _, r := range l.Runs {
		n := r.Len()
		if char > off && char <= off+n {
			if r.Atomic() {
				return 0, "", false
			}
			head := []rune(r.Text)[:char-off]
			i := len(head)
			for i > 0 && head[i-1] != ' ' {
				i--
			}
			word := string(head[i:])
			if !strings.HasPrefix(word, richtext.MentionSigil) {
				return 0, "", false
			}
			return off + i, word, true
		}
		off += n
	}
	return 0, "", false
}

// tokenEnd returns the end of the plain sigil word starting at char.
func tokenEnd(l *richtext.Line, char int) (int, bool) {
	off := 0
	for _, r := range l.Runs {
		n := r.Len()
		if char >= off && char < off+n {
			if r.Atomic() {
				return 0, false
			}
			text := []rune(r.Text)[char-off:]
			if !strings.HasPrefix(string(text), richtext.MentionSigil) {
				return 0, false
			}
			end := 0
			for end < len(text) && text[end] != ' ' {
				end++
			}
			return char + end, true
		}
		off += n
	}
	return 0, false
}
