package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"richtext/internal/editor"
	"richtext/pkg/richtext"
)

var (
	ErrUnknownCommand = errors.New("app: unknown script command")
	ErrBadArgument    = errors.New("app: bad script argument")
)

// runScript applies one edit command per line to e. Blank lines and lines
// starting with # are skipped.
func runScript(e *editor.Editor, r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		if err := runCommand(e, cmd, strings.TrimSpace(arg)); err != nil {
			return fmt.Errorf("app: script line %d: %w", lineNo, err)
		}
	}
	return sc.Err()
}

func runCommand(e *editor.Editor, cmd, arg string) error {
	switch cmd {
	case "type":
		text, err := scriptText(arg)
		if err != nil {
			return err
		}
		return e.InsertText(text)
	case "break":
		e.InsertLineBreak()
	case "backspace":
		e.Backspace()
	case "delete":
		e.DeleteForward()
	case "delete-word-back":
		e.DeleteWordBackward()
	case "delete-word":
		e.DeleteWordForward()
	case "move":
		return scriptMove(e, strings.Fields(arg))
	case "select":
		return scriptSelect(e, strings.Fields(arg))
	case "select-all":
		e.SelectAll()
	case "style":
		if arg == "" {
			return fmt.Errorf("%w: style needs a tag", ErrBadArgument)
		}
		e.ApplyStyle(arg)
	case "unstyle":
		e.RemoveStyle()
	case "align":
		return scriptAlign(e, strings.Fields(arg))
	case "choice":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		return e.SelectChoice(n)
	case "markdown":
		return e.ToggleMarkdownMode()
	case "copy":
		return e.Copy()
	case "cut":
		return e.Cut()
	case "paste":
		return e.Paste()
	case "mention":
		return scriptMention(e, arg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return nil
}

// scriptText accepts either raw text or a Go quoted string for escapes.
func scriptText(arg string) (string, error) {
	if strings.HasPrefix(arg, `"`) {
		s, err := strconv.Unquote(arg)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		return s, nil
	}
	return arg, nil
}

var directions = map[string]richtext.Direction{
	"left":  richtext.Left,
	"right": richtext.Right,
	"up":    richtext.Up,
	"down":  richtext.Down,
	"home":  richtext.Home,
	"end":   richtext.End,
}

func scriptMove(e *editor.Editor, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: move needs a direction", ErrBadArgument)
	}
	dir, ok := directions[args[0]]
	if !ok {
		return fmt.Errorf("%w: direction %q", ErrBadArgument, args[0])
	}
	var extend, byWord bool
	for _, a := range args[1:] {
		switch a {
		case "extend":
			extend = true
		case "word":
			byWord = true
		default:
			return fmt.Errorf("%w: move flag %q", ErrBadArgument, a)
		}
	}
	e.Move(dir, extend, byWord)
	return nil
}

func scriptSelect(e *editor.Editor, args []string) error {
	if len(args) != 1 && len(args) != 2 {
		return fmt.Errorf("%w: select needs one or two line:char positions", ErrBadArgument)
	}
	start, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	end := start
	if len(args) == 2 {
		if end, err = parsePosition(args[1]); err != nil {
			return err
		}
	}
	e.SetSelection(richtext.Range(start, end))
	return nil
}

func parsePosition(s string) (richtext.Position, error) {
	l, c, ok := strings.Cut(s, ":")
	if !ok {
		return richtext.Position{}, fmt.Errorf("%w: position %q", ErrBadArgument, s)
	}
	line, err1 := strconv.Atoi(l)
	char, err2 := strconv.Atoi(c)
	if err := errors.Join(err1, err2); err != nil {
		return richtext.Position{}, fmt.Errorf("%w: position %q", ErrBadArgument, s)
	}
	return richtext.Position{Line: line, Char: char}, nil
}

func scriptAlign(e *editor.Editor, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: align needs a mode", ErrBadArgument)
	}
	a, err := richtext.ParseAlignment(args[0])
	if err != nil {
		return err
	}
	percent := e.Content().Props.DecimalPercent
	if len(args) > 1 {
		if percent, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
	}
	e.SetAlignment(a, percent)
	return nil
}

// scriptMention waits for the lookup of the token before the caret and
// accepts the candidate at the given index, 0 by default.
func scriptMention(e *editor.Editor, arg string) error {
	idx := 0
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		idx = n
	}
	e.Wait()
	key, ok := e.TypingMention()
	if !ok {
		return editor.ErrNoMention
	}
	list := e.Mentions(key)
	if list.State == editor.MentionError {
		return list.Err
	}
	if idx < 0 || idx >= len(list.Candidates) {
		return fmt.Errorf("%w: no candidate %d for %q", ErrBadArgument, idx, list.Token)
	}
	return e.AcceptMention(key, list.Candidates[idx])
}
