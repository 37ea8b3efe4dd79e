package richtext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotSnapshot = errors.New("richtext: input is not a JSON snapshot")

type Snapshot struct {
	Lines        []SnapshotLine `json:"lines"`
	ContentProps *SnapshotProps `json:"contentProps,omitempty"`
}

type SnapshotLine struct {
	TextBlocks     []SnapshotBlock `json:"textBlocks"`
	Alignment      string          `json:"alignment,omitempty"`
	DecimalPercent *int            `json:"decimalAlignPercent,omitempty"`
}

type SnapshotBlock struct {
	Text    string            `json:"text"`
	Style   string            `json:"style,omitempty"`
	Type    string            `json:"type"`
	Locked  bool              `json:"locked,omitempty"`
	Label   string            `json:"label,omitempty"`
	Payload map[string]string `json:"payload,omitempty"`
	Options []string          `json:"options,omitempty"`
}

type SnapshotProps struct {
	Alignment         string           `json:"alignment"`
	DecimalPercent    int              `json:"decimalAlignPercent"`
	Styles            map[string]Style `json:"styles"`
	MarkdownTags      *MarkdownTags    `json:"markdownTags,omitempty"`
	AllowMultiLine    bool             `json:"allowMultiLine"`
	AllowMarkdownMode bool             `json:"allowMarkdownMode"`
	ShowMarkdownMode  bool             `json:"showMarkdownMode"`
}

func ToSnapshot(c *Content) Snapshot {
	s := Snapshot{Lines: make([]SnapshotLine, len(c.Lines))}
	for i := range c.Lines {
		l := &c.Lines[i]
		pct := l.DecimalPercent
		sl := SnapshotLine{Alignment: l.Alignment.String(), DecimalPercent: &pct}
		for _, r := range l.Runs {
			sl.TextBlocks = append(sl.TextBlocks, SnapshotBlock{
				Text:    r.Text,
				Style:   r.Style,
				Type:    r.Kind.String(),
				Locked:  r.Locked,
				Label:   r.Label,
				Payload: r.Payload,
				Options: r.Options,
			})
		}
		s.Lines[i] = sl
	}
	tags := c.Props.MarkdownTags
	styles := c.Props.Styles
	if styles == nil {
		styles = map[string]Style{}
	}
	s.ContentProps = &SnapshotProps{
		Alignment:         c.Props.Alignment.String(),
		DecimalPercent:    c.Props.DecimalPercent,
		Styles:            styles,
		MarkdownTags:      &tags,
		AllowMultiLine:    c.Props.AllowMultiLine,
		AllowMarkdownMode: c.Props.AllowMarkdownMode,
		ShowMarkdownMode:  c.Props.ShowMarkdownMode,
	}
	return s
}

// FromSnapshot rebuilds a Content. Missing props come from defaults.
func FromSnapshot(s Snapshot, defaults Props) (*Content, error) {
	c := &Content{Props: defaults.Clone()}
	if p := s.ContentProps; p != nil {
		a, err := ParseAlignment(p.Alignment)
		if err != nil {
			return nil, err
		}
		c.Props.Alignment = a
		c.Props.DecimalPercent = clampInt(p.DecimalPercent, 0, 100)
		if p.Styles != nil {
			c.Props.Styles = p.Styles
		}
		if p.MarkdownTags != nil {
			c.Props.MarkdownTags = *p.MarkdownTags
		}
		c.Props.AllowMultiLine = p.AllowMultiLine
		c.Props.AllowMarkdownMode = p.AllowMarkdownMode
		c.Props.ShowMarkdownMode = p.ShowMarkdownMode
	}
	for i, sl := range s.Lines {
		line := Line{Alignment: c.Props.Alignment, DecimalPercent: c.Props.DecimalPercent}
		if sl.Alignment != "" {
			a, err := ParseAlignment(sl.Alignment)
			if err != nil {
				return nil, fmt.Errorf("richtext: line %d: %w", i, err)
			}
			line.Alignment = a
		}
		if sl.DecimalPercent != nil {
			line.DecimalPercent = clampInt(*sl.DecimalPercent, 0, 100)
		}
		runs := make([]TextRun, 0, len(sl.TextBlocks))
		for _, b := range sl.TextBlocks {
			runs = append(runs, TextRun{
				Text:    Normalize(b.Text),
				Style:   b.Style,
				Kind:    parseRunKind(b.Type),
				Locked:  b.Locked,
				Label:   b.Label,
				Payload: b.Payload,
				Options: b.Options,
			})
		}
		line.Runs = normalizeRuns(runs)
		c.Lines = append(c.Lines, line)
	}
	if len(c.Lines) == 0 {
		c.Lines = []Line{c.newLine()}
	}
	return c, nil
}

func ExportJSON(c *Content) ([]byte, error) {
	return json.Marshal(ToSnapshot(c))
}

// ImportJSON decodes a snapshot. Input that is not a JSON object with a
// "lines" array yields ErrNotSnapshot.
func ImportJSON(data []byte, defaults Props) (*Content, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotSnapshot
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSnapshot, err)
	}
	if _, ok := fields["lines"]; !ok {
		return nil, fmt.Errorf("%w: missing lines", ErrNotSnapshot)
	}
	var s Snapshot
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("richtext: decode snapshot: %w", err)
	}
	return FromSnapshot(s, defaults)
}
