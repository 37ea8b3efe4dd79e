package richtext

import (
	"errors"
	"fmt"
	"strings"
)

// Format names an import/export representation.
type Format uint8

const (
	FormatAuto Format = iota
	FormatJSON
	FormatTree
	FormatMarkdown
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatTree:
		return "tree"
	case FormatMarkdown:
		return "markdown"
	case FormatText:
		return "text"
	default:
		return "auto"
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "tree", "html":
		return FormatTree, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "plain", "txt":
		return FormatText, nil
	default:
		return FormatAuto, fmt.Errorf("richtext: unknown format %q", s)
	}
}

// Import accepts a *Content, a Snapshot, or a string/[]byte in any format.
// Strings are sniffed in the order JSON, tree markup, markdown, plain text;
// each failure falls through to the next, so only unsupported input types
// return an error.
func Import(input any, defaults Props) (*Content, Format, error) {
	switch v := input.(type) {
	case *Content:
		if v == nil {
			return New(defaults), FormatAuto, nil
		}
		return v.Clone(), FormatAuto, nil
	case Snapshot:
		c, err := FromSnapshot(v, defaults)
		return c, FormatJSON, err
	case []byte:
		c, f := sniff(string(v), defaults)
		return c, f, nil
	case string:
		c, f := sniff(v, defaults)
		return c, f, nil
	default:
		return nil, FormatAuto, fmt.Errorf("richtext: cannot import %T", input)
	}
}

func sniff(s string, defaults Props) (*Content, Format) {
	if c, err := ImportJSON([]byte(s), defaults); err == nil {
		return c, FormatJSON
	}
	if c, err := ImportTree(s, defaults); err == nil {
		return c, FormatTree
	}
	if looksLikeMarkdown(s, defaults.MarkdownTags.WithDefaults()) {
		if c, err := ImportMarkdown(s, defaults); err == nil {
			return c, FormatMarkdown
		}
	}
	return FromText(s, defaults), FormatText
}

func looksLikeMarkdown(s string, tags MarkdownTags) bool {
	return strings.Contains(s, tags.StyleStart) || strings.Contains(s, tags.MentionStart) || strings.Contains(s, tags.ChoiceStart)
}

// ImportAs reads s in an explicit format. FormatAuto behaves like Import.
func ImportAs(s string, f Format, defaults Props) (*Content, error) {
	switch f {
	case FormatJSON:
		return ImportJSON([]byte(s), defaults)
	case FormatTree:
		return ImportTree(s, defaults)
	case FormatMarkdown:
		return ImportMarkdown(s, defaults)
	case FormatText:
		return FromText(s, defaults), nil
	default:
		c, _ := sniff(s, defaults)
		return c, nil
	}
}

// Export writes c in f. FormatAuto exports JSON.
func Export(c *Content, f Format) (string, error) {
	switch f {
	case FormatTree:
		return ExportTree(c), nil
	case FormatMarkdown:
		return ExportMarkdown(c, c.Props.MarkdownTags), nil
	case FormatText:
		return c.Text(), nil
	case FormatJSON, FormatAuto:
		b, err := ExportJSON(c)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", errors.New("richtext: unknown export format")
	}
}
