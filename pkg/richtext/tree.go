package richtext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	classLine         = "rt-line"
	classRun          = "rt-run"
	classProps        = "rt-props"
	classDecimalLeft  = "rt-decimal-left"
	classDecimalRight = "rt-decimal-right"
	classAlignPrefix  = "rt-align-"
)

var ErrNotTree = errors.New("richtext: input is not tree markup")

// treeProps is the sidecar form of the props that are not the style table.
type treeProps struct {
	Alignment         string       `json:"alignment"`
	DecimalPercent    int          `json:"decimalAlignPercent"`
	MarkdownTags      MarkdownTags `json:"markdownTags"`
	AllowMultiLine    bool         `json:"allowMultiLine"`
	AllowMarkdownMode bool         `json:"allowMarkdownMode"`
	ShowMarkdownMode  bool         `json:"showMarkdownMode"`
}

// ExportTree renders c as tree markup: one element per line and a trailing
// sidecar holding the style table and the other document props.
func ExportTree(c *Content) string {
	var buf bytes.Buffer
	for i := range c.Lines {
		_ = html.Render(&buf, lineNode(&c.Lines[i]))
	}
	_ = html.Render(&buf, propsNode(c.Props))
	return buf.String()
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func lineNode(l *Line) *html.Node {
	n := element(atom.Div,
		attr("class", classLine+" "+classAlignPrefix+l.Alignment.String()),
		attr("data-decimal", strconv.Itoa(l.DecimalPercent)))
	if l.Alignment != AlignDecimal {
		appendRunNodes(n, l.Runs)
		return n
	}
	left, right := l.DecimalParts()
	ln := element(atom.Span, attr("class", classDecimalLeft))
	rn := element(atom.Span, attr("class", classDecimalRight))
	appendRunNodes(ln, left)
	appendRunNodes(rn, right)
	n.AppendChild(ln)
	n.AppendChild(rn)
	return n
}

func appendRunNodes(parent *html.Node, runs []TextRun) {
	for _, r := range runs {
		parent.AppendChild(runNode(r))
	}
}

func runNode(r TextRun) *html.Node {
	n := element(atom.Span, attr("class", classRun), attr("data-kind", r.Kind.String()))
	if r.Style != "" {
		n.Attr = append(n.Attr, attr("data-style", r.Style))
	}
	if r.Locked {
		n.Attr = append(n.Attr, attr("data-locked", "true"))
	}
	if r.Label != "" {
		n.Attr = append(n.Attr, attr("data-label", r.Label))
	}
	if len(r.Payload) > 0 {
		b, _ := json.Marshal(r.Payload)
		n.Attr = append(n.Attr, attr("data-payload", string(b)))
	}
	if r.Options != nil {
		b, _ := json.Marshal(r.Options)
		n.Attr = append(n.Attr, attr("data-options", string(b)))
	}
	if r.Text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: r.Text})
	}
	return n
}

func propsNode(p Props) *html.Node {
	styles := p.Styles
	if styles == nil {
		styles = map[string]Style{}
	}
	sb, _ := json.Marshal(styles)
	pb, _ := json.Marshal(treeProps{
		Alignment:         p.Alignment.String(),
		DecimalPercent:    p.DecimalPercent,
		MarkdownTags:      p.MarkdownTags,
		AllowMultiLine:    p.AllowMultiLine,
		AllowMarkdownMode: p.AllowMarkdownMode,
		ShowMarkdownMode:  p.ShowMarkdownMode,
	})
	return element(atom.Div, attr("class", classProps), attr("data-styles", string(sb)), attr("data-props", string(pb)))
}

// ImportTree parses tree markup. Input of any other shape yields ErrNotTree.
// Props missing from the sidecar are taken from defaults.
func ImportTree(s string, defaults Props) (*Content, error) {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotTree, err)
	}
	c := &Content{Props: defaults.Clone()}
	sawProps := false
	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode && strings.TrimSpace(n.Data) == "":
			continue
		case n.Type == html.CommentNode:
			continue
		case sawProps:
			return nil, fmt.Errorf("%w: content after props sidecar", ErrNotTree)
		case isElement(n, atom.Div, classLine):
			line, err := parseLineNode(n)
			if err != nil {
				return nil, err
			}
			c.Lines = append(c.Lines, line)
		case isElement(n, atom.Div, classProps):
			if err := parsePropsNode(n, &c.Props); err != nil {
				return nil, err
			}
			sawProps = true
		default:
			return nil, fmt.Errorf("%w: unexpected node %q", ErrNotTree, n.Data)
		}
	}
	if len(c.Lines) == 0 {
		return nil, fmt.Errorf("%w: no lines", ErrNotTree)
	}
	return c, nil
}

// ImportTreeOrText reads tree markup and falls back to plain text.
func ImportTreeOrText(s string, defaults Props) *Content {
	c, err := ImportTree(s, defaults)
	if err != nil {
		return FromText(s, defaults)
	}
	return c
}

func isElement(n *html.Node, a atom.Atom, class string) bool {
	return n.Type == html.ElementNode && n.DataAtom == a && hasClass(n, class)
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(getAttr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func parseLineNode(n *html.Node) (Line, error) {
	line := Line{DecimalPercent: 50}
	for _, f := range strings.Fields(getAttr(n, "class")) {
		if name, ok := strings.CutPrefix(f, classAlignPrefix); ok {
			a, err := ParseAlignment(name)
			if err != nil {
				return Line{}, fmt.Errorf("%w: %v", ErrNotTree, err)
			}
			line.Alignment = a
		}
	}
	if v, ok := lookupAttr(n, "data-decimal"); ok {
		pct, err := strconv.Atoi(v)
		if err != nil {
			return Line{}, fmt.Errorf("%w: bad decimal split %q", ErrNotTree, v)
		}
		line.DecimalPercent = clampInt(pct, 0, 100)
	}
	var runs []TextRun
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case isElement(ch, atom.Span, classRun):
			r, err := parseRunNode(ch)
			if err != nil {
				return Line{}, err
			}
			runs = append(runs, r)
		case isElement(ch, atom.Span, classDecimalLeft), isElement(ch, atom.Span, classDecimalRight):
			for gc := ch.FirstChild; gc != nil; gc = gc.NextSibling {
				if !isElement(gc, atom.Span, classRun) {
					return Line{}, fmt.Errorf("%w: unexpected node in decimal part", ErrNotTree)
				}
				r, err := parseRunNode(gc)
				if err != nil {
					return Line{}, err
				}
				runs = append(runs, r)
			}
		default:
			return Line{}, fmt.Errorf("%w: unexpected node %q in line", ErrNotTree, ch.Data)
		}
	}
	line.Runs = normalizeRuns(runs)
	return line, nil
}

func parseRunNode(n *html.Node) (TextRun, error) {
	var text strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type != html.TextNode {
			return TextRun{}, fmt.Errorf("%w: run holds %q", ErrNotTree, ch.Data)
		}
		text.WriteString(ch.Data)
	}
	r := TextRun{
		Text:   Normalize(text.String()),
		Style:  getAttr(n, "data-style"),
		Kind:   parseRunKind(getAttr(n, "data-kind")),
		Locked: getAttr(n, "data-locked") == "true",
		Label:  getAttr(n, "data-label"),
	}
	if v, ok := lookupAttr(n, "data-payload"); ok {
		if err := json.Unmarshal([]byte(v), &r.Payload); err != nil {
			return TextRun{}, fmt.Errorf("%w: run payload: %v", ErrNotTree, err)
		}
	}
	if v, ok := lookupAttr(n, "data-options"); ok {
		if err := json.Unmarshal([]byte(v), &r.Options); err != nil {
			return TextRun{}, fmt.Errorf("%w: run options: %v", ErrNotTree, err)
		}
	}
	return r, nil
}

func parsePropsNode(n *html.Node, p *Props) error {
	if v, ok := lookupAttr(n, "data-styles"); ok {
		styles := map[string]Style{}
		if err := json.Unmarshal([]byte(v), &styles); err != nil {
			return fmt.Errorf("%w: style table: %v", ErrNotTree, err)
		}
		p.Styles = styles
	}
	if v, ok := lookupAttr(n, "data-props"); ok {
		var tp treeProps
		if err := json.Unmarshal([]byte(v), &tp); err != nil {
			return fmt.Errorf("%w: props: %v", ErrNotTree, err)
		}
		a, err := ParseAlignment(tp.Alignment)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotTree, err)
		}
		p.Alignment = a
		p.DecimalPercent = tp.DecimalPercent
		p.MarkdownTags = tp.MarkdownTags
		p.AllowMultiLine = tp.AllowMultiLine
		p.AllowMarkdownMode = tp.AllowMarkdownMode
		p.ShowMarkdownMode = tp.ShowMarkdownMode
	}
	return nil
}
