package richtext

import (
	"errors"
	"testing"
)

func TestMarkdownMentionRoundTrip(t *testing.T) {
	in := "@[@moreContent@]"
	c, err := ImportMarkdown(in, DefaultProps())
	if err != nil {
		t.Fatal(err)
	}
	runs := c.Lines[0].Runs
	if len(runs) != 1 || runs[0].Kind != KindMention || runs[0].Text != "@moreContent" || runs[0].Style != "" {
		t.Fatalf("unexpected runs %#v", runs)
	}
	if got := ExportMarkdown(c, c.Props.MarkdownTags); got != in {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestMarkdownStyledAndChoiceRuns(t *testing.T) {
	c := New(DefaultProps())
	c.Lines[0] = NewLine(
		TextRun{Text: "a"},
		TextRun{Text: "bc", Style: "b"},
		NewChoice([]string{"x", "y"}, 1, "hot"),
	)
	got := ExportMarkdown(c, c.Props.MarkdownTags)
	want := "a<<b::bc>>(¬(hot::x||**y)¬)"
	if got != want {
		t.Fatalf("export mismatch:\n got %q\nwant %q", got, want)
	}
	back, err := ImportMarkdown(got, DefaultProps())
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(c) {
		t.Fatalf("import mismatch: %#v", back.Lines[0].Runs)
	}
}

func TestMarkdownDefaultStyleIsPlain(t *testing.T) {
	c, err := ImportMarkdown("<<default::hi>> there", DefaultProps())
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Lines[0].Runs) != 1 || c.Lines[0].Text() != "hi there" {
		t.Fatalf("default style should merge into plain text, got %#v", c.Lines[0].Runs)
	}
}

func TestMarkdownBodyWithSeparator(t *testing.T) {
	c := New(DefaultProps())
	c.Lines[0] = NewLine(NewMention("@a::b", ""))
	out := ExportMarkdown(c, c.Props.MarkdownTags)
	if out != "@[::@a::b@]" {
		t.Fatalf("separator in body should get an empty style name, got %q", out)
	}
	back, err := ImportMarkdown(out, DefaultProps())
	if err != nil {
		t.Fatal(err)
	}
	if back.Lines[0].Runs[0].Text != "@a::b" {
		t.Fatalf("unexpected body %q", back.Lines[0].Runs[0].Text)
	}
}

func TestMarkdownMultiLine(t *testing.T) {
	c, err := ImportMarkdown("one\n<<b::two>>", DefaultProps())
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Lines) != 2 || c.Lines[1].Runs[0].Style != "b" {
		t.Fatalf("unexpected lines %#v", c.Lines)
	}
}

func TestMarkdownReportsAllViolations(t *testing.T) {
	_, err := ImportMarkdown("a >> b <<x::y", DefaultProps())
	var merr *MarkdownError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MarkdownError, got %v", err)
	}
	if len(merr.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %#v", merr.Violations)
	}
	if !errors.Is(err, ErrUnexpectedEndTag) || !errors.Is(err, ErrUnterminatedTag) {
		t.Fatalf("violations not reachable through errors.Is: %v", err)
	}
	if merr.Violations[0].Column != 2 || merr.Violations[1].Column != 7 {
		t.Fatalf("unexpected columns %#v", merr.Violations)
	}
}

func TestMarkdownRejectsNestedTags(t *testing.T) {
	_, err := ImportMarkdown("<<b::@[x>>", DefaultProps())
	if !errors.Is(err, ErrMisorderedTag) {
		t.Fatalf("expected ErrMisorderedTag, got %v", err)
	}
}

func TestMarkdownCustomTags(t *testing.T) {
	props := DefaultProps()
	props.MarkdownTags.StyleStart = "{"
	props.MarkdownTags.StyleEnd = "}"
	props.MarkdownTags.Separator = "|"
	c, err := ImportMarkdown("{b|bold} <<x>>", props)
	if err != nil {
		t.Fatal(err)
	}
	runs := c.Lines[0].Runs
	if runs[0].Style != "b" || runs[0].Text != "bold" || runs[1].Text != " <<x>>" {
		t.Fatalf("unexpected runs %#v", runs)
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	custom := DefaultProps()
	custom.MarkdownTags = MarkdownTags{
		StyleStart:      "{{",
		StyleEnd:        "}}",
		MentionStart:    "[[",
		MentionEnd:      "]]",
		ChoiceStart:     "<?",
		ChoiceEnd:       "?>",
		Separator:       "=",
		SelectedMarker:  "*",
		OptionSeparator: "/",
		DefaultStyle:    "plain",
	}

	cases := []struct {
		name  string
		props Props
		lines []Line
		want  string
	}{
		{
			name:  "styled text ending in end tag character",
			props: DefaultProps(),
			lines: []Line{NewLine(TextRun{Text: "a->", Style: "s"}, TextRun{Text: " b"})},
			want:  "<<s::a->>> b",
		},
		{
			name:  "plain text ending in start tag character",
			props: DefaultProps(),
			lines: []Line{NewLine(TextRun{Text: "x<"}, TextRun{Text: "b", Style: "s"})},
			want:  "x<<<s::b>>",
		},
		{
			name:  "adjacent styled runs",
			props: DefaultProps(),
			lines: []Line{NewLine(TextRun{Text: "q>", Style: "s"}, TextRun{Text: "r", Style: "t"})},
		},
		{
			name:  "mentions next to sigils",
			props: DefaultProps(),
			lines: []Line{NewLine(TextRun{Text: "x@"}, NewMention("@y", ""), TextRun{Text: " "}, NewMention("@z@", "m"))},
		},
		{
			name:  "choice option ending in bracket",
			props: DefaultProps(),
			lines: []Line{NewLine(TextRun{Text: "pick "}, NewChoice([]string{"x", "y)"}, 1, "hot"))},
			want:  "pick (¬(hot::x||**y))¬)",
		},
		{
			name:  "empty styled line between lines",
			props: DefaultProps(),
			lines: []Line{
				NewLine(TextRun{Text: "one", Style: "b"}),
				NewLine(TextRun{Style: "b"}),
				NewLine(TextRun{Text: "three "}, NewMention("@c", "")),
			},
			want: "<<b::one>>\n<<b::>>\nthree @[@c@]",
		},
		{
			name:  "custom tags",
			props: custom,
			lines: []Line{NewLine(
				TextRun{Text: "a{"},
				TextRun{Text: "b}", Style: "k"},
				NewMention("@m", ""),
				NewChoice([]string{"p", "q"}, 1, ""),
			)},
			want: "a{{{k=b}}}[[@m]]<?p/*q?>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.props)
			c.Lines = tc.lines
			out := ExportMarkdown(c, tc.props.MarkdownTags)
			if tc.want != "" && out != tc.want {
				t.Fatalf("export mismatch:\n got %q\nwant %q", out, tc.want)
			}
			back, err := ImportMarkdown(out, tc.props)
			if err != nil {
				t.Fatalf("import %q: %v", out, err)
			}
			if !back.Equal(c) {
				t.Fatalf("round trip of %q changed content:\n got %#v\nwant %#v", out, back.Lines, c.Lines)
			}
		})
	}
}
