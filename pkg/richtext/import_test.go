package richtext

import "testing"

func TestImportSniffsFormat(t *testing.T) {
	c := sampleContent()
	js, err := ExportJSON(c)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		in   any
		want Format
	}{
		{string(js), FormatJSON},
		{js, FormatJSON},
		{ExportTree(c), FormatTree},
		{ExportMarkdown(c, c.Props.MarkdownTags), FormatMarkdown},
		{"just words", FormatText},
		{"broken <<tag", FormatText},
	}
	for _, tc := range cases {
		got, f, err := Import(tc.in, DefaultProps())
		if err != nil {
			t.Fatalf("Import(%v): %v", tc.in, err)
		}
		if f != tc.want {
			t.Fatalf("Import(%v): format %v, want %v", tc.in, f, tc.want)
		}
		if got == nil || len(got.Lines) == 0 {
			t.Fatalf("Import(%v): empty content", tc.in)
		}
	}
}

func TestImportContentClones(t *testing.T) {
	c := sampleContent()
	got, _, err := Import(c, DefaultProps())
	if err != nil {
		t.Fatal(err)
	}
	got.Lines[0].Runs[0].Text = "changed"
	if c.Lines[0].Runs[0].Text != "hi " {
		t.Fatalf("import shares lines with its input")
	}
	if _, _, err := Import(42, DefaultProps()); err == nil {
		t.Fatalf("expected error for unsupported input")
	}
}

func TestExportFormats(t *testing.T) {
	c := FromText("a\nb", DefaultProps())
	for _, f := range []Format{FormatJSON, FormatTree, FormatMarkdown, FormatText} {
		out, err := Export(c, f)
		if err != nil {
			t.Fatal(err)
		}
		back, err := ImportAs(out, f, DefaultProps())
		if err != nil {
			t.Fatalf("%v: %v", f, err)
		}
		if back.Text() != "a\nb" {
			t.Fatalf("%v: round trip text %q", f, back.Text())
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "JSON": FormatJSON, "html": FormatTree, "md": FormatMarkdown, "txt": FormatText} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
