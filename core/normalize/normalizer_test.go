package normalize_test

import (
	"strings"
	"testing"

	"github.com/gaurav-prasanna/wipipe/core/normalize"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "paragraph with nbsp", in: "<p>See&nbsp;attached</p>", want: "See attached"},
		{name: "tags become spaces", in: "one<br>two<br/>three", want: "one two three"},
		{name: "nested markup", in: "<div><b>Bold</b> and <i>italic</i></div>", want: "Bold and italic"},
		{name: "entities", in: "Tom &amp; Jerry &quot;cartoon&quot; it&#39;s &lt;3", want: `Tom & Jerry "cartoon" it's <3`},
		{name: "apos spelling stays literal", in: "don&apos;t", want: "don&apos;t"},
		{name: "escaped entity decodes through", in: "&amp;lt;", want: "<"},
		{name: "escaped markup in text", in: "<p>x &amp;lt;tag&amp;gt;</p>", want: "x <tag>"},
		{name: "unknown entity stays literal", in: "caf&eacute; &copy;", want: "caf&eacute; &copy;"},
		{name: "whitespace collapse", in: "  a \n\n\t b  ", want: "a b"},
		{name: "nbsp rune collapses", in: "a  b", want: "a b"},
		{name: "tag with attributes", in: `<a href="x">link</a>`, want: "link"},
		{name: "unterminated tag kept", in: "a < b", want: "a < b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize.StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripHTMLRemovesMarkupAndHandledEntities(t *testing.T) {
	inputs := []string{
		"<p>Hello&nbsp;<b>world</b></p>",
		"<ul><li>one</li><li>two &amp; three</li></ul>",
		`<div class="x"><img src="https://example.com/a.png"/>caption&quot;</div>`,
		"<table><tr><td>1</td><td>&#39;2&#39;</td></tr></table>",
	}
	entities := []string{"&nbsp;", "&amp;", "&lt;", "&gt;", "&quot;", "&#39;"}

	for _, in := range inputs {
		out := normalize.StripHTML(in)
		if strings.ContainsAny(out, "<>") {
			t.Errorf("StripHTML(%q) = %q still contains markup", in, out)
		}
		for _, e := range entities {
			if strings.Contains(out, e) {
				t.Errorf("StripHTML(%q) = %q still contains %s", in, out, e)
			}
		}
	}
}

func TestStripHTMLIdempotentOnPlainText(t *testing.T) {
	for _, in := range []string{
		"<p>Fix the   login\nbug</p>",
		"Plain text already",
		"Quotes \"and\" apostrophes ' & ampersands",
	} {
		once := normalize.StripHTML(in)
		if twice := normalize.StripHTML(once); twice != once {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestMarkdownNormalizer(t *testing.T) {
	n := normalize.NewMarkdown()

	if got := n.Normalize("   "); got != "" {
		t.Errorf("blank input = %q, want empty", got)
	}

	got := n.Normalize("<p>Steps:</p><ul><li>Open <strong>login</strong></li></ul>")
	if !strings.Contains(got, "**login**") {
		t.Errorf("expected bold markdown, got %q", got)
	}
	if !strings.Contains(got, "- Open") {
		t.Errorf("expected list item, got %q", got)
	}
}

func TestByName(t *testing.T) {
	if _, ok := normalize.ByName("Markdown").(*normalize.Markdown); !ok {
		t.Error("ByName(Markdown) should return *Markdown")
	}
	if _, ok := normalize.ByName("plain").(*normalize.PlainText); !ok {
		t.Error("ByName(plain) should return *PlainText")
	}
	if _, ok := normalize.ByName("").(*normalize.PlainText); !ok {
		t.Error("ByName(\"\") should return *PlainText")
	}
}
