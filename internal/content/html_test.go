package content

import (
	"strings"
	"testing"
)

func TestRenderHTMLCoversEveryNodeKind(t *testing.T) {
	doc := Node{Type: KindDoc, Content: []Node{
		Heading(2, "Findings"),
		Heading(3, "Sub-findings"),
		Paragraph("plain"),
		{Type: KindBlockquote, Content: []Node{Paragraph("quoted")}},
		{Type: KindBulletList, Content: []Node{
			{Type: KindListItem, Content: []Node{Paragraph("first")}},
		}},
		{Type: KindOrderedList, Content: []Node{
			{Type: KindListItem, Content: []Node{Paragraph("step")}},
		}},
		{Type: KindHorizontalRule},
		{Type: KindImage, Attrs: &NodeAttrs{Src: "https://example.com/i.png", Alt: "desk"}},
		{Type: KindTable, Content: []Node{
			{Type: KindTableRow, Content: []Node{
				{Type: KindTableHeader, Content: []Node{Paragraph("h")}},
			}},
			{Type: KindTableRow, Content: []Node{
				{Type: KindTableCell, Content: []Node{Paragraph("c")}},
			}},
		}},
	}}

	rendered := RenderHTML(doc)
	for _, fragment := range []string{
		"<h2>Findings</h2>",
		"<h3>Sub-findings</h3>",
		"<p>plain</p>",
		"<blockquote><p>quoted</p></blockquote>",
		"<ul><li><p>first</p></li></ul>",
		"<ol><li><p>step</p></li></ol>",
		"<hr>",
		`<img src="https://example.com/i.png" alt="desk">`,
		"<table><tbody><tr><th><p>h</p></th></tr><tr><td><p>c</p></td></tr></tbody></table>",
	} {
		if !strings.Contains(rendered, fragment) {
			t.Fatalf("rendered markup missing %q:\n%s", fragment, rendered)
		}
	}
}

func TestRenderHTMLMarks(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "bold",
			node: Paragraph("b", Mark{Type: MarkBold}),
			want: "<p><strong>b</strong></p>",
		},
		{
			name: "stacked",
			node: Paragraph("bi", Mark{Type: MarkBold}, Mark{Type: MarkItalic}),
			want: "<p><strong><em>bi</em></strong></p>",
		},
		{
			name: "underline-highlight",
			node: Paragraph("uh", Mark{Type: MarkUnderline}, Mark{Type: MarkHighlight}),
			want: "<p><u><mark>uh</mark></u></p>",
		},
		{
			name: "link",
			node: Paragraph("src", Mark{Type: MarkLink, Attrs: &MarkAttrs{Href: "https://example.com/?a=1&b=2"}}),
			want: `<p><a href="https://example.com/?a=1&amp;b=2">src</a></p>`,
		},
		{
			name: "link-without-target-skipped",
			node: Paragraph("bare", Mark{Type: MarkLink}),
			want: "<p>bare</p>",
		},
		{
			name: "unknown-mark-ignored",
			node: Paragraph("x", Mark{Type: MarkKind("sparkle")}),
			want: "<p>x</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Node{Type: KindDoc, Content: []Node{tt.node}}
			if got := RenderHTML(doc); got != tt.want {
				t.Fatalf("unexpected markup: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestRenderHTMLEscapesText(t *testing.T) {
	doc := Node{Type: KindDoc, Content: []Node{
		Paragraph(`<script>alert("x")</script> & friends`),
	}}
	rendered := RenderHTML(doc)
	if strings.Contains(rendered, "<script>") {
		t.Fatalf("executable markup survived rendering: %s", rendered)
	}
	if !strings.Contains(rendered, "&amp; friends") {
		t.Fatalf("expected ampersand escaping: %s", rendered)
	}
}

func TestRenderHTMLSkipsImageWithoutSource(t *testing.T) {
	doc := Node{Type: KindDoc, Content: []Node{{Type: KindImage}}}
	if got := RenderHTML(doc); got != "" {
		t.Fatalf("image without src should render nothing, got %q", got)
	}
}

func TestDecodeDocumentRoundTrip(t *testing.T) {
	editor := NewEditor()
	editor.InsertHeading(2, "Office Politics")
	editor.InsertParagraph("A longitudinal study.")
	editor.ToggleMark(MarkItalic)
	editor.InsertTable()
	editor.InsertImage("https://example.com/squeak.png")

	encoded, err := EncodeDocument(editor.Document())
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	decoded, err := DecodeDocument(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if RenderHTML(decoded) != RenderHTML(editor.Document()) {
		t.Fatalf("round-trip changed rendered markup")
	}

	resumed := EditorFromDocument(decoded)
	if resumed.BlockCount() != editor.BlockCount() {
		t.Fatalf("round-trip changed block count: got %d want %d",
			resumed.BlockCount(), editor.BlockCount())
	}
}

func TestDecodeDocumentEmptyPayload(t *testing.T) {
	doc, err := DecodeDocument(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Type != KindDoc || len(doc.Content) == 0 {
		t.Fatalf("empty payload should decode to a fresh document")
	}
}

func TestDecodeDocumentRejectsGarbage(t *testing.T) {
	if _, err := DecodeDocument([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error for malformed payload")
	}
}

func TestPlainTextFlattensTree(t *testing.T) {
	doc := Node{Type: KindDoc, Content: []Node{
		Heading(2, "Chairs"),
		Paragraph("They squeak."),
	}}
	if got := PlainText(doc); got != "Chairs They squeak." {
		t.Fatalf("unexpected plain text: %q", got)
	}
}
