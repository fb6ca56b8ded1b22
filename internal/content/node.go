package content

import (
	"encoding/json"
	"errors"
	"strings"
)

// NodeKind tags a document tree node. Unknown kinds survive decoding so a
// document written by a newer editor still loads; the renderer falls back to
// the node's children.
type NodeKind string

const (
	KindDoc            NodeKind = "doc"
	KindParagraph      NodeKind = "paragraph"
	KindHeading        NodeKind = "heading"
	KindBlockquote     NodeKind = "blockquote"
	KindBulletList     NodeKind = "bulletList"
	KindOrderedList    NodeKind = "orderedList"
	KindListItem       NodeKind = "listItem"
	KindHorizontalRule NodeKind = "horizontalRule"
	KindTable          NodeKind = "table"
	KindTableRow       NodeKind = "tableRow"
	KindTableHeader    NodeKind = "tableHeader"
	KindTableCell      NodeKind = "tableCell"
	KindImage          NodeKind = "image"
	KindText           NodeKind = "text"
)

// MarkKind tags an inline mark on a text node.
type MarkKind string

const (
	MarkBold      MarkKind = "bold"
	MarkItalic    MarkKind = "italic"
	MarkUnderline MarkKind = "underline"
	MarkHighlight MarkKind = "highlight"
	MarkLink      MarkKind = "link"
)

// ErrInvalidDocument indicates the payload could not be decoded as a document tree.
var ErrInvalidDocument = errors.New("content: invalid document payload")

// NodeAttrs carries the per-kind attributes a node may declare. Only the
// fields relevant to the node's kind are populated.
type NodeAttrs struct {
	Level int    `json:"level,omitempty"`
	Src   string `json:"src,omitempty"`
	Alt   string `json:"alt,omitempty"`
}

// MarkAttrs carries mark attributes; only link marks use it.
type MarkAttrs struct {
	Href string `json:"href,omitempty"`
}

// Mark annotates a text span with inline formatting.
type Mark struct {
	Type  MarkKind   `json:"type"`
	Attrs *MarkAttrs `json:"attrs,omitempty"`
}

// Node is one vertex of the document tree. Block nodes carry children in
// Content; text leaves carry Text plus optional Marks.
type Node struct {
	Type    NodeKind   `json:"type"`
	Attrs   *NodeAttrs `json:"attrs,omitempty"`
	Content []Node     `json:"content,omitempty"`
	Marks   []Mark     `json:"marks,omitempty"`
	Text    string     `json:"text,omitempty"`
}

// NewDocument returns an empty document holding a single blank paragraph.
func NewDocument() Node {
	return Node{
		Type:    KindDoc,
		Content: []Node{Paragraph("")},
	}
}

// Paragraph builds a paragraph block around the provided text spans. A plain
// string argument becomes a single unmarked text node; empty text yields an
// empty paragraph.
func Paragraph(text string, marks ...Mark) Node {
	paragraph := Node{Type: KindParagraph}
	if text != "" {
		paragraph.Content = []Node{TextSpan(text, marks...)}
	}
	return paragraph
}

// Heading builds a heading block at the provided level (clamped to 2..3).
func Heading(level int, text string) Node {
	if level < 2 || level > 3 {
		level = 2
	}
	heading := Node{Type: KindHeading, Attrs: &NodeAttrs{Level: level}}
	if text != "" {
		heading.Content = []Node{TextSpan(text)}
	}
	return heading
}

// TextSpan builds a text leaf with the provided marks.
func TextSpan(text string, marks ...Mark) Node {
	return Node{Type: KindText, Text: text, Marks: marks}
}

// DecodeDocument parses a persisted content_json payload into a document
// tree. Decoding is lenient: node kinds the current editor does not know are
// kept as-is so their children still render. An empty payload resolves to a
// fresh empty document rather than an error.
func DecodeDocument(raw []byte) (Node, error) {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "" {
		return NewDocument(), nil
	}
	var doc Node
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Node{}, ErrInvalidDocument
	}
	if doc.Type == "" {
		return Node{}, ErrInvalidDocument
	}
	if doc.Type != KindDoc {
		doc = Node{Type: KindDoc, Content: []Node{doc}}
	}
	if len(doc.Content) == 0 {
		doc.Content = []Node{Paragraph("")}
	}
	return doc, nil
}

// EncodeDocument serializes the tree back to the persisted JSON shape.
func EncodeDocument(doc Node) ([]byte, error) {
	return json.Marshal(doc)
}

// PlainText flattens every text leaf in document order, separating block
// nodes with single spaces. Used for search indexing and excerpt fallbacks.
func PlainText(doc Node) string {
	var parts []string
	collectText(doc, &parts)
	return strings.Join(parts, " ")
}

func collectText(node Node, parts *[]string) {
	if node.Type == KindText {
		if trimmed := strings.TrimSpace(node.Text); trimmed != "" {
			*parts = append(*parts, trimmed)
		}
		return
	}
	for _, child := range node.Content {
		collectText(child, parts)
	}
}

func (m Mark) href() string {
	if m.Attrs == nil {
		return ""
	}
	return m.Attrs.Href
}

// hasMark reports whether the mark list contains the provided kind.
func hasMark(marks []Mark, kind MarkKind) bool {
	for _, mark := range marks {
		if mark.Type == kind {
			return true
		}
	}
	return false
}

func withoutMark(marks []Mark, kind MarkKind) []Mark {
	filtered := make([]Mark, 0, len(marks))
	for _, mark := range marks {
		if mark.Type != kind {
			filtered = append(filtered, mark)
		}
	}
	return filtered
}
