package content

import "strings"

// Editor is the in-memory editing surface over a document tree. Commands are
// tree rewrites applied at the current block cursor; a command whose
// selection context is invalid (cursor out of range, block of the wrong
// shape) is a no-op rather than an error, mirroring how a toolbar behaves
// when nothing sensible is selected.
type Editor struct {
	doc    Node
	cursor int
}

// NewEditor returns an editor over a fresh single-paragraph document.
func NewEditor() *Editor {
	return &Editor{doc: NewDocument(), cursor: 0}
}

// EditorFromDocument resumes editing over a previously persisted tree. Any
// decodable document is accepted; the cursor starts on the last block.
func EditorFromDocument(doc Node) *Editor {
	if doc.Type != KindDoc {
		doc = Node{Type: KindDoc, Content: []Node{doc}}
	}
	if len(doc.Content) == 0 {
		doc.Content = []Node{Paragraph("")}
	}
	return &Editor{doc: doc, cursor: len(doc.Content) - 1}
}

// Document exposes the current tree.
func (e *Editor) Document() Node {
	return e.doc
}

// BlockCount reports the number of top-level blocks.
func (e *Editor) BlockCount() int {
	return len(e.doc.Content)
}

// SelectBlock moves the cursor; out-of-range indexes are rejected.
func (e *Editor) SelectBlock(index int) bool {
	if index < 0 || index >= len(e.doc.Content) {
		return false
	}
	e.cursor = index
	return true
}

func (e *Editor) cursorValid() bool {
	return e.cursor >= 0 && e.cursor < len(e.doc.Content)
}

func (e *Editor) block() *Node {
	return &e.doc.Content[e.cursor]
}

// ToggleMark flips an inline mark across the selected block's text spans.
// When every span already carries the mark it is removed everywhere,
// otherwise it is added where missing. Blocks without text spans are left
// untouched.
func (e *Editor) ToggleMark(kind MarkKind) {
	if !e.cursorValid() || kind == MarkLink {
		return
	}
	spans := textSpans(e.block())
	if len(spans) == 0 {
		return
	}
	everyMarked := true
	for _, span := range spans {
		if !hasMark(span.Marks, kind) {
			everyMarked = false
			break
		}
	}
	for _, span := range spans {
		if everyMarked {
			span.Marks = withoutMark(span.Marks, kind)
		} else if !hasMark(span.Marks, kind) {
			span.Marks = append(span.Marks, Mark{Type: kind})
		}
	}
}

// SetLink applies a link mark with the provided target to the selected
// block's text spans, replacing any prior link. Blank targets are a no-op.
func (e *Editor) SetLink(href string) {
	href = strings.TrimSpace(href)
	if href == "" || !e.cursorValid() {
		return
	}
	spans := textSpans(e.block())
	for _, span := range spans {
		span.Marks = append(withoutMark(span.Marks, MarkLink),
			Mark{Type: MarkLink, Attrs: &MarkAttrs{Href: href}})
	}
}

// Unlink removes link marks from the selected block's text spans.
func (e *Editor) Unlink() {
	if !e.cursorValid() {
		return
	}
	for _, span := range textSpans(e.block()) {
		span.Marks = withoutMark(span.Marks, MarkLink)
	}
}

// ToggleHeading converts the selected paragraph to a heading at the given
// level, or back to a paragraph when it already is one at that level. Levels
// outside 2..3 and non-textual blocks are no-ops.
func (e *Editor) ToggleHeading(headingLevel int) {
	if headingLevel < 2 || headingLevel > 3 || !e.cursorValid() {
		return
	}
	block := e.block()
	switch block.Type {
	case KindHeading:
		if level(*block) == headingLevel {
			block.Type = KindParagraph
			block.Attrs = nil
		} else {
			block.Attrs = &NodeAttrs{Level: headingLevel}
		}
	case KindParagraph:
		block.Type = KindHeading
		block.Attrs = &NodeAttrs{Level: headingLevel}
	}
}

// ToggleBlockquote wraps the selected paragraph or heading in a block quote,
// or unwraps the selected quote back into its constituent blocks.
func (e *Editor) ToggleBlockquote() {
	if !e.cursorValid() {
		return
	}
	block := e.block()
	switch block.Type {
	case KindBlockquote:
		e.splice(e.cursor, block.Content)
	case KindParagraph, KindHeading:
		wrapped := Node{Type: KindBlockquote, Content: []Node{*block}}
		e.doc.Content[e.cursor] = wrapped
	}
}

// ToggleBulletList wraps the selected block in an unordered list, switches
// an ordered list in place, or unwraps an existing unordered list.
func (e *Editor) ToggleBulletList() {
	e.toggleList(KindBulletList)
}

// ToggleOrderedList wraps the selected block in an ordered list, switches a
// bullet list in place, or unwraps an existing ordered list.
func (e *Editor) ToggleOrderedList() {
	e.toggleList(KindOrderedList)
}

func (e *Editor) toggleList(kind NodeKind) {
	if !e.cursorValid() {
		return
	}
	block := e.block()
	switch block.Type {
	case kind:
		var unwrapped []Node
		for _, item := range block.Content {
			unwrapped = append(unwrapped, item.Content...)
		}
		if len(unwrapped) == 0 {
			unwrapped = []Node{Paragraph("")}
		}
		e.splice(e.cursor, unwrapped)
	case KindBulletList, KindOrderedList:
		block.Type = kind
	case KindParagraph, KindHeading:
		item := Node{Type: KindListItem, Content: []Node{*block}}
		e.doc.Content[e.cursor] = Node{Type: kind, Content: []Node{item}}
	}
}

// InsertParagraph appends a paragraph after the cursor and selects it.
func (e *Editor) InsertParagraph(text string) {
	e.insertBlock(Paragraph(text))
}

// InsertHeading appends a heading after the cursor and selects it.
func (e *Editor) InsertHeading(headingLevel int, text string) {
	e.insertBlock(Heading(headingLevel, text))
}

// InsertHorizontalRule appends a horizontal rule after the cursor.
func (e *Editor) InsertHorizontalRule() {
	e.insertBlock(Node{Type: KindHorizontalRule})
}

// InsertImage appends an image block referencing the provided URL. There is
// no binary upload path; a blank URL is a no-op.
func (e *Editor) InsertImage(src string) {
	src = strings.TrimSpace(src)
	if src == "" {
		return
	}
	e.insertBlock(Node{Type: KindImage, Attrs: &NodeAttrs{Src: src}})
}

// InsertTable appends the fixed 3x3 table skeleton with a header row.
func (e *Editor) InsertTable() {
	const columns = 3
	rows := make([]Node, 0, 3)
	header := Node{Type: KindTableRow}
	for i := 0; i < columns; i++ {
		header.Content = append(header.Content, Node{
			Type:    KindTableHeader,
			Content: []Node{Paragraph("")},
		})
	}
	rows = append(rows, header)
	for r := 0; r < 2; r++ {
		row := Node{Type: KindTableRow}
		for i := 0; i < columns; i++ {
			row.Content = append(row.Content, Node{
				Type:    KindTableCell,
				Content: []Node{Paragraph("")},
			})
		}
		rows = append(rows, row)
	}
	e.insertBlock(Node{Type: KindTable, Content: rows})
}

func (e *Editor) insertBlock(block Node) {
	position := e.cursor + 1
	if position > len(e.doc.Content) {
		position = len(e.doc.Content)
	}
	e.doc.Content = append(e.doc.Content[:position],
		append([]Node{block}, e.doc.Content[position:]...)...)
	e.cursor = position
}

// splice replaces the block at index with the provided blocks, keeping the
// cursor on the first replacement.
func (e *Editor) splice(index int, replacement []Node) {
	if len(replacement) == 0 {
		replacement = []Node{Paragraph("")}
	}
	e.doc.Content = append(e.doc.Content[:index],
		append(append([]Node{}, replacement...), e.doc.Content[index+1:]...)...)
	e.cursor = index
}

// textSpans collects pointers to every text leaf under the block so mark
// rewrites mutate the tree in place.
func textSpans(block *Node) []*Node {
	var spans []*Node
	var walk func(node *Node)
	walk = func(node *Node) {
		if node.Type == KindText {
			spans = append(spans, node)
			return
		}
		for i := range node.Content {
			walk(&node.Content[i])
		}
	}
	walk(block)
	return spans
}
