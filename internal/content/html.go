package content

import (
	"html"
	"strings"
)

// RenderHTML serializes a document tree to markup. The serializer is total:
// every node and mark kind the editor can produce has a rendering, text is
// always escaped, and unrecognized node kinds degrade to rendering their
// children so foreign documents never drop content silently.
func RenderHTML(doc Node) string {
	var builder strings.Builder
	renderNode(&builder, doc)
	return builder.String()
}

func renderNode(builder *strings.Builder, node Node) {
	switch node.Type {
	case KindDoc:
		renderChildren(builder, node.Content)
	case KindParagraph:
		wrap(builder, "p", node.Content)
	case KindHeading:
		if level(node) == 3 {
			wrap(builder, "h3", node.Content)
		} else {
			wrap(builder, "h2", node.Content)
		}
	case KindBlockquote:
		wrap(builder, "blockquote", node.Content)
	case KindBulletList:
		wrap(builder, "ul", node.Content)
	case KindOrderedList:
		wrap(builder, "ol", node.Content)
	case KindListItem:
		wrap(builder, "li", node.Content)
	case KindHorizontalRule:
		builder.WriteString("<hr>")
	case KindTable:
		builder.WriteString("<table><tbody>")
		renderChildren(builder, node.Content)
		builder.WriteString("</tbody></table>")
	case KindTableRow:
		wrap(builder, "tr", node.Content)
	case KindTableHeader:
		wrap(builder, "th", node.Content)
	case KindTableCell:
		wrap(builder, "td", node.Content)
	case KindImage:
		renderImage(builder, node)
	case KindText:
		renderText(builder, node)
	default:
		renderChildren(builder, node.Content)
	}
}

func renderChildren(builder *strings.Builder, children []Node) {
	for _, child := range children {
		renderNode(builder, child)
	}
}

func wrap(builder *strings.Builder, tag string, children []Node) {
	builder.WriteString("<" + tag + ">")
	renderChildren(builder, children)
	builder.WriteString("</" + tag + ">")
}

func renderImage(builder *strings.Builder, node Node) {
	src := ""
	alt := ""
	if node.Attrs != nil {
		src = strings.TrimSpace(node.Attrs.Src)
		alt = node.Attrs.Alt
	}
	if src == "" {
		return
	}
	builder.WriteString(`<img src="` + html.EscapeString(src) + `"`)
	if alt != "" {
		builder.WriteString(` alt="` + html.EscapeString(alt) + `"`)
	}
	builder.WriteString(">")
}

// renderText wraps the escaped text in one tag per mark, opening in mark
// order and closing in reverse. Unknown mark kinds contribute no wrapper.
func renderText(builder *strings.Builder, node Node) {
	var closers []string
	for _, mark := range node.Marks {
		switch mark.Type {
		case MarkBold:
			builder.WriteString("<strong>")
			closers = append(closers, "</strong>")
		case MarkItalic:
			builder.WriteString("<em>")
			closers = append(closers, "</em>")
		case MarkUnderline:
			builder.WriteString("<u>")
			closers = append(closers, "</u>")
		case MarkHighlight:
			builder.WriteString("<mark>")
			closers = append(closers, "</mark>")
		case MarkLink:
			href := strings.TrimSpace(mark.href())
			if href == "" {
				continue
			}
			builder.WriteString(`<a href="` + html.EscapeString(href) + `">`)
			closers = append(closers, "</a>")
		}
	}
	builder.WriteString(html.EscapeString(node.Text))
	for i := len(closers) - 1; i >= 0; i-- {
		builder.WriteString(closers[i])
	}
}

func level(node Node) int {
	if node.Attrs == nil {
		return 2
	}
	if node.Attrs.Level == 3 {
		return 3
	}
	return 2
}
