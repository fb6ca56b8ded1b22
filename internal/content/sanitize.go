package content

import "github.com/microcosm-cc/bluemonday"

// markupPolicy allows exactly the tag and attribute subset the serializer in
// html.go emits. Anything else, scripts and event handlers included, is
// stripped before markup is persisted or served.
var markupPolicy = buildMarkupPolicy()

func buildMarkupPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements(
		"p", "h2", "h3", "blockquote",
		"ul", "ol", "li", "hr",
		"table", "tbody", "tr", "th", "td",
		"strong", "em", "u", "mark", "br",
	)
	policy.AllowStandardURLs()
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowAttrs("src", "alt").OnElements("img")
	return policy
}

// Sanitize strips everything outside the editor's own markup subset from raw
// HTML. Stored article markup is always Sanitize(RenderHTML(tree)).
func Sanitize(raw string) string {
	return markupPolicy.Sanitize(raw)
}

// RenderSafeHTML derives the render-ready markup for a document tree.
func RenderSafeHTML(doc Node) string {
	return Sanitize(RenderHTML(doc))
}
