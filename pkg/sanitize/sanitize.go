// Package sanitize filters user-authored rich text down to the allow-listed
// HTML subset the blog renders. Every piece of authored content passes through
// [HTML] before it appears in any rendered payload; raw input is never served.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// contentPolicy is the allow-list for post bodies: structural and inline
// formatting tags, links, images, and the generic class/style hooks the
// editor emits. Everything else, including all data-* attributes and any
// script-capable element or handler attribute, is stripped.
var contentPolicy = newContentPolicy()

// textPolicy strips all markup, leaving plain text. Used for word counts.
var textPolicy = bluemonday.StrictPolicy()

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "div", "span")
	p.AllowElements("em", "i", "strong", "b", "u", "s")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("blockquote", "code", "pre")

	// AllowElements keeps bare anchors and images; attribute policies alone
	// would strip a tag carrying none of the allowed attributes.
	p.AllowElements("a", "img")
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("class", "style").Globally()

	p.AllowURLSchemes("http", "https", "mailto")
	// Images may be inlined as data URLs when no object storage is configured.
	p.AllowDataURIImages()

	return p
}

// HTML returns raw with every element and attribute outside the allow-list
// removed. It is a pure function and idempotent: sanitizing already-sanitized
// content yields it unchanged.
func HTML(raw string) string {
	return contentPolicy.Sanitize(raw)
}

// Text returns raw with all markup stripped, for plain-text derivations such
// as read-time estimation.
func Text(raw string) string {
	return textPolicy.Sanitize(raw)
}
