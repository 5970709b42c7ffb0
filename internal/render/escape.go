// Package render turns syntax nodes into HTML fragments: a recursive
// pretty-printer for type grammar, a signature composer, and a header
// composer. Output markup is limited to <pre>, <b>, <br>, escaped entities,
// and hyperlinks built through an injected LinkFunc.
package render

import "strings"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// Escape HTML-escapes arbitrary text for embedding in a rendered fragment.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Bold wraps already-raw text in <b>, escaping it first.
func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

// indent is the continuation-line indentation for where-clause predicates.
const indent = "&nbsp;&nbsp;&nbsp;&nbsp;"

// arrow is the escaped return-type arrow.
const arrow = " -&gt; "
