// Package markdown renders doc-comment markdown to HTML, rewriting
// intra-doc link destinations through a resolved link map first.
package markdown

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// Renderer is the doc-comment extraction collaborator: raw doc-comment
// markdown in, HTML fragment out.
type Renderer struct{}

// Render converts doc-comment markdown to HTML. linkMap rewrites intra-doc
// link destinations (markdown target text to resolved URL) before
// rendering; unresolved destinations pass through untouched.
func (Renderer) Render(src string, linkMap map[string]string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	src = rewriteLinks(src, linkMap)
	src = appendRefDefs(src, linkMap)

	doc := parse(src)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags,
	})
	return strings.TrimSpace(string(gm.Render(doc, renderer)))
}

// appendRefDefs supplies a reference definition per link-map entry. Rustdoc
// doc comments link items as bare shortcut references ([Config], [`Vec`])
// with no destination; the parser resolves those only against a definition.
// Definitions never render, and an appended definition wins over one in the
// source, so the resolved map stays authoritative.
func appendRefDefs(src string, linkMap map[string]string) string {
	if len(linkMap) == 0 {
		return src
	}
	var b strings.Builder
	b.WriteString(src)
	b.WriteString("\n")
	for name, url := range linkMap {
		b.WriteString("\n[")
		b.WriteString(name)
		b.WriteString("]: ")
		b.WriteString(url)
	}
	return b.String()
}

func parse(src string) ast.Node {
	p := gmparser.NewWithExtensions(gmparser.CommonExtensions | gmparser.Autolink)
	return p.Parse([]byte(src))
}

// rewriteLinks replaces link destinations found in linkMap. The markdown is
// parsed to locate real destinations, then targeted string replacement
// preserves the original formatting.
func rewriteLinks(src string, linkMap map[string]string) string {
	if len(linkMap) == 0 {
		return src
	}

	type replacement struct{ old, new string }
	var replacements []replacement
	seen := make(map[string]bool)

	ast.WalkFunc(parse(src), func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if newDest, ok := linkMap[dest]; ok && !seen[dest] {
				seen[dest] = true
				replacements = append(replacements, replacement{dest, newDest})
			}
		}
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return src
	}

	result := src
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.old+")", "]("+r.new+")")
	}

	// Reference-style definitions: [ref]: destination
	refMap := make(map[string]string, len(replacements))
	for _, r := range replacements {
		refMap["]: "+r.old] = "]: " + r.new
	}
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for oldSuffix, newSuffix := range refMap {
			if strings.HasSuffix(trimmed, oldSuffix) {
				lines[i] = strings.Replace(line, oldSuffix, newSuffix, 1)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
