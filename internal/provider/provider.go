// Package provider answers the three hover-documentation queries: full
// documentation HTML, quick-navigation summary, and external URL list.
package provider

import (
	"context"
	"log"
	"strings"

	"github.com/jcdickinson/ferrishover/internal/docurl"
	"github.com/jcdickinson/ferrishover/internal/eligible"
	"github.com/jcdickinson/ferrishover/internal/render"
	"github.com/jcdickinson/ferrishover/internal/syntax"
)

// DocRenderer converts raw doc-comment markdown into HTML.
type DocRenderer interface {
	Render(src string, linkMap map[string]string) string
}

// LinkSource supplies intra-doc link targets per declaration, already
// resolved to browsable URLs.
type LinkSource interface {
	DocLinksFor(d syntax.Decl) map[string]string
}

// Provider orchestrates rendering, eligibility, and URL resolution. All
// methods are read-only over the syntax tree; only URL queries touch the
// network.
type Provider struct {
	printer *render.Printer
	res     syntax.Resolver
	docs    DocRenderer
	policy  *eligible.Policy
	urls    *docurl.Resolver
	links   LinkSource
}

// SetLinkSource installs a link-target supplier for doc-comment rendering.
func (p *Provider) SetLinkSource(ls LinkSource) { p.links = ls }

// New builds a Provider. docs, policy, and urls may be nil when the
// corresponding query is unused (tests, quick-nav-only hosts).
func New(res syntax.Resolver, docs DocRenderer, policy *eligible.Policy, urls *docurl.Resolver, link render.LinkFunc) *Provider {
	return &Provider{
		printer: render.NewPrinter(res, link),
		res:     res,
		docs:    docs,
		policy:  policy,
		urls:    urls,
	}
}

// Documentation renders the full hover documentation for a node. The second
// result is false when the node kind is unsupported or rendering degraded
// to nothing.
func (p *Provider) Documentation(n syntax.Node) (string, bool) {
	switch x := n.(type) {
	case *syntax.TypeParam, *syntax.PatBinding:
		return "<pre>" + p.simpleText(n) + "</pre>", true
	case *syntax.Module, *syntax.Macro:
		// No composed signature for these; hosts show their quick text.
		return "", false
	case syntax.Decl:
		body, ok := p.signatureBlock(x)
		if !ok {
			return "", false
		}
		out := "<pre>" + body + "</pre>"
		if p.docs != nil {
			if raw := declDocs(x); raw != "" {
				var linkMap map[string]string
				if p.links != nil {
					linkMap = p.links.DocLinksFor(x)
				}
				if html := p.docs.Render(raw, linkMap); html != "" {
					out += html
				}
			}
		}
		return out, true
	}
	return "", false
}

// QuickNavigate renders the one-line summary used for quick-info display.
func (p *Provider) QuickNavigate(n syntax.Node) (string, bool) {
	switch x := n.(type) {
	case *syntax.TypeParam, *syntax.PatBinding:
		return p.simpleText(n), true
	case *syntax.Constant, *syntax.Module, *syntax.Macro:
		return p.quickText(n)
	case syntax.Decl:
		if body, ok := p.signatureBlock(x); ok {
			return body, true
		}
		return p.quickText(n)
	}
	return p.quickText(n)
}

// ExternalURLs returns the reachable external documentation URLs for a
// node: at most one, only for eligible declarations.
func (p *Provider) ExternalURLs(ctx context.Context, n syntax.Node) []string {
	d, ok := n.(syntax.Decl)
	if !ok || p.policy == nil || p.urls == nil {
		return nil
	}
	if !p.policy.Eligible(d) {
		return nil
	}
	return p.urls.URLs(ctx, d)
}

// ResolveLink resolves a textual cross-reference within a context node.
// Delegates entirely to the resolution collaborator.
func (p *Provider) ResolveLink(ref string, ctx syntax.Node) syntax.Node {
	if p.res == nil {
		return nil
	}
	return p.res.ResolveReference(ref, ctx)
}

// signatureBlock joins header and signature lines with <br>. False when the
// declaration has no signature (anonymous) or composition failed.
func (p *Provider) signatureBlock(d syntax.Decl) (string, bool) {
	sig, err := p.printer.Signature(d)
	if err != nil {
		// Invariant violation: abort this request only.
		log.Printf("provider: %v", err)
		return "", false
	}
	if len(sig) == 0 {
		return "", false
	}
	lines := append(p.printer.Header(d), sig...)
	return strings.Join(lines, "<br>"), true
}

// simpleText is the dedicated renderer for type parameters and pattern
// bindings, which have no composed signature.
func (p *Provider) simpleText(n syntax.Node) string {
	var b strings.Builder
	switch x := n.(type) {
	case *syntax.TypeParam:
		b.WriteString("type parameter ")
		b.WriteString(render.Bold(x.Name))
		p.printer.Append(&b, x.Bounds, "", "")
	case *syntax.PatBinding:
		if x.Mut {
			b.WriteString("mut ")
		}
		b.WriteString("variable ")
		b.WriteString(render.Bold(x.Name))
		if p.res != nil {
			if ty := p.res.TypeText(x); ty != "" {
				b.WriteString(": ")
				b.WriteString(render.Escape(ty))
			}
		}
	}
	return b.String()
}

func (p *Provider) quickText(n syntax.Node) (string, bool) {
	if p.res == nil {
		return "", false
	}
	if text := p.res.QuickText(n); text != "" {
		return text, true
	}
	return "", false
}

func declDocs(d syntax.Decl) string {
	switch x := d.(type) {
	case *syntax.Function:
		return x.Docs
	case *syntax.Constant:
		return x.Docs
	case *syntax.Struct:
		return x.Docs
	case *syntax.Enum:
		return x.Docs
	case *syntax.Trait:
		return x.Docs
	case *syntax.TypeAlias:
		return x.Docs
	case *syntax.Field:
		return x.Docs
	case *syntax.Macro:
		return x.Docs
	case *syntax.Module:
		return x.Docs
	}
	return ""
}
