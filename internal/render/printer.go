package render

import (
	"strings"

	"github.com/jcdickinson/ferrishover/internal/syntax"
)

// LinkFunc builds a hyperlink into b. ref is the raw qualified reference;
// text is already HTML-escaped display text. Implementations are trusted to
// produce well-formed markup.
type LinkFunc func(b *strings.Builder, ref, text string)

// DefaultLink emits the in-editor navigation anchor scheme.
func DefaultLink(b *strings.Builder, ref, text string) {
	b.WriteString(`<a href="psi_element://`)
	b.WriteString(Escape(ref))
	b.WriteString(`">`)
	b.WriteString(text)
	b.WriteString(`</a>`)
}

// Printer renders syntax nodes to HTML. Rendering is read-only over the
// tree and holds no state between calls, so one Printer can serve any
// number of requests.
type Printer struct {
	res  syntax.Resolver
	link LinkFunc
}

// NewPrinter builds a Printer. res may be nil, in which case no hyperlinks
// are emitted; link nil selects DefaultLink.
func NewPrinter(res syntax.Resolver, link LinkFunc) *Printer {
	if link == nil {
		link = DefaultLink
	}
	return &Printer{res: res, link: link}
}

// Append renders n into b, wrapped in the literal prefix and suffix. A nil
// node appends nothing, prefix and suffix included. Every kind in the
// closed node set is handled; anything else degrades to its escaped raw
// source text.
func (p *Printer) Append(b *strings.Builder, n syntax.Node, prefix, suffix string) {
	if n == nil {
		return
	}
	b.WriteString(prefix)
	p.append(b, n)
	b.WriteString(suffix)
}

func (p *Printer) append(b *strings.Builder, n syntax.Node) {
	switch x := n.(type) {
	case *syntax.Path:
		p.appendPath(b, x)
	case *syntax.UnitType:
		b.WriteString("()")
	case *syntax.SelfType:
		b.WriteString("Self")
	case *syntax.BaseType:
		p.appendPath(b, x.Path)
	case *syntax.TupleType:
		b.WriteString("(")
		for i, e := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			p.append(b, e)
		}
		b.WriteString(")")
	case *syntax.ArrayType:
		b.WriteString("[")
		p.append(b, x.Elem)
		if !x.Slice {
			b.WriteString("; ")
			b.WriteString(Escape(x.Len))
		}
		b.WriteString("]")
	case *syntax.RefType:
		b.WriteString("&amp;")
		if x.Lifetime != nil {
			b.WriteString(Escape(x.Lifetime.Name))
			b.WriteString(" ")
		}
		if x.Mut {
			b.WriteString("mut ")
		}
		p.append(b, x.Elem)
	case *syntax.PtrType:
		if x.Mut {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}
		p.append(b, x.Elem)
	case *syntax.FnPtrType:
		b.WriteString("fn")
		p.appendParamList(b, x.Params)
		if x.Ret != nil {
			b.WriteString(arrow)
			p.append(b, x.Ret)
		}
	case *syntax.QualifiedType:
		p.appendQualifiedType(b, x)
	case *syntax.GenericParams:
		p.appendGenericParams(b, x)
	case *syntax.GenericArgs:
		p.appendGenericArgs(b, x)
	case *syntax.ParamList:
		p.appendParamList(b, x)
	case *syntax.ValueParam:
		p.appendValueParam(b, x)
	case *syntax.SelfParam:
		p.appendSelfParam(b, x)
	case *syntax.WhereClause:
		p.appendWhereInline(b, x)
	case *syntax.TraitRef:
		p.appendPath(b, x.Path)
	case *syntax.AssocBinding:
		b.WriteString(Escape(x.Name))
		b.WriteString(" = ")
		p.append(b, x.Type)
	case *syntax.Lifetime:
		b.WriteString(Escape(x.Name))
	case *syntax.LifetimeParam:
		b.WriteString(Escape(x.Lifetime.Name))
		p.appendLifetimeBounds(b, x.Bounds)
	case *syntax.LifetimeBounds:
		p.appendLifetimeBounds(b, x)
	case *syntax.TypeBounds:
		p.appendTypeBounds(b, x)
	case *syntax.Polybound:
		p.appendPolybound(b, x)
	case *syntax.TypeParam:
		b.WriteString(Escape(x.Name))
		p.appendTypeBounds(b, x.Bounds)
	case *syntax.PatBinding:
		b.WriteString(Escape(x.Name))
	default:
		// Unknown kinds never fail, never vanish: fall back to raw text.
		if src, ok := n.(syntax.Sourcer); ok {
			b.WriteString(Escape(src.Source()))
		} else if d, ok := n.(syntax.Decl); ok {
			b.WriteString(Escape(syntax.QualifiedName(d)))
		}
	}
}

func (p *Printer) appendPath(b *strings.Builder, path *syntax.Path) {
	if path == nil {
		return
	}
	if path.Qualifier != nil {
		p.appendPath(b, path.Qualifier)
		b.WriteString("::")
	}
	if path.TypeQual != nil {
		p.appendQualifiedType(b, path.TypeQual)
		b.WriteString("::")
	}
	if p.linkable(path) {
		p.link(b, PathText(path), Escape(path.Name))
	} else {
		b.WriteString(Escape(path.Name))
	}
	switch {
	case !path.TypeArgs.Empty():
		p.appendGenericArgs(b, path.TypeArgs)
	case path.Params != nil:
		p.appendParamList(b, path.Params)
		if path.Ret != nil {
			b.WriteString(arrow)
			p.append(b, path.Ret)
		}
	}
}

// linkable reports whether the path warrants a cross-reference hyperlink:
// it must resolve, and the target must not be a generic type parameter
// (there is no separate navigable declaration to jump to).
func (p *Printer) linkable(path *syntax.Path) bool {
	if p.res == nil {
		return false
	}
	target := p.res.Resolve(path)
	return target != nil && target.Kind() != syntax.KindTypeParam
}

func (p *Printer) appendQualifiedType(b *strings.Builder, q *syntax.QualifiedType) {
	b.WriteString("&lt;")
	p.append(b, q.Base)
	if q.Trait != nil {
		b.WriteString(" as ")
		p.appendPath(b, q.Trait.Path)
	}
	b.WriteString("&gt;")
}

func (p *Printer) appendGenericParams(b *strings.Builder, g *syntax.GenericParams) {
	if g.Empty() {
		return
	}
	b.WriteString("&lt;")
	first := true
	for _, lt := range g.Lifetimes {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(Escape(lt.Lifetime.Name))
		p.appendLifetimeBounds(b, lt.Bounds)
	}
	for _, tp := range g.Types {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(Escape(tp.Name))
		p.appendTypeBounds(b, tp.Bounds)
		if tp.Default != nil {
			b.WriteString(" = ")
			p.append(b, tp.Default)
		}
	}
	b.WriteString("&gt;")
}

func (p *Printer) appendGenericArgs(b *strings.Builder, g *syntax.GenericArgs) {
	if g.Empty() {
		return
	}
	b.WriteString("&lt;")
	first := true
	for _, lt := range g.Lifetimes {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(Escape(lt.Name))
	}
	for _, t := range g.Types {
		if !first {
			b.WriteString(", ")
		}
		first = false
		p.append(b, t)
	}
	for _, bind := range g.Bindings {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(Escape(bind.Name))
		b.WriteString(" = ")
		p.append(b, bind.Type)
	}
	b.WriteString("&gt;")
}

func (p *Printer) appendParamList(b *strings.Builder, l *syntax.ParamList) {
	b.WriteString("(")
	if l != nil {
		first := true
		if l.SelfParam != nil {
			p.appendSelfParam(b, l.SelfParam)
			first = false
		}
		for _, param := range l.Params {
			if !first {
				b.WriteString(", ")
			}
			first = false
			p.appendValueParam(b, param)
		}
		if l.Variadic {
			if !first {
				b.WriteString(", ")
			}
			b.WriteString("...")
		}
	}
	b.WriteString(")")
}

func (p *Printer) appendValueParam(b *strings.Builder, v *syntax.ValueParam) {
	b.WriteString(Escape(v.Name))
	if v.Type != nil {
		b.WriteString(": ")
		p.append(b, v.Type)
	}
}

func (p *Printer) appendSelfParam(b *strings.Builder, s *syntax.SelfParam) {
	if s.Ref {
		b.WriteString("&amp;")
		if s.Lifetime != nil {
			b.WriteString(Escape(s.Lifetime.Name))
			b.WriteString(" ")
		}
	}
	if s.Mut {
		b.WriteString("mut ")
	}
	b.WriteString("self")
}

func (p *Printer) appendLifetimeBounds(b *strings.Builder, lb *syntax.LifetimeBounds) {
	if lb == nil || len(lb.Bounds) == 0 {
		return
	}
	b.WriteString(": ")
	for i, lt := range lb.Bounds {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(Escape(lt.Name))
	}
}

func (p *Printer) appendTypeBounds(b *strings.Builder, tb *syntax.TypeBounds) {
	if tb == nil || len(tb.Bounds) == 0 {
		return
	}
	b.WriteString(": ")
	for i, bound := range tb.Bounds {
		if i > 0 {
			b.WriteString(" + ")
		}
		p.appendPolybound(b, bound)
	}
}

func (p *Printer) appendPolybound(b *strings.Builder, pb *syntax.Polybound) {
	if pb.Optout {
		b.WriteString("?")
	}
	if len(pb.For) > 0 {
		b.WriteString("for&lt;")
		for i, lt := range pb.For {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Escape(lt.Lifetime.Name))
		}
		b.WriteString("&gt; ")
	}
	switch {
	case pb.Trait != nil:
		p.appendPath(b, pb.Trait.Path)
	case pb.Lifetime != nil:
		b.WriteString(Escape(pb.Lifetime.Name))
	}
}

// appendWhereInline renders a where-clause on a single line, the form used
// in impl and trait headers. The multi-line form lives in the signature
// composer.
func (p *Printer) appendWhereInline(b *strings.Builder, w *syntax.WhereClause) {
	if w.Empty() {
		return
	}
	b.WriteString("where ")
	first := true
	for _, pred := range w.Preds {
		frag := p.predText(pred)
		if frag == "" {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(frag)
	}
}

// predText renders one where-clause predicate, "" when the predicate lacks
// both a lifetime and a type.
func (p *Printer) predText(pred *syntax.WherePred) string {
	var b strings.Builder
	switch {
	case pred.Lifetime != nil:
		b.WriteString(Escape(pred.Lifetime.Name))
		p.appendLifetimeBounds(&b, pred.LifetimeBounds)
	case pred.Type != nil:
		p.append(&b, pred.Type)
		p.appendTypeBounds(&b, pred.Bounds)
	default:
		return ""
	}
	return b.String()
}

// PathText reconstructs the plain qualified text of a path, the form used
// as a hyperlink reference. Type arguments are not part of the reference.
func PathText(path *syntax.Path) string {
	var b strings.Builder
	pathText(&b, path)
	return b.String()
}

func pathText(b *strings.Builder, path *syntax.Path) {
	if path == nil {
		return
	}
	if path.Qualifier != nil {
		pathText(b, path.Qualifier)
		b.WriteString("::")
	}
	b.WriteString(path.Name)
}
