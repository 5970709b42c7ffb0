package render

import (
	"strings"

	"github.com/jcdickinson/ferrishover/internal/syntax"
)

// Header composes the breadcrumb line(s) preceding a signature: the
// containing module path, or the impl/trait context for members. Lines are
// pre-escaped; callers join with <br>.
func (p *Printer) Header(d syntax.Decl) []string {
	switch x := d.(type) {
	case *syntax.Field:
		if x.OwnerD == nil {
			return nil
		}
		return pathLine(syntax.QualifiedName(x.OwnerD))
	case *syntax.Struct, *syntax.Enum, *syntax.Trait:
		return pathLine(syntax.ContainingPath(d))
	case *syntax.Function, *syntax.Constant, *syntax.TypeAlias:
		return p.memberHeader(d)
	}
	return pathLine(syntax.QualifiedName(d))
}

func (p *Printer) memberHeader(d syntax.Decl) []string {
	switch o := syntax.MemberOwner(d).(type) {
	case syntax.ImplOwner:
		lines := pathLine(syntax.ContainingPath(d))
		return append(lines, p.implText(o.Impl))
	case syntax.TraitOwner:
		return []string{p.traitText(o.Trait)}
	}
	// Free and foreign owners read the same: just the module path.
	return pathLine(syntax.ContainingPath(d))
}

// implText renders "impl<G> [Trait for] Type [where …]" on one line.
func (p *Printer) implText(impl *syntax.Impl) string {
	var b strings.Builder
	if impl.Unsafe {
		b.WriteString("unsafe ")
	}
	b.WriteString("impl")
	p.appendGenericParams(&b, impl.Generics)
	b.WriteString(" ")
	if impl.Trait != nil {
		p.appendPath(&b, impl.Trait.Path)
		b.WriteString(" for ")
	}
	p.append(&b, impl.For)
	if !impl.Where.Empty() {
		b.WriteString(" ")
		p.appendWhereInline(&b, impl.Where)
	}
	return b.String()
}

// traitText renders the owning trait's own declaration line: qualified name
// plus generics and where-clause.
func (p *Printer) traitText(t *syntax.Trait) string {
	var b strings.Builder
	b.WriteString(Escape(syntax.QualifiedName(t)))
	p.appendGenericParams(&b, t.Generics)
	if !t.Where.Empty() {
		b.WriteString(" ")
		p.appendWhereInline(&b, t.Where)
	}
	return b.String()
}

func pathLine(path string) []string {
	if path == "" {
		return nil
	}
	return []string{Escape(path)}
}
