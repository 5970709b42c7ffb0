package render

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/ferrishover/internal/syntax"
)

// Signature composes the multi-line HTML signature of a declaration. Each
// returned line is pre-escaped; callers join with <br> and usually wrap in
// <pre>. Anonymous declarations yield an empty list. A declaration kind
// outside the composer's closed set is an invariant violation: the error
// aborts the current documentation request, nothing more.
func (p *Printer) Signature(d syntax.Decl) ([]string, error) {
	switch x := d.(type) {
	case *syntax.Function:
		return p.fnSignature(x), nil
	case *syntax.Constant:
		return p.constSignature(x), nil
	case *syntax.Struct, *syntax.Enum, *syntax.Trait, *syntax.TypeAlias:
		return p.typeSignature(d)
	case *syntax.Field:
		return p.fieldSignature(x), nil
	case *syntax.Impl:
		return []string{p.implText(x)}, nil
	}
	return nil, fmt.Errorf("render: no signature composer for %T", d)
}

func (p *Printer) fnSignature(f *syntax.Function) []string {
	if f.Name == "" {
		return nil
	}
	var b strings.Builder
	if f.Pub {
		b.WriteString("pub ")
	}
	if f.Const {
		b.WriteString("const ")
	}
	if f.Async {
		b.WriteString("async ")
	}
	if f.Unsafe {
		b.WriteString("unsafe ")
	}
	if f.Extern {
		b.WriteString("extern ")
		if f.ABI != "" {
			b.WriteString(Escape(`"` + f.ABI + `"`))
			b.WriteString(" ")
		}
	}
	b.WriteString("fn ")
	b.WriteString(Bold(f.Name))
	p.appendGenericParams(&b, f.Generics)
	p.appendParamList(&b, f.Params)
	if f.Ret != nil {
		b.WriteString(arrow)
		p.append(&b, f.Ret)
	}
	return append([]string{b.String()}, p.whereLines(f.Where)...)
}

func (p *Printer) constSignature(c *syntax.Constant) []string {
	if c.Name == "" {
		return nil
	}
	var b strings.Builder
	if c.Pub {
		b.WriteString("pub ")
	}
	if c.Static {
		b.WriteString("static ")
		if c.Mut {
			b.WriteString("mut ")
		}
	} else {
		b.WriteString("const ")
	}
	b.WriteString(Bold(c.Name))
	if c.Type != nil {
		b.WriteString(": ")
		p.append(&b, c.Type)
	}
	if c.Value != "" {
		b.WriteString(" = ")
		b.WriteString(Escape(c.Value))
	}
	return []string{b.String()}
}

func (p *Printer) typeSignature(d syntax.Decl) ([]string, error) {
	if d.DeclName() == "" {
		return nil, nil
	}
	keyword, err := declKeyword(d)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	pub, uns := false, false
	var generics *syntax.GenericParams
	var where *syntax.WhereClause
	var aliased syntax.TypeElem
	switch x := d.(type) {
	case *syntax.Struct:
		pub, generics, where = x.Pub, x.Generics, x.Where
	case *syntax.Enum:
		pub, generics, where = x.Pub, x.Generics, x.Where
	case *syntax.Trait:
		pub, uns, generics, where = x.Pub, x.Unsafe, x.Generics, x.Where
	case *syntax.TypeAlias:
		pub, generics, where, aliased = x.Pub, x.Generics, x.Where, x.Type
	}
	if pub {
		b.WriteString("pub ")
	}
	if uns {
		b.WriteString("unsafe ")
	}
	b.WriteString(keyword)
	b.WriteString(" ")
	b.WriteString(Bold(d.DeclName()))
	p.appendGenericParams(&b, generics)
	if aliased != nil {
		b.WriteString(" = ")
		p.append(&b, aliased)
	}
	return append([]string{b.String()}, p.whereLines(where)...), nil
}

func (p *Printer) fieldSignature(f *syntax.Field) []string {
	if f.Name == "" {
		return nil
	}
	var b strings.Builder
	if f.Pub {
		b.WriteString("pub ")
	}
	b.WriteString(Bold(f.Name))
	if p.res != nil {
		if ty := p.res.TypeText(f); ty != "" {
			b.WriteString(": ")
			b.WriteString(Escape(ty))
		}
	}
	return []string{b.String()}
}

// declKeyword derives a type declaration's keyword. The kinds here form a
// closed set; anything else means the caller dispatched wrong.
func declKeyword(d syntax.Decl) (string, error) {
	switch d.(type) {
	case *syntax.Struct:
		return "struct", nil
	case *syntax.Enum:
		return "enum", nil
	case *syntax.Trait:
		return "trait", nil
	case *syntax.TypeAlias:
		return "type", nil
	}
	return "", fmt.Errorf("render: no declaration keyword for %T", d)
}

// whereLines renders a where-clause as continuation lines: "where", then
// one indented line per predicate with a trailing comma. Predicates lacking
// both a lifetime and a type are skipped.
func (p *Printer) whereLines(w *syntax.WhereClause) []string {
	if w.Empty() {
		return nil
	}
	lines := make([]string, 0, len(w.Preds)+1)
	for _, pred := range w.Preds {
		frag := p.predText(pred)
		if frag == "" {
			continue
		}
		lines = append(lines, indent+frag+",")
	}
	if len(lines) == 0 {
		return nil
	}
	return append([]string{"where"}, lines...)
}
