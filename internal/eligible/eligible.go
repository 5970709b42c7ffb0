// Package eligible decides whether a declaration belongs to the externally
// documented public surface.
package eligible

import "github.com/jcdickinson/ferrishover/internal/syntax"

// Observer is notified when the policy rejects an entity on a gate worth
// instrumenting. Tests record the hits; production uses Nop.
type Observer interface {
	DocHiddenSkipped(d syntax.Decl)
	MacroNotExported(m *syntax.Macro)
}

// Nop is the default Observer.
type Nop struct{}

func (Nop) DocHiddenSkipped(syntax.Decl)   {}
func (Nop) MacroNotExported(*syntax.Macro) {}

// Policy evaluates documentation eligibility. Zero value is not usable;
// build with New.
type Policy struct {
	attrs syntax.Attrs
	obs   Observer
}

// New builds a Policy. attrs nil selects NodeAttrs; obs nil selects Nop.
func New(attrs syntax.Attrs, obs Observer) *Policy {
	if attrs == nil {
		attrs = syntax.NodeAttrs{}
	}
	if obs == nil {
		obs = Nop{}
	}
	return &Policy{attrs: attrs, obs: obs}
}

// Eligible reports whether d should be exposed in external documentation.
// Gates short-circuit in order: doc(hidden), visibility (with the member
// owner rule), macro export, then the containing-module chain.
func (p *Policy) Eligible(d syntax.Decl) bool {
	if p.attrs.IsDocHidden(d) {
		p.obs.DocHiddenSkipped(d)
		return false
	}

	if !p.visible(d) {
		return false
	}

	if m, ok := d.(*syntax.Macro); ok && !p.attrs.IsMacroExported(m) {
		p.obs.MacroNotExported(m)
		return false
	}

	return p.modulesPublic(d)
}

// visible applies the visibility gate. Members of traits and inherent impls
// inherit their owner's reach; members in free/foreign position or in a
// trait impl must be explicitly public, as must every other visible entity.
func (p *Policy) visible(d syntax.Decl) bool {
	pub, hasVis := declPub(d)
	if !hasVis {
		return true
	}

	switch d.(type) {
	case *syntax.Function, *syntax.Constant, *syntax.TypeAlias:
		switch o := syntax.MemberOwner(d).(type) {
		case syntax.TraitOwner:
			return true
		case syntax.ImplOwner:
			if o.Impl.Inherent() {
				return true
			}
			return pub
		default:
			return pub
		}
	}
	return pub
}

// modulesPublic walks the canonical containing-module chain; a single
// non-public ancestor makes the entity unreachable from outside.
//
// Known limitation: this uses the resolved canonical path, not re-export
// paths, so an item re-exported from a public location but canonically
// nested in a private module is judged ineligible.
func (p *Policy) modulesPublic(d syntax.Decl) bool {
	for m := d.Parent(); m != nil; m = m.ParentMod {
		if m.ParentMod == nil {
			// Crate root is always reachable.
			break
		}
		if !m.Pub {
			return false
		}
	}
	return true
}

// declPub returns the explicit-public flag of a declaration and whether the
// kind has a concept of visibility at all.
func declPub(d syntax.Decl) (pub, hasVis bool) {
	switch x := d.(type) {
	case *syntax.Function:
		return x.Pub, true
	case *syntax.Constant:
		return x.Pub, true
	case *syntax.Struct:
		return x.Pub, true
	case *syntax.Enum:
		return x.Pub, true
	case *syntax.Trait:
		return x.Pub, true
	case *syntax.TypeAlias:
		return x.Pub, true
	case *syntax.Field:
		return x.Pub, true
	case *syntax.Module:
		return x.Pub, true
	}
	return false, false
}
