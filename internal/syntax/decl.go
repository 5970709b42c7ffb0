package syntax

import "strings"

// Decl is a declaration capable of carrying doc comments and appearing in
// generated documentation.
type Decl interface {
	Node
	DeclName() string
	Parent() *Module
}

// Owner classifies where a trait/impl member lives. A nil Owner on a member
// means FreeOwner.
type Owner interface {
	owner()
}

// FreeOwner marks a free (module-level) item.
type FreeOwner struct{}

// ForeignOwner marks an item inside an extern block.
type ForeignOwner struct{}

// ImplOwner marks a member of an impl block.
type ImplOwner struct {
	Impl *Impl
}

// TraitOwner marks a member declared directly in a trait.
type TraitOwner struct {
	Trait *Trait
}

func (FreeOwner) owner()    {}
func (ForeignOwner) owner() {}
func (ImplOwner) owner()    {}
func (TraitOwner) owner()   {}

// Module is one scope of the containing-module chain. The crate root has a
// nil Parent and carries the crate name; it counts as public.
type Module struct {
	Name      string
	Pub       bool
	ParentMod *Module
	Hidden    bool
	Docs      string
}

func (*Module) Kind() Kind        { return KindModule }
func (m *Module) DeclName() string { return m.Name }
func (m *Module) Parent() *Module  { return m.ParentMod }

// Path returns the :: separated path of the module itself, crate root first.
func (m *Module) Path() string {
	var segs []string
	for s := m; s != nil; s = s.ParentMod {
		if s.Name != "" {
			segs = append(segs, s.Name)
		}
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "::")
}

// QualifiedName returns the declaration's canonical path, module chain plus
// its own name.
func QualifiedName(d Decl) string {
	name := d.DeclName()
	if m := d.Parent(); m != nil {
		if p := m.Path(); p != "" {
			if name == "" {
				return p
			}
			return p + "::" + name
		}
	}
	return name
}

// ContainingPath returns the module path without the final ::name segment.
func ContainingPath(d Decl) string {
	if m := d.Parent(); m != nil {
		return m.Path()
	}
	return ""
}

// Function is a fn item, free or member.
type Function struct {
	Name   string
	Module *Module
	Pub    bool
	Hidden bool

	Const  bool
	Unsafe bool
	Async  bool
	Extern bool
	ABI    string

	Generics *GenericParams
	Params   *ParamList
	Ret      TypeElem
	Where    *WhereClause

	Owner Owner
	Docs  string
}

func (*Function) Kind() Kind         { return KindFunction }
func (f *Function) DeclName() string { return f.Name }
func (f *Function) Parent() *Module  { return f.Module }

// Constant is a const or, when Static is set, a static item.
type Constant struct {
	Name   string
	Module *Module
	Pub    bool
	Hidden bool

	Static bool
	Mut    bool
	Type   TypeElem
	Value  string

	Owner Owner
	Docs  string
}

func (*Constant) Kind() Kind         { return KindConstant }
func (c *Constant) DeclName() string { return c.Name }
func (c *Constant) Parent() *Module  { return c.Module }

// Struct declares a struct.
type Struct struct {
	Name   string
	Module *Module
	Pub    bool
	Hidden bool

	Generics *GenericParams
	Where    *WhereClause
	Docs     string
}

func (*Struct) Kind() Kind         { return KindStruct }
func (s *Struct) DeclName() string { return s.Name }
func (s *Struct) Parent() *Module  { return s.Module }

// Enum declares an enum.
type Enum struct {
	Name   string
	Module *Module
	Pub    bool
	Hidden bool

	Generics *GenericParams
	Where    *WhereClause
	Docs     string
}

func (*Enum) Kind() Kind         { return KindEnum }
func (e *Enum) DeclName() string { return e.Name }
func (e *Enum) Parent() *Module  { return e.Module }

// Trait declares a trait.
type Trait struct {
	Name   string
	Module *Module
	Pub    bool
	Hidden bool
	Unsafe bool

	Generics *GenericParams
	Where    *WhereClause
	Docs     string
}

func (*Trait) Kind() Kind         { return KindTrait }
func (t *Trait) DeclName() string { return t.Name }
func (t *Trait) Parent() *Module  { return t.Module }

// TypeAlias is "type Name<G> = Aliased".
type TypeAlias struct {
	Name   string
	Module *Module
	Pub    bool
	Hidden bool

	Generics *GenericParams
	Type     TypeElem
	Where    *WhereClause

	Owner Owner
	Docs  string
}

func (*TypeAlias) Kind() Kind         { return KindTypeAlias }
func (a *TypeAlias) DeclName() string { return a.Name }
func (a *TypeAlias) Parent() *Module  { return a.Module }

// Field is a named struct/enum field. TypeText comes from the inference
// collaborator, not from this tree.
type Field struct {
	Name   string
	OwnerD Decl
	Pub    bool
	Hidden bool
	Docs   string
}

func (*Field) Kind() Kind         { return KindField }
func (f *Field) DeclName() string { return f.Name }
func (f *Field) Parent() *Module {
	if f.OwnerD == nil {
		return nil
	}
	return f.OwnerD.Parent()
}

// Impl is an impl block; not documentable on its own but owns members and
// renders in headers.
type Impl struct {
	Module *Module
	Unsafe bool

	Generics *GenericParams
	Trait    *TraitRef
	For      TypeElem
	Where    *WhereClause
}

func (*Impl) Kind() Kind        { return KindImpl }
func (*Impl) DeclName() string  { return "" }
func (i *Impl) Parent() *Module { return i.Module }

// Inherent reports whether the impl has no trait.
func (i *Impl) Inherent() bool { return i.Trait == nil }

// Macro is a macro_rules!-style definition. Exported mirrors the
// #[macro_export] attribute.
type Macro struct {
	Name     string
	Module   *Module
	Hidden   bool
	Exported bool
	Docs     string
}

func (*Macro) Kind() Kind         { return KindMacro }
func (m *Macro) DeclName() string { return m.Name }
func (m *Macro) Parent() *Module  { return m.Module }

// PatBinding is a pattern binding (let, match arm, closure parameter). Its
// type text comes from the inference collaborator.
type PatBinding struct {
	Name   string
	Module *Module
	Mut    bool
}

func (*PatBinding) Kind() Kind         { return KindPatBinding }
func (b *PatBinding) DeclName() string { return b.Name }
func (b *PatBinding) Parent() *Module  { return b.Module }

// MemberOwner returns the owner context of a declaration, treating nil as
// FreeOwner. Only functions, constants and type aliases carry one.
func MemberOwner(d Decl) Owner {
	var o Owner
	switch m := d.(type) {
	case *Function:
		o = m.Owner
	case *Constant:
		o = m.Owner
	case *TypeAlias:
		o = m.Owner
	}
	if o == nil {
		return FreeOwner{}
	}
	return o
}
