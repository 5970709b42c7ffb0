package syntax

// TypeElem is any node that can appear in type position.
type TypeElem interface {
	Node
	typeElem()
}

// UnitType is the empty tuple type ().
type UnitType struct{}

func (*UnitType) Kind() Kind { return KindUnitType }
func (*UnitType) typeElem()  {}

// SelfType is the Self marker inside impls and traits.
type SelfType struct{}

func (*SelfType) Kind() Kind { return KindSelfType }
func (*SelfType) typeElem()  {}

// BaseType is a named type, rendered by delegating to its path.
type BaseType struct {
	Path *Path
}

func (*BaseType) Kind() Kind { return KindBaseType }
func (*BaseType) typeElem()  {}

// TupleType is (A, B, …).
type TupleType struct {
	Elems []TypeElem
}

func (*TupleType) Kind() Kind { return KindTupleType }
func (*TupleType) typeElem()  {}

// ArrayType is [T; N] when Len is set, or the slice form [T] when Slice.
type ArrayType struct {
	Elem  TypeElem
	Len   string
	Slice bool
}

func (*ArrayType) Kind() Kind { return KindArrayType }
func (*ArrayType) typeElem()  {}

// RefType is &'a mut T.
type RefType struct {
	Lifetime *Lifetime
	Mut      bool
	Elem     TypeElem
}

func (*RefType) Kind() Kind { return KindRefType }
func (*RefType) typeElem()  {}

// PtrType is *mut T or *const T.
type PtrType struct {
	Mut  bool
	Elem TypeElem
}

func (*PtrType) Kind() Kind { return KindPtrType }
func (*PtrType) typeElem()  {}

// FnPtrType is fn(params) -> Ret.
type FnPtrType struct {
	Params *ParamList
	Ret    TypeElem
}

func (*FnPtrType) Kind() Kind { return KindFnPtrType }
func (*FnPtrType) typeElem()  {}

// QualifiedType is the <T as Trait> qualifier. When printed as a path prefix
// the rendering includes the trailing "::".
type QualifiedType struct {
	Base  TypeElem
	Trait *TraitRef
}

func (*QualifiedType) Kind() Kind { return KindQualifiedType }
func (*QualifiedType) typeElem()  {}

// Path is a possibly-qualified reference: Qualifier::Name<Args> or a
// call-like Fn(params) -> Ret sugar path.
type Path struct {
	Qualifier *Path
	TypeQual  *QualifiedType
	Name      string
	TypeArgs  *GenericArgs
	Params    *ParamList
	Ret       TypeElem
}

func (*Path) Kind() Kind { return KindPath }

// Lifetime is a lifetime reference, Name includes the leading apostrophe.
type Lifetime struct {
	Name string
}

func (*Lifetime) Kind() Kind { return KindLifetime }

// LifetimeParam declares a lifetime with optional bounds: 'a: 'b + 'c.
type LifetimeParam struct {
	Lifetime Lifetime
	Bounds   *LifetimeBounds
}

func (*LifetimeParam) Kind() Kind { return KindLifetimeParam }

// LifetimeBounds is the bound list of a lifetime.
type LifetimeBounds struct {
	Bounds []*Lifetime
}

func (*LifetimeBounds) Kind() Kind { return KindLifetimeBounds }

// TypeParam declares a generic type parameter: T: Bounds = Default.
type TypeParam struct {
	Name    string
	Bounds  *TypeBounds
	Default TypeElem
}

func (*TypeParam) Kind() Kind { return KindTypeParam }

// TypeBounds is ": A + ?B + 'c".
type TypeBounds struct {
	Bounds []*Polybound
}

func (*TypeBounds) Kind() Kind { return KindTypeBounds }

// Polybound is a single bound: a trait reference or a lifetime, optionally
// opted out with a leading "?", optionally under a for<'a> binder.
type Polybound struct {
	Optout   bool
	For      []*LifetimeParam
	Trait    *TraitRef
	Lifetime *Lifetime
}

func (*Polybound) Kind() Kind { return KindPolybound }

// TraitRef names a trait by path.
type TraitRef struct {
	Path *Path
}

func (*TraitRef) Kind() Kind { return KindTraitRef }

// AssocBinding is an associated-type binding in an argument list:
// Item = T.
type AssocBinding struct {
	Name string
	Type TypeElem
}

func (*AssocBinding) Kind() Kind { return KindAssocBinding }

// GenericParams is a declaration's <…> list. Source order is preserved as
// lifetimes first, then types.
type GenericParams struct {
	Lifetimes []*LifetimeParam
	Types     []*TypeParam
}

func (*GenericParams) Kind() Kind { return KindGenericParams }

// Empty reports whether the list renders to nothing.
func (g *GenericParams) Empty() bool {
	return g == nil || len(g.Lifetimes) == 0 && len(g.Types) == 0
}

// GenericArgs is an instantiation's <…> list: lifetimes, then types, then
// associated-type bindings.
type GenericArgs struct {
	Lifetimes []*Lifetime
	Types     []TypeElem
	Bindings  []*AssocBinding
}

func (*GenericArgs) Kind() Kind { return KindGenericArgs }

// Empty reports whether the list renders to nothing.
func (g *GenericArgs) Empty() bool {
	return g == nil || len(g.Lifetimes) == 0 && len(g.Types) == 0 && len(g.Bindings) == 0
}

// SelfParam is the receiver: self, &self, &'a mut self.
type SelfParam struct {
	Ref      bool
	Lifetime *Lifetime
	Mut      bool
}

func (*SelfParam) Kind() Kind { return KindSelfParam }

// ValueParam is "name: Type".
type ValueParam struct {
	Name string
	Type TypeElem
}

func (*ValueParam) Kind() Kind { return KindValueParam }

// ParamList is the parenthesized value-parameter list: optional receiver
// first, ordinary parameters, optional trailing variadic marker.
type ParamList struct {
	SelfParam *SelfParam
	Params    []*ValueParam
	Variadic  bool
}

func (*ParamList) Kind() Kind { return KindParamList }

// WherePred is one predicate of a where-clause. Exactly one of Lifetime or
// Type is set; predicates with neither are skipped by renderers.
type WherePred struct {
	Lifetime       *Lifetime
	LifetimeBounds *LifetimeBounds
	Type           TypeElem
	Bounds         *TypeBounds
}

// WhereClause holds the predicates following "where".
type WhereClause struct {
	Preds []*WherePred
}

func (*WhereClause) Kind() Kind { return KindWhereClause }

// Empty reports whether the clause renders to nothing.
func (w *WhereClause) Empty() bool {
	return w == nil || len(w.Preds) == 0
}
