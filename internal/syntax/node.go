// Package syntax models Rust declarations and type grammar as an immutable
// tree of tagged variants. One concrete struct per node kind; renderers
// dispatch with a type switch and fall back to raw source text for anything
// they don't know.
package syntax

// Kind identifies a node variant. The set is closed: renderers must handle
// every kind here and degrade to raw text for KindRaw.
type Kind uint8

const (
	KindRaw Kind = iota

	KindPath
	KindUnitType
	KindSelfType
	KindBaseType
	KindTupleType
	KindArrayType
	KindRefType
	KindPtrType
	KindFnPtrType
	KindQualifiedType

	KindGenericParams
	KindGenericArgs
	KindParamList
	KindValueParam
	KindSelfParam
	KindWhereClause
	KindTraitRef
	KindAssocBinding
	KindLifetime
	KindLifetimeParam
	KindLifetimeBounds
	KindTypeBounds
	KindPolybound

	KindTypeParam
	KindPatBinding

	KindFunction
	KindConstant
	KindStruct
	KindEnum
	KindTrait
	KindTypeAlias
	KindField
	KindImpl
	KindModule
	KindMacro
)

// Node is any element of the syntax tree. The tree is read-only: renderers
// and policies never mutate it.
type Node interface {
	Kind() Kind
}

// Sourcer is implemented by nodes that retain their raw source text.
// Renderers use it as the fallback for unmodeled constructs.
type Sourcer interface {
	Source() string
}

// Raw carries an unmodeled construct as plain source text. It renders as
// escaped text, never dropped silently.
type Raw struct {
	Src string
}

func (*Raw) Kind() Kind       { return KindRaw }
func (r *Raw) Source() string { return r.Src }
func (*Raw) typeElem()        {}
