package syntax

// Resolver is the resolution/inference collaborator. Implementations come
// from outside this tree (the rustdoc bridge, or a test stub).
type Resolver interface {
	// Resolve returns the node a path names, or nil when it doesn't resolve
	// (builtin, unknown, or error — callers treat all three the same).
	Resolve(p *Path) Node

	// TypeText returns the inferred type rendering for a field or pattern
	// binding, already plain text.
	TypeText(n Node) string

	// QuickText returns the presentation one-liner for a named entity, or ""
	// when none applies.
	QuickText(n Node) string

	// ResolveReference parses ref as a path expression in the given context
	// and resolves it. Used for intra-doc link targets.
	ResolveReference(ref string, ctx Node) Node
}

// Attrs answers attribute queries for declarations.
type Attrs interface {
	IsDocHidden(d Decl) bool
	IsMacroExported(m *Macro) bool
}

// NodeAttrs reads attribute state recorded on the nodes themselves. The
// default Attrs implementation.
type NodeAttrs struct{}

func (NodeAttrs) IsDocHidden(d Decl) bool {
	switch x := d.(type) {
	case *Function:
		return x.Hidden
	case *Constant:
		return x.Hidden
	case *Struct:
		return x.Hidden
	case *Enum:
		return x.Hidden
	case *Trait:
		return x.Hidden
	case *TypeAlias:
		return x.Hidden
	case *Field:
		return x.Hidden
	case *Module:
		return x.Hidden
	case *Macro:
		return x.Hidden
	}
	return false
}

func (NodeAttrs) IsMacroExported(m *Macro) bool { return m.Exported }

// Origin classifies where a declaration's package comes from.
type Origin uint8

const (
	OriginUnknown Origin = iota
	OriginStdlib
	OriginWorkspace
	OriginDependency
	OriginTransitive
)

// PackageMeta is the package/workspace metadata collaborator.
type PackageMeta interface {
	OriginOf(d Decl) Origin
	PackageName(d Decl) string
	PackageVersion(d Decl) string
}
