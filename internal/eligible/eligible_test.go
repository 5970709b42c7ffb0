package eligible

import (
	"testing"

	"github.com/jcdickinson/ferrishover/internal/syntax"
)

// recorder captures rejection notifications.
type recorder struct {
	hidden      []syntax.Decl
	notExported []*syntax.Macro
}

func (r *recorder) DocHiddenSkipped(d syntax.Decl)   { r.hidden = append(r.hidden, d) }
func (r *recorder) MacroNotExported(m *syntax.Macro) { r.notExported = append(r.notExported, m) }

func publicChain(names ...string) *syntax.Module {
	var m *syntax.Module
	for _, n := range names {
		m = &syntax.Module{Name: n, Pub: true, ParentMod: m}
	}
	return m
}

func TestDocHiddenGate(t *testing.T) {
	t.Parallel()

	root := publicChain("mycrate")
	rec := &recorder{}
	p := New(nil, rec)

	d := &syntax.Function{Name: "secret", Module: root, Pub: true, Hidden: true}
	if p.Eligible(d) {
		t.Error("doc(hidden) declaration must be ineligible")
	}
	if len(rec.hidden) != 1 || rec.hidden[0] != d {
		t.Errorf("observer not notified: %v", rec.hidden)
	}

	// The hidden gate fires before every other rule: even a fully public
	// entity in a public chain is cut.
	vis := &syntax.Function{Name: "open", Module: root, Pub: true}
	if !p.Eligible(vis) {
		t.Error("un-hidden twin should be eligible")
	}
}

func TestVisibilityGate(t *testing.T) {
	t.Parallel()

	root := publicChain("mycrate")
	trait := &syntax.Trait{Name: "Read", Module: root, Pub: true}
	traitImpl := &syntax.Impl{
		Module: root,
		Trait:  &syntax.TraitRef{Path: &syntax.Path{Name: "Read"}},
		For:    &syntax.BaseType{Path: &syntax.Path{Name: "File"}},
	}
	inherent := &syntax.Impl{
		Module: root,
		For:    &syntax.BaseType{Path: &syntax.Path{Name: "File"}},
	}

	p := New(nil, nil)

	tests := []struct {
		name string
		d    syntax.Decl
		want bool
	}{
		{
			"private_free_fn",
			&syntax.Function{Name: "helper", Module: root},
			false,
		},
		{
			"public_free_fn",
			&syntax.Function{Name: "run", Module: root, Pub: true},
			true,
		},
		{
			"trait_member_inherits_reach",
			&syntax.Function{Name: "read", Module: root, Owner: syntax.TraitOwner{Trait: trait}},
			true,
		},
		{
			"inherent_impl_member_inherits_reach",
			&syntax.Function{Name: "open", Module: root, Owner: syntax.ImplOwner{Impl: inherent}},
			true,
		},
		{
			"trait_impl_member_needs_pub",
			&syntax.Function{Name: "read", Module: root, Owner: syntax.ImplOwner{Impl: traitImpl}},
			false,
		},
		{
			"trait_impl_member_pub",
			&syntax.Function{Name: "read", Module: root, Pub: true, Owner: syntax.ImplOwner{Impl: traitImpl}},
			true,
		},
		{
			"private_struct",
			&syntax.Struct{Name: "Inner", Module: root},
			false,
		},
		{
			"private_field",
			&syntax.Field{Name: "buf", OwnerD: &syntax.Struct{Name: "File", Module: root, Pub: true}},
			false,
		},
		{
			"public_field",
			&syntax.Field{Name: "len", Pub: true, OwnerD: &syntax.Struct{Name: "File", Module: root, Pub: true}},
			true,
		},
		{
			"trait_assoc_type",
			&syntax.TypeAlias{Name: "Item", Module: root, Owner: syntax.TraitOwner{Trait: trait}},
			true,
		},
		{
			"trait_assoc_const",
			&syntax.Constant{Name: "SIZE", Module: root, Owner: syntax.TraitOwner{Trait: trait}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Eligible(tt.d); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMacroExportGate(t *testing.T) {
	t.Parallel()

	root := publicChain("mycrate")
	rec := &recorder{}
	p := New(nil, rec)

	local := &syntax.Macro{Name: "inner", Module: root}
	if p.Eligible(local) {
		t.Error("unexported macro must be ineligible")
	}
	if len(rec.notExported) != 1 || rec.notExported[0] != local {
		t.Errorf("observer not notified: %v", rec.notExported)
	}

	exported := &syntax.Macro{Name: "vec", Module: root, Exported: true}
	if !p.Eligible(exported) {
		t.Error("exported macro should be eligible")
	}

	// The module walk still applies to the macro's canonical chain.
	private := &syntax.Module{Name: "detail", ParentMod: root}
	nested := &syntax.Macro{Name: "impl_ops", Module: private, Exported: true}
	if p.Eligible(nested) {
		t.Error("canonical chain through a private module is ineligible")
	}
}

func TestModuleChainWalk(t *testing.T) {
	t.Parallel()
	p := New(nil, nil)

	root := &syntax.Module{Name: "mycrate"}
	pubMod := &syntax.Module{Name: "api", Pub: true, ParentMod: root}
	privMod := &syntax.Module{Name: "detail", ParentMod: pubMod}
	deep := &syntax.Module{Name: "inner", Pub: true, ParentMod: privMod}

	tests := []struct {
		name string
		mod  *syntax.Module
		want bool
	}{
		{"crate_root_counts_public", root, true},
		{"public_chain", pubMod, true},
		{"one_private_ancestor", deep, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &syntax.Struct{Name: "Thing", Module: tt.mod, Pub: true}
			if got := p.Eligible(d); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("private_parent_module", func(t *testing.T) {
		d := &syntax.Struct{Name: "Thing", Module: privMod, Pub: true}
		if p.Eligible(d) {
			t.Error("struct inside private module should be ineligible")
		}
	})
}

type allHiddenAttrs struct{ syntax.NodeAttrs }

func (allHiddenAttrs) IsDocHidden(syntax.Decl) bool { return true }

func TestCustomAttrs(t *testing.T) {
	t.Parallel()
	p := New(allHiddenAttrs{}, nil)
	d := &syntax.Function{Name: "open", Module: publicChain("mycrate"), Pub: true}
	if p.Eligible(d) {
		t.Error("injected attrs should override node state")
	}
}
