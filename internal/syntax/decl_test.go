package syntax

import "testing"

func chain(names ...string) *Module {
	var m *Module
	for _, n := range names {
		m = &Module{Name: n, Pub: true, ParentMod: m}
	}
	return m
}

func TestModulePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mod  *Module
		want string
	}{
		{"nested", chain("tokio", "sync", "mpsc"), "tokio::sync::mpsc"},
		{"root", chain("tokio"), "tokio"},
		{"unnamed_root", &Module{}, ""},
		{"unnamed_root_with_child", &Module{Name: "net", ParentMod: &Module{}}, "net"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mod.Path(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQualifiedName(t *testing.T) {
	t.Parallel()

	mod := chain("tokio", "sync")

	tests := []struct {
		name string
		d    Decl
		want string
	}{
		{"function", &Function{Name: "spawn", Module: mod}, "tokio::sync::spawn"},
		{"root_entity", &Struct{Name: "Top", Module: &Module{}}, "Top"},
		{"no_module", &Struct{Name: "Orphan"}, "Orphan"},
		{"anonymous_impl", &Impl{Module: mod}, "tokio::sync"},
		{"field", &Field{Name: "len", OwnerD: &Struct{Name: "Buf", Module: mod}}, "tokio::sync::len"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualifiedName(tt.d); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContainingPath(t *testing.T) {
	t.Parallel()

	mod := chain("tokio", "sync")
	if got := ContainingPath(&Function{Name: "spawn", Module: mod}); got != "tokio::sync" {
		t.Errorf("got %q", got)
	}
	if got := ContainingPath(&Struct{Name: "Orphan"}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestMemberOwner(t *testing.T) {
	t.Parallel()

	impl := &Impl{}
	trait := &Trait{Name: "Read"}

	tests := []struct {
		name string
		d    Decl
		want Owner
	}{
		{"free_default", &Function{Name: "f"}, FreeOwner{}},
		{"impl_member", &Function{Name: "f", Owner: ImplOwner{Impl: impl}}, ImplOwner{Impl: impl}},
		{"trait_member", &Constant{Name: "C", Owner: TraitOwner{Trait: trait}}, TraitOwner{Trait: trait}},
		{"non_member_kind", &Struct{Name: "S"}, FreeOwner{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MemberOwner(tt.d); got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNodeAttrs(t *testing.T) {
	t.Parallel()

	a := NodeAttrs{}
	if !a.IsDocHidden(&Function{Name: "f", Hidden: true}) {
		t.Error("hidden function not reported")
	}
	if a.IsDocHidden(&Function{Name: "f"}) {
		t.Error("visible function reported hidden")
	}
	if a.IsMacroExported(&Macro{Name: "m"}) {
		t.Error("unexported macro reported exported")
	}
	if !a.IsMacroExported(&Macro{Name: "m", Exported: true}) {
		t.Error("exported macro not reported")
	}
}
