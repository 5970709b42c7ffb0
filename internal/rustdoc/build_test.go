package rustdoc

import (
	"strings"
	"testing"

	"github.com/jcdickinson/ferrishover/internal/eligible"
	"github.com/jcdickinson/ferrishover/internal/markdown"
	"github.com/jcdickinson/ferrishover/internal/provider"
	"github.com/jcdickinson/ferrishover/internal/syntax"
)

// testCrate is a hand-built rustdoc JSON document small enough to reason
// about: a crate root with a free function, a struct with a field and an
// inherent impl, a trait, a private module, an exported macro, and a
// pub-use re-export of the private module's struct.
const testCrate = `{
  "root": 0,
  "crate_version": "1.2.3",
  "format_version": 37,
  "external_crates": {
    "1": {"name": "std", "html_root_url": "https://doc.rust-lang.org/nightly/"},
    "2": {"name": "serde", "html_root_url": "https://docs.rs/serde/1.0.200/serde/"}
  },
  "index": {
    "0": {"id": 0, "crate_id": 0, "name": "mycrate", "visibility": "public",
          "inner": {"module": {"items": [1, 2, 5, 8, 10, 12]}}},
    "1": {"id": 1, "crate_id": 0, "name": "greet", "visibility": "public",
          "docs": "Greets by [Config] and maybe [Serialize] or [Vec].",
          "links": {"Config": 2, "Serialize": 100, "Vec": 200},
          "inner": {"function": {
            "sig": {"inputs": [["name", {"primitive": "str"}]], "output": {"primitive": "bool"}},
            "generics": {"params": []},
            "header": {"is_const": false, "is_unsafe": false, "is_async": false, "abi": "Rust"}}}},
    "2": {"id": 2, "crate_id": 0, "name": "Config", "visibility": "public",
          "inner": {"struct": {
            "kind": {"plain": {"fields": [4], "has_stripped_fields": false}},
            "generics": {"params": [{"name": "T", "kind": {"type": {"bounds": []}}}]},
            "impls": [6]}}},
    "4": {"id": 4, "crate_id": 0, "name": "timeout", "visibility": "public",
          "inner": {"struct_field": {"primitive": "u64"}}},
    "5": {"id": 5, "crate_id": 0, "name": "Greeter", "visibility": "public",
          "inner": {"trait": {"is_unsafe": false, "items": [9], "generics": {"params": []}}}},
    "6": {"id": 6, "crate_id": 0, "name": null, "visibility": "default",
          "inner": {"impl": {
            "is_unsafe": false, "trait": null,
            "for": {"resolved_path": {"id": 2, "path": "mycrate::Config", "name": "Config"}},
            "items": [7]}}},
    "7": {"id": 7, "crate_id": 0, "name": "new", "visibility": "public",
          "inner": {"function": {
            "sig": {"inputs": [], "output": {"generic": "Self"}},
            "generics": {"params": []},
            "header": {"abi": "Rust"}}}},
    "8": {"id": 8, "crate_id": 0, "name": "detail", "visibility": "default",
          "inner": {"module": {"items": [11]}}},
    "9": {"id": 9, "crate_id": 0, "name": "greet", "visibility": "default",
          "inner": {"function": {
            "sig": {"inputs": [["self", {"borrowed_ref": {"lifetime": null, "is_mutable": false, "type": {"generic": "Self"}}}]], "output": null},
            "generics": {"params": []},
            "header": {"abi": "Rust"}}}},
    "10": {"id": 10, "crate_id": 0, "name": "shout", "visibility": "public",
           "attrs": ["#[macro_export]"],
           "inner": {"macro": "macro_rules! shout { () => {} }"}},
    "11": {"id": 11, "crate_id": 0, "name": "Hidden", "visibility": "public",
           "inner": {"struct": {"kind": {"unit": null}, "generics": {"params": []}, "impls": []}}},
    "12": {"id": 12, "crate_id": 0, "name": null, "visibility": "public",
           "inner": {"use": {"name": "Hidden", "id": 11, "is_glob": false, "source": "detail::Hidden"}}}
  },
  "paths": {
    "1": {"crate_id": 0, "path": ["mycrate", "greet"], "kind": "function"},
    "2": {"crate_id": 0, "path": ["mycrate", "Config"], "kind": "struct"},
    "5": {"crate_id": 0, "path": ["mycrate", "Greeter"], "kind": "trait"},
    "8": {"crate_id": 0, "path": ["mycrate", "detail"], "kind": "module"},
    "10": {"crate_id": 0, "path": ["mycrate", "shout"], "kind": "macro"},
    "11": {"crate_id": 0, "path": ["mycrate", "detail", "Hidden"], "kind": "struct"},
    "100": {"crate_id": 2, "path": ["serde", "Serialize"], "kind": "trait"},
    "200": {"crate_id": 1, "path": ["std", "vec", "Vec"], "kind": "struct"}
  }
}`

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	crate, err := Decode([]byte(testCrate))
	if err != nil {
		t.Fatalf("decoding test crate: %v", err)
	}
	return Build(crate, "mycrate", "1.2.3")
}

func TestBuildModuleTree(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	root := idx.Root()
	if root.Name != "mycrate" || !root.Pub {
		t.Errorf("unexpected root module: %+v", root)
	}

	detail := idx.Lookup("mycrate::detail")
	mod, ok := detail.(*syntax.Module)
	if !ok {
		t.Fatalf("detail is %T, want module", detail)
	}
	if mod.Pub {
		t.Error("detail module should be private")
	}
	if mod.ParentMod != root {
		t.Error("detail module not parented to root")
	}
}

func TestBuildFunction(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	d := idx.Lookup("mycrate::greet")
	fn, ok := d.(*syntax.Function)
	if !ok {
		t.Fatalf("greet is %T, want function", d)
	}
	if !fn.Pub {
		t.Error("greet should be public")
	}
	if fn.Extern {
		t.Error(`the default "Rust" ABI must not mark the function extern`)
	}
	if len(fn.Params.Params) != 1 || fn.Params.Params[0].Name != "name" {
		t.Errorf("unexpected params: %+v", fn.Params)
	}
	bt, ok := fn.Params.Params[0].Type.(*syntax.BaseType)
	if !ok || bt.Path.Name != "str" {
		t.Errorf("param type = %#v, want str", fn.Params.Params[0].Type)
	}
	ret, ok := fn.Ret.(*syntax.BaseType)
	if !ok || ret.Path.Name != "bool" {
		t.Errorf("return type = %#v, want bool", fn.Ret)
	}
}

func TestBuildStructAndField(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	d := idx.Lookup("Config")
	s, ok := d.(*syntax.Struct)
	if !ok {
		t.Fatalf("Config is %T, want struct", d)
	}
	if s.Generics.Empty() || s.Generics.Types[0].Name != "T" {
		t.Errorf("generics not built: %+v", s.Generics)
	}

	var field *syntax.Field
	for f := range idx.fields {
		if f.Name == "timeout" {
			field = f
		}
	}
	if field == nil {
		t.Fatal("timeout field not built")
	}
	if field.OwnerD != s {
		t.Error("field not owned by Config")
	}
	if got := idx.TypeText(field); got != "u64" {
		t.Errorf("field type text = %q, want u64", got)
	}
}

func TestBuildImplMember(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	d := idx.Lookup("mycrate::new")
	fn, ok := d.(*syntax.Function)
	if !ok {
		t.Fatalf("new is %T, want function", d)
	}
	owner, ok := syntax.MemberOwner(fn).(syntax.ImplOwner)
	if !ok {
		t.Fatalf("new owner is %T, want impl owner", syntax.MemberOwner(fn))
	}
	if !owner.Impl.Inherent() {
		t.Error("Config impl should be inherent")
	}
	if _, ok := fn.Ret.(*syntax.SelfType); !ok {
		t.Errorf("return type = %#v, want Self", fn.Ret)
	}
}

func TestBuildTraitMember(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	tr, ok := idx.Lookup("mycrate::Greeter").(*syntax.Trait)
	if !ok {
		t.Fatal("Greeter trait not built")
	}

	d := idx.Lookup("mycrate::greet")
	// Two functions share the name "greet"; the free one wins the path
	// table. Find the trait member through the decls map instead.
	var member *syntax.Function
	for _, dd := range idx.decls {
		fn, ok := dd.(*syntax.Function)
		if !ok || fn.Name != "greet" {
			continue
		}
		if o, ok := syntax.MemberOwner(fn).(syntax.TraitOwner); ok && o.Trait == tr {
			member = fn
		}
	}
	if member == nil {
		t.Fatalf("trait member greet not built (path lookup gave %T)", d)
	}
	if member.Params.SelfParam == nil || !member.Params.SelfParam.Ref {
		t.Errorf("receiver = %+v, want &self", member.Params.SelfParam)
	}
}

func TestBuildMacro(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	m, ok := idx.Lookup("mycrate::shout").(*syntax.Macro)
	if !ok {
		t.Fatal("shout macro not built")
	}
	if !m.Exported {
		t.Error("#[macro_export] should mark the macro exported")
	}
}

func TestLookupCrateLocalAlias(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	with := idx.Lookup("mycrate::Config")
	without := idx.Lookup("Config")
	if with == nil || with != without {
		t.Errorf("lookup with and without crate prefix disagree: %v vs %v", with, without)
	}
}

func TestCollectReexports(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	res := idx.CollectReexports()
	var found *Reexport
	for i := range res {
		if res[i].LocalPrefix == "mycrate::Hidden" {
			found = &res[i]
		}
	}
	if found == nil {
		t.Fatalf("re-export not collected: %+v", res)
	}
	if found.SourceCrate != "mycrate" || found.SourcePrefix != "mycrate::detail::Hidden" {
		t.Errorf("unexpected mapping: %+v", found)
	}

	// Same-crate single re-exports double as lookup aliases.
	if idx.Lookup("mycrate::Hidden") != idx.Lookup("mycrate::detail::Hidden") {
		t.Error("public alias should resolve to the canonical declaration")
	}
}

func TestResolveReference(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	config := idx.Lookup("mycrate::Config")
	greet := idx.Lookup("mycrate::greet")

	tests := []struct {
		name string
		ref  string
		ctx  syntax.Node
		want syntax.Decl
	}{
		{"absolute", "mycrate::Config", nil, config},
		{"crate_prefix", "crate::Config", nil, config},
		{"backticked", "`mycrate::Config`", nil, config},
		{"macro_bang", "mycrate::shout!", nil, idx.Lookup("mycrate::shout")},
		{"fn_parens", "mycrate::greet()", nil, greet},
		{"relative_to_context", "Config", greet, config},
		{"unresolved", "no::such::Thing", nil, nil},
		{"empty", "``", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.ResolveReference(tt.ref, tt.ctx)
			if tt.want == nil {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrigins(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	local := idx.Lookup("mycrate::Config")
	if got := idx.OriginOf(local); got != syntax.OriginDependency {
		t.Errorf("local item origin = %v, want dependency", got)
	}

	stdDecl := &syntax.Struct{Name: "Vec", Module: &syntax.Module{
		Name: "vec", ParentMod: &syntax.Module{Name: "std", Pub: true}, Pub: true,
	}}
	if got := idx.OriginOf(stdDecl); got != syntax.OriginStdlib {
		t.Errorf("std item origin = %v, want stdlib", got)
	}

	if idx.PackageName(local) != "mycrate" || idx.PackageVersion(local) != "1.2.3" {
		t.Errorf("package metadata = %q %q", idx.PackageName(local), idx.PackageVersion(local))
	}
}

func TestDocLinks(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	greet := idx.Lookup("mycrate::greet")
	links := idx.DocLinksFor(greet)

	tests := []struct {
		text string
		want string
	}{
		{"Config", "https://docs.rs/mycrate/1.2.3/mycrate/struct.Config.html"},
		{"Serialize", "https://docs.rs/serde/latest/serde/trait.Serialize.html"},
		{"Vec", "https://doc.rust-lang.org/stable/std/vec/struct.Vec.html"},
	}
	for _, tt := range tests {
		if got := links[tt.text]; got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.text, got, tt.want)
		}
	}

	if idx.DocLinksFor(idx.Root()) != nil {
		t.Error("synthetic root has no links")
	}
}

func TestDocumentationRendersDocLinks(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	policy := eligible.New(syntax.NodeAttrs{}, eligible.Nop{})
	prov := provider.New(idx, markdown.Renderer{}, policy, nil, nil)
	prov.SetLinkSource(idx)

	got, ok := prov.Documentation(idx.Lookup("mycrate::greet"))
	if !ok {
		t.Fatal("expected documentation")
	}
	if !strings.Contains(got, `href="https://docs.rs/mycrate/1.2.3/mycrate/struct.Config.html"`) {
		t.Errorf("Config link missing: %q", got)
	}
	if !strings.Contains(got, ">Config</a>") {
		t.Errorf("Config link text missing: %q", got)
	}
	if !strings.Contains(got, `href="https://doc.rust-lang.org/stable/std/vec/struct.Vec.html"`) {
		t.Errorf("Vec link missing: %q", got)
	}
	if strings.Contains(got, "[Config]") {
		t.Errorf("shortcut reference left unresolved: %q", got)
	}
}

func TestQuickText(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t)

	tests := []struct {
		path string
		want string
	}{
		{"mycrate::greet", "fn mycrate::greet"},
		{"mycrate::Config", "struct mycrate::Config"},
		{"mycrate::Greeter", "trait mycrate::Greeter"},
		{"mycrate::detail", "mod mycrate::detail"},
		{"mycrate::shout", "macro mycrate::shout"},
	}
	for _, tt := range tests {
		d := idx.Lookup(tt.path)
		if d == nil {
			t.Fatalf("%s not built", tt.path)
		}
		if got := idx.QuickText(d); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestHasAttr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		attrs  []string
		needle string
		want   bool
	}{
		{"exact", []string{"#[doc(hidden)]"}, "doc(hidden)", true},
		{"spaced", []string{"#[doc( hidden )]"}, "doc(hidden)", true},
		{"absent", []string{"#[inline]"}, "doc(hidden)", false},
		{"macro_export", []string{"#[macro_export]"}, "macro_export", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := &Item{Attrs: tt.attrs}
			if got := it.HasAttr(tt.needle); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
