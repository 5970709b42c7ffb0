package rustdoc

import (
	"encoding/json"
	"testing"
)

func emptyIndex() *Index {
	return Build(&Crate{Index: map[string]Item{}, Paths: map[string]Summary{}}, "mycrate", "0.1.0")
}

func TestBuildTypeText(t *testing.T) {
	t.Parallel()
	idx := emptyIndex()

	tests := []struct {
		name string
		json string
		want string
	}{
		{"primitive", `{"primitive":"u64"}`, "u64"},
		{"generic", `{"generic":"T"}`, "T"},
		{"self", `{"generic":"Self"}`, "Self"},
		{"unit", `{"tuple":[]}`, "()"},
		{
			"tuple",
			`{"tuple":[{"primitive":"u8"},{"primitive":"bool"}]}`,
			"(u8, bool)",
		},
		{"slice", `{"slice":{"primitive":"u8"}}`, "[u8]"},
		{
			"array",
			`{"array":{"type":{"primitive":"u8"},"len":"32"}}`,
			"[u8; 32]",
		},
		{
			"borrowed_ref",
			`{"borrowed_ref":{"lifetime":"'a","is_mutable":true,"type":{"primitive":"str"}}}`,
			"&'a mut str",
		},
		{
			"raw_pointer",
			`{"raw_pointer":{"is_mutable":false,"type":{"primitive":"u8"}}}`,
			"*const u8",
		},
		{
			"function_pointer",
			`{"function_pointer":{"sig":{"inputs":[["x",{"primitive":"i32"}]],"output":{"primitive":"i32"}}}}`,
			"fn(x: i32) -> i32",
		},
		{
			"resolved_path_with_args",
			`{"resolved_path":{"name":"Vec","path":"alloc::vec::Vec","id":999,"args":{"angle_bracketed":{"args":[{"type":{"primitive":"u8"}}],"constraints":[]}}}}`,
			"alloc::vec::Vec<u8>",
		},
		{
			"qualified_path",
			`{"qualified_path":{"name":"Item","self_type":{"generic":"I"},"trait":{"name":"Iterator","path":"Iterator","id":998}}}`,
			"<I as Iterator>::Item",
		},
		{
			"dyn_trait",
			`{"dyn_trait":{"traits":[{"trait":{"name":"Read","path":"std::io::Read","id":997}}],"lifetime":"'static"}}`,
			"dyn Read + 'static",
		},
		{
			"impl_trait",
			`{"impl_trait":[{"trait_bound":{"trait":{"name":"Iterator","path":"Iterator","id":996}}},{"outlives":"'a"}]}`,
			"impl Iterator + 'a",
		},
		{"infer", `{"infer":null}`, "_"},
		{"null", `null`, "_"},
		{"unknown_shape", `{"never_heard_of_it":{}}`, "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := plainTypeText(idx, json.RawMessage(tt.json))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTypePreferredSummaryPath(t *testing.T) {
	t.Parallel()

	// When the path summary table knows the target id, its canonical path
	// wins over the local path spelling.
	crate := &Crate{
		Index: map[string]Item{},
		Paths: map[string]Summary{
			"42": {CrateID: 0, Path: []string{"mycrate", "inner", "Widget"}, Kind: "struct"},
		},
	}
	idx := Build(crate, "mycrate", "0.1.0")
	got := plainTypeText(idx, json.RawMessage(`{"resolved_path":{"name":"Widget","path":"Widget","id":42}}`))
	if got != "mycrate::inner::Widget" {
		t.Errorf("got %q, want %q", got, "mycrate::inner::Widget")
	}
}

func TestBuildGenericsRaw(t *testing.T) {
	t.Parallel()
	idx := emptyIndex()

	var g rawGenerics
	if err := json.Unmarshal([]byte(`{
		"params": [
			{"name": "'a", "kind": {"lifetime": {"outlives": ["'b"]}}},
			{"name": "T", "kind": {"type": {"bounds": [{"trait_bound": {"trait": {"name": "Clone", "path": "Clone", "id": 1}, "modifier": ""}}]}}},
			{"name": "impl Hidden", "kind": {"type": {"bounds": [], "is_synthetic": true}}}
		],
		"where_predicates": [
			{"bound_predicate": {"type": {"generic": "T"}, "bounds": [{"trait_bound": {"trait": {"name": "Send", "path": "Send", "id": 2}, "modifier": ""}}]}},
			{"lifetime_predicate": {"lifetime": "'a", "outlives": ["'static"]}}
		]
	}`), &g); err != nil {
		t.Fatal(err)
	}

	params := buildGenericsRaw(idx, g)
	if params == nil {
		t.Fatal("no generics built")
	}
	if len(params.Lifetimes) != 1 || params.Lifetimes[0].Lifetime.Name != "'a" {
		t.Errorf("lifetimes = %+v", params.Lifetimes)
	}
	if params.Lifetimes[0].Bounds == nil || params.Lifetimes[0].Bounds.Bounds[0].Name != "'b" {
		t.Errorf("lifetime bounds = %+v", params.Lifetimes[0].Bounds)
	}
	if len(params.Types) != 1 {
		t.Fatalf("synthetic params must be dropped, got %+v", params.Types)
	}
	tp := params.Types[0]
	if tp.Name != "T" || tp.Bounds == nil || tp.Bounds.Bounds[0].Trait.Path.Name != "Clone" {
		t.Errorf("type param = %+v", tp)
	}

	where := buildWhereRaw(idx, g)
	if where == nil || len(where.Preds) != 2 {
		t.Fatalf("where = %+v", where)
	}
	if where.Preds[0].Bounds.Bounds[0].Trait.Path.Name != "Send" {
		t.Errorf("bound predicate = %+v", where.Preds[0])
	}
	if where.Preds[1].Lifetime.Name != "'a" || where.Preds[1].LifetimeBounds.Bounds[0].Name != "'static" {
		t.Errorf("lifetime predicate = %+v", where.Preds[1])
	}
}

func TestBuildBoundsModifiers(t *testing.T) {
	t.Parallel()
	idx := emptyIndex()

	raw := []json.RawMessage{
		json.RawMessage(`{"trait_bound":{"trait":{"name":"Sized","path":"Sized","id":1},"modifier":"maybe"}}`),
		json.RawMessage(`{"trait_bound":{"trait":{"name":"Fn","path":"Fn","id":2},"modifier":"","generic_params":[{"name":"'a"}]}}`),
		json.RawMessage(`{"outlives":"'static"}`),
	}
	bounds := idx.buildBounds(raw)
	if bounds == nil || len(bounds.Bounds) != 3 {
		t.Fatalf("bounds = %+v", bounds)
	}
	if !bounds.Bounds[0].Optout {
		t.Error("maybe modifier should set the opt-out marker")
	}
	if len(bounds.Bounds[1].For) != 1 || bounds.Bounds[1].For[0].Lifetime.Name != "'a" {
		t.Errorf("for binder = %+v", bounds.Bounds[1].For)
	}
	if bounds.Bounds[2].Lifetime == nil || bounds.Bounds[2].Lifetime.Name != "'static" {
		t.Errorf("outlives = %+v", bounds.Bounds[2])
	}
}
