package rustdoc

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jcdickinson/ferrishover/internal/syntax"
)

// rawGenerics mirrors the rustdoc "generics" object shared by functions,
// types, traits and impl blocks.
type rawGenerics struct {
	Params []struct {
		Name string          `json:"name"`
		Kind json.RawMessage `json:"kind"`
	} `json:"params"`
	WherePredicates []json.RawMessage `json:"where_predicates"`
}

func (idx *Index) buildGenerics(inner json.RawMessage, kind string) *syntax.GenericParams {
	return buildGenericsRaw(idx, decodeGenerics(inner, kind))
}

func (idx *Index) buildWhere(inner json.RawMessage, kind string) *syntax.WhereClause {
	return buildWhereRaw(idx, decodeGenerics(inner, kind))
}

func decodeGenerics(inner json.RawMessage, kind string) rawGenerics {
	data := unwrapInner(inner, kind)
	var outer struct {
		Generics rawGenerics `json:"generics"`
	}
	json.Unmarshal(data, &outer)
	return outer.Generics
}

func buildGenericsRaw(idx *Index, g rawGenerics) *syntax.GenericParams {
	params := &syntax.GenericParams{}
	for _, p := range g.Params {
		var kind map[string]json.RawMessage
		if err := json.Unmarshal(p.Kind, &kind); err != nil {
			continue
		}
		if lt, ok := kind["lifetime"]; ok {
			lp := &syntax.LifetimeParam{Lifetime: syntax.Lifetime{Name: p.Name}}
			var l struct {
				Outlives []string `json:"outlives"`
			}
			json.Unmarshal(lt, &l)
			if len(l.Outlives) > 0 {
				lb := &syntax.LifetimeBounds{}
				for _, out := range l.Outlives {
					lb.Bounds = append(lb.Bounds, &syntax.Lifetime{Name: out})
				}
				lp.Bounds = lb
			}
			params.Lifetimes = append(params.Lifetimes, lp)
			continue
		}
		if tp, ok := kind["type"]; ok {
			var t struct {
				Bounds    []json.RawMessage `json:"bounds"`
				Default   json.RawMessage   `json:"default"`
				Synthetic bool              `json:"is_synthetic"`
			}
			json.Unmarshal(tp, &t)
			if t.Synthetic {
				continue
			}
			param := &syntax.TypeParam{Name: p.Name, Bounds: idx.buildBounds(t.Bounds)}
			if len(t.Default) > 0 && string(t.Default) != "null" {
				param.Default = idx.buildType(t.Default)
			}
			params.Types = append(params.Types, param)
		}
		// Const generics are rare in signatures users hover; skipped.
	}
	if params.Empty() {
		return nil
	}
	return params
}

func buildWhereRaw(idx *Index, g rawGenerics) *syntax.WhereClause {
	where := &syntax.WhereClause{}
	for _, raw := range g.WherePredicates {
		var pred map[string]json.RawMessage
		if err := json.Unmarshal(raw, &pred); err != nil {
			continue
		}
		if bp, ok := pred["bound_predicate"]; ok {
			var b struct {
				Type   json.RawMessage   `json:"type"`
				Bounds []json.RawMessage `json:"bounds"`
			}
			json.Unmarshal(bp, &b)
			bounds := idx.buildBounds(b.Bounds)
			if bounds == nil {
				continue
			}
			where.Preds = append(where.Preds, &syntax.WherePred{
				Type:   idx.buildType(b.Type),
				Bounds: bounds,
			})
			continue
		}
		if lp, ok := pred["lifetime_predicate"]; ok {
			var l struct {
				Lifetime string   `json:"lifetime"`
				Outlives []string `json:"outlives"`
			}
			json.Unmarshal(lp, &l)
			wp := &syntax.WherePred{Lifetime: &syntax.Lifetime{Name: l.Lifetime}}
			lb := &syntax.LifetimeBounds{}
			for _, out := range l.Outlives {
				lb.Bounds = append(lb.Bounds, &syntax.Lifetime{Name: out})
			}
			wp.LifetimeBounds = lb
			where.Preds = append(where.Preds, wp)
		}
	}
	if where.Empty() {
		return nil
	}
	return where
}

// buildBounds converts rustdoc generic bounds into a bound list. Trait
// bounds keep their higher-ranked binders and ?-modifier.
func (idx *Index) buildBounds(raw []json.RawMessage) *syntax.TypeBounds {
	bounds := &syntax.TypeBounds{}
	for _, b := range raw {
		var kind map[string]json.RawMessage
		if err := json.Unmarshal(b, &kind); err != nil {
			continue
		}
		if tb, ok := kind["trait_bound"]; ok {
			var t struct {
				Trait         json.RawMessage `json:"trait"`
				GenericParams []struct {
					Name string `json:"name"`
				} `json:"generic_params"`
				Modifier string `json:"modifier"`
			}
			json.Unmarshal(tb, &t)
			p := idx.buildPathRef(t.Trait)
			if p == nil {
				continue
			}
			pb := &syntax.Polybound{
				Trait:  &syntax.TraitRef{Path: p},
				Optout: t.Modifier == "maybe",
			}
			for _, gp := range t.GenericParams {
				pb.For = append(pb.For, &syntax.LifetimeParam{
					Lifetime: syntax.Lifetime{Name: gp.Name},
				})
			}
			bounds.Bounds = append(bounds.Bounds, pb)
			continue
		}
		if out, ok := kind["outlives"]; ok {
			var lt string
			json.Unmarshal(out, &lt)
			bounds.Bounds = append(bounds.Bounds, &syntax.Polybound{
				Lifetime: &syntax.Lifetime{Name: lt},
			})
		}
	}
	if len(bounds.Bounds) == 0 {
		return nil
	}
	return bounds
}

// buildType maps a rustdoc type object onto the closest syntax variant.
// Shapes the renderer has no form for fall back to source text.
func (idx *Index) buildType(raw json.RawMessage) syntax.TypeElem {
	if len(raw) == 0 || string(raw) == "null" {
		return &syntax.Raw{Src: "_"}
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		// Bare strings appear for inferred and primitive shorthand.
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return &syntax.BaseType{Path: &syntax.Path{Name: s}}
		}
		return &syntax.Raw{Src: "_"}
	}

	if prim, ok := outer["primitive"]; ok {
		var s string
		json.Unmarshal(prim, &s)
		return &syntax.BaseType{Path: &syntax.Path{Name: s}}
	}
	if gen, ok := outer["generic"]; ok {
		var s string
		json.Unmarshal(gen, &s)
		if s == "Self" {
			return &syntax.SelfType{}
		}
		return &syntax.BaseType{Path: &syntax.Path{Name: s}}
	}
	if rp, ok := outer["resolved_path"]; ok {
		if p := idx.buildPathRef(rp); p != nil {
			return &syntax.BaseType{Path: p}
		}
		return &syntax.Raw{Src: "_"}
	}
	if tup, ok := outer["tuple"]; ok {
		var elems []json.RawMessage
		json.Unmarshal(tup, &elems)
		if len(elems) == 0 {
			return &syntax.UnitType{}
		}
		t := &syntax.TupleType{}
		for _, e := range elems {
			t.Elems = append(t.Elems, idx.buildType(e))
		}
		return t
	}
	if sl, ok := outer["slice"]; ok {
		return &syntax.ArrayType{Slice: true, Elem: idx.buildType(sl)}
	}
	if arr, ok := outer["array"]; ok {
		var a struct {
			Type json.RawMessage `json:"type"`
			Len  string          `json:"len"`
		}
		json.Unmarshal(arr, &a)
		return &syntax.ArrayType{Elem: idx.buildType(a.Type), Len: a.Len}
	}
	if ref, ok := outer["borrowed_ref"]; ok {
		var r struct {
			Lifetime  *string         `json:"lifetime"`
			IsMutable bool            `json:"is_mutable"`
			Type      json.RawMessage `json:"type"`
		}
		json.Unmarshal(ref, &r)
		rt := &syntax.RefType{Mut: r.IsMutable, Elem: idx.buildType(r.Type)}
		if r.Lifetime != nil && *r.Lifetime != "" {
			rt.Lifetime = &syntax.Lifetime{Name: *r.Lifetime}
		}
		return rt
	}
	if ptr, ok := outer["raw_pointer"]; ok {
		var p struct {
			IsMutable bool            `json:"is_mutable"`
			Type      json.RawMessage `json:"type"`
		}
		json.Unmarshal(ptr, &p)
		return &syntax.PtrType{Mut: p.IsMutable, Elem: idx.buildType(p.Type)}
	}
	if fp, ok := outer["function_pointer"]; ok {
		var f struct {
			Sig struct {
				Inputs []json.RawMessage `json:"inputs"`
				Output json.RawMessage   `json:"output"`
			} `json:"sig"`
		}
		json.Unmarshal(fp, &f)
		t := &syntax.FnPtrType{Params: &syntax.ParamList{}}
		for _, input := range f.Sig.Inputs {
			var pair []json.RawMessage
			if json.Unmarshal(input, &pair) == nil && len(pair) >= 2 {
				var pn string
				json.Unmarshal(pair[0], &pn)
				t.Params.Params = append(t.Params.Params, &syntax.ValueParam{
					Name: pn,
					Type: idx.buildType(pair[1]),
				})
			}
		}
		if len(f.Sig.Output) > 0 && string(f.Sig.Output) != "null" {
			t.Ret = idx.buildType(f.Sig.Output)
		}
		return t
	}
	if qp, ok := outer["qualified_path"]; ok {
		var q struct {
			Name     string          `json:"name"`
			SelfType json.RawMessage `json:"self_type"`
			Trait    json.RawMessage `json:"trait"`
		}
		json.Unmarshal(qp, &q)
		base := idx.buildType(q.SelfType)
		var trait *syntax.TraitRef
		if p := idx.buildPathRef(q.Trait); p != nil {
			trait = &syntax.TraitRef{Path: p}
		}
		if trait == nil {
			// <T>::Assoc with no trait renders as a plain path.
			return &syntax.BaseType{Path: &syntax.Path{Name: q.Name}}
		}
		qt := &syntax.QualifiedType{Base: base, Trait: trait}
		return &syntax.BaseType{Path: &syntax.Path{TypeQual: qt, Name: q.Name}}
	}
	if dt, ok := outer["dyn_trait"]; ok {
		return &syntax.Raw{Src: idx.dynTraitText(dt)}
	}
	if it, ok := outer["impl_trait"]; ok {
		var bounds []json.RawMessage
		json.Unmarshal(it, &bounds)
		return &syntax.Raw{Src: "impl " + idx.boundsText(bounds)}
	}
	if _, ok := outer["infer"]; ok {
		return &syntax.Raw{Src: "_"}
	}
	return &syntax.Raw{Src: "_"}
}

// buildPathRef decodes a rustdoc path reference (resolved_path payload or
// trait reference) into a qualified Path with generic arguments.
func (idx *Index) buildPathRef(raw json.RawMessage) *syntax.Path {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var rp struct {
		Name string           `json:"name"`
		Path string           `json:"path"`
		ID   int              `json:"id"`
		Args *json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(raw, &rp); err != nil {
		return nil
	}

	segments := idx.pathSegments(rp.ID, rp.Path, rp.Name)
	if len(segments) == 0 {
		return nil
	}
	p := pathFromSegments(segments)
	if rp.Args != nil {
		p.TypeArgs = idx.buildGenericArgs(*rp.Args)
	}
	return p
}

func (idx *Index) pathSegments(id int, path, nm string) []string {
	if summary, ok := idx.crate.Paths[strconv.Itoa(id)]; ok && len(summary.Path) > 0 {
		return summary.Path
	}
	if path != "" {
		return strings.Split(path, "::")
	}
	if nm != "" {
		return strings.Split(nm, "::")
	}
	return nil
}

func pathFromSegments(segments []string) *syntax.Path {
	p := &syntax.Path{Name: segments[0]}
	for _, seg := range segments[1:] {
		p = &syntax.Path{Qualifier: p, Name: seg}
	}
	return p
}

func (idx *Index) buildGenericArgs(raw json.RawMessage) *syntax.GenericArgs {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil
	}
	ab, ok := outer["angle_bracketed"]
	if !ok {
		return nil
	}
	var a struct {
		Args        []json.RawMessage `json:"args"`
		Constraints []json.RawMessage `json:"constraints"`
	}
	if err := json.Unmarshal(ab, &a); err != nil {
		return nil
	}

	args := &syntax.GenericArgs{}
	for _, arg := range a.Args {
		var kind map[string]json.RawMessage
		if err := json.Unmarshal(arg, &kind); err != nil {
			continue
		}
		if lt, ok := kind["lifetime"]; ok {
			var s string
			json.Unmarshal(lt, &s)
			args.Lifetimes = append(args.Lifetimes, &syntax.Lifetime{Name: s})
			continue
		}
		if ty, ok := kind["type"]; ok {
			args.Types = append(args.Types, idx.buildType(ty))
		}
	}
	for _, c := range a.Constraints {
		var con struct {
			Name    string `json:"name"`
			Binding struct {
				Equality struct {
					Type json.RawMessage `json:"type"`
				} `json:"equality"`
			} `json:"binding"`
		}
		if err := json.Unmarshal(c, &con); err != nil || con.Name == "" {
			continue
		}
		if len(con.Binding.Equality.Type) == 0 {
			continue
		}
		args.Bindings = append(args.Bindings, &syntax.AssocBinding{
			Name: con.Name,
			Type: idx.buildType(con.Binding.Equality.Type),
		})
	}
	if args.Empty() {
		return nil
	}
	return args
}

func (idx *Index) dynTraitText(raw json.RawMessage) string {
	var d struct {
		Traits []struct {
			Trait json.RawMessage `json:"trait"`
		} `json:"traits"`
		Lifetime *string `json:"lifetime"`
	}
	json.Unmarshal(raw, &d)
	parts := make([]string, 0, len(d.Traits)+1)
	for _, t := range d.Traits {
		if p := idx.buildPathRef(t.Trait); p != nil {
			parts = append(parts, p.Name)
		}
	}
	if d.Lifetime != nil && *d.Lifetime != "" {
		parts = append(parts, *d.Lifetime)
	}
	if len(parts) == 0 {
		return "dyn _"
	}
	return "dyn " + strings.Join(parts, " + ")
}

func (idx *Index) boundsText(raw []json.RawMessage) string {
	var parts []string
	for _, b := range raw {
		var kind map[string]json.RawMessage
		if err := json.Unmarshal(b, &kind); err != nil {
			continue
		}
		if tb, ok := kind["trait_bound"]; ok {
			var t struct {
				Trait json.RawMessage `json:"trait"`
			}
			json.Unmarshal(tb, &t)
			if p := idx.buildPathRef(t.Trait); p != nil {
				parts = append(parts, p.Name)
			}
			continue
		}
		if out, ok := kind["outlives"]; ok {
			var lt string
			json.Unmarshal(out, &lt)
			parts = append(parts, lt)
		}
	}
	if len(parts) == 0 {
		return "_"
	}
	return strings.Join(parts, " + ")
}

// plainTypeText renders a type without markup for field summaries.
func plainTypeText(idx *Index, raw json.RawMessage) string {
	return typeText(idx.buildType(raw))
}

func typeText(t syntax.TypeElem) string {
	switch x := t.(type) {
	case nil:
		return ""
	case *syntax.Raw:
		return x.Src
	case *syntax.UnitType:
		return "()"
	case *syntax.SelfType:
		return "Self"
	case *syntax.BaseType:
		return pathText(x.Path)
	case *syntax.TupleType:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = typeText(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *syntax.ArrayType:
		if x.Slice {
			return "[" + typeText(x.Elem) + "]"
		}
		if x.Len != "" {
			return "[" + typeText(x.Elem) + "; " + x.Len + "]"
		}
		return "[" + typeText(x.Elem) + "]"
	case *syntax.RefType:
		var b strings.Builder
		b.WriteString("&")
		if x.Lifetime != nil {
			b.WriteString(x.Lifetime.Name)
			b.WriteString(" ")
		}
		if x.Mut {
			b.WriteString("mut ")
		}
		b.WriteString(typeText(x.Elem))
		return b.String()
	case *syntax.PtrType:
		if x.Mut {
			return "*mut " + typeText(x.Elem)
		}
		return "*const " + typeText(x.Elem)
	case *syntax.FnPtrType:
		var parts []string
		if x.Params != nil {
			for _, p := range x.Params.Params {
				if p.Name != "" {
					parts = append(parts, p.Name+": "+typeText(p.Type))
				} else {
					parts = append(parts, typeText(p.Type))
				}
			}
		}
		s := "fn(" + strings.Join(parts, ", ") + ")"
		if x.Ret != nil {
			s += " -> " + typeText(x.Ret)
		}
		return s
	case *syntax.QualifiedType:
		return "<" + typeText(x.Base) + " as " + pathText(x.Trait.Path) + ">"
	default:
		return ""
	}
}

func pathText(p *syntax.Path) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	if p.TypeQual != nil {
		b.WriteString(typeText(p.TypeQual))
		b.WriteString("::")
	}
	if p.Qualifier != nil {
		b.WriteString(pathText(p.Qualifier))
		b.WriteString("::")
	}
	b.WriteString(p.Name)
	if p.TypeArgs != nil && !p.TypeArgs.Empty() {
		var parts []string
		for _, lt := range p.TypeArgs.Lifetimes {
			parts = append(parts, lt.Name)
		}
		for _, t := range p.TypeArgs.Types {
			parts = append(parts, typeText(t))
		}
		for _, bd := range p.TypeArgs.Bindings {
			parts = append(parts, bd.Name+" = "+typeText(bd.Type))
		}
		b.WriteString("<")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(">")
	}
	return b.String()
}
