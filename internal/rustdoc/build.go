package rustdoc

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jcdickinson/ferrishover/internal/syntax"
)

// Index holds the syntax declarations built from one rustdoc crate, plus
// the lookup tables backing the resolution and metadata collaborators.
type Index struct {
	crate     *Crate
	crateName string
	version   string

	root   *syntax.Module
	decls  map[string]syntax.Decl // rustdoc id → declaration
	ids    map[syntax.Decl]string // declaration → rustdoc id
	byPath map[string]syntax.Decl // "crate::mod::Name" → declaration
	fields map[*syntax.Field]string
}

// Build converts a decoded rustdoc crate into syntax trees. crateName and
// version identify the fetched crate for origin metadata and doc links.
func Build(crate *Crate, crateName, version string) *Index {
	idx := &Index{
		crate:     crate,
		crateName: crateName,
		version:   version,
		decls:     make(map[string]syntax.Decl),
		ids:       make(map[syntax.Decl]string),
		byPath:    make(map[string]syntax.Decl),
		fields:    make(map[*syntax.Field]string),
	}
	idx.root = &syntax.Module{Name: crateName, Pub: true}
	idx.byPath[crateName] = idx.root
	idx.buildModule(strconv.Itoa(crate.Root), idx.root)
	return idx
}

// Root returns the crate-root module.
func (idx *Index) Root() *syntax.Module { return idx.root }

// Decls returns every built declaration keyed by canonical path.
func (idx *Index) Decls() map[string]syntax.Decl { return idx.byPath }

// Lookup finds a declaration by its canonical path, with or without the
// leading crate segment.
func (idx *Index) Lookup(path string) syntax.Decl {
	if d, ok := idx.byPath[path]; ok {
		return d
	}
	if d, ok := idx.byPath[idx.crateName+"::"+path]; ok {
		return d
	}
	return nil
}

func (idx *Index) buildModule(id string, mod *syntax.Module) {
	item, ok := idx.crate.Index[id]
	if !ok {
		return
	}
	modData := unwrapInner(item.Inner, "module")
	if modData == nil {
		return
	}
	var m struct {
		Items []int `json:"items"`
	}
	if err := json.Unmarshal(modData, &m); err != nil {
		return
	}
	for _, childID := range m.Items {
		idx.buildItem(strconv.Itoa(childID), mod)
	}
}

func (idx *Index) buildItem(id string, mod *syntax.Module) {
	item, ok := idx.crate.Index[id]
	if !ok || item.CrateID != 0 {
		return
	}

	switch innerKind(item.Inner) {
	case "module":
		sub := &syntax.Module{
			Name:      name(&item),
			Pub:       item.Public(),
			ParentMod: mod,
			Hidden:    item.HasAttr("doc(hidden)"),
			Docs:      docs(&item),
		}
		idx.register(id, sub)
		idx.buildModule(id, sub)
	case "function":
		idx.register(id, idx.buildFunction(&item, mod, nil))
	case "struct":
		s := &syntax.Struct{
			Name:     name(&item),
			Module:   mod,
			Pub:      item.Public(),
			Hidden:   item.HasAttr("doc(hidden)"),
			Docs:     docs(&item),
			Generics: idx.buildGenerics(item.Inner, "struct"),
			Where:    idx.buildWhere(item.Inner, "struct"),
		}
		idx.register(id, s)
		idx.buildStructFields(&item, s)
		idx.buildImpls(item.Inner, "struct", mod)
	case "enum":
		e := &syntax.Enum{
			Name:     name(&item),
			Module:   mod,
			Pub:      item.Public(),
			Hidden:   item.HasAttr("doc(hidden)"),
			Docs:     docs(&item),
			Generics: idx.buildGenerics(item.Inner, "enum"),
			Where:    idx.buildWhere(item.Inner, "enum"),
		}
		idx.register(id, e)
		idx.buildImpls(item.Inner, "enum", mod)
	case "trait":
		idx.buildTrait(id, &item, mod)
	case "type_alias":
		data := unwrapInner(item.Inner, "type_alias")
		var alias struct {
			Type json.RawMessage `json:"type"`
		}
		json.Unmarshal(data, &alias)
		idx.register(id, &syntax.TypeAlias{
			Name:     name(&item),
			Module:   mod,
			Pub:      item.Public(),
			Hidden:   item.HasAttr("doc(hidden)"),
			Docs:     docs(&item),
			Generics: idx.buildGenerics(item.Inner, "type_alias"),
			Where:    idx.buildWhere(item.Inner, "type_alias"),
			Type:     idx.buildType(alias.Type),
		})
	case "constant":
		data := unwrapInner(item.Inner, "constant")
		var c struct {
			Type  json.RawMessage `json:"type"`
			Const struct {
				Expr string `json:"expr"`
			} `json:"const"`
		}
		json.Unmarshal(data, &c)
		idx.register(id, &syntax.Constant{
			Name:   name(&item),
			Module: mod,
			Pub:    item.Public(),
			Hidden: item.HasAttr("doc(hidden)"),
			Docs:   docs(&item),
			Type:   idx.buildType(c.Type),
			Value:  c.Const.Expr,
		})
	case "static":
		data := unwrapInner(item.Inner, "static")
		var s struct {
			Type      json.RawMessage `json:"type"`
			IsMutable bool            `json:"is_mutable"`
			Expr      string          `json:"expr"`
		}
		json.Unmarshal(data, &s)
		idx.register(id, &syntax.Constant{
			Name:   name(&item),
			Module: mod,
			Pub:    item.Public(),
			Hidden: item.HasAttr("doc(hidden)"),
			Docs:   docs(&item),
			Static: true,
			Mut:    s.IsMutable,
			Type:   idx.buildType(s.Type),
			Value:  s.Expr,
		})
	case "macro":
		idx.register(id, &syntax.Macro{
			Name:     name(&item),
			Module:   mod,
			Hidden:   item.HasAttr("doc(hidden)"),
			Exported: item.HasAttr("macro_export"),
			Docs:     docs(&item),
		})
	}
}

func (idx *Index) buildFunction(item *Item, mod *syntax.Module, owner syntax.Owner) *syntax.Function {
	fnData := unwrapInner(item.Inner, "function")
	var fn struct {
		Sig struct {
			Inputs      []json.RawMessage `json:"inputs"`
			Output      json.RawMessage   `json:"output"`
			IsCVariadic bool              `json:"is_c_variadic"`
		} `json:"sig"`
		Generics rawGenerics `json:"generics"`
		Header   struct {
			IsConst  bool            `json:"is_const"`
			IsUnsafe bool            `json:"is_unsafe"`
			IsAsync  bool            `json:"is_async"`
			ABI      json.RawMessage `json:"abi"`
		} `json:"header"`
	}
	json.Unmarshal(fnData, &fn)

	f := &syntax.Function{
		Name:     name(item),
		Module:   mod,
		Pub:      item.Public(),
		Hidden:   item.HasAttr("doc(hidden)"),
		Docs:     docs(item),
		Const:    fn.Header.IsConst,
		Unsafe:   fn.Header.IsUnsafe,
		Async:    fn.Header.IsAsync,
		Generics: buildGenericsRaw(idx, fn.Generics),
		Where:    buildWhereRaw(idx, fn.Generics),
		Owner:    owner,
	}
	// The default ABI is "Rust"; anything else marks an extern function.
	if abi := abiName(fn.Header.ABI); abi != "" && abi != "Rust" {
		f.Extern = true
		f.ABI = abi
	}

	params := &syntax.ParamList{Variadic: fn.Sig.IsCVariadic}
	for _, input := range fn.Sig.Inputs {
		var pair []json.RawMessage
		if err := json.Unmarshal(input, &pair); err != nil || len(pair) < 2 {
			continue
		}
		var paramName string
		json.Unmarshal(pair[0], &paramName)
		if paramName == "self" {
			params.SelfParam = selfParam(pair[1])
			continue
		}
		params.Params = append(params.Params, &syntax.ValueParam{
			Name: paramName,
			Type: idx.buildType(pair[1]),
		})
	}
	f.Params = params

	if len(fn.Sig.Output) > 0 && string(fn.Sig.Output) != "null" {
		f.Ret = idx.buildType(fn.Sig.Output)
	}
	return f
}

// selfParam converts a rustdoc self-parameter type to the receiver shape:
// {"generic": "Self"} → self, {"borrowed_ref": …} → &'a mut self.
func selfParam(typeJSON json.RawMessage) *syntax.SelfParam {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(typeJSON, &outer); err != nil {
		return &syntax.SelfParam{}
	}
	br, ok := outer["borrowed_ref"]
	if !ok {
		return &syntax.SelfParam{}
	}
	var r struct {
		Lifetime  *string `json:"lifetime"`
		IsMutable bool    `json:"is_mutable"`
	}
	json.Unmarshal(br, &r)
	sp := &syntax.SelfParam{Ref: true, Mut: r.IsMutable}
	if r.Lifetime != nil && *r.Lifetime != "" {
		sp.Lifetime = &syntax.Lifetime{Name: *r.Lifetime}
	}
	return sp
}

func (idx *Index) buildTrait(id string, item *Item, mod *syntax.Module) {
	traitData := unwrapInner(item.Inner, "trait")
	var tr struct {
		IsUnsafe bool  `json:"is_unsafe"`
		Items    []int `json:"items"`
	}
	json.Unmarshal(traitData, &tr)

	t := &syntax.Trait{
		Name:     name(item),
		Module:   mod,
		Pub:      item.Public(),
		Hidden:   item.HasAttr("doc(hidden)"),
		Unsafe:   tr.IsUnsafe,
		Docs:     docs(item),
		Generics: idx.buildGenerics(item.Inner, "trait"),
		Where:    idx.buildWhere(item.Inner, "trait"),
	}
	idx.register(id, t)

	owner := syntax.TraitOwner{Trait: t}
	for _, memberID := range tr.Items {
		idx.buildMember(strconv.Itoa(memberID), mod, owner)
	}
}

func (idx *Index) buildStructFields(item *Item, s *syntax.Struct) {
	structData := unwrapInner(item.Inner, "struct")
	var sd struct {
		Kind json.RawMessage `json:"kind"`
	}
	if err := json.Unmarshal(structData, &sd); err != nil {
		return
	}
	plain := unwrapInner(sd.Kind, "plain")
	if plain == nil {
		return
	}
	var p struct {
		Fields []int `json:"fields"`
	}
	if err := json.Unmarshal(plain, &p); err != nil {
		return
	}
	for _, fieldID := range p.Fields {
		fid := strconv.Itoa(fieldID)
		fieldItem, ok := idx.crate.Index[fid]
		if !ok {
			continue
		}
		f := &syntax.Field{
			Name:   name(&fieldItem),
			OwnerD: s,
			Pub:    fieldItem.Public(),
			Hidden: fieldItem.HasAttr("doc(hidden)"),
			Docs:   docs(&fieldItem),
		}
		idx.fields[f] = plainTypeText(idx, unwrapInner(fieldItem.Inner, "struct_field"))
		idx.register(fid, f)
	}
}

// buildImpls walks a type's impl blocks and builds their members under an
// ImplOwner context.
func (idx *Index) buildImpls(inner json.RawMessage, kind string, mod *syntax.Module) {
	data := unwrapInner(inner, kind)
	var t struct {
		Impls []int `json:"impls"`
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return
	}
	for _, implID := range t.Impls {
		implItem, ok := idx.crate.Index[strconv.Itoa(implID)]
		if !ok {
			continue
		}
		implData := unwrapInner(implItem.Inner, "impl")
		if implData == nil {
			continue
		}
		var im struct {
			IsUnsafe bool             `json:"is_unsafe"`
			Trait    *json.RawMessage `json:"trait"`
			For      json.RawMessage  `json:"for"`
			Items    []int            `json:"items"`
			// Skip blanket and synthetic impls; their members belong to the
			// blanket trait's own documentation.
			BlanketImpl json.RawMessage `json:"blanket_impl"`
			IsSynthetic bool            `json:"is_synthetic"`
		}
		if err := json.Unmarshal(implData, &im); err != nil {
			continue
		}
		if im.IsSynthetic || len(im.BlanketImpl) > 0 && string(im.BlanketImpl) != "null" {
			continue
		}

		impl := &syntax.Impl{
			Module:   mod,
			Unsafe:   im.IsUnsafe,
			Generics: idx.buildGenerics(implItem.Inner, "impl"),
			Where:    idx.buildWhere(implItem.Inner, "impl"),
			For:      idx.buildType(im.For),
		}
		if im.Trait != nil {
			if p := idx.buildPathRef(*im.Trait); p != nil {
				impl.Trait = &syntax.TraitRef{Path: p}
			}
		}

		owner := syntax.ImplOwner{Impl: impl}
		for _, memberID := range im.Items {
			idx.buildMember(strconv.Itoa(memberID), mod, owner)
		}
	}
}

// buildMember builds a trait or impl member: function, associated constant,
// or associated type.
func (idx *Index) buildMember(id string, mod *syntax.Module, owner syntax.Owner) {
	item, ok := idx.crate.Index[id]
	if !ok {
		return
	}
	switch innerKind(item.Inner) {
	case "function":
		idx.register(id, idx.buildFunction(&item, mod, owner))
	case "assoc_const":
		data := unwrapInner(item.Inner, "assoc_const")
		var c struct {
			Type  json.RawMessage `json:"type"`
			Value *string         `json:"value"`
		}
		json.Unmarshal(data, &c)
		con := &syntax.Constant{
			Name:   name(&item),
			Module: mod,
			Pub:    item.Public(),
			Hidden: item.HasAttr("doc(hidden)"),
			Docs:   docs(&item),
			Type:   idx.buildType(c.Type),
			Owner:  owner,
		}
		if c.Value != nil {
			con.Value = *c.Value
		}
		idx.register(id, con)
	case "assoc_type":
		data := unwrapInner(item.Inner, "assoc_type")
		var a struct {
			Type json.RawMessage `json:"type"`
		}
		json.Unmarshal(data, &a)
		alias := &syntax.TypeAlias{
			Name:   name(&item),
			Module: mod,
			Pub:    item.Public(),
			Hidden: item.HasAttr("doc(hidden)"),
			Docs:   docs(&item),
			Owner:  owner,
		}
		if len(a.Type) > 0 && string(a.Type) != "null" {
			alias.Type = idx.buildType(a.Type)
		}
		idx.register(id, alias)
	}
}

func (idx *Index) register(id string, d syntax.Decl) {
	if d == nil || d.DeclName() == "" {
		return
	}
	idx.decls[id] = d
	idx.ids[d] = id
	if summary, ok := idx.crate.Paths[id]; ok && len(summary.Path) > 0 {
		idx.byPath[strings.Join(summary.Path, "::")] = d
		return
	}
	// Members carry no path summary; never let their fallback name clobber
	// a top-level item that does.
	if key := syntax.QualifiedName(d); key != "" {
		if _, taken := idx.byPath[key]; !taken {
			idx.byPath[key] = d
		}
	}
}

func name(item *Item) string {
	if item.Name == nil {
		return ""
	}
	return *item.Name
}

func docs(item *Item) string {
	if item.Docs == nil {
		return ""
	}
	return *item.Docs
}

func abiName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err == nil {
		for k := range m {
			return k
		}
	}
	return ""
}
