package rustdoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jcdickinson/ferrishover/internal/syntax"
)

var stdlibCrates = map[string]bool{
	"std":        true,
	"core":       true,
	"alloc":      true,
	"proc_macro": true,
	"test":       true,
}

// Resolve looks a path reference up against the built declarations.
// Unresolved paths return nil so callers render plain text.
func (idx *Index) Resolve(p *syntax.Path) syntax.Node {
	if p == nil {
		return nil
	}
	key := plainPath(p)
	if d := idx.Lookup(key); d != nil {
		return d
	}
	return nil
}

func plainPath(p *syntax.Path) string {
	var segs []string
	for s := p; s != nil; s = s.Qualifier {
		segs = append(segs, s.Name)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "::")
}

// TypeText returns the inferred type of a field or binding, empty when no
// inference result is recorded.
func (idx *Index) TypeText(n syntax.Node) string {
	if f, ok := n.(*syntax.Field); ok {
		return idx.fields[f]
	}
	return ""
}

// QuickText is the fallback one-line summary: item keyword plus canonical
// path.
func (idx *Index) QuickText(n syntax.Node) string {
	d, ok := n.(syntax.Decl)
	if !ok {
		return ""
	}
	kw := declWord(d)
	qn := syntax.QualifiedName(d)
	if kw == "" {
		return qn
	}
	return kw + " " + qn
}

// KindWord returns the item keyword for a declaration, e.g. "fn" or
// "struct". Empty for fields and impl blocks.
func KindWord(d syntax.Decl) string { return declWord(d) }

func declWord(d syntax.Decl) string {
	switch x := d.(type) {
	case *syntax.Module:
		return "mod"
	case *syntax.Function:
		return "fn"
	case *syntax.Constant:
		if x.Static {
			return "static"
		}
		return "const"
	case *syntax.Struct:
		return "struct"
	case *syntax.Enum:
		return "enum"
	case *syntax.Trait:
		return "trait"
	case *syntax.TypeAlias:
		return "type"
	case *syntax.Macro:
		return "macro"
	default:
		return ""
	}
}

// ResolveReference resolves an intra-doc link target like
// "crate::module::Item" or "Vec". Backticked forms are unwrapped first.
func (idx *Index) ResolveReference(ref string, ctx syntax.Node) syntax.Node {
	ref = strings.Trim(ref, "`")
	ref = strings.TrimSuffix(ref, "!")
	ref = strings.TrimSuffix(ref, "()")
	if ref == "" {
		return nil
	}
	if after, ok := strings.CutPrefix(ref, "crate::"); ok {
		ref = idx.crateName + "::" + after
	}
	if d := idx.Lookup(ref); d != nil {
		return d
	}
	// Single-segment references resolve relative to the context's module.
	if !strings.Contains(ref, "::") && ctx != nil {
		if d, ok := ctx.(syntax.Decl); ok {
			if m := d.Parent(); m != nil {
				if target := idx.Lookup(m.Path() + "::" + ref); target != nil {
					return target
				}
			}
		}
	}
	return nil
}

// OriginOf classifies a declaration's crate of origin.
func (idx *Index) OriginOf(d syntax.Decl) syntax.Origin {
	root := rootModule(d)
	if root == nil {
		return syntax.OriginUnknown
	}
	if stdlibCrates[root.Name] {
		return syntax.OriginStdlib
	}
	if root.Name == idx.crateName || root.Name == strings.ReplaceAll(idx.crateName, "-", "_") {
		return syntax.OriginDependency
	}
	return syntax.OriginUnknown
}

// PackageName returns the Cargo package name of the indexed crate.
func (idx *Index) PackageName(d syntax.Decl) string { return idx.crateName }

// PackageVersion returns the fetched version of the indexed crate.
func (idx *Index) PackageVersion(d syntax.Decl) string { return idx.version }

func rootModule(d syntax.Decl) *syntax.Module {
	m, ok := d.(*syntax.Module)
	if !ok {
		m = d.Parent()
	}
	if m == nil {
		return nil
	}
	for m.ParentMod != nil {
		m = m.ParentMod
	}
	return m
}

// IDOf returns the rustdoc id a declaration was built from, empty for the
// synthetic crate root.
func (idx *Index) IDOf(d syntax.Decl) string { return idx.ids[d] }

// DocLinksFor returns the link map for a built declaration, keyed by the
// markdown link text as it appears in its doc comment.
func (idx *Index) DocLinksFor(d syntax.Decl) map[string]string {
	id, ok := idx.ids[d]
	if !ok {
		return nil
	}
	item, ok := idx.crate.Index[id]
	if !ok {
		return nil
	}
	return idx.DocLinks(&item)
}

// DocLinks maps an item's intra-doc link texts to browsable doc.rust-lang.org
// and docs.rs URLs, for rewriting markdown before rendering.
func (idx *Index) DocLinks(item *Item) map[string]string {
	if len(item.Links) == 0 {
		return nil
	}
	links := make(map[string]string, len(item.Links))
	for text, targetID := range item.Links {
		if u := idx.itemURL(targetID); u != "" {
			links[text] = u
		}
	}
	return links
}

// itemURL builds the rustdoc HTML URL for an item by id, using the path
// summary table. Items without a summary get no URL.
func (idx *Index) itemURL(id int) string {
	summary, ok := idx.crate.Paths[strconv.Itoa(id)]
	if !ok || len(summary.Path) == 0 {
		return ""
	}

	var base string
	switch {
	case summary.CrateID == 0:
		base = fmt.Sprintf("https://docs.rs/%s/%s", idx.crateName, idx.version)
	case stdlibCrates[summary.Path[0]]:
		base = "https://doc.rust-lang.org/stable"
	default:
		extName := idx.crate.ExternalCrateName(summary.CrateID)
		if extName == "" {
			return ""
		}
		base = fmt.Sprintf("https://docs.rs/%s/latest", extName)
	}

	dirs := summary.Path[:len(summary.Path)-1]
	leaf := summary.Path[len(summary.Path)-1]
	if summary.Kind == "module" {
		return base + "/" + strings.Join(summary.Path, "/") + "/index.html"
	}
	page := pageWord(summary.Kind)
	parts := append([]string{base}, dirs...)
	return strings.Join(parts, "/") + "/" + page + "." + leaf + ".html"
}

func pageWord(kind string) string {
	switch kind {
	case "function":
		return "fn"
	case "struct":
		return "struct"
	case "enum":
		return "enum"
	case "trait":
		return "trait"
	case "type_alias":
		return "type"
	case "constant":
		return "constant"
	case "static":
		return "static"
	case "macro":
		return "macro"
	case "union":
		return "union"
	case "primitive":
		return "primitive"
	default:
		return "item"
	}
}
