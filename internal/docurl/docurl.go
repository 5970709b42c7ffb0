// Package docurl maps documentable declarations to their external
// documentation pages and validates the pages exist.
package docurl

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jcdickinson/ferrishover/internal/syntax"
	"golang.org/x/sync/singleflight"
)

const (
	// StdDocHost serves standard-distribution documentation.
	StdDocHost = "https://doc.rust-lang.org/"
	// RegistryDocHost serves documentation for registry packages.
	RegistryDocHost = "https://docs.rs/"
)

// Page is a candidate documentation page: fixed host prefix plus the
// item-specific path. Computed per query, never cached here.
type Page struct {
	Host string
	Path string
}

func (p Page) URL() string { return p.Host + p.Path }

// PathTranslator converts a declaration's qualified name into the target
// host's URL-path convention.
type PathTranslator interface {
	PagePath(d syntax.Decl) string
}

// Options configures a Resolver. SkipProbe makes the existence probe report
// "exists" unconditionally, for deterministic automated testing.
type Options struct {
	SkipProbe bool
	Client    *http.Client
	UserAgent string
	Translate PathTranslator

	// Host overrides; defaults are StdDocHost and RegistryDocHost.
	StdHost      string
	RegistryHost string
}

// Resolver computes and probes external documentation URLs.
type Resolver struct {
	meta      syntax.PackageMeta
	opts      Options
	translate PathTranslator
	group     singleflight.Group
}

// New builds a Resolver. A nil client gets a 10s-timeout default; a nil
// translator gets the rustdoc URL convention.
func New(meta syntax.PackageMeta, opts Options) *Resolver {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ferrishover/0.1.0"
	}
	if opts.StdHost == "" {
		opts.StdHost = StdDocHost
	}
	if opts.RegistryHost == "" {
		opts.RegistryHost = RegistryDocHost
	}
	translate := opts.Translate
	if translate == nil {
		translate = RustdocPaths{}
	}
	return &Resolver{meta: meta, opts: opts, translate: translate}
}

// PageFor computes the candidate documentation page for d, without probing.
// Declarations from the local workspace, or of unknown origin, have none.
func (r *Resolver) PageFor(d syntax.Decl) (Page, bool) {
	suffix := r.translate.PagePath(d)
	if suffix == "" {
		return Page{}, false
	}
	switch r.meta.OriginOf(d) {
	case syntax.OriginStdlib:
		return Page{Host: r.opts.StdHost, Path: suffix}, true
	case syntax.OriginDependency, syntax.OriginTransitive:
		name := r.meta.PackageName(d)
		if name == "" {
			return Page{}, false
		}
		version := r.meta.PackageVersion(d)
		if version == "" {
			version = "latest"
		}
		return Page{Host: r.opts.RegistryHost, Path: name + "/" + version + "/" + suffix}, true
	}
	return Page{}, false
}

// Check probes a single URL with the resolver's existence policy. Used for
// re-validating stored candidate URLs at query time.
func (r *Resolver) Check(ctx context.Context, rawURL string) bool {
	return r.exists(ctx, rawURL)
}

// URLs returns the declaration's reachable documentation URLs: at most one,
// and only when the candidate page passes the existence probe.
func (r *Resolver) URLs(ctx context.Context, d syntax.Decl) []string {
	page, ok := r.PageFor(d)
	if !ok {
		return nil
	}
	if !r.exists(ctx, page.URL()) {
		return nil
	}
	return []string{page.URL()}
}

// exists probes a candidate URL with a HEAD request. The policy fails open:
// transient network or protocol trouble must not hide documentation, so
// only an explicit not-found status or a malformed URL reports false.
// Concurrent probes for the same URL are collapsed.
func (r *Resolver) exists(ctx context.Context, rawURL string) bool {
	if r.opts.SkipProbe {
		return true
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return false
	}

	v, _, _ := r.group.Do(rawURL, func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
		if err != nil {
			return false, nil
		}
		req.Header.Set("User-Agent", r.opts.UserAgent)

		resp, err := r.opts.Client.Do(req)
		if err != nil {
			return true, nil
		}
		resp.Body.Close()
		return resp.StatusCode != http.StatusNotFound, nil
	})
	return v.(bool)
}

// RustdocPaths is the default PathTranslator: module segments become path
// segments and the final item becomes a kind-prefixed page, e.g.
// std::vec::Vec -> std/vec/struct.Vec.html.
type RustdocPaths struct{}

func (RustdocPaths) PagePath(d syntax.Decl) string {
	name := d.DeclName()
	if name == "" {
		return ""
	}

	var segs []string
	for m := d.Parent(); m != nil; m = m.ParentMod {
		if m.Name != "" {
			segs = append(segs, m.Name)
		}
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}

	if _, ok := d.(*syntax.Module); ok {
		return strings.Join(append(segs, name, "index.html"), "/")
	}

	file := pageKind(d) + "." + name + ".html"
	return strings.Join(append(segs, file), "/")
}

func pageKind(d syntax.Decl) string {
	switch x := d.(type) {
	case *syntax.Function:
		return "fn"
	case *syntax.Constant:
		if x.Static {
			return "static"
		}
		return "constant"
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
	}
	return "item"
}
