// Package rustdoc ingests rustdoc JSON from docs.rs and bridges it into
// the syntax model the renderers consume.
package rustdoc

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Decode parses raw rustdoc JSON into a Crate.
func Decode(data []byte) (*Crate, error) {
	var c Crate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding rustdoc JSON: %w", err)
	}
	return &c, nil
}

// Crate is the top-level structure of rustdoc JSON output.
type Crate struct {
	Root           int                      `json:"root"`
	CrateVersion   *string                  `json:"crate_version"`
	Index          map[string]Item          `json:"index"`
	Paths          map[string]Summary       `json:"paths"`
	ExternalCrates map[string]ExternalCrate `json:"external_crates"`
	FormatVersion  int                      `json:"format_version"`
}

// ExternalCrate identifies a dependency crate by name.
type ExternalCrate struct {
	Name        string `json:"name"`
	HTMLRootURL string `json:"html_root_url"`
}

// Item is a single entry in the rustdoc index.
type Item struct {
	ID         int             `json:"id"`
	CrateID    int             `json:"crate_id"`
	Name       *string         `json:"name"`
	Docs       *string         `json:"docs"`
	Visibility json.RawMessage `json:"visibility"` // "public", "default", or {"restricted": …}
	Attrs      []string        `json:"attrs"`
	Links      map[string]int  `json:"links"` // markdown text → item ID
	Inner      json.RawMessage `json:"inner"`
}

// Summary provides the path and kind for an item.
type Summary struct {
	CrateID int      `json:"crate_id"`
	Path    []string `json:"path"`
	Kind    string   `json:"kind"`
}

// Public reports whether an item's visibility is "public".
func (it *Item) Public() bool {
	var s string
	if err := json.Unmarshal(it.Visibility, &s); err != nil {
		return false
	}
	return s == "public"
}

// HasAttr reports whether the item carries an attribute containing needle,
// e.g. "doc(hidden)" or "macro_export".
func (it *Item) HasAttr(needle string) bool {
	for _, a := range it.Attrs {
		if containsAttr(a, needle) {
			return true
		}
	}
	return false
}

var attrSpace = regexp.MustCompile(`\s+`)

func containsAttr(attr, needle string) bool {
	return strings.Contains(attrSpace.ReplaceAllString(attr, ""), needle)
}

// ExternalCrateName looks up the Cargo package name for a dependency by
// crate_id. Prefers the name extracted from html_root_url since the Name
// field uses the Rust lib name (underscores) which may differ from the
// Cargo name (hyphens).
func (c *Crate) ExternalCrateName(crateID int) string {
	ext, ok := c.ExternalCrates[strconv.Itoa(crateID)]
	if !ok {
		return ""
	}
	if name := extractDocsRsCrateName(ext.HTMLRootURL); name != "" {
		return name
	}
	return ext.Name
}

// docsRsCrateNameRe extracts the crate name from a docs.rs html_root_url,
// e.g. "https://docs.rs/tracing-core/0.1.36/…" → "tracing-core".
var docsRsCrateNameRe = regexp.MustCompile(`^https?://docs\.rs/([^/]+)/`)

func extractDocsRsCrateName(rootURL string) string {
	m := docsRsCrateNameRe.FindStringSubmatch(rootURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// innerKind extracts the kind from the inner JSON's single key.
func innerKind(inner json.RawMessage) string {
	if len(inner) == 0 {
		return "unknown"
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return "unknown"
	}
	for k := range outer {
		return k
	}
	return "unknown"
}

// unwrapInner extracts the inner data for a given kind from an item's Inner
// field, shaped like {"struct": {…}}.
func unwrapInner(inner json.RawMessage, kind string) json.RawMessage {
	if len(inner) == 0 {
		return nil
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return nil
	}
	data, ok := outer[kind]
	if !ok {
		return nil
	}
	return data
}
