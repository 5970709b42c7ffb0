package markdown

import (
	"strings"
	"testing"
)

func TestRenderBasic(t *testing.T) {
	t.Parallel()

	got := Renderer{}.Render("Returns the *length* of the buffer.", nil)
	if !strings.Contains(got, "<em>length</em>") {
		t.Errorf("emphasis not rendered: %q", got)
	}
	if !strings.HasPrefix(got, "<p>") {
		t.Errorf("expected paragraph wrapping, got %q", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	t.Parallel()

	if got := (Renderer{}).Render("", nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := (Renderer{}).Render("   \n\t", nil); got != "" {
		t.Errorf("whitespace-only source must render empty, got %q", got)
	}
}

func TestRenderCodeBlock(t *testing.T) {
	t.Parallel()

	src := "Example:\n\n```rust\nlet x = 1;\n```\n"
	got := Renderer{}.Render(src, nil)
	if !strings.Contains(got, "<code") {
		t.Errorf("code block not rendered: %q", got)
	}
	if !strings.Contains(got, "let x = 1;") {
		t.Errorf("code content missing: %q", got)
	}
}

func TestRenderLinkRewriting(t *testing.T) {
	t.Parallel()

	linkMap := map[string]string{
		"Vec": "https://doc.rust-lang.org/std/vec/struct.Vec.html",
	}

	t.Run("inline", func(t *testing.T) {
		got := Renderer{}.Render("See [Vec](Vec) for details.", linkMap)
		if !strings.Contains(got, `href="https://doc.rust-lang.org/std/vec/struct.Vec.html"`) {
			t.Errorf("destination not rewritten: %q", got)
		}
		if !strings.Contains(got, ">Vec</a>") {
			t.Errorf("link text lost: %q", got)
		}
	})

	t.Run("reference_style", func(t *testing.T) {
		src := "See [Vec][v].\n\n[v]: Vec"
		got := Renderer{}.Render(src, linkMap)
		if !strings.Contains(got, `href="https://doc.rust-lang.org/std/vec/struct.Vec.html"`) {
			t.Errorf("reference destination not rewritten: %q", got)
		}
	})

	t.Run("shortcut_reference", func(t *testing.T) {
		got := Renderer{}.Render("Greets by [Vec].", linkMap)
		if !strings.Contains(got, `href="https://doc.rust-lang.org/std/vec/struct.Vec.html"`) {
			t.Errorf("shortcut reference not resolved: %q", got)
		}
		if !strings.Contains(got, ">Vec</a>") {
			t.Errorf("link text lost: %q", got)
		}
	})

	t.Run("shortcut_reference_code_text", func(t *testing.T) {
		codeMap := map[string]string{
			"`Config`": "https://docs.rs/mycrate/1.2.3/mycrate/struct.Config.html",
		}
		got := Renderer{}.Render("See [`Config`].", codeMap)
		if !strings.Contains(got, `href="https://docs.rs/mycrate/1.2.3/mycrate/struct.Config.html"`) {
			t.Errorf("backticked shortcut not resolved: %q", got)
		}
		if !strings.Contains(got, "<code>Config</code>") {
			t.Errorf("code span in link text lost: %q", got)
		}
	})

	t.Run("source_definition_superseded", func(t *testing.T) {
		src := "See [Vec].\n\n[Vec]: https://old.example/vec"
		got := Renderer{}.Render(src, linkMap)
		if !strings.Contains(got, `href="https://doc.rust-lang.org/std/vec/struct.Vec.html"`) {
			t.Errorf("resolved destination must win: %q", got)
		}
	})

	t.Run("unresolved_passes_through", func(t *testing.T) {
		got := Renderer{}.Render("See [Other](Other).", linkMap)
		if !strings.Contains(got, `href="Other"`) {
			t.Errorf("unresolved destination must pass through: %q", got)
		}
	})
}

func TestRewriteLinksPreservesFormatting(t *testing.T) {
	t.Parallel()

	src := "Header\n======\n\nSee [A](a) and [A again](a)."
	got := rewriteLinks(src, map[string]string{"a": "https://example.com/a"})
	if strings.Count(got, "https://example.com/a") != 2 {
		t.Errorf("all occurrences should be rewritten: %q", got)
	}
	if !strings.HasPrefix(got, "Header\n======") {
		t.Errorf("surrounding markdown altered: %q", got)
	}
}

func TestRewriteLinksNoMap(t *testing.T) {
	t.Parallel()

	src := "See [A](a)."
	if got := rewriteLinks(src, nil); got != src {
		t.Errorf("got %q, want unchanged", got)
	}
}
