package cas

import (
	"strings"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	content := "<pre>pub fn <b>len</b>(&self) -> usize</pre>"
	hash, err := Write(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}

	got, err := Read(hash)
	if err != nil {
		t.Fatal(err)
	}
	if got != content {
		t.Errorf("round-trip failed: got %q, want %q", got, content)
	}
}

func TestWrite_Dedup(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	content := "<pre>duplicate</pre>"
	hash1, err := Write(content)
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := Write(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash1 != hash2 {
		t.Errorf("same content produced different hashes: %s vs %s", hash1, hash2)
	}
}

func TestWrite_DifferentContent(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	hash1, err := Write("content A")
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := Write("content B")
	if err != nil {
		t.Fatal(err)
	}
	if hash1 == hash2 {
		t.Error("different content should produce different hashes")
	}
}

func TestRead_MissingHash(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	_, err := Read(strings.Repeat("0", 64))
	if err == nil {
		t.Fatal("expected error for missing hash")
	}
}

func TestRead_MalformedHash(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if _, err := Read("ab"); err == nil {
		t.Fatal("expected error for short hash")
	}
	if Exists("ab") {
		t.Error("short hash should not exist")
	}
}

func TestExistsAndClear(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	hash, err := Write("<pre>ephemeral</pre>")
	if err != nil {
		t.Fatal(err)
	}
	if !Exists(hash) {
		t.Fatal("written hash should exist")
	}
	if err := Clear(); err != nil {
		t.Fatal(err)
	}
	if Exists(hash) {
		t.Error("hash should be gone after Clear")
	}
}
