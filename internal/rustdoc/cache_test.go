package rustdoc

import "testing"

func TestCacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	data := []byte(`{"root": 0, "crate_version": "1.0.0", "format_version": 37, "index": {}, "paths": {}}`)
	if err := SaveCache(data, "serde", "1.0.0"); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}
	if !HasCache("serde", "1.0.0") {
		t.Error("cache entry not found after save")
	}

	crate, err := LoadCache("serde", "1.0.0")
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if crate.CrateVersion == nil || *crate.CrateVersion != "1.0.0" {
		t.Errorf("crate version = %v", crate.CrateVersion)
	}
}

func TestCacheMiss(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if HasCache("nope", "0.0.0") {
		t.Error("unexpected cache hit")
	}
	if _, err := LoadCache("nope", "0.0.0"); err == nil {
		t.Error("expected error for missing cache entry")
	}
}
