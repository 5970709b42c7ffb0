// Package cas is a content-addressed store for rendered hover HTML. Payloads
// are keyed by the SHA-256 of their content, so identical documentation
// rendered from different crate versions is stored once.
package cas

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jcdickinson/ferrishover/internal/config"
	"github.com/klauspost/compress/zstd"
)

// Dir returns the store's directory path.
func Dir() string {
	return config.CASDir()
}

// path returns the sharded file path for a hash: cas/<first2>/<rest>.html.zst
func path(hash string) string {
	return filepath.Join(Dir(), hash[:2], hash[2:]+".html.zst")
}

// Write stores rendered HTML, returning its SHA-256 hash. Existing content
// is left untouched.
func Write(html string) (string, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(html)))

	p := path(hash)
	if _, err := os.Stat(p); err == nil {
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("creating store directory: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write([]byte(html)); err != nil {
		w.Close()
		return "", fmt.Errorf("compressing content: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing zstd writer: %w", err)
	}

	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing store file: %w", err)
	}

	return hash, nil
}

// Read retrieves stored HTML by hash.
func Read(hash string) (string, error) {
	if len(hash) < 3 {
		return "", fmt.Errorf("malformed content hash %q", hash)
	}
	f, err := os.Open(path(hash))
	if err != nil {
		return "", fmt.Errorf("reading store file %s: %w", hash, err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompressing store file %s: %w", hash, err)
	}
	return string(data), nil
}

// Exists reports whether a hash is present without reading it.
func Exists(hash string) bool {
	if len(hash) < 3 {
		return false
	}
	_, err := os.Stat(path(hash))
	return err == nil
}

// Clear removes the entire store.
func Clear() error {
	return os.RemoveAll(Dir())
}
