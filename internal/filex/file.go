// Package filex has small filesystem helpers for the CLI.
package filex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxDocumentSize matches the server's request body limit.
const MaxDocumentSize = 1 << 20

var (
	ErrTooLarge   = errors.New("file too large")
	ErrInvalidDoc = errors.New("file is not a JSON object or array")
)

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ReadJSONDocument reads a JSON object or array from path ("-" reads r) and
// returns it compacted.
func ReadJSONDocument(path string, stdin io.Reader) (json.RawMessage, error) {
	var src io.Reader
	if path == "-" {
		src = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		src = f
	}

	data, err := io.ReadAll(io.LimitReader(src, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidDoc)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrInvalidDoc, err)
	}
	return buf.Bytes(), nil
}
