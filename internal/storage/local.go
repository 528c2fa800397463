package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore serves attachment URIs from the local filesystem. It accepts
// bare paths and file:// URIs. When a base directory is configured,
// relative paths resolve under it and every path, absolute or relative,
// must stay inside the base.
type LocalStore struct {
	base string
}

// NewLocalStore creates a LocalStore rooted at base. An empty base allows
// absolute paths anywhere on the filesystem.
func NewLocalStore(base string) *LocalStore {
	return &LocalStore{base: base}
}

// Open implements BlobStore.
func (s *LocalStore) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	path := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		path = u.Path
	}

	if s.base != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.base, path)
		}
		rel, err := filepath.Rel(s.base, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("path %q escapes base directory", uri)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	return f, nil
}
