// Package storage provides blob-store access for attachment URIs. A
// BlobStore dereferences an opaque URI into a byte stream; the Router
// dispatches between backends based on the URI scheme.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// BlobStore opens a byte stream for an attachment URI. The caller is
// responsible for closing the returned reader.
type BlobStore interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// UnsupportedSchemeError is returned by the Router when no store is
// registered for a URI's scheme.
type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("no storage backend registered for scheme %q", e.Scheme)
}

// Router dispatches Open calls to scheme-specific stores. URIs without a
// scheme fall back to the default store.
type Router struct {
	stores   map[string]BlobStore
	fallback BlobStore
}

// NewRouter creates a Router with the given fallback store for
// scheme-less URIs.
func NewRouter(fallback BlobStore) *Router {
	return &Router{stores: make(map[string]BlobStore), fallback: fallback}
}

// Register routes URIs with the given scheme to store.
func (r *Router) Register(scheme string, store BlobStore) {
	r.stores[scheme] = store
}

// Open implements BlobStore.
func (r *Router) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing uri %q: %w", uri, err)
	}
	if u.Scheme == "" {
		if r.fallback == nil {
			return nil, &UnsupportedSchemeError{Scheme: ""}
		}
		return r.fallback.Open(ctx, uri)
	}
	store, ok := r.stores[u.Scheme]
	if !ok {
		return nil, &UnsupportedSchemeError{Scheme: u.Scheme}
	}
	return store.Open(ctx, uri)
}
