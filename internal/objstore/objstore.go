// Package objstore abstracts where staging data is read from and where
// warehouse part files land. Locations are plain paths for the local
// filesystem or s3:// URIs for object storage; the router picks the backend
// per location so one run can mix the two (local samples in, bucket out).
//
// Credentials travel in an explicit struct passed to the S3 constructor; the
// package never mutates process environment.
package objstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Credentials configures object-storage access. Zero values fall back to the
// SDK's default credential chain.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// Store opens locations for reading and writes whole objects.
type Store interface {
	// Open returns a reader over the object at location.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	// Put writes body as the object at location, replacing any prior object.
	Put(ctx context.Context, location string, body []byte) error
}

// IsS3 reports whether location addresses object storage.
func IsS3(location string) bool {
	return strings.HasPrefix(location, "s3://") || strings.HasPrefix(location, "s3a://")
}

// splitS3 parses an s3:// or s3a:// URI into bucket and key.
func splitS3(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 url %q: %w", location, err)
	}
	if u.Host == "" || u.Path == "" {
		return "", "", fmt.Errorf("s3 url %q must have bucket and key", location)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// Local is the filesystem-backed store.
type Local struct{}

// Open opens the file at location for reading.
func (Local) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return f, nil
}

// Put writes body to location, creating parent directories as needed.
func (Local) Put(ctx context.Context, location string, body []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	path := strings.TrimPrefix(location, "file://")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Router dispatches per location: s3:// and s3a:// URIs go to the S3 store,
// everything else to the local filesystem.
type Router struct {
	local Store
	s3    Store
	creds Credentials
}

// NewRouter builds a Router. The S3 client is created lazily on first use so
// purely local runs need no AWS configuration at all.
func NewRouter(creds Credentials) *Router {
	return &Router{local: Local{}, creds: creds}
}

func (r *Router) pick(location string) (Store, error) {
	if !IsS3(location) {
		return r.local, nil
	}
	if r.s3 == nil {
		s3s, err := NewS3(r.creds)
		if err != nil {
			return nil, err
		}
		r.s3 = s3s
	}
	return r.s3, nil
}

// Open implements Store.
func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	s, err := r.pick(location)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, location)
}

// Put implements Store.
func (r *Router) Put(ctx context.Context, location string, body []byte) error {
	s, err := r.pick(location)
	if err != nil {
		return err
	}
	return s.Put(ctx, location, body)
}
