// Package storage archives raw uploaded paper files in an S3-compatible
// object store. Only the extracted text lives in the data stores; the
// original bytes are kept here for re-extraction and download.
package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions are optional upload parameters. Size should be the exact byte
// count when known, -1 otherwise.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes an archived object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Archive is the object-store client. Implementations stream; no local disk.
type Archive interface {
	// Put stores an object under key.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	// Get streams an object's content back.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
