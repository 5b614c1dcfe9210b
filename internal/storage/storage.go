// Package storage holds the blob store: the raw bytes of uploaded documents,
// addressed by server-generated names. Metadata lives elsewhere.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"docvault/internal/config"
)

// ErrObjectNotFound is returned when a key has no blob behind it.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
// Key is the backend-specific storage path that Get and Delete accept.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob store interface shared by the local disk and S3-compatible backends.
type Storage interface {
	// Put stores the reader's content under a new object named name and returns its info.
	Put(ctx context.Context, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key. A missing object yields ErrObjectNotFound
	// where the backend can tell.
	Delete(ctx context.Context, key string) error
	// List returns every stored object.
	List(ctx context.Context) ([]ObjectInfo, error)
}

// New builds the blob store selected by cfg.Driver.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.StorageLocal, "":
		return NewLocal(cfg.UploadDir)
	case config.StorageMinIO:
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
