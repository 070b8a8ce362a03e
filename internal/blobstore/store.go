// Package blobstore keeps uploaded document files on the local filesystem or in S3.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("blob not found")

// Store is a file store addressed by key.
type Store interface {
	// Save stores the file and returns its key.
	Save(ctx context.Context, id, filename string, r io.Reader) (string, error)
	// Open returns the content for key. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// LocalPath returns a filesystem path holding the content of key. cleanup
	// removes any temporary copy and must always be called.
	LocalPath(ctx context.Context, key string) (path string, cleanup func(), err error)
}

// Type represents the storage backend type
type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

// Config holds configuration for storage
type Config struct {
	Type         Type
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a store for cfg.Type.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalStore(cfg.LocalPath)
	case TypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3 bucket is required for s3 storage")
		}
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// Key builds the storage key for a document file.
func Key(id, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filepath.ToSlash(filename)), ext)
	base = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_").Replace(base)
	if base == "" || base == "." {
		base = "document"
	}
	return fmt.Sprintf("%s/%s%s", sanitizeID(id), base, ext)
}

func sanitizeID(id string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
}
