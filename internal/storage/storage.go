package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Package storage holds the object store abstraction for uploaded documents.
// Implementations stream, never touching local disk.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact byte count when known; -1 lets the backend
// buffer/chunk as it supports.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object storage client interface.
type Storage interface {
	// Put uploads an object under the given key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL for downloading without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ObjectKey derives the storage key for an uploaded document from its
// content hash, so identical uploads land on the same object.
func ObjectKey(content []byte, filename string) string {
	sum := sha256.Sum256(content)
	ext := strings.ToLower(filepath.Ext(filename))
	return "uploads/" + hex.EncodeToString(sum[:]) + ext
}

// HashOf returns the hex content hash used for deduplication lookups.
func HashOf(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
