// Package storage persists translated PDF binaries so downloads and
// regeneration calls do not depend on the translation webhook staying
// available.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jordaandigi/pdflingo/pkg/logger"
	"github.com/jordaandigi/pdflingo/pkg/storage/minio"
	"github.com/jordaandigi/pdflingo/pkg/storage/s3"
)

// Type selects the storage backend.
type Type string

const (
	TypeS3    Type = "s3"
	TypeMinio Type = "minio"
)

// Storage stores and retrieves translated documents by object key.
type Storage interface {
	// Store writes a translated PDF under key and returns the key.
	Store(ctx context.Context, key string, content []byte) (string, error)
	// Get opens the stored document for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the stored document.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes documents last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// ObjectKey scopes a document to its owner. Filenames are only unique
// per user.
func ObjectKey(userID, filename string) string {
	return userID + "/" + filename
}

// NewStorage creates the configured backend.
func NewStorage(storageType Type, log logger.Logger) (Storage, error) {
	switch storageType {
	case TypeS3:
		return s3.GetClient(log)
	case TypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
