// Package blobstore keeps encrypted file parts addressed by a deterministic
// key. Writes overwrite, so uploading the same part twice is harmless.
package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DefaultContentType is reported for blobs stored without a content type.
const DefaultContentType = "application/octet-stream"

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid blob key")

// Blob is a stored object.
type Blob struct {
	Data        []byte
	ContentType string
}

// Store reads and writes blobs. Get returns common.ErrNotFound for unknown keys.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*Blob, error)
}

// StorageKey builds the blob key of one part of a file.
func StorageKey(ownerID, fileID uuid.UUID, part string) string {
	return fmt.Sprintf("files/%s/%s/%s", ownerID, fileID, part)
}
