// Package dto holds the JSON bodies exchanged between client and server.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// FileMetadata describes one file on the wire. State, AddedAt and SyncedAt
// are filled by the server in listings and ignored on push.
type FileMetadata struct {
	Path       string     `json:"path"`
	UUID       uuid.UUID  `json:"uuid"`
	Date       time.Time  `json:"date"`
	SHA256     string     `json:"sha256"`
	Key        string     `json:"key"`
	State      string     `json:"state,omitempty"`
	AddedAt    *time.Time `json:"addedAt,omitempty"`
	SyncedAt   *time.Time `json:"syncedAt,omitempty"`
	OwnerID    *uuid.UUID `json:"ownerId,omitempty"`
	UploaderID *uuid.UUID `json:"uploaderId,omitempty"`
}

// FilesUploadRequest is the body of a metadata push.
type FilesUploadRequest struct {
	OwnerID uuid.UUID      `json:"ownerId"`
	Files   []FileMetadata `json:"files"`
}

// KeysResponse carries the escrowed private key blob, nil when none is stored.
type KeysResponse struct {
	Value *string `json:"value"`
}

// SaveKeysRequest stores a user's escrowed private key and PEM public key.
type SaveKeysRequest struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PushMetadataResponse reports how many records a metadata push created.
type PushMetadataResponse struct {
	Created int `json:"created"`
}

// UploadResponse lists the stored parts of an upload.
type UploadResponse struct {
	Parts   []string `json:"parts"`
	Resumed bool     `json:"resumed"`
}
