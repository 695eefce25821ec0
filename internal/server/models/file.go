// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FileState is the server-side lifecycle of an uploaded file.
type FileState int

const (
	FileStateNew FileState = iota
	FileStateSyncInProgress
	FileStateSynced
)

func (s FileState) String() string {
	switch s {
	case FileStateNew:
		return "New"
	case FileStateSyncInProgress:
		return "SyncInProgress"
	case FileStateSynced:
		return "Synced"
	default:
		return fmt.Sprintf("FileState(%d)", int(s))
	}
}

// ParseFileState maps a persisted string back to a FileState.
func ParseFileState(s string) (FileState, error) {
	switch s {
	case "New":
		return FileStateNew, nil
	case "SyncInProgress":
		return FileStateSyncInProgress, nil
	case "Synced":
		return FileStateSynced, nil
	default:
		return 0, fmt.Errorf("unknown file state %q", s)
	}
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle
// monotonic. Staying in the same state is allowed.
func (s FileState) CanAdvanceTo(next FileState) bool {
	return next >= s && next <= FileStateSynced
}

// FileRecord is the server's view of a file. Contents and the per-file key
// stay opaque: KeyEnvelope can only be opened by the owner's private key.
type FileRecord struct {
	UUID        uuid.UUID
	Path        string
	Name        string
	State       FileState
	CreatedAt   time.Time
	AddedAt     time.Time
	SyncedAt    *time.Time
	ContentHash string
	OwnerID     uuid.UUID
	UploaderID  uuid.UUID
	KeyEnvelope string
}
