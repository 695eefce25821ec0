// Package models defines the client-side records of the local index.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the client-side progress of a file towards the server.
type SyncStatus int

const (
	SyncStatusNew SyncStatus = iota
	SyncStatusInProgress
	SyncStatusSynced
)

func (s SyncStatus) String() string {
	switch s {
	case SyncStatusNew:
		return "New"
	case SyncStatusInProgress:
		return "InProgress"
	case SyncStatusSynced:
		return "Synced"
	default:
		return fmt.Sprintf("SyncStatus(%d)", int(s))
	}
}

// ParseSyncStatus maps a persisted string back to a SyncStatus.
func ParseSyncStatus(s string) (SyncStatus, error) {
	switch s {
	case "New":
		return SyncStatusNew, nil
	case "InProgress":
		return SyncStatusInProgress, nil
	case "Synced":
		return SyncStatusSynced, nil
	default:
		return 0, fmt.Errorf("unknown sync status %q", s)
	}
}

// FileDescriptor is one indexed image.
//
// UUID never changes and joins the local row with the server record and the
// blobs. ContentHash is the base64 SHA-256 of the plaintext and KeyEnvelope
// the per-file key wrapped with the owner's public key. A remote-only file has
// no local Path until it is materialized.
type FileDescriptor struct {
	Path         string
	UUID         uuid.UUID
	CapturedAt   time.Time
	ContentHash  string
	KeyEnvelope  string
	SyncStatus   SyncStatus
	IsRemoteOnly bool
}
