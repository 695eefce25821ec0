// Package files persists server-side file records and their lifecycle state.
package files

import (
	"context"
	"time"

	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Find returns common.ErrNotFound when no record has the uuid.
	Find(ctx context.Context, id uuid.UUID) (*models.FileRecord, error)
	// Save inserts rec in state New. common.ErrAlreadyExists on duplicate uuid.
	Save(ctx context.Context, rec *models.FileRecord) error
	// UpdateState moves a record forward. Re-applying the current state is a
	// no-op; moving backwards fails with common.ErrStateRegression.
	UpdateState(ctx context.Context, id uuid.UUID, state models.FileState) error
	// ListSince returns the owner's Synced records with synced_at after since,
	// or all of them when since is nil, oldest first.
	ListSince(ctx context.Context, ownerID uuid.UUID, since *time.Time) ([]*models.FileRecord, error)
}
