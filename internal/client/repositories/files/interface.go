package files

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/google/uuid"
)

// Repository is the row-level contract used by the index.
type Repository interface {
	// Insert adds one descriptor; an existing uuid yields common.ErrAlreadyExists.
	Insert(ctx context.Context, fd *models.FileDescriptor) error

	// FindByStatus returns descriptors in status, newest capture first.
	FindByStatus(ctx context.Context, status models.SyncStatus) ([]models.FileDescriptor, error)

	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByPath(ctx context.Context, path string) (bool, error)

	// Get returns common.ErrNotFound for an unknown uuid.
	Get(ctx context.Context, id uuid.UUID) (*models.FileDescriptor, error)

	// UpdateStatus sets the status; common.ErrNotFound for an unknown uuid.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SyncStatus) error

	// MaterializeFile records the local path of a downloaded remote-only file.
	MaterializeFile(ctx context.Context, id uuid.UUID, path string) error

	// ResetStatus moves every row in from to to and returns the count.
	ResetStatus(ctx context.Context, from, to models.SyncStatus) (int64, error)
}
