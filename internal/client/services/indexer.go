package services

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/scanner"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// indexBatchSize bounds the rows committed per IndexFiles transaction.
const indexBatchSize = 200

// LocalIndex is the part of index.Index used by the services.
type LocalIndex interface {
	IndexFiles(ctx context.Context, fds []models.FileDescriptor) error
	FindByStatus(ctx context.Context, status models.SyncStatus) ([]models.FileDescriptor, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByPath(ctx context.Context, path string) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.FileDescriptor, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SyncStatus) error
	MaterializeFile(ctx context.Context, id uuid.UUID, path string) error
	LastSyncCursor(ctx context.Context) (*time.Time, error)
	SetLastSyncCursor(ctx context.Context, t time.Time) error
	Directories(ctx context.Context) ([]string, error)
}

// IndexerService adds new images from the watched directories to the index.
type IndexerService struct {
	index   LocalIndex
	scanner *scanner.Scanner
	fs      afero.Fs
	log     logging.Logger
}

func NewIndexerService(ix LocalIndex, fs afero.Fs, log logging.Logger) *IndexerService {
	return &IndexerService{index: ix, scanner: scanner.New(fs), fs: fs, log: log}
}

// Index scans the watched directories and indexes every image whose path
// is not known yet. Each file gets a fresh uuid and per-file key wrapped
// with pub. It returns the number of files indexed.
func (s *IndexerService) Index(ctx context.Context, pub *rsa.PublicKey) (int, error) {
	dirs, err := s.index.Directories(ctx)
	if err != nil {
		return 0, err
	}
	if len(dirs) == 0 {
		return 0, nil
	}

	found, err := s.scanner.Scan(ctx, dirs)
	if err != nil {
		return 0, err
	}

	var fds []models.FileDescriptor
	for _, f := range found {
		known, err := s.index.ExistsByPath(ctx, f.Path)
		if err != nil {
			return 0, err
		}
		if known {
			continue
		}

		fd, err := s.describe(f, pub)
		if err != nil {
			s.log.Warn(ctx, "skipping file", "path", f.Path, "error", err)
			continue
		}
		fds = append(fds, *fd)
	}

	for _, batch := range lo.Chunk(fds, indexBatchSize) {
		if err := s.index.IndexFiles(ctx, batch); err != nil {
			return 0, fmt.Errorf("index files: %w", err)
		}
	}

	s.log.Info(ctx, "indexed files", "found", len(found), "new", len(fds))
	return len(fds), nil
}

func (s *IndexerService) describe(f scanner.Found, pub *rsa.PublicKey) (*models.FileDescriptor, error) {
	data, err := afero.ReadFile(s.fs, f.Path)
	if err != nil {
		return nil, err
	}

	key, err := cryptox.GenerateFileKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	wrapped, err := cryptox.WrapKey(key, pub)
	if err != nil {
		return nil, err
	}

	return &models.FileDescriptor{
		Path:        f.Path,
		UUID:        uuid.New(),
		CapturedAt:  scanner.CaptureTime(data, f.ModTime),
		ContentHash: cryptox.ContentHash(data),
		KeyEnvelope: wrapped,
		SyncStatus:  models.SyncStatusNew,
	}, nil
}
