// Package services contains server-side business logic: file metadata,
// part upload and download, and key escrow storage.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/blobstore"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Part is one asset of an upload request.
type Part struct {
	Name        string
	Checksum    string
	ContentType string
	Body        io.Reader
}

// PartReader yields upload parts in order and io.EOF after the last one.
type PartReader interface {
	NextPart() (*Part, error)
}

// UploadResult lists the part names written to the blob store.
type UploadResult struct {
	Parts   []string
	Resumed bool
}

type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	log         logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, log logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, blobs: blobs, log: log}
}

// PushMetadata creates New records for files the server does not know yet.
// Known uuids are skipped, so re-sending the same batch is a no-op. It
// returns the number of records created.
func (s *FileService) PushMetadata(ctx context.Context, callerID uuid.UUID, req *dto.FilesUploadRequest) (int, error) {
	if req.OwnerID != callerID {
		return 0, fmt.Errorf("owner %s pushed by %s: %w", req.OwnerID, callerID, common.ErrForbidden)
	}
	for i := range req.Files {
		if err := validateMetadata(&req.Files[i]); err != nil {
			return 0, err
		}
	}

	created := 0
	err := s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)
		for _, f := range req.Files {
			exists, err := repo.Exists(ctx, f.UUID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			rec := &models.FileRecord{
				UUID:        f.UUID,
				Path:        f.Path,
				Name:        fileName(f.Path),
				CreatedAt:   f.Date.UTC(),
				ContentHash: f.SHA256,
				OwnerID:     req.OwnerID,
				UploaderID:  callerID,
				KeyEnvelope: f.Key,
			}
			if err := repo.Save(ctx, rec); err != nil {
				if errors.Is(err, common.ErrAlreadyExists) {
					continue
				}
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("push metadata: %w", err)
	}

	s.log.Info(ctx, "metadata pushed", "owner", callerID, "received", len(req.Files), "created", created)
	return created, nil
}

// ListSince returns the caller's Synced records after since (all when nil).
func (s *FileService) ListSince(ctx context.Context, callerID uuid.UUID, since *time.Time) ([]*models.FileRecord, error) {
	return s.repomanager.Files(s.db).ListSince(ctx, callerID, since)
}

// Upload verifies and stores the parts of one file and advances its state.
//
// Only the uploader recorded at metadata push may upload. A record left in
// SyncInProgress by an interrupted attempt is resumed; a Synced record is
// rejected with common.ErrAlreadySynced. Without an original part the record
// stays in SyncInProgress and common.ErrMissingOriginal is returned.
func (s *FileService) Upload(ctx context.Context, callerID, fileID uuid.UUID, parts PartReader) (*UploadResult, error) {
	repo := s.repomanager.Files(s.db)

	rec, err := repo.Find(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if rec.UploaderID != callerID {
		return nil, fmt.Errorf("file %s: %w", fileID, common.ErrForbidden)
	}

	result := &UploadResult{}
	switch rec.State {
	case models.FileStateSynced:
		return nil, fmt.Errorf("file %s: %w", fileID, common.ErrAlreadySynced)
	case models.FileStateSyncInProgress:
		result.Resumed = true
		s.log.Info(ctx, "resuming upload", "uuid", fileID)
	case models.FileStateNew:
		if err := repo.UpdateState(ctx, fileID, models.FileStateSyncInProgress); err != nil {
			return nil, err
		}
	}

	sawOriginal := false
	for {
		p, err := parts.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w: %w", common.ErrValidation, err)
		}

		if !common.IsKnownPartName(p.Name) {
			s.log.Warn(ctx, "skipping unknown part", "uuid", fileID, "part", p.Name)
			continue
		}
		if p.Checksum == "" {
			return nil, fmt.Errorf("part %s has no checksum: %w", p.Name, common.ErrValidation)
		}

		data, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", p.Name, err)
		}
		if err := cryptox.VerifyTransferHash(p.Checksum, data); err != nil {
			return nil, fmt.Errorf("file %s part %s: %w", fileID, p.Name, err)
		}
		if err := s.blobs.Put(ctx, blobstore.StorageKey(rec.OwnerID, fileID, p.Name), data, p.ContentType); err != nil {
			return nil, fmt.Errorf("store part %s: %w", p.Name, err)
		}

		result.Parts = append(result.Parts, p.Name)
		if p.Name == common.OriginalPartName {
			sawOriginal = true
		}
	}

	if !sawOriginal {
		return nil, fmt.Errorf("file %s: %w", fileID, common.ErrMissingOriginal)
	}
	if err := repo.UpdateState(ctx, fileID, models.FileStateSynced); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "file synced", "uuid", fileID, "parts", len(result.Parts), "resumed", result.Resumed)
	return result, nil
}

// Download returns one stored part of a file owned by the caller. An empty
// variant or "original" selects the original asset.
func (s *FileService) Download(ctx context.Context, callerID, fileID uuid.UUID, variant string) (*blobstore.Blob, error) {
	if strings.ContainsAny(variant, `/\`) {
		return nil, fmt.Errorf("variant %q: %w", variant, common.ErrValidation)
	}
	part := common.VariantPartName(variant)

	rec, err := s.repomanager.Files(s.db).Find(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != callerID {
		return nil, fmt.Errorf("file %s: %w", fileID, common.ErrForbidden)
	}

	return s.blobs.Get(ctx, blobstore.StorageKey(rec.OwnerID, fileID, part))
}

func validateMetadata(f *dto.FileMetadata) error {
	switch {
	case f.UUID == uuid.Nil:
		return fmt.Errorf("missing uuid: %w", common.ErrValidation)
	case f.Path == "":
		return fmt.Errorf("file %s has no path: %w", f.UUID, common.ErrValidation)
	case f.SHA256 == "":
		return fmt.Errorf("file %s has no hash: %w", f.UUID, common.ErrValidation)
	case f.Key == "":
		return fmt.Errorf("file %s has no key envelope: %w", f.UUID, common.ErrValidation)
	}
	return nil
}

// fileName returns the last segment of a client path, which may use either
// separator.
func fileName(p string) string {
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}
