package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/client"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/thumbnails"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/dmitrijs2005/photovault/internal/filex"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// SyncOptions configures a SyncService.
type SyncOptions struct {
	OwnerID    uuid.UUID
	PrivateKey *rsa.PrivateKey
	// DownloadDir receives originals of files added on other devices.
	DownloadDir string
	// Materialize downloads remote originals; otherwise they are indexed
	// as remote-only.
	Materialize bool
}

// SyncReport summarizes one Sync pass.
type SyncReport struct {
	Downloaded     int
	DownloadFailed int
	Uploaded       int
	UploadFailed   int
	Cursor         time.Time
	Cancelled      bool
}

// indexError marks local index failures, which abort the pass.
type indexError struct{ err error }

func (e *indexError) Error() string { return "index: " + e.err.Error() }
func (e *indexError) Unwrap() error { return e.err }

type SyncService struct {
	index  LocalIndex
	client client.Client
	thumbs thumbnails.Generator
	fs     afero.Fs
	opts   SyncOptions
	log    logging.Logger
	now    func() time.Time
}

func NewSyncService(ix LocalIndex, c client.Client, thumbs thumbnails.Generator, fs afero.Fs, opts SyncOptions, log logging.Logger) *SyncService {
	return &SyncService{index: ix, client: c, thumbs: thumbs, fs: fs, opts: opts, log: log, now: time.Now}
}

// Sync runs the download phase and then the upload phase.
//
// Per-file failures are logged and counted; the files are retried by the
// next pass. Index failures and failures of the list or push requests abort
// the pass with an error.
func (s *SyncService) Sync(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}

	if err := s.download(ctx, report); err != nil {
		return report, err
	}
	if report.Cancelled {
		return report, ctx.Err()
	}
	if err := s.upload(ctx, report); err != nil {
		return report, err
	}
	if report.Cancelled {
		return report, ctx.Err()
	}

	s.log.Info(ctx, "sync finished",
		"downloaded", report.Downloaded, "download_failed", report.DownloadFailed,
		"uploaded", report.Uploaded, "upload_failed", report.UploadFailed)
	return report, nil
}

func (s *SyncService) download(ctx context.Context, report *SyncReport) error {
	now := s.now()

	cursor, err := s.index.LastSyncCursor(ctx)
	if err != nil {
		return &indexError{err}
	}

	remote, err := s.client.ListMetadata(ctx, cursor)
	if err != nil {
		return fmt.Errorf("list metadata: %w", err)
	}

	var failed []dto.FileMetadata
	for _, m := range remote {
		if ctx.Err() != nil {
			report.Cancelled = true
			return nil
		}

		known, err := s.index.Exists(ctx, m.UUID)
		if err != nil {
			return &indexError{err}
		}
		if known {
			continue
		}

		if err := s.pull(ctx, m); err != nil {
			var ie *indexError
			if errors.As(err, &ie) {
				return err
			}
			s.log.Warn(ctx, "download failed", "uuid", m.UUID, "error", err)
			failed = append(failed, m)
			report.DownloadFailed++
			continue
		}
		report.Downloaded++
	}

	next, ok := nextCursor(now, failed)
	if !ok {
		return nil
	}
	if err := s.index.SetLastSyncCursor(ctx, next); err != nil {
		return &indexError{err}
	}
	report.Cursor = next
	return nil
}

// nextCursor is now when nothing failed, otherwise one second before the
// earliest failed record so the server lists it again. ok is false when no
// safe cursor exists.
func nextCursor(now time.Time, failed []dto.FileMetadata) (time.Time, bool) {
	if len(failed) == 0 {
		return now, true
	}
	if lo.SomeBy(failed, func(m dto.FileMetadata) bool { return m.SyncedAt == nil }) {
		return time.Time{}, false
	}
	earliest := lo.MinBy(failed, func(a, b dto.FileMetadata) bool { return a.SyncedAt.Before(*b.SyncedAt) })
	return earliest.SyncedAt.Add(-time.Second), true
}

// pull indexes one remote record, downloading its original when
// materialization is on.
func (s *SyncService) pull(ctx context.Context, m dto.FileMetadata) error {
	fd := models.FileDescriptor{
		UUID:         m.UUID,
		CapturedAt:   m.Date.UTC(),
		ContentHash:  m.SHA256,
		KeyEnvelope:  m.Key,
		SyncStatus:   models.SyncStatusSynced,
		IsRemoteOnly: true,
	}

	if s.opts.Materialize {
		p, err := s.fetchOriginal(ctx, m.UUID, m.Key, m.SHA256, m.Path)
		if err != nil {
			return err
		}
		fd.Path = p
		fd.IsRemoteOnly = false
	}

	err := s.index.IndexFiles(ctx, []models.FileDescriptor{fd})
	if err != nil && !errors.Is(err, common.ErrAlreadyExists) {
		return &indexError{err}
	}
	return nil
}

// fetchOriginal downloads, decrypts and verifies one original and writes it
// to the download dir as {uuid}{ext}.
func (s *SyncService) fetchOriginal(ctx context.Context, id uuid.UUID, envelope, contentHash, remotePath string) (string, error) {
	key, err := cryptox.UnwrapKey(envelope, s.opts.PrivateKey)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	data, contentType, err := s.client.Download(ctx, id, common.OriginalPartName)
	if err != nil {
		return "", err
	}
	plain, err := cryptox.Decrypt(key, id, data)
	if err != nil {
		return "", err
	}
	if contentHash != "" && cryptox.ContentHash(plain) != contentHash {
		return "", fmt.Errorf("content hash of %s: %w", id, common.ErrIntegrity)
	}

	if _, err := filex.EnsureDir(s.fs, s.opts.DownloadDir); err != nil {
		return "", err
	}
	ext := remoteExt(remotePath)
	if ext == "" {
		ext = imageExtensions[contentType]
	}
	dst := filepath.Join(s.opts.DownloadDir, id.String()+ext)
	if err := filex.WriteFileAtomic(s.fs, dst, plain, 0o600); err != nil {
		return "", err
	}
	return dst, nil
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/heic": ".heic",
}

// remoteExt returns the lowercase extension of a path written on any OS.
func remoteExt(p string) string {
	return strings.ToLower(path.Ext(strings.ReplaceAll(p, `\`, "/")))
}

func (s *SyncService) upload(ctx context.Context, report *SyncReport) error {
	fresh, err := s.index.FindByStatus(ctx, models.SyncStatusNew)
	if err != nil {
		return &indexError{err}
	}
	retry, err := s.index.FindByStatus(ctx, models.SyncStatusInProgress)
	if err != nil {
		return &indexError{err}
	}
	candidates := append(fresh, retry...)
	if len(candidates) == 0 {
		return nil
	}

	meta := lo.Map(candidates, func(fd models.FileDescriptor, _ int) dto.FileMetadata {
		return dto.FileMetadata{
			Path:   fd.Path,
			UUID:   fd.UUID,
			Date:   fd.CapturedAt,
			SHA256: fd.ContentHash,
			Key:    fd.KeyEnvelope,
		}
	})
	created, err := s.client.PushMetadata(ctx, s.opts.OwnerID, meta)
	if err != nil {
		return fmt.Errorf("push metadata: %w", err)
	}
	s.log.Debug(ctx, "metadata pushed", "files", len(meta), "created", created)

	for _, fd := range candidates {
		if ctx.Err() != nil {
			report.Cancelled = true
			return nil
		}

		if err := s.index.UpdateStatus(ctx, fd.UUID, models.SyncStatusInProgress); err != nil {
			return &indexError{err}
		}

		err := s.push(ctx, fd)
		if err != nil && !errors.Is(err, common.ErrAlreadySynced) {
			s.log.Warn(ctx, "upload failed", "uuid", fd.UUID, "path", fd.Path, "error", err)
			report.UploadFailed++
			continue
		}

		if err := s.index.UpdateStatus(ctx, fd.UUID, models.SyncStatusSynced); err != nil {
			return &indexError{err}
		}
		report.Uploaded++
	}
	return nil
}

// push encrypts the original and its variants and sends them in one request.
func (s *SyncService) push(ctx context.Context, fd models.FileDescriptor) error {
	key, err := cryptox.UnwrapKey(fd.KeyEnvelope, s.opts.PrivateKey)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	plain, err := afero.ReadFile(s.fs, fd.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", fd.Path, err)
	}

	cipherText, hash, err := cryptox.Encrypt(key, fd.UUID, plain)
	if err != nil {
		return err
	}
	parts := []client.UploadPart{{
		Name:        common.OriginalPartName,
		ContentType: contentTypeOf(fd.Path),
		Checksum:    hash,
		Data:        cipherText,
	}}

	variants, err := s.thumbs.Variants(ctx, fd.UUID, plain)
	if err != nil {
		s.log.Warn(ctx, "no thumbnails", "uuid", fd.UUID, "error", err)
	}
	for _, v := range variants {
		name := common.VariantPartName(v.Name)
		ct, h, err := cryptox.EncryptPart(key, fd.UUID, name, v.Data)
		if err != nil {
			return err
		}
		parts = append(parts, client.UploadPart{Name: name, ContentType: v.ContentType, Checksum: h, Data: ct})
	}

	_, err = s.client.Upload(ctx, fd.UUID, parts)
	return err
}

func contentTypeOf(p string) string {
	if ct := mime.TypeByExtension(remoteExt(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// FetchVariant downloads and decrypts one variant of an indexed file. An
// empty variant or "original" selects the original.
func (s *SyncService) FetchVariant(ctx context.Context, id uuid.UUID, variant string) ([]byte, error) {
	fd, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := cryptox.UnwrapKey(fd.KeyEnvelope, s.opts.PrivateKey)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	data, _, err := s.client.Download(ctx, id, variant)
	if err != nil {
		return nil, err
	}
	return cryptox.DecryptPart(key, id, common.VariantPartName(variant), data)
}

// Materialize downloads the original of a remote-only file into the
// download dir and records its local path.
func (s *SyncService) Materialize(ctx context.Context, id uuid.UUID) (string, error) {
	fd, err := s.index.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !fd.IsRemoteOnly {
		return fd.Path, nil
	}

	p, err := s.fetchOriginal(ctx, id, fd.KeyEnvelope, fd.ContentHash, "")
	if err != nil {
		return "", err
	}
	if err := s.index.MaterializeFile(ctx, id, p); err != nil {
		return "", err
	}
	return p, nil
}
