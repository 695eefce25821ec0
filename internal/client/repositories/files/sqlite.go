package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/google/uuid"
)

const selectColumns = `select uuid, path, captured_at, content_hash, key_envelope, sync_status, is_remote_only from files`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, fd *models.FileDescriptor) error {
	query := `insert into files (uuid, path, captured_at, content_hash, key_envelope, sync_status, is_remote_only)
			values (?, ?, ?, ?, ?, ?, ?)
			on conflict(uuid) do nothing`

	res, err := r.db.ExecContext(ctx, query,
		fd.UUID.String(), fd.Path, fd.CapturedAt.UnixNano(), fd.ContentHash, fd.KeyEnvelope,
		fd.SyncStatus.String(), fd.IsRemoteOnly)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("file %s: %w", fd.UUID, common.ErrAlreadyExists)
	}
	return nil
}

func (r *SQLiteRepository) FindByStatus(ctx context.Context, status models.SyncStatus) ([]models.FileDescriptor, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` where sync_status=? order by captured_at desc, uuid`, status.String())
	if err != nil {
		return nil, fmt.Errorf("error selecting files: %w", err)
	}
	defer rows.Close()

	var result []models.FileDescriptor
	for rows.Next() {
		fd, err := scanDescriptor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *fd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `select exists(select 1 from files where uuid=?)`, id.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check file: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) ExistsByPath(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `select exists(select 1 from files where path=? and path<>'')`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check path: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id uuid.UUID) (*models.FileDescriptor, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` where uuid=?`, id.String())
	fd, err := scanDescriptor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, common.ErrNotFound)
	}
	return fd, err
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SyncStatus) error {
	res, err := r.db.ExecContext(ctx, `update files set sync_status=? where uuid=?`, status.String(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return expectOne(res, id)
}

func (r *SQLiteRepository) MaterializeFile(ctx context.Context, id uuid.UUID, path string) error {
	res, err := r.db.ExecContext(ctx, `update files set path=?, is_remote_only=0 where uuid=?`, path, id.String())
	if err != nil {
		return fmt.Errorf("failed to materialize file: %w", err)
	}
	return expectOne(res, id)
}

func (r *SQLiteRepository) ResetStatus(ctx context.Context, from, to models.SyncStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx, `update files set sync_status=? where sync_status=?`, to.String(), from.String())
	if err != nil {
		return 0, fmt.Errorf("failed to reset status: %w", err)
	}
	return res.RowsAffected()
}

// expectOne treats zero affected rows as an unknown uuid. SQLite counts
// matched rows, so rewriting an unchanged value still reports one.
func expectOne(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("file %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDescriptor(s scanner) (*models.FileDescriptor, error) {
	var (
		fd       models.FileDescriptor
		id       string
		captured int64
		status   string
	)
	if err := s.Scan(&id, &fd.Path, &captured, &fd.ContentHash, &fd.KeyEnvelope, &status, &fd.IsRemoteOnly); err != nil {
		return nil, err
	}

	var err error
	if fd.UUID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad uuid %q: %w", id, err)
	}
	if fd.SyncStatus, err = models.ParseSyncStatus(status); err != nil {
		return nil, err
	}
	fd.CapturedAt = time.Unix(0, captured).UTC()
	return &fd, nil
}
