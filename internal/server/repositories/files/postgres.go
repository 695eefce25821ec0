package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const selectColumns = `uuid, path, name, state, created_at, added_at, synced_at,
	content_hash, owner_id, uploader_id, key_envelope`

func (r *PostgresRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM files WHERE uuid=$1)`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check file: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Find(ctx context.Context, id uuid.UUID) (*models.FileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE uuid=$1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return rec, nil
}

// Save inserts rec in state New and fills AddedAt.
func (r *PostgresRepository) Save(ctx context.Context, rec *models.FileRecord) error {
	query := `
		INSERT INTO files (uuid, path, name, state, created_at, added_at, content_hash, owner_id, uploader_id, key_envelope)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (uuid) DO NOTHING
	`
	addedAt := r.now()
	res, err := r.db.ExecContext(ctx, query,
		rec.UUID, rec.Path, rec.Name, models.FileStateNew.String(), rec.CreatedAt, addedAt,
		rec.ContentHash, rec.OwnerID, rec.UploaderID, rec.KeyEnvelope)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		rec.State = models.FileStateNew
		rec.AddedAt = addedAt
		return nil
	case 0:
		return common.ErrAlreadyExists
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// UpdateState only touches rows whose current state is not ahead of state.
// Reaching Synced stamps synced_at once.
func (r *PostgresRepository) UpdateState(ctx context.Context, id uuid.UUID, state models.FileState) error {
	query := `
		UPDATE files SET
			state = $2,
			synced_at = CASE WHEN $2 = 'Synced' THEN COALESCE(synced_at, $3) ELSE synced_at END
		WHERE uuid = $1
			AND (CASE state WHEN 'New' THEN 0 WHEN 'SyncInProgress' THEN 1 ELSE 2 END) <= $4
	`
	res, err := r.db.ExecContext(ctx, query, id, state.String(), r.now(), int(state))
	if err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 1 {
		return nil
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrNotFound
	}
	return fmt.Errorf("file %s to %s: %w", id, state, common.ErrStateRegression)
}

func (r *PostgresRepository) ListSince(ctx context.Context, ownerID uuid.UUID, since *time.Time) ([]*models.FileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM files
		WHERE owner_id=$1 AND state='Synced'`
	args := []any{ownerID}
	if since != nil {
		query += ` AND synced_at > $2`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY synced_at, uuid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.FileRecord, error) {
	var (
		rec      models.FileRecord
		state    string
		syncedAt sql.NullTime
	)
	err := row.Scan(&rec.UUID, &rec.Path, &rec.Name, &state, &rec.CreatedAt, &rec.AddedAt, &syncedAt,
		&rec.ContentHash, &rec.OwnerID, &rec.UploaderID, &rec.KeyEnvelope)
	if err != nil {
		return nil, err
	}
	if rec.State, err = models.ParseFileState(state); err != nil {
		return nil, err
	}
	if syncedAt.Valid {
		t := syncedAt.Time
		rec.SyncedAt = &t
	}
	return &rec, nil
}
