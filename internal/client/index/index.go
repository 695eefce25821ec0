// Package index is the client's local file index: a single-connection SQLite
// database holding file descriptors, watched directories and settings.
//
// Every method takes the index mutex for its duration only. Callers must not
// hold results across network calls expecting them to stay current.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/migrations"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/directories"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/files"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// DatabaseFileName is the index file inside the client data directory.
const DatabaseFileName = "index.db"

type Index struct {
	mu sync.Mutex
	db *sql.DB
}

// RunMigrations applies the embedded client schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the index at dsn and migrates it.
// ":memory:" gives a private in-memory index.
func Open(ctx context.Context, dsn string) (*Index, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index migrations: %w", err)
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) files() files.Repository { return files.NewSQLiteRepository(x.db) }

func (x *Index) settings() metadata.Repository { return metadata.NewSQLiteRepository(x.db) }

// IndexFiles inserts fds in one transaction. A uuid already present fails
// the whole batch with common.ErrAlreadyExists.
func (x *Index) IndexFiles(ctx context.Context, fds []models.FileDescriptor) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	return dbx.WithTx(ctx, x.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := files.NewSQLiteRepository(tx)
		for i := range fds {
			if err := repo.Insert(ctx, &fds[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (x *Index) FindByStatus(ctx context.Context, status models.SyncStatus) ([]models.FileDescriptor, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.files().FindByStatus(ctx, status)
}

func (x *Index) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.files().Exists(ctx, id)
}

func (x *Index) ExistsByPath(ctx context.Context, path string) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.files().ExistsByPath(ctx, path)
}

func (x *Index) Get(ctx context.Context, id uuid.UUID) (*models.FileDescriptor, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.files().Get(ctx, id)
}

// UpdateStatus is idempotent; an unknown uuid yields common.ErrNotFound.
func (x *Index) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SyncStatus) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.files().UpdateStatus(ctx, id, status)
}

func (x *Index) MaterializeFile(ctx context.Context, id uuid.UUID, path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.files().MaterializeFile(ctx, id, path)
}

// ResetInProgress demotes InProgress files to New so the next sync retries
// them from the start.
func (x *Index) ResetInProgress(ctx context.Context) (int64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.files().ResetStatus(ctx, models.SyncStatusInProgress, models.SyncStatusNew)
}

// LastSyncCursor returns nil before the first completed download phase.
func (x *Index) LastSyncCursor(ctx context.Context) (*time.Time, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.settings().GetTime(ctx, metadata.KeyLastSync)
}

func (x *Index) SetLastSyncCursor(ctx context.Context, t time.Time) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.settings().SetTime(ctx, metadata.KeyLastSync, t)
}

// User returns common.ErrUnauthorized when nobody has logged in.
func (x *Index) User(ctx context.Context) (*models.User, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	all, err := x.settings().List(ctx)
	if err != nil {
		return nil, err
	}
	rawID, ok := all[metadata.KeyUserID]
	if !ok {
		return nil, fmt.Errorf("no user: %w", common.ErrUnauthorized)
	}
	id, err := uuid.ParseBytes(rawID)
	if err != nil {
		return nil, fmt.Errorf("bad stored user id: %w", err)
	}
	return &models.User{
		ID:    id,
		Name:  string(all[metadata.KeyUserName]),
		Token: string(all[metadata.KeyUserToken]),
	}, nil
}

func (x *Index) SaveUser(ctx context.Context, u models.User) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	return dbx.WithTx(ctx, x.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		values := map[string]string{
			metadata.KeyUserID:    u.ID.String(),
			metadata.KeyUserName:  u.Name,
			metadata.KeyUserToken: u.Token,
		}
		for k, v := range values {
			if err := repo.Set(ctx, k, []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (x *Index) Directories(ctx context.Context) ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return directories.NewSQLiteRepository(x.db).List(ctx)
}

// SaveDirectories adds paths to the watched set; known paths are ignored.
func (x *Index) SaveDirectories(ctx context.Context, paths []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	return dbx.WithTx(ctx, x.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := directories.NewSQLiteRepository(tx)
		for _, p := range paths {
			if err := repo.Add(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
