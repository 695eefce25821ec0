// Package directories stores the local directories watched by the indexer.
package directories

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photovault/internal/dbx"
)

type Repository interface {
	// Add stores path; an already watched path is ignored.
	Add(ctx context.Context, path string) error
	List(ctx context.Context) ([]string, error)
}

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Add(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx,
		`insert into directories (path, added_at) values (?, ?) on conflict(path) do nothing`,
		path, r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to add directory %s: %w", path, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `select path from directories order by added_at, path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list directories: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
