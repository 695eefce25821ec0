package userkeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserKeys, error) {
	query := `SELECT user_id, private_key, public_key, created_at FROM user_keys WHERE user_id=$1`

	k := &models.UserKeys{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&k.UserID, &k.PrivateKey, &k.PublicKey, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select keys: %w", err)
	}
	return k, nil
}

func (r *PostgresRepository) Save(ctx context.Context, keys *models.UserKeys) error {
	query := `INSERT INTO user_keys (user_id, private_key, public_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, keys.UserID, keys.PrivateKey, keys.PublicKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrKeysExist
	}
	return nil
}
