// Package repomanager vends repositories bound to a database handle and owns
// schema migrations and transactions for them.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/files"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/userkeys"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	UserKeys(db dbx.DBTX) userkeys.Repository
	// WithTx runs fn inside one transaction. Repositories obtained from
	// the tx handle take part in it.
	WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error
}
