package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/files"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/userkeys"
)

// InMemoryRepositoryManager serves process-local repositories and ignores
// the db handles passed to it. Transactions are serialized but not rolled
// back on error.
type InMemoryRepositoryManager struct {
	txMu     sync.Mutex
	files    *files.InMemoryRepository
	userKeys *userkeys.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		files:    files.NewInMemoryRepository(),
		userKeys: userkeys.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Files(dbx.DBTX) files.Repository {
	return m.files
}

func (m *InMemoryRepositoryManager) UserKeys(dbx.DBTX) userkeys.Repository {
	return m.userKeys
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}
