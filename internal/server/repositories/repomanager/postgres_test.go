package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/files"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/userkeys"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	var _ RepositoryManager = NewPostgresRepositoryManager()
	var _ RepositoryManager = NewInMemoryRepositoryManager()
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if f := m.Files(db); f == nil {
		t.Fatal("Files() nil")
	}
	if k := m.UserKeys(db); k == nil {
		t.Fatal("UserKeys() nil")
	}

	var _ *files.PostgresRepository = m.Files(db).(*files.PostgresRepository)
	var _ *userkeys.PostgresRepository = m.UserKeys(db).(*userkeys.PostgresRepository)
}

func TestWithTx_CommitsAndRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()
	m := &PostgresRepositoryManager{}

	mock.ExpectBegin()
	mock.ExpectCommit()
	if err := m.WithTx(context.Background(), db, func(ctx context.Context, tx dbx.DBTX) error {
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectRollback()
	if err := m.WithTx(context.Background(), db, func(ctx context.Context, tx dbx.DBTX) error {
		return errors.New("boom")
	}); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInMemoryManager_SharesRepos(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	if m.Files(nil) != m.Files(nil) {
		t.Fatal("Files() must return the same repository")
	}
	called := false
	err := m.WithTx(context.Background(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		called = true
		return m.RunMigrations(ctx, nil)
	})
	if err != nil || !called {
		t.Fatalf("WithTx: called=%v err=%v", called, err)
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
