package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock, db
}

var recordColumns = []string{"uuid", "path", "name", "state", "created_at", "added_at", "synced_at",
	"content_hash", "owner_id", "uploader_id", "key_envelope"}

func sampleRecord() *models.FileRecord {
	return &models.FileRecord{
		UUID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Path:        "/photos/2024/a.jpg",
		Name:        "a.jpg",
		CreatedAt:   time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		ContentHash: "H1",
		OwnerID:     uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		UploaderID:  uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		KeyEnvelope: "K1",
	}
}

const insertQuery = `(?s)^\s*INSERT\s+INTO\s+files\b.*ON\s+CONFLICT\s*\(uuid\)\s*DO\s+NOTHING`

func TestSave_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	rec := sampleRecord()

	mock.ExpectExec(insertQuery).
		WithArgs(rec.UUID, rec.Path, rec.Name, "New", rec.CreatedAt, fixedNow,
			rec.ContentHash, rec.OwnerID, rec.UploaderID, rec.KeyEnvelope).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != models.FileStateNew || !rec.AddedAt.Equal(fixedNow) {
		t.Fatalf("record not stamped: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSave_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), sampleRecord())
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestSave_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).WillReturnError(errors.New("db down"))

	err := repo.Save(context.Background(), sampleRecord())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSave_RowsAffectedErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	err := repo.Save(context.Background(), sampleRecord())
	if err == nil || !regexp.MustCompile(`rows affected error: .*rows-err`).MatchString(err.Error()) {
		t.Fatalf("expected rows affected error, got %v", err)
	}
}

func TestExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	id := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM files WHERE uuid=\$1\)`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("want true,nil got %v,%v", ok, err)
	}
}

func TestFind_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	rec := sampleRecord()
	synced := fixedNow.Add(time.Minute)

	mock.ExpectQuery(`(?s)SELECT\s+uuid, path.*FROM files WHERE uuid=\$1`).
		WithArgs(rec.UUID).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			rec.UUID.String(), rec.Path, rec.Name, "Synced", rec.CreatedAt, fixedNow, synced,
			rec.ContentHash, rec.OwnerID.String(), rec.UploaderID.String(), rec.KeyEnvelope))

	got, err := repo.Find(context.Background(), rec.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != models.FileStateSynced || got.SyncedAt == nil || !got.SyncedAt.Equal(synced) {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.OwnerID != rec.OwnerID || got.KeyEnvelope != "K1" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM files WHERE uuid=\$1`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFind_UnknownState(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	rec := sampleRecord()

	mock.ExpectQuery(`FROM files WHERE uuid=\$1`).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			rec.UUID.String(), rec.Path, rec.Name, "Deleted", rec.CreatedAt, fixedNow, nil,
			rec.ContentHash, rec.OwnerID.String(), rec.UploaderID.String(), rec.KeyEnvelope))

	if _, err := repo.Find(context.Background(), rec.UUID); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

const updateQuery = `(?s)^\s*UPDATE\s+files\s+SET.*WHERE\s+uuid\s*=\s*\$1`

func TestUpdateState_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	id := uuid.New()

	mock.ExpectExec(updateQuery).
		WithArgs(id, "Synced", fixedNow, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateState(context.Background(), id, models.FileStateSynced); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateState_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	id := uuid.New()

	mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.UpdateState(context.Background(), id, models.FileStateSyncInProgress)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateState_Regression(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	id := uuid.New()

	mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.UpdateState(context.Background(), id, models.FileStateNew)
	if !errors.Is(err, common.ErrStateRegression) {
		t.Fatalf("want ErrStateRegression, got %v", err)
	}
}

func TestListSince_WithCursor(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	rec := sampleRecord()
	since := fixedNow.Add(-time.Hour)

	mock.ExpectQuery(`(?s)WHERE owner_id=\$1 AND state='Synced'\s+AND synced_at > \$2\s+ORDER BY synced_at`).
		WithArgs(rec.OwnerID, since).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			rec.UUID.String(), rec.Path, rec.Name, "Synced", rec.CreatedAt, fixedNow, fixedNow,
			rec.ContentHash, rec.OwnerID.String(), rec.UploaderID.String(), rec.KeyEnvelope))

	got, err := repo.ListSince(context.Background(), rec.OwnerID, &since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].UUID != rec.UUID {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestListSince_NoCursor(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	owner := uuid.New()

	mock.ExpectQuery(`(?s)WHERE owner_id=\$1 AND state='Synced'\s+ORDER BY synced_at`).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	got, err := repo.ListSince(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestListSince_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM files`).WillReturnError(errors.New("boom"))

	_, err := repo.ListSince(context.Background(), uuid.New(), nil)
	if err == nil || !regexp.MustCompile(`failed to select files: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
