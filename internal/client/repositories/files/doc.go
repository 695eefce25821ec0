// Package files persists the client's FileDescriptor rows in the local
// SQLite index.
//
// The SQLite implementation works over dbx.DBTX, so the same repository can
// run on the *sql.DB or inside a transaction opened by the index.
//
//	repo := files.NewSQLiteRepository(tx)
//	_ = repo.Insert(ctx, &fd)
//	pending, _ := repo.FindByStatus(ctx, models.SyncStatusNew)
package files
