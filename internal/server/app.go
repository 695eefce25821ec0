// Package server wires configuration, storage backends and services and runs
// the photovault HTTP API until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/api"
	"github.com/dmitrijs2005/photovault/internal/server/blobstore"
	"github.com/dmitrijs2005/photovault/internal/server/config"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/photovault/internal/server/services"
	"github.com/spf13/afero"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	fileService *services.FileService
	keyService  *services.KeyService
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewServerLogger(slog.LevelInfo)

	rm, db, err := openRepositories(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	blobs, err := openBlobStore(ctx, c)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	fs := services.NewFileService(db, rm, blobs, logger.With("module", "files"))
	ks := services.NewKeyService(db, rm, logger.With("module", "keys"))

	return &App{config: c, logger: logger, db: db, fileService: fs, keyService: ks}, nil
}

func openRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, *sql.DB, error) {
	switch c.RepositoryBackend {
	case config.RepositoryMemory:
		return repomanager.NewInMemoryRepositoryManager(), nil, nil
	case config.RepositoryPostgres:
		db, err := sqlOpen("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return rm, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown repository backend %q", c.RepositoryBackend)
	}
}

func openBlobStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.BlobBackend {
	case config.BlobFS:
		return blobstore.NewFSStore(afero.NewOsFs(), c.BlobDir)
	case config.BlobS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			User:     c.S3RootUser,
			Password: c.S3RootPassword,
			Bucket:   c.S3Bucket,
			Region:   c.S3Region,
			Endpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := api.NewHTTPServer(app.config.EndpointAddr, app.logger, app.fileService, app.keyService,
		app.config.SecretKey, int64(app.config.MaxUploadMB)<<20)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"repository", app.config.RepositoryBackend, "blobs", app.config.BlobBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
