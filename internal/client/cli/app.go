package cli

import (
	"bufio"
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/photovault/internal/client/client"
	"github.com/dmitrijs2005/photovault/internal/client/config"
	"github.com/dmitrijs2005/photovault/internal/client/index"
	"github.com/dmitrijs2005/photovault/internal/client/keystore"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/services"
	"github.com/dmitrijs2005/photovault/internal/client/thumbnails"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/filex"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/spf13/afero"
)

// thumbnailCacheCapacity bounds the in-memory thumbnail cache entries.
const thumbnailCacheCapacity = 256

// getSimpleText and getPassphrase are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassphrase = GetPassphrase

// App holds the client resources shared by the commands. They are opened by
// the root command's pre-run hook and released by Close.
type App struct {
	config *config.Config
	fs     afero.Fs
	reader *bufio.Reader
	out    io.Writer

	log       logging.Logger
	logCloser io.Closer
	index     *index.Index
	keystore  *keystore.BoltKeystore
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		fs:     afero.NewOsFs(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// open resolves the configured directories, then opens the logger, the
// local index and the keystore inside the data directory.
func (a *App) open(ctx context.Context, level slog.Level) error {
	if err := a.config.Resolve(); err != nil {
		return err
	}
	if _, err := filex.EnsureDir(a.fs, a.config.DataDir); err != nil {
		return err
	}
	if a.config.LogDir != "" {
		if _, err := filex.EnsureDir(a.fs, a.config.LogDir); err != nil {
			return err
		}
	}
	a.log, a.logCloser = logging.NewClientLogger(a.config.LogDir, level)

	ix, err := index.Open(ctx, filepath.Join(a.config.DataDir, index.DatabaseFileName))
	if err != nil {
		return err
	}
	a.index = ix

	ks, err := keystore.Open(filepath.Join(a.config.DataDir, keystore.FileName))
	if err != nil {
		return err
	}
	a.keystore = ks

	a.log.Debug(ctx, "client opened", "data_dir", a.config.DataDir, "server", a.config.ServerURL)
	return nil
}

// Close releases everything open acquired. It is safe on a partly opened App.
func (a *App) Close() error {
	var errs []error
	if a.keystore != nil {
		errs = append(errs, a.keystore.Close())
		a.keystore = nil
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
		a.index = nil
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
		a.logCloser = nil
	}
	return errors.Join(errs...)
}

// session returns the signed-in user and an API client carrying its token.
func (a *App) session(ctx context.Context) (*models.User, client.Client, error) {
	u, err := a.index.User(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return nil, nil, errors.New("not logged in, run `photovault login` first")
		}
		return nil, nil, err
	}
	return u, client.NewHTTPClient(a.config.ServerURL, u.Token, a.config.RequestTimeout), nil
}

func (a *App) keyService(c client.Client) *services.KeyService {
	return services.NewKeyService(c, a.keystore, a.log)
}

// privateKey loads the device key of u.
func (a *App) privateKey(c client.Client, u *models.User) (*rsa.PrivateKey, error) {
	priv, err := a.keyService(c).PrivateKey(u.ID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, errors.New("no key on this device, run `photovault keys init` first")
	}
	return priv, err
}

func (a *App) indexer() *services.IndexerService {
	return services.NewIndexerService(a.index, a.fs, a.log)
}

func (a *App) syncer(c client.Client, u *models.User, priv *rsa.PrivateKey) *services.SyncService {
	thumbs := thumbnails.NewImagingGenerator(a.fs, a.config.DataDir, a.config.ThumbnailCacheTTL, thumbnailCacheCapacity)
	return services.NewSyncService(a.index, c, thumbs, a.fs, services.SyncOptions{
		OwnerID:     u.ID,
		PrivateKey:  priv,
		DownloadDir: a.config.DownloadDir,
		Materialize: a.config.Materialize,
	}, a.log)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
