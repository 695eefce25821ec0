package services

import (
	"context"
	"crypto/rsa"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/client"
	"github.com/dmitrijs2005/photovault/internal/client/index"
	"github.com/dmitrijs2005/photovault/internal/client/keystore"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/api"
	"github.com/dmitrijs2005/photovault/internal/server/auth"
	"github.com/dmitrijs2005/photovault/internal/server/blobstore"
	servermodels "github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	serversvc "github.com/dmitrijs2005/photovault/internal/server/services"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioSecret = "scenario-secret"

type scenarioServer struct {
	url   string
	repos *repomanager.InMemoryRepositoryManager
}

func startScenarioServer(t *testing.T) *scenarioServer {
	t.Helper()
	rm := repomanager.NewInMemoryRepositoryManager()
	blobs, err := blobstore.NewFSStore(afero.NewMemMapFs(), "/blobs")
	require.NoError(t, err)
	log := logging.Discard()

	h := api.NewHTTPServer(":0", log,
		serversvc.NewFileService(nil, rm, blobs, log),
		serversvc.NewKeyService(nil, rm, log),
		scenarioSecret, 0).Handler()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &scenarioServer{url: ts.URL, repos: rm}
}

func (s *scenarioServer) state(t *testing.T, id uuid.UUID) servermodels.FileState {
	t.Helper()
	rec, err := s.repos.Files(nil).Find(context.Background(), id)
	require.NoError(t, err)
	return rec.State
}

func (s *scenarioServer) client(t *testing.T, user uuid.UUID) *client.HTTPClient {
	t.Helper()
	token, err := auth.GenerateToken(user, "u", []byte(scenarioSecret), time.Hour)
	require.NoError(t, err)
	return client.NewHTTPClient(s.url, token, 10*time.Second)
}

// device is one client installation: its own index, files and keystore.
type device struct {
	ix   *index.Index
	fs   afero.Fs
	api  client.Client
	keys *KeyService
}

func newDevice(t *testing.T, srv *scenarioServer, user uuid.UUID) *device {
	t.Helper()
	ks, err := keystore.Open(filepath.Join(t.TempDir(), keystore.FileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ks.Close() })

	c := srv.client(t, user)
	return &device{
		ix:   newIndex(t),
		fs:   afero.NewMemMapFs(),
		api:  c,
		keys: NewKeyService(c, ks, logging.Discard()),
	}
}

func (d *device) syncer(user uuid.UUID, priv *rsa.PrivateKey, c client.Client) *SyncService {
	return NewSyncService(d.ix, c, fakeThumbs{}, d.fs, SyncOptions{
		OwnerID: user, PrivateKey: priv, DownloadDir: "/dl", Materialize: true,
	}, logging.Discard())
}

// corruptOriginal sends a wrong checksum for the original part.
type corruptOriginal struct {
	client.Client
}

func (c corruptOriginal) Upload(ctx context.Context, id uuid.UUID, parts []client.UploadPart) (*dto.UploadResponse, error) {
	parts[0].Checksum = cryptox.ContentHash([]byte("something else"))
	return c.Client.Upload(ctx, id, parts)
}

func TestScenario_UploadThenOtherDeviceDownloads(t *testing.T) {
	ctx := context.Background()
	srv := startScenarioServer(t)
	user := uuid.New()

	a := newDevice(t, srv, user)
	priv, err := a.keys.Init(ctx, user, []byte("passphrase"))
	require.NoError(t, err)

	plain := []byte("\xff\xd8 fake jpeg payload")
	require.NoError(t, afero.WriteFile(a.fs, "/photos/a.jpg", plain, 0o600))
	require.NoError(t, a.ix.SaveDirectories(ctx, []string{"/photos"}))

	n, err := NewIndexerService(a.ix, a.fs, logging.Discard()).Index(ctx, &priv.PublicKey)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	fds, err := a.ix.FindByStatus(ctx, models.SyncStatusNew)
	require.NoError(t, err)
	id := fds[0].UUID

	report, err := a.syncer(user, priv, a.api).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Uploaded)
	assert.Equal(t, servermodels.FileStateSynced, srv.state(t, id))

	fd, err := a.ix.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, fd.SyncStatus)

	thumb, err := a.syncer(user, priv, a.api).FetchVariant(ctx, id, "small-cover")
	require.NoError(t, err)
	assert.Equal(t, append([]byte("small:"), plain...), thumb)

	// A second device with the same passphrase recovers the key and pulls the file.
	b := newDevice(t, srv, user)
	privB, err := b.keys.Init(ctx, user, []byte("passphrase"))
	require.NoError(t, err)
	assert.True(t, priv.Equal(privB))

	report, err = b.syncer(user, privB, b.api).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Downloaded)

	got, err := b.ix.Get(ctx, id)
	require.NoError(t, err)
	data, err := afero.ReadFile(b.fs, got.Path)
	require.NoError(t, err)
	assert.Equal(t, plain, data)
}

func TestScenario_FailedOriginalIsResumed(t *testing.T) {
	ctx := context.Background()
	srv := startScenarioServer(t)
	user := uuid.New()

	d := newDevice(t, srv, user)
	priv, err := d.keys.Init(ctx, user, []byte("pw"))
	require.NoError(t, err)

	plain := []byte("payload")
	require.NoError(t, afero.WriteFile(d.fs, "/photos/a.jpg", plain, 0o600))
	fd := descriptor(t, priv, "/photos/a.jpg", plain)
	require.NoError(t, d.ix.IndexFiles(ctx, []models.FileDescriptor{fd}))

	report, err := d.syncer(user, priv, corruptOriginal{d.api}).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.UploadFailed)
	assert.Equal(t, servermodels.FileStateSyncInProgress, srv.state(t, fd.UUID))

	got, err := d.ix.Get(ctx, fd.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusInProgress, got.SyncStatus)

	report, err = d.syncer(user, priv, d.api).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Uploaded)
	assert.Equal(t, servermodels.FileStateSynced, srv.state(t, fd.UUID))

	got, err = d.ix.Get(ctx, fd.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
}

func TestScenario_ConcurrentKeyInit(t *testing.T) {
	ctx := context.Background()
	srv := startScenarioServer(t)
	user := uuid.New()

	devices := []*device{newDevice(t, srv, user), newDevice(t, srv, user)}
	keys := make([]*rsa.PrivateKey, len(devices))
	errs := make([]error, len(devices))

	var wg sync.WaitGroup
	for i, d := range devices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys[i], errs[i] = d.keys.Init(ctx, user, []byte("shared"))
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.True(t, keys[0].Equal(keys[1]), "both devices must end up with the same key")

	stored, err := srv.repos.UserKeys(nil).Get(ctx, user)
	require.NoError(t, err)
	pub, err := cryptox.ParsePublicKeyPEM(stored.PublicKey)
	require.NoError(t, err)
	assert.True(t, keys[0].PublicKey.Equal(pub))
}
