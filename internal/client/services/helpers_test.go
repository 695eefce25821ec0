package services

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/client"
	"github.com/dmitrijs2005/photovault/internal/client/index"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/thumbnails"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func privateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		k, err := cryptox.GenerateKeyPair()
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

func newIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, err := index.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

// descriptor builds a New descriptor for path whose key is wrapped for priv.
func descriptor(t *testing.T, priv *rsa.PrivateKey, path string, plain []byte) models.FileDescriptor {
	t.Helper()
	key, err := cryptox.GenerateFileKey()
	require.NoError(t, err)
	wrapped, err := cryptox.WrapKey(key, &priv.PublicKey)
	require.NoError(t, err)
	return models.FileDescriptor{
		Path:        path,
		UUID:        uuid.New(),
		CapturedAt:  time.Now().UTC().Truncate(time.Second),
		ContentHash: cryptox.ContentHash(plain),
		KeyEnvelope: wrapped,
		SyncStatus:  models.SyncStatusNew,
	}
}

type fakeThumbs struct {
	err error
}

func (f fakeThumbs) Variants(ctx context.Context, id uuid.UUID, original []byte) ([]thumbnails.Variant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []thumbnails.Variant{
		{Name: thumbnails.VariantSmallCover, ContentType: thumbnails.ContentType, Data: append([]byte("small:"), original...)},
		{Name: thumbnails.VariantBigContain, ContentType: thumbnails.ContentType, Data: append([]byte("big:"), original...)},
	}, nil
}

// fakeClient is a client.Client whose methods are replaced per test.
type fakeClient struct {
	mu sync.Mutex

	listFn     func(since *time.Time) ([]dto.FileMetadata, error)
	pushFn     func(owner uuid.UUID, files []dto.FileMetadata) (int, error)
	uploadFn   func(id uuid.UUID, parts []client.UploadPart) (*dto.UploadResponse, error)
	downloadFn func(id uuid.UUID, variant string) ([]byte, string, error)
	getKeysFn  func() (*string, error)
	saveKeysFn func(priv, pub string) error

	sinces  []*time.Time
	uploads map[uuid.UUID][]client.UploadPart
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) ListMetadata(ctx context.Context, since *time.Time) ([]dto.FileMetadata, error) {
	f.mu.Lock()
	f.sinces = append(f.sinces, since)
	f.mu.Unlock()
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(since)
}

func (f *fakeClient) PushMetadata(ctx context.Context, owner uuid.UUID, files []dto.FileMetadata) (int, error) {
	if f.pushFn == nil {
		return len(files), nil
	}
	return f.pushFn(owner, files)
}

func (f *fakeClient) Upload(ctx context.Context, id uuid.UUID, parts []client.UploadPart) (*dto.UploadResponse, error) {
	f.mu.Lock()
	if f.uploads == nil {
		f.uploads = map[uuid.UUID][]client.UploadPart{}
	}
	f.uploads[id] = parts
	f.mu.Unlock()
	if f.uploadFn == nil {
		return &dto.UploadResponse{}, nil
	}
	return f.uploadFn(id, parts)
}

func (f *fakeClient) Download(ctx context.Context, id uuid.UUID, variant string) ([]byte, string, error) {
	return f.downloadFn(id, variant)
}

func (f *fakeClient) GetKeys(ctx context.Context) (*string, error) {
	return f.getKeysFn()
}

func (f *fakeClient) SaveKeys(ctx context.Context, priv, pub string) error {
	return f.saveKeysFn(priv, pub)
}

var errNotFoundKey = fmt.Errorf("no key: %w", common.ErrNotFound)

// memKeystore is an in-memory keystore.Keystore.
type memKeystore struct {
	mu   sync.Mutex
	keys map[uuid.UUID]*rsa.PrivateKey
}

func (m *memKeystore) Load(id uuid.UUID) (*rsa.PrivateKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.keys[id]; ok {
		return k, nil
	}
	return nil, errNotFoundKey
}

func (m *memKeystore) Store(id uuid.UUID, k *rsa.PrivateKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[uuid.UUID]*rsa.PrivateKey{}
	}
	m.keys[id] = k
	return nil
}
