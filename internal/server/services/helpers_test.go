package services

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/blobstore"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type slicePartReader struct {
	parts []*Part
	err   error
}

func (r *slicePartReader) NextPart() (*Part, error) {
	if len(r.parts) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	p := r.parts[0]
	r.parts = r.parts[1:]
	return p, nil
}

func part(name string, data []byte) *Part {
	return &Part{Name: name, Checksum: cryptox.ContentHash(data), ContentType: "image/jpeg", Body: bytes.NewReader(data)}
}

type fixture struct {
	svc   *FileService
	keys  *KeyService
	rm    *repomanager.InMemoryRepositoryManager
	blobs *blobstore.FSStore
	owner uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rm := repomanager.NewInMemoryRepositoryManager()
	blobs, err := blobstore.NewFSStore(afero.NewMemMapFs(), "/blobs")
	require.NoError(t, err)
	log := logging.Discard()
	return &fixture{
		svc:   NewFileService(nil, rm, blobs, log),
		keys:  NewKeyService(nil, rm, log),
		rm:    rm,
		blobs: blobs,
		owner: uuid.New(),
	}
}

func metadata(id uuid.UUID) dto.FileMetadata {
	return dto.FileMetadata{
		Path:   "/home/u/Pictures/IMG_0001.jpg",
		UUID:   id,
		Date:   time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC),
		SHA256: "H1",
		Key:    "K1",
	}
}

func (f *fixture) push(t *testing.T, ids ...uuid.UUID) {
	t.Helper()
	req := &dto.FilesUploadRequest{OwnerID: f.owner}
	for _, id := range ids {
		req.Files = append(req.Files, metadata(id))
	}
	_, err := f.svc.PushMetadata(context.Background(), f.owner, req)
	require.NoError(t, err)
}
