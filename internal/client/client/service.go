package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/google/uuid"
)

// UploadPart is one encrypted asset of a file upload. Checksum is the
// transfer hash of Data.
type UploadPart struct {
	Name        string
	ContentType string
	Checksum    string
	Data        []byte
}

type Client interface {
	Ping(ctx context.Context) error
	ListMetadata(ctx context.Context, since *time.Time) ([]dto.FileMetadata, error)
	PushMetadata(ctx context.Context, ownerID uuid.UUID, files []dto.FileMetadata) (int, error)
	Upload(ctx context.Context, fileID uuid.UUID, parts []UploadPart) (*dto.UploadResponse, error)
	// Download returns the encrypted bytes of one variant and their content type.
	Download(ctx context.Context, fileID uuid.UUID, variant string) ([]byte, string, error)
	GetKeys(ctx context.Context) (*string, error)
	SaveKeys(ctx context.Context, privateKeyBlob, publicKeyPEM string) error
}
