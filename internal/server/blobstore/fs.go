package blobstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/spf13/afero"
)

// contentTypeSuffix names the sidecar file holding a blob's content type.
const contentTypeSuffix = ".ct"

// FSStore keeps blobs as files under a root directory of an afero filesystem.
type FSStore struct {
	fs   afero.Fs
	root string
	mu   sync.RWMutex
}

func NewFSStore(fs afero.Fs, root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("empty root: %w", ErrInvalidKey)
	}
	if err := fs.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FSStore{fs: fs, root: root}, nil
}

func (s *FSStore) blobPath(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || clean != "/"+key || strings.HasSuffix(key, contentTypeSuffix) {
		return "", fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *FSStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	p, err := s.blobPath(key)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o600); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, p+contentTypeSuffix, []byte(contentType), 0o600); err != nil {
		return fmt.Errorf("write content type %s: %w", key, err)
	}
	return nil
}

func (s *FSStore) Get(_ context.Context, key string) (*Blob, error) {
	p, err := s.blobPath(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}

	ct, err := afero.ReadFile(s.fs, p+contentTypeSuffix)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read content type %s: %w", key, err)
	}
	contentType := strings.TrimSpace(string(ct))
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &Blob{Data: data, ContentType: contentType}, nil
}
