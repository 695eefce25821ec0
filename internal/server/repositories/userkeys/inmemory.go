package userkeys

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/google/uuid"
)

type InMemoryRepository struct {
	mu   sync.Mutex
	keys map[uuid.UUID]models.UserKeys
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{keys: make(map[uuid.UUID]models.UserKeys)}
}

func (r *InMemoryRepository) Get(_ context.Context, userID uuid.UUID) (*models.UserKeys, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &k, nil
}

func (r *InMemoryRepository) Save(_ context.Context, keys *models.UserKeys) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[keys.UserID]; ok {
		return common.ErrKeysExist
	}
	k := *keys
	k.CreatedAt = time.Now().UTC()
	r.keys[keys.UserID] = k
	return nil
}
