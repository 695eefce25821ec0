package files

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository keeps records in a map. It backs tests and the
// single-process server mode without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.FileRecord
	now     func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[uuid.UUID]models.FileRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok, nil
}

func (r *InMemoryRepository) Find(_ context.Context, id uuid.UUID) (*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *InMemoryRepository) Save(_ context.Context, rec *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.UUID]; ok {
		return common.ErrAlreadyExists
	}
	rec.State = models.FileStateNew
	rec.AddedAt = r.now()
	rec.SyncedAt = nil
	r.records[rec.UUID] = *cloneRecord(*rec)
	return nil
}

func (r *InMemoryRepository) UpdateState(_ context.Context, id uuid.UUID, state models.FileState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return common.ErrNotFound
	}
	if !rec.State.CanAdvanceTo(state) {
		return fmt.Errorf("file %s to %s: %w", id, state, common.ErrStateRegression)
	}
	rec.State = state
	if state == models.FileStateSynced && rec.SyncedAt == nil {
		t := r.now()
		rec.SyncedAt = &t
	}
	r.records[id] = rec
	return nil
}

func (r *InMemoryRepository) ListSince(_ context.Context, ownerID uuid.UUID, since *time.Time) ([]*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.FileRecord
	for _, rec := range r.records {
		if rec.OwnerID != ownerID || rec.State != models.FileStateSynced || rec.SyncedAt == nil {
			continue
		}
		if since != nil && !rec.SyncedAt.After(*since) {
			continue
		}
		result = append(result, cloneRecord(rec))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SyncedAt.Equal(*result[j].SyncedAt) {
			return result[i].UUID.String() < result[j].UUID.String()
		}
		return result[i].SyncedAt.Before(*result[j].SyncedAt)
	})
	return result, nil
}

func cloneRecord(rec models.FileRecord) *models.FileRecord {
	if rec.SyncedAt != nil {
		t := *rec.SyncedAt
		rec.SyncedAt = &t
	}
	return &rec
}
