package calllog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and for running
// without a database.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()
	r.records = append(r.records, *rec)
	return nil
}

func (r *MemoryRepository) GetByCallID(_ context.Context, callID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.records {
		if r.records[i].CallID == callID {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) RecentByPhone(_ context.Context, phone string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Record
	for i := range r.records {
		if r.records[i].Phone == phone {
			out = append(out, r.records[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
