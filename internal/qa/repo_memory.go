package qa

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{now: func() time.Time { return time.Now().UTC() }}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validate(rec); err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *MemoryRepo) ListByDocument(ctx context.Context, ownerID, documentName string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Record{}
	for _, rec := range r.records {
		if rec.OwnerID == ownerID && rec.DocumentName == documentName {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()
	SortNewestFirst(out)
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
