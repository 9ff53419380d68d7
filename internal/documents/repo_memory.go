package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // ownerID -> documents
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Document),
	}
}

// Create assigns an ID when missing and stores the document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if err := validate(doc); err != nil {
		return Document{}, err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.OwnerID] = append(r.data[doc.OwnerID], doc)
	return doc, nil
}

// ListByOwner returns documents for an owner, newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	docs := make([]Document, len(r.data[ownerID]))
	copy(docs, r.data[ownerID])
	r.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

// GetByID returns a document by ID for an owner.
func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.data[ownerID] {
		if doc.ID == documentID {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

// Delete removes a document by ID for an owner.
func (r *MemoryRepo) Delete(ctx context.Context, ownerID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[ownerID]
	for i := range docs {
		if docs[i].ID == documentID {
			r.data[ownerID] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func validate(doc Document) error {
	if strings.TrimSpace(doc.OwnerID) == "" || strings.TrimSpace(doc.Name) == "" || doc.FileHandle == "" {
		return ErrInvalidInput
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
