package documents

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	older, err := repo.Create(ctx, Document{OwnerID: "u1", Name: "a.pdf", FileHandle: "h1", UploadedAt: base})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if older.ID == "" {
		t.Fatalf("expected ID to be assigned")
	}
	newer, err := repo.Create(ctx, Document{OwnerID: "u1", Name: "a.pdf", FileHandle: "h2", UploadedAt: base.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Create duplicate name: %v", err)
	}
	if _, err := repo.Create(ctx, Document{OwnerID: "u2", Name: "b.pdf", FileHandle: "h3"}); err != nil {
		t.Fatalf("Create other owner: %v", err)
	}

	docs, err := repo.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != newer.ID || docs[1].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", docs)
	}

	if _, err := repo.GetByID(ctx, "u2", older.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across owners, got %v", err)
	}

	if err := repo.Delete(ctx, "u1", older.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "u1", older.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	docs, _ = repo.ListByOwner(ctx, "u1")
	if len(docs) != 1 || docs[0].ID != newer.ID {
		t.Fatalf("unexpected docs after delete: %+v", docs)
	}
}

func TestMemoryRepoCreateValidates(t *testing.T) {
	repo := NewMemoryRepo()
	tests := []struct {
		name string
		doc  Document
	}{
		{name: "missing owner", doc: Document{Name: "a.pdf", FileHandle: "h"}},
		{name: "missing name", doc: Document{OwnerID: "u1", Name: "  ", FileHandle: "h"}},
		{name: "missing handle", doc: Document{OwnerID: "u1", Name: "a.pdf"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Create(context.Background(), tt.doc); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
