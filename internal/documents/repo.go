package documents

import "context"

// Repo defines persistence operations for the document catalog.
type Repo interface {
	Create(ctx context.Context, doc Document) (Document, error)
	// ListByOwner returns the owner's documents, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	GetByID(ctx context.Context, ownerID, documentID string) (Document, error)
	Delete(ctx context.Context, ownerID, documentID string) error
}
