package qa

import (
	"context"
	"strings"
)

// Repo defines persistence operations for QA records.
type Repo interface {
	// Create stores a record, assigning ID and Timestamp when empty.
	Create(ctx context.Context, rec Record) (Record, error)
	// ListByDocument returns the owner's records for a document name, newest first.
	ListByDocument(ctx context.Context, ownerID, documentName string) ([]Record, error)
}

func validate(rec Record) error {
	if strings.TrimSpace(rec.OwnerID) == "" || strings.TrimSpace(rec.DocumentName) == "" || strings.TrimSpace(rec.Question) == "" {
		return ErrInvalidInput
	}
	return nil
}
