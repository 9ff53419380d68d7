package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving, retrieving and removing binary objects.
// The storage key returned by Save is the stable file handle for the object.
type ObjectStore interface {
	Save(ctx context.Context, userId string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, storageKey string) error
	// URL returns a dereferenceable location for viewing the object.
	URL(ctx context.Context, storageKey string) (string, error)
}
