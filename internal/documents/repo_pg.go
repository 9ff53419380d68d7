package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, owner_id, name, size_bytes, file_handle, content_type, uploaded_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) (Document, error) {
	const query = `
INSERT INTO documents (
    id,
    owner_id,
    name,
    size_bytes,
    file_handle,
    content_type,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if err := validate(doc); err != nil {
		return Document{}, err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.ContentType == "" {
		doc.ContentType = "application/pdf"
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		doc.Name,
		doc.SizeBytes,
		doc.FileHandle,
		doc.ContentType,
		doc.UploadedAt,
	)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ListByOwner lists documents ordered newest-first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	query := `
SELECT ` + selectColumns + `
FROM documents
WHERE owner_id = $1
ORDER BY uploaded_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// GetByID fetches a document by ID for an owner.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, documentID string) (Document, error) {
	query := `
SELECT ` + selectColumns + `
FROM documents
WHERE owner_id = $1 AND id = $2
LIMIT 1`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, ownerID, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// Delete removes a document row.
func (r *PGRepo) Delete(ctx context.Context, ownerID, documentID string) error {
	const query = `DELETE FROM documents WHERE owner_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, ownerID, documentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var contentType sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Name,
		&doc.SizeBytes,
		&doc.FileHandle,
		&contentType,
		&doc.UploadedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if contentType.Valid {
		doc.ContentType = contentType.String
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
