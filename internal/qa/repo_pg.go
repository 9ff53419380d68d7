package qa

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a QA record.
func (r *PGRepo) Create(ctx context.Context, rec Record) (Record, error) {
	const query = `
INSERT INTO qa_records (id, owner_id, document_name, question, answer, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if err := validate(rec); err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	if _, err := r.DB.ExecContext(ctx, query, rec.ID, rec.OwnerID, rec.DocumentName, rec.Question, rec.Answer, rec.Timestamp); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByDocument lists records for an owner's document name, newest first.
func (r *PGRepo) ListByDocument(ctx context.Context, ownerID, documentName string) ([]Record, error) {
	const query = `
SELECT id, owner_id, document_name, question, answer, created_at
FROM qa_records
WHERE owner_id = $1 AND document_name = $2
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, documentName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.DocumentName, &rec.Question, &rec.Answer, &rec.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
