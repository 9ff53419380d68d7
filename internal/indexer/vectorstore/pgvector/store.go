// Package pgvector stores chunk embeddings in Postgres using the vector extension.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"library-backend/internal/indexer/vectorstore"
)

// Store is backed by the book_chunks table created by the embedded migrations.
type Store struct {
	db        *sql.DB
	dimension int
}

func New(db *sql.DB, dimension int) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("pgvector: db is nil")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("pgvector: invalid dimension %d", dimension)
	}
	return &Store{db: db, dimension: dimension}, nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return fmt.Errorf("record %s: %w", r.ID, vectorstore.ErrDimensionMismatch)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO book_chunks (id, user_id, book_name, chunk_idx, chunk_text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			chunk_text = EXCLUDED.chunk_text,
			embedding = EXCLUDED.embedding`
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, q, r.ID, r.UserID, r.BookName, r.Index, r.Text, pgvector.NewVector(r.Embedding)); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, userID, bookName string, vector []float32, topK int) ([]vectorstore.Match, error) {
	if len(vector) != s.dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}
	if topK <= 0 {
		topK = 1
	}
	const q = `
		SELECT id, user_id, book_name, chunk_idx, chunk_text, 1 - (embedding <=> $3) AS score
		FROM book_chunks
		WHERE user_id = $1 AND book_name = $2
		ORDER BY embedding <=> $3
		LIMIT $4`
	rows, err := s.db.QueryContext(ctx, q, userID, bookName, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []vectorstore.Match
	for rows.Next() {
		var m vectorstore.Match
		if err := rows.Scan(&m.ID, &m.UserID, &m.BookName, &m.Index, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Chunks(ctx context.Context, userID, bookName string, limit int) ([]vectorstore.Record, error) {
	if limit <= 0 {
		limit = 1000
	}
	const q = `
		SELECT id, user_id, book_name, chunk_idx, chunk_text
		FROM book_chunks
		WHERE user_id = $1 AND book_name = $2
		ORDER BY chunk_idx
		LIMIT $3`
	rows, err := s.db.QueryContext(ctx, q, userID, bookName, limit)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var out []vectorstore.Record
	for rows.Next() {
		var r vectorstore.Record
		if err := rows.Scan(&r.ID, &r.UserID, &r.BookName, &r.Index, &r.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteBook(ctx context.Context, userID, bookName string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM book_chunks WHERE user_id = $1 AND book_name = $2`, userID, bookName)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete chunks rows: %w", err)
	}
	return int(n), nil
}

func (s *Store) Books(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT book_name FROM book_chunks WHERE user_id = $1 ORDER BY book_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

var _ vectorstore.Store = (*Store)(nil)
