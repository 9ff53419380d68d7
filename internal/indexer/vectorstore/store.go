// Package vectorstore holds indexed book chunks and their embeddings.
package vectorstore

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when an embedding has the wrong length.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Record is one embedded chunk of a user's book.
type Record struct {
	ID        string
	UserID    string
	BookName  string
	Index     int
	Text      string
	Embedding []float32
}

// Match is a search hit with its cosine similarity.
type Match struct {
	Record
	Score float64
}

// Store persists chunk records and answers similarity queries scoped to a
// (user, book) pair.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, userID, bookName string, vector []float32, topK int) ([]Match, error)
	// Chunks lists stored chunks in chunk order, up to limit.
	Chunks(ctx context.Context, userID, bookName string, limit int) ([]Record, error)
	// DeleteBook removes every chunk of the book and reports how many were removed.
	DeleteBook(ctx context.Context, userID, bookName string) (int, error)
	// Books returns the distinct book names of a user, sorted.
	Books(ctx context.Context, userID string) ([]string, error)
}
