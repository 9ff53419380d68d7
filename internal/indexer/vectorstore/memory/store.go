package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"library-backend/internal/indexer/vectorstore"
)

// Store is an in-memory vector store using brute-force cosine similarity.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]vectorstore.Record
}

func New(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	return &Store{dimension: dimension, records: make(map[string]vectorstore.Record)}, nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return fmt.Errorf("record %s: %w", r.ID, vectorstore.ErrDimensionMismatch)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Embedding = append([]float32(nil), r.Embedding...)
		s.records[r.ID] = r
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
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []vectorstore.Match
	for _, r := range s.records {
		if r.UserID != userID || r.BookName != bookName {
			continue
		}
		matches = append(matches, vectorstore.Match{Record: r, Score: cosine(r.Embedding, vector)})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Index < matches[j].Index
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) Chunks(ctx context.Context, userID, bookName string, limit int) ([]vectorstore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filter(userID, bookName)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteBook(ctx context.Context, userID, bookName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.records {
		if r.UserID == userID && r.BookName == bookName {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Books(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, r := range s.records {
		if r.UserID == userID {
			seen[r.BookName] = struct{}{}
		}
	}
	books := make([]string, 0, len(seen))
	for b := range seen {
		books = append(books, b)
	}
	sort.Strings(books)
	return books, nil
}

func (s *Store) filter(userID, bookName string) []vectorstore.Record {
	var out []vectorstore.Record
	for _, r := range s.records {
		if r.UserID == userID && r.BookName == bookName {
			out = append(out, r)
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ vectorstore.Store = (*Store)(nil)
