// Package indexer is the reference Indexing Service: it extracts text from
// uploaded books, embeds fixed-size chunks and answers questions from the
// closest chunk.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"library-backend/internal/extract"
	"library-backend/internal/indexer/vectorstore"
	"library-backend/internal/shared/telemetry"
)

const (
	DefaultBatchSize  = 50
	DefaultChunkLimit = 100
)

type Config struct {
	ChunkSize int
	BatchSize int
	// Extract pulls text out of an upload. Defaults to extract.PDFText.
	Extract func(ctx context.Context, data []byte) (string, error)
}

type Service struct {
	embed  Embedder
	store  vectorstore.Store
	answer Answerer
	cfg    Config
}

func NewService(embed Embedder, store vectorstore.Store, answer Answerer, cfg Config) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = extract.DefaultChunkSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Extract == nil {
		cfg.Extract = extract.PDFText
	}
	if answer == nil {
		answer = ExcerptAnswerer{}
	}
	return &Service{embed: embed, store: store, answer: answer, cfg: cfg}
}

// IndexBook embeds the PDF under (userID, bookName). A book that already has
// chunks is left untouched.
func (s *Service) IndexBook(ctx context.Context, userID, bookName string, data []byte) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(bookName) == "" {
		return "", ErrInvalidInput
	}

	existing, err := s.store.Chunks(ctx, userID, bookName, 1)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return fmt.Sprintf("'%s' already indexed for %s.", bookName, userID), nil
	}

	text, err := s.cfg.Extract(ctx, data)
	if err != nil {
		if errors.Is(err, extract.ErrEmpty) || errors.Is(err, extract.ErrNotPDF) {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	chunks := extract.Chunk(text, s.cfg.ChunkSize)
	if len(chunks) == 0 {
		return "", ErrUnreadable
	}

	start := time.Now()
	batch := make([]vectorstore.Record, 0, s.cfg.BatchSize)
	for i, chunk := range chunks {
		vec, err := s.embed.Embed(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("embed chunk %d/%d: %w", i+1, len(chunks), err)
		}
		batch = append(batch, vectorstore.Record{
			ID:        ChunkID(userID, bookName, i),
			UserID:    userID,
			BookName:  bookName,
			Index:     i,
			Text:      chunk,
			Embedding: vec,
		})
		if len(batch) == s.cfg.BatchSize {
			if err := s.store.Upsert(ctx, batch); err != nil {
				return "", err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.store.Upsert(ctx, batch); err != nil {
			return "", err
		}
	}

	telemetry.Info("indexer.book_indexed", map[string]any{
		"user_id":    userID,
		"book_name":  bookName,
		"chunks":     len(chunks),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return fmt.Sprintf("Indexed '%s' for %s.", bookName, userID), nil
}

// Ask answers query from the single closest chunk of the book.
func (s *Service) Ask(ctx context.Context, userID, bookName, query string) (string, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(bookName) == "" || strings.TrimSpace(query) == "" {
		return "", ErrInvalidInput
	}
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.store.Search(ctx, userID, bookName, vec, 1)
	if err != nil {
		return "", err
	}
	telemetry.Info("indexer.ask", map[string]any{
		"user_id":   userID,
		"book_name": bookName,
		"matches":   len(matches),
	})
	if len(matches) == 0 {
		return "", ErrNoMatch
	}
	answer, err := s.answer.Answer(ctx, query, matches[0].Text)
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return answer, nil
}

// DeleteBook removes every chunk of the book. ErrNotIndexed when none existed.
func (s *Service) DeleteBook(ctx context.Context, userID, bookName string) (string, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(bookName) == "" {
		return "", ErrInvalidInput
	}
	n, err := s.store.DeleteBook(ctx, userID, bookName)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrNotIndexed
	}
	return fmt.Sprintf("Deleted all chunks for book '%s' and user '%s'.", bookName, userID), nil
}

func (s *Service) Books(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	return s.store.Books(ctx, userID)
}

func (s *Service) Chunks(ctx context.Context, userID, bookName string) ([]vectorstore.Record, error) {
	return s.store.Chunks(ctx, userID, bookName, DefaultChunkLimit)
}

// ChunkID is the stable id of chunk i of a user's book.
func ChunkID(userID, bookName string, i int) string {
	return fmt.Sprintf("%s-%s-chunk-%d", userID, bookName, i)
}
