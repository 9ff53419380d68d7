package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/extract"
	"library-backend/internal/indexer/vectorstore"
	"library-backend/internal/indexer/vectorstore/memory"
)

const testDim = 64

type countingStore struct {
	vectorstore.Store
	upserts []int
}

func (c *countingStore) Upsert(ctx context.Context, records []vectorstore.Record) error {
	c.upserts = append(c.upserts, len(records))
	return c.Store.Upsert(ctx, records)
}

type echoAnswerer struct {
	question, excerpt string
}

func (e *echoAnswerer) Answer(ctx context.Context, question, excerpt string) (string, error) {
	e.question, e.excerpt = question, excerpt
	return "answer: " + strings.TrimSpace(excerpt), nil
}

func plainText(text string) func(context.Context, []byte) (string, error) {
	return func(context.Context, []byte) (string, error) { return text, nil }
}

func newTestService(t *testing.T, text string, answer Answerer) (*Service, *countingStore) {
	t.Helper()
	mem, err := memory.New(testDim)
	require.NoError(t, err)
	store := &countingStore{Store: mem}
	svc := NewService(HashEmbedder{Dimension: testDim}, store, answer, Config{ChunkSize: 10, Extract: plainText(text)})
	return svc, store
}

func TestIndexBookBatchesUpserts(t *testing.T) {
	text := strings.Repeat("abcdefghij", 120)
	svc, store := newTestService(t, text, nil)

	status, err := svc.IndexBook(context.Background(), "u1", "book.pdf", []byte("%PDF-"))
	require.NoError(t, err)
	assert.Equal(t, "Indexed 'book.pdf' for u1.", status)
	assert.Equal(t, []int{50, 50, 20}, store.upserts)

	chunks, err := svc.Chunks(context.Background(), "u1", "book.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, DefaultChunkLimit)
	assert.Equal(t, ChunkID("u1", "book.pdf", 0), chunks[0].ID)
}

func TestIndexBookSkipsAlreadyIndexed(t *testing.T) {
	svc, store := newTestService(t, "some readable text in the book", nil)
	ctx := context.Background()

	_, err := svc.IndexBook(ctx, "u1", "book.pdf", []byte("x"))
	require.NoError(t, err)
	before := len(store.upserts)

	status, err := svc.IndexBook(ctx, "u1", "book.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "'book.pdf' already indexed for u1.", status)
	assert.Len(t, store.upserts, before)
}

func TestIndexBookExtractErrors(t *testing.T) {
	mem, _ := memory.New(testDim)
	tests := []struct {
		name string
		fn   func(context.Context, []byte) (string, error)
		want error
	}{
		{name: "not pdf", fn: func(context.Context, []byte) (string, error) { return "", extract.ErrNotPDF }, want: ErrInvalidInput},
		{name: "malformed", fn: func(context.Context, []byte) (string, error) { return "", errors.New("bad xref") }, want: ErrUnreadable},
		{name: "blank text", fn: plainText("   \n  "), want: ErrUnreadable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(HashEmbedder{Dimension: testDim}, mem, nil, Config{Extract: tt.fn})
			_, err := svc.IndexBook(context.Background(), "u", "b.pdf", []byte("x"))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAskUsesClosestChunk(t *testing.T) {
	ans := &echoAnswerer{}
	mem, _ := memory.New(testDim)
	svc := NewService(HashEmbedder{Dimension: testDim}, mem, ans, Config{ChunkSize: 40, Extract: plainText(
		fmt.Sprintf("%-40s%-40s", "whales migrate across oceans", "refunds within thirty days"),
	)})
	ctx := context.Background()
	_, err := svc.IndexBook(ctx, "u", "b.pdf", []byte("x"))
	require.NoError(t, err)

	got, err := svc.Ask(ctx, "u", "b.pdf", "refunds thirty days")
	require.NoError(t, err)
	assert.Equal(t, "answer: refunds within thirty days", got)
	assert.Equal(t, "refunds thirty days", ans.question)
}

func TestAskNoMatch(t *testing.T) {
	svc, _ := newTestService(t, "text", nil)
	_, err := svc.Ask(context.Background(), "u", "missing.pdf", "anything")
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestDeleteBookNotIndexed(t *testing.T) {
	svc, _ := newTestService(t, "some text here", nil)
	ctx := context.Background()
	_, err := svc.DeleteBook(ctx, "u", "b.pdf")
	require.ErrorIs(t, err, ErrNotIndexed)

	_, err = svc.IndexBook(ctx, "u", "b.pdf", []byte("x"))
	require.NoError(t, err)
	status, err := svc.DeleteBook(ctx, "u", "b.pdf")
	require.NoError(t, err)
	assert.Contains(t, status, "Deleted all chunks for book 'b.pdf'")
}

func TestHashEmbedderNormalized(t *testing.T) {
	v, err := HashEmbedder{Dimension: 16}.Embed(context.Background(), "The quick brown fox")
	require.NoError(t, err)
	require.Len(t, v, 16)
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)

	again, _ := HashEmbedder{Dimension: 16}.Embed(context.Background(), "the QUICK brown fox!")
	assert.Equal(t, v, again)
}
