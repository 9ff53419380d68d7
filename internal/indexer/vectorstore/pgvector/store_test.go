package pgvector

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/indexer/vectorstore"
)

func newMock(t *testing.T, dim int) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := New(db, dim)
	require.NoError(t, err)
	return s, mock
}

func TestUpsertInTransaction(t *testing.T) {
	s, mock := newMock(t, 2)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO book_chunks").
		WithArgs("u-b.pdf-chunk-0", "u", "b.pdf", 0, "hello", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO book_chunks").
		WithArgs("u-b.pdf-chunk-1", "u", "b.pdf", 1, "world", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Upsert(context.Background(), []vectorstore.Record{
		{ID: "u-b.pdf-chunk-0", UserID: "u", BookName: "b.pdf", Index: 0, Text: "hello", Embedding: []float32{1, 0}},
		{ID: "u-b.pdf-chunk-1", UserID: "u", BookName: "b.pdf", Index: 1, Text: "world", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRollsBackOnError(t *testing.T) {
	s, mock := newMock(t, 1)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO book_chunks").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := s.Upsert(context.Background(), []vectorstore.Record{{ID: "a", Embedding: []float32{1}}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	s, _ := newMock(t, 3)
	err := s.Upsert(context.Background(), []vectorstore.Record{{ID: "a", Embedding: []float32{1}}})
	require.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}

func TestSearchScansMatches(t *testing.T) {
	s, mock := newMock(t, 2)
	rows := sqlmock.NewRows([]string{"id", "user_id", "book_name", "chunk_idx", "chunk_text", "score"}).
		AddRow("u-b-chunk-3", "u", "b", 3, "relevant text", 0.93)
	mock.ExpectQuery("SELECT id, user_id, book_name, chunk_idx, chunk_text, 1 - \\(embedding <=> \\$3\\) AS score FROM book_chunks").
		WithArgs("u", "b", sqlmock.AnyArg(), 1).
		WillReturnRows(rows)

	got, err := s.Search(context.Background(), "u", "b", []float32{0.5, 0.5}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "relevant text", got[0].Text)
	assert.Equal(t, 3, got[0].Index)
	assert.InDelta(t, 0.93, got[0].Score, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBookReportsRows(t *testing.T) {
	s, mock := newMock(t, 2)
	mock.ExpectExec("DELETE FROM book_chunks WHERE user_id = \\$1 AND book_name = \\$2").
		WithArgs("u", "b").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := s.DeleteBook(context.Background(), "u", "b")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBooksDistinctSorted(t *testing.T) {
	s, mock := newMock(t, 2)
	mock.ExpectQuery("SELECT DISTINCT book_name FROM book_chunks").
		WithArgs("u").
		WillReturnRows(sqlmock.NewRows([]string{"book_name"}).AddRow("a.pdf").AddRow("b.pdf"))

	books, err := s.Books(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, books)
	require.NoError(t, mock.ExpectationsWereMet())
}
