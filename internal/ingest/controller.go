// Package ingest coordinates writes across the object store, the indexing
// service and the catalog for one signed-in owner.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync/atomic"
	"time"

	"library-backend/internal/documents"
	"library-backend/internal/indexing"
	"library-backend/internal/progress"
	"library-backend/internal/session"
	"library-backend/internal/shared/apperr"
	"library-backend/internal/shared/metrics"
	"library-backend/internal/shared/storage/object"
	"library-backend/internal/shared/telemetry"
	"library-backend/internal/shared/util"
)

// MaxUploadBytes is the largest PDF accepted for ingestion.
const MaxUploadBytes = 20 << 20

const pdfContentType = "application/pdf"

// Indexer is the subset of the indexing service the controller needs.
type Indexer interface {
	IndexBook(ctx context.Context, userID, bookName string, body io.Reader) (string, error)
	DeleteBook(ctx context.Context, userID, bookName string) error
	Ask(ctx context.Context, userID, bookName, query string) (string, error)
	ListBooks(ctx context.Context, userID string) ([]string, error)
	IndexedChunks(ctx context.Context, userID, bookName string) ([]indexing.Chunk, error)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Store   object.ObjectStore
	Index   Indexer
	Catalog documents.Repo

	ProgressInterval time.Duration
	ProgressOptions  []progress.Option
}

// Upload is a file selected for ingestion.
type Upload struct {
	Name        string
	ContentType string
	// SizeBytes is the declared size; zero when unknown.
	SizeBytes int64
	Body      io.Reader
}

// Controller runs ingest, delete and question flows for one owner.
type Controller struct {
	sess     session.Session
	deps     Deps
	inFlight atomic.Bool
}

// NewController validates deps and binds them to sess.
func NewController(sess session.Session, deps Deps) (*Controller, error) {
	if !sess.Valid() {
		return nil, session.ErrNoSession
	}
	if deps.Store == nil || deps.Index == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("ingest: store, index and catalog are required")
	}
	return &Controller{sess: sess, deps: deps}, nil
}

// Session returns the owner the controller is bound to.
func (c *Controller) Session() session.Session {
	return c.sess
}

// Ingest stores, indexes and catalogs a PDF, in that order. onProgress receives
// a synthetic estimate capped at progress.Ceiling and progress.Done once all
// three writes have succeeded. A failure in a later phase does not undo earlier ones.
func (c *Controller) Ingest(ctx context.Context, up Upload, onProgress func(float64)) (documents.Document, error) {
	const op = "ingest"

	name := strings.TrimSpace(up.Name)
	if err := validateUpload(name, up); err != nil {
		return documents.Document{}, err
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return documents.Document{}, &apperr.Error{Kind: apperr.KindValidation, Op: op, Message: msgInFlight, Err: ErrIngestInFlight}
	}
	defer c.inFlight.Store(false)

	data, err := io.ReadAll(io.LimitReader(up.Body, MaxUploadBytes+1))
	if err != nil {
		return documents.Document{}, apperr.Transport(op, msgObjectFailed, fmt.Errorf("read upload: %w", err))
	}
	if len(data) == 0 {
		return documents.Document{}, apperr.Validation(op, msgEmptyFile)
	}
	if len(data) > MaxUploadBytes {
		return documents.Document{}, apperr.Validation(op, msgTooLarge)
	}

	owner := c.sess.OwnerID
	started := time.Now()
	metrics.IncIngestStarted()

	est := progress.Start(c.deps.ProgressInterval, onProgress, c.deps.ProgressOptions...)
	defer est.Stop()

	fail := func(err error) (documents.Document, error) {
		metrics.IncIngestFailed()
		metrics.ObserveIngestDurationMs(float64(time.Since(started).Milliseconds()))
		return documents.Document{}, err
	}

	handle, size, _, err := c.deps.Store.Save(ctx, owner, name, bytes.NewReader(data))
	if err != nil {
		telemetry.Error("ingest.object_failed", map[string]any{"ownerId": owner, "name": name, "err": err.Error()})
		return fail(apperr.Transport(op, msgObjectFailed, err))
	}

	if _, err := c.deps.Index.IndexBook(ctx, owner, name, bytes.NewReader(data)); err != nil {
		c.logOrphan("index", owner, name, handle, err)
		return fail(apperr.Indexing(op, msgIndexFailed, err))
	}

	doc, err := c.deps.Catalog.Create(ctx, documents.Document{
		OwnerID:     owner,
		Name:        name,
		SizeBytes:   size,
		FileHandle:  handle,
		ContentType: pdfContentType,
		UploadedAt:  time.Now().UTC(),
	})
	if err != nil {
		c.logOrphan("catalog", owner, name, handle, err)
		return fail(apperr.Transport(op, msgCatalogFailed, err))
	}

	est.Complete()
	metrics.IncIngestCompleted()
	metrics.ObserveIngestDurationMs(float64(time.Since(started).Milliseconds()))
	telemetry.Info("ingest.completed", map[string]any{
		"ownerId":    owner,
		"documentId": doc.ID,
		"name":       name,
		"sizeBytes":  size,
		"sha256":     util.ContentDigest(data),
		"durationMs": time.Since(started).Milliseconds(),
	})
	return doc, nil
}

func validateUpload(name string, up Upload) error {
	const op = "ingest"
	mediaType, _, err := mime.ParseMediaType(up.ContentType)
	if err != nil || mediaType != pdfContentType {
		return apperr.Validation(op, msgInvalidPDF)
	}
	if name == "" {
		return apperr.Validation(op, msgMissingName)
	}
	if up.Body == nil {
		return apperr.Validation(op, msgEmptyFile)
	}
	if up.SizeBytes > MaxUploadBytes {
		return apperr.Validation(op, msgTooLarge)
	}
	return nil
}

func (c *Controller) logOrphan(phase, owner, name, handle string, err error) {
	metrics.IncIngestOrphanedObject()
	telemetry.Warn("ingest.orphaned_object", map[string]any{
		"phase":      phase,
		"ownerId":    owner,
		"name":       name,
		"fileHandle": handle,
		"err":        err.Error(),
	})
}

// DeleteDocument removes a document from the indexing service, the object
// store and the catalog, in that order. Every step is attempted; an index
// failure is logged only.
func (c *Controller) DeleteDocument(ctx context.Context, fileHandle, documentID, displayName string) error {
	const op = "delete"
	owner := c.sess.OwnerID

	if err := c.deps.Index.DeleteBook(ctx, owner, displayName); err != nil {
		fields := map[string]any{"ownerId": owner, "documentId": documentID, "name": displayName, "err": err.Error()}
		if errors.Is(err, indexing.ErrNotIndexed) {
			telemetry.Info("delete.index_missing", fields)
		} else {
			telemetry.Warn("delete.index_failed", fields)
		}
	}

	var errs []error
	if err := c.deps.Store.Delete(ctx, fileHandle); err != nil {
		errs = append(errs, fmt.Errorf("object delete: %w", err))
	}
	if err := c.deps.Catalog.Delete(ctx, owner, documentID); err != nil && !errors.Is(err, documents.ErrNotFound) {
		errs = append(errs, fmt.Errorf("catalog delete: %w", err))
	}
	if len(errs) > 0 {
		joined := errors.Join(errs...)
		telemetry.Error("delete.failed", map[string]any{"ownerId": owner, "documentId": documentID, "err": joined.Error()})
		return apperr.Transport(op, msgDeleteFailed, joined)
	}

	telemetry.Info("delete.completed", map[string]any{"ownerId": owner, "documentId": documentID})
	return nil
}

// AskQuestion asks the indexing service about one document. The caller is
// responsible for persisting the exchange.
func (c *Controller) AskQuestion(ctx context.Context, documentName, question string) (string, error) {
	const op = "ask"
	documentName = strings.TrimSpace(documentName)
	question = strings.TrimSpace(question)
	if documentName == "" {
		return "", apperr.Validation(op, msgMissingDocument)
	}
	if question == "" {
		return "", apperr.Validation(op, msgEmptyQuestion)
	}

	answer, err := c.deps.Index.Ask(ctx, c.sess.OwnerID, documentName, question)
	if err != nil {
		if errors.Is(err, indexing.ErrNoRelevantContent) {
			return "", apperr.NoRelevantContent(op, msgNoRelevantContent, err)
		}
		return "", apperr.Transport(op, msgAskFailed, err)
	}
	return answer, nil
}

// ListDocuments returns the owner's catalog, newest first.
func (c *Controller) ListDocuments(ctx context.Context) ([]documents.Document, error) {
	docs, err := c.deps.Catalog.ListByOwner(ctx, c.sess.OwnerID)
	if err != nil {
		return nil, apperr.Transport("list", msgListFailed, err)
	}
	return docs, nil
}

// GetDocument returns one catalog entry. documents.ErrNotFound is returned unchanged.
func (c *Controller) GetDocument(ctx context.Context, documentID string) (documents.Document, error) {
	doc, err := c.deps.Catalog.GetByID(ctx, c.sess.OwnerID, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return documents.Document{}, err
		}
		return documents.Document{}, apperr.Transport("get", msgListFailed, err)
	}
	return doc, nil
}

// ViewURL returns a dereferenceable URL for a stored file.
func (c *Controller) ViewURL(ctx context.Context, fileHandle string) (string, error) {
	u, err := c.deps.Store.URL(ctx, fileHandle)
	if err != nil {
		return "", apperr.Transport("view", msgViewFailed, err)
	}
	return u, nil
}

// OpenFile streams a stored file.
func (c *Controller) OpenFile(ctx context.Context, fileHandle string) (io.ReadCloser, error) {
	rc, err := c.deps.Store.Open(ctx, fileHandle)
	if err != nil {
		return nil, apperr.Transport("open", msgViewFailed, err)
	}
	return rc, nil
}

// IndexedBooks lists the book names the indexing service holds for the owner.
func (c *Controller) IndexedBooks(ctx context.Context) ([]string, error) {
	books, err := c.deps.Index.ListBooks(ctx, c.sess.OwnerID)
	if err != nil {
		return nil, apperr.Transport("books", msgListFailed, err)
	}
	return books, nil
}

// IndexedChunks returns the text fragments the indexing service stored for
// one of the owner's books.
func (c *Controller) IndexedChunks(ctx context.Context, bookName string) ([]indexing.Chunk, error) {
	if strings.TrimSpace(bookName) == "" {
		return nil, apperr.Validation("chunks", msgMissingDocument)
	}
	chunks, err := c.deps.Index.IndexedChunks(ctx, c.sess.OwnerID, bookName)
	if err != nil {
		return nil, apperr.Transport("chunks", msgChunksFailed, err)
	}
	return chunks, nil
}
