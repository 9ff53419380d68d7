// Package qacache keeps a per-document view of QA history backed by the
// catalog and mirrored to a local durable snapshot.
package qacache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"library-backend/internal/qa"
	"library-backend/internal/session"
	"library-backend/internal/shared/apperr"
	"library-backend/internal/shared/metrics"
	"library-backend/internal/shared/storage/kv"
	"library-backend/internal/shared/telemetry"
)

const snapshotPrefix = "qaHistory_"

const (
	msgSyncFailed    = "Could not refresh question history; showing saved results"
	msgPersistFailed = "Your answer was not saved and may not appear after a reload"
	msgEmptyQuestion = "Please enter a question"
	msgMissingDoc    = "Document is required"
)

// DocumentRef identifies a document. Snapshots are keyed by ID; catalog
// records are matched by Name.
type DocumentRef struct {
	ID   string
	Name string
}

// SnapshotKey returns the local cache key for a document.
func SnapshotKey(documentID string) string {
	return snapshotPrefix + documentID
}

// Cache holds in-memory views of QA history for one owner.
type Cache struct {
	sess  session.Session
	repo  qa.Repo
	store kv.Store

	mu    sync.Mutex
	views map[string][]qa.Record
}

// New binds a cache to sess.
func New(sess session.Session, repo qa.Repo, store kv.Store) (*Cache, error) {
	if !sess.Valid() {
		return nil, session.ErrNoSession
	}
	if repo == nil || store == nil {
		return nil, fmt.Errorf("qacache: repo and store are required")
	}
	return &Cache{sess: sess, repo: repo, store: store, views: make(map[string][]qa.Record)}, nil
}

// Snapshot returns the persisted local history for a document. Missing or
// unreadable entries yield an empty slice.
func (c *Cache) Snapshot(ctx context.Context, documentID string) []qa.Record {
	raw, found, err := c.store.Get(ctx, SnapshotKey(documentID))
	if err != nil {
		telemetry.Warn("qacache.snapshot_read_failed", map[string]any{"documentId": documentID, "err": err.Error()})
		return []qa.Record{}
	}
	if !found || len(raw) == 0 {
		return []qa.Record{}
	}
	var records []qa.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		telemetry.Warn("qacache.snapshot_corrupt", map[string]any{"documentId": documentID, "err": err.Error()})
		return []qa.Record{}
	}
	if records == nil {
		records = []qa.Record{}
	}
	qa.SortNewestFirst(records)
	return records
}

// Load seeds the view from the local snapshot, then refreshes it from the
// catalog. On a failed refresh the current view is returned with an error
// of kind apperr.KindSync.
func (c *Cache) Load(ctx context.Context, ref DocumentRef) ([]qa.Record, error) {
	const op = "qa.load"
	if strings.TrimSpace(ref.ID) == "" || strings.TrimSpace(ref.Name) == "" {
		return []qa.Record{}, apperr.Validation(op, msgMissingDoc)
	}

	c.seed(ctx, ref.ID)

	fetched, err := c.repo.ListByDocument(ctx, c.sess.OwnerID, ref.Name)
	if err != nil {
		metrics.IncQASyncFailed()
		telemetry.Warn("qacache.sync_failed", map[string]any{
			"ownerId":    c.sess.OwnerID,
			"documentId": ref.ID,
			"name":       ref.Name,
			"err":        err.Error(),
		})
		return c.View(ref.ID), apperr.Sync(op, msgSyncFailed, err)
	}

	records := make([]qa.Record, len(fetched))
	copy(records, fetched)
	qa.SortNewestFirst(records)

	c.mu.Lock()
	c.views[ref.ID] = records
	c.mu.Unlock()
	c.persist(ctx, ref.ID, records)

	return c.View(ref.ID), nil
}

// Append writes a QA record to the catalog and, on success, prepends it to
// the view and rewrites the snapshot. A catalog failure leaves the view
// unchanged and returns an error of kind apperr.KindPersistence.
func (c *Cache) Append(ctx context.Context, ref DocumentRef, question, answer string) (qa.Record, error) {
	const op = "qa.append"
	question = strings.TrimSpace(question)
	if question == "" {
		return qa.Record{}, apperr.Validation(op, msgEmptyQuestion)
	}
	if strings.TrimSpace(ref.ID) == "" || strings.TrimSpace(ref.Name) == "" {
		return qa.Record{}, apperr.Validation(op, msgMissingDoc)
	}

	rec, err := c.repo.Create(ctx, qa.Record{
		OwnerID:      c.sess.OwnerID,
		DocumentName: ref.Name,
		Question:     question,
		Answer:       answer,
	})
	if err != nil {
		metrics.IncQAPersistFailed()
		telemetry.Error("qacache.append_failed", map[string]any{
			"ownerId":    c.sess.OwnerID,
			"documentId": ref.ID,
			"err":        err.Error(),
		})
		return qa.Record{}, apperr.Persistence(op, msgPersistFailed, err)
	}

	// Prepend onto the saved history, not an empty view, when no Load ran first.
	c.seed(ctx, ref.ID)
	c.mu.Lock()
	next := make([]qa.Record, 0, len(c.views[ref.ID])+1)
	next = append(next, rec)
	next = append(next, c.views[ref.ID]...)
	qa.SortNewestFirst(next)
	c.views[ref.ID] = next
	snapshot := append([]qa.Record(nil), next...)
	c.mu.Unlock()

	c.persist(ctx, ref.ID, snapshot)
	return rec, nil
}

// View returns a copy of the in-memory history for a document, newest first.
func (c *Cache) View(documentID string) []qa.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]qa.Record, len(c.views[documentID]))
	copy(out, c.views[documentID])
	return out
}

// Forget drops the view and the local snapshot for a deleted document.
func (c *Cache) Forget(ctx context.Context, documentID string) error {
	c.mu.Lock()
	delete(c.views, documentID)
	c.mu.Unlock()
	return c.store.Delete(ctx, SnapshotKey(documentID))
}

// seed installs the local snapshot as the view unless one already exists.
func (c *Cache) seed(ctx context.Context, documentID string) {
	c.mu.Lock()
	_, seeded := c.views[documentID]
	c.mu.Unlock()
	if seeded {
		return
	}
	snap := c.Snapshot(ctx, documentID)
	c.mu.Lock()
	if _, ok := c.views[documentID]; !ok {
		c.views[documentID] = snap
	}
	c.mu.Unlock()
}

func (c *Cache) persist(ctx context.Context, documentID string, records []qa.Record) {
	data, err := json.Marshal(records)
	if err == nil {
		err = c.store.Set(ctx, SnapshotKey(documentID), data)
	}
	if err != nil {
		telemetry.Warn("qacache.snapshot_write_failed", map[string]any{"documentId": documentID, "err": err.Error()})
	}
}
