// Package library exposes the ingestion controller and QA cache over HTTP.
package library

import (
	"sync"

	"library-backend/internal/ingest"
	"library-backend/internal/qa"
	"library-backend/internal/qacache"
	"library-backend/internal/session"
	"library-backend/internal/shared/storage/kv"
)

// Workspace is the per-owner pair of controller and QA cache.
type Workspace struct {
	Controller *ingest.Controller
	QA         *qacache.Cache
}

// Registry hands out one Workspace per owner so the in-flight guard and the
// QA views survive across requests.
type Registry struct {
	deps      ingest.Deps
	qaRepo    qa.Repo
	snapshots kv.Store

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(deps ingest.Deps, qaRepo qa.Repo, snapshots kv.Store) *Registry {
	return &Registry{
		deps:       deps,
		qaRepo:     qaRepo,
		snapshots:  snapshots,
		workspaces: make(map[string]*Workspace),
	}
}

// For returns the owner's workspace, creating it on first use.
func (r *Registry) For(sess session.Session) (*Workspace, error) {
	if !sess.Valid() {
		return nil, session.ErrNoSession
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[sess.OwnerID]; ok {
		return ws, nil
	}
	ctrl, err := ingest.NewController(sess, r.deps)
	if err != nil {
		return nil, err
	}
	cache, err := qacache.New(sess, r.qaRepo, r.snapshots)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Controller: ctrl, QA: cache}
	r.workspaces[sess.OwnerID] = ws
	return ws, nil
}
