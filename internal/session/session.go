package session

import (
	"context"
	"errors"
	"strings"
)

// ErrNoSession is returned when no owner identity is available.
var ErrNoSession = errors.New("no active session")

// Session is the authenticated owner that every catalog, object and index call is scoped to.
type Session struct {
	OwnerID string
	Email   string
	Name    string
	Guest   bool
}

// New builds a session for ownerID.
func New(ownerID string) (Session, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Session{}, ErrNoSession
	}
	return Session{OwnerID: ownerID}, nil
}

// Valid reports whether the session carries an owner.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.OwnerID) != ""
}

type ctxKey struct{}

// WithContext attaches s to ctx.
func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx. ok is false when none is present
// or the stored session has no owner.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || !s.Valid() {
		return Session{}, false
	}
	return s, true
}
