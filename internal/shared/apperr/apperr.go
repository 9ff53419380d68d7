package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers that need to react differently.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindTransport         Kind = "transport"
	KindIndexing          Kind = "indexing"
	KindNoRelevantContent Kind = "no_relevant_content"
	KindPersistence       Kind = "persistence"
	KindSync              Kind = "sync"
)

var (
	// ErrValidation marks bad input rejected before any network call.
	ErrValidation = errors.New("validation error")
	// ErrTransport marks a failed call at a storage or service boundary.
	ErrTransport = errors.New("transport error")
	// ErrIndexing marks a rejected or failed index build.
	ErrIndexing = errors.New("indexing error")
	// ErrNoRelevantContent marks a question the index had no answer for.
	ErrNoRelevantContent = errors.New("no relevant content")
	// ErrPersistence marks a QA append that failed after the answer was obtained.
	ErrPersistence = errors.New("persistence error")
	// ErrSync marks a failed QA refresh where the stale view was retained.
	ErrSync = errors.New("sync error")
)

var sentinels = map[Kind]error{
	KindValidation:        ErrValidation,
	KindTransport:         ErrTransport,
	KindIndexing:          ErrIndexing,
	KindNoRelevantContent: ErrNoRelevantContent,
	KindPersistence:       ErrPersistence,
	KindSync:              ErrSync,
}

// Error carries the failure kind, the failing operation and a message fit for end users.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match an *Error against its kind sentinel.
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && target == sentinel
}

func newError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Validation builds a validation error.
func Validation(op, message string) *Error {
	return newError(KindValidation, op, message, nil)
}

// Transport wraps a boundary failure.
func Transport(op, message string, err error) *Error {
	return newError(KindTransport, op, message, err)
}

// Indexing wraps an index-build failure.
func Indexing(op, message string, err error) *Error {
	return newError(KindIndexing, op, message, err)
}

// NoRelevantContent builds the distinguished "no answer" error.
func NoRelevantContent(op, message string, err error) *Error {
	return newError(KindNoRelevantContent, op, message, err)
}

// Persistence wraps a failed QA append.
func Persistence(op, message string, err error) *Error {
	return newError(KindPersistence, op, message, err)
}

// Sync wraps a failed QA refresh.
func Sync(op, message string, err error) *Error {
	return newError(KindSync, op, message, err)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// MessageOf returns the user-facing message of err, falling back to err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
