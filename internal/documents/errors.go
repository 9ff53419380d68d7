package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist for the owner.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a malformed catalog request.
	ErrInvalidInput = errors.New("invalid input")
)
