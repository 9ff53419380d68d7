package indexer

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnreadable is returned when no text could be extracted from the upload.
	ErrUnreadable = errors.New("no readable text in document")
	ErrNoMatch    = errors.New("no relevant content found")
	ErrNotIndexed = errors.New("book not indexed")
)
