package ingest

import (
	"errors"

	"library-backend/internal/shared/apperr"
)

// ErrIngestInFlight is returned when Ingest is called while another ingest is running on the same controller.
var ErrIngestInFlight = errors.New("an upload is already in progress")

// User-facing messages.
const (
	msgInvalidPDF        = "Please select a valid PDF file"
	msgEmptyFile         = "The selected file is empty"
	msgTooLarge          = "PDF must be 20 MB or smaller"
	msgMissingName       = "File name is required"
	msgInFlight          = "An upload is already in progress"
	msgObjectFailed      = "Upload failed: could not store the file"
	msgIndexFailed       = "Upload failed: the document could not be indexed"
	msgCatalogFailed     = "Upload incomplete: the document was stored and indexed but could not be added to your library"
	msgDeleteFailed      = "Failed to delete the document. Please try again."
	msgEmptyQuestion     = "Please enter a question"
	msgMissingDocument   = "Document name is required"
	msgNoRelevantContent = "No relevant content found for your question. Please try a different query or upload the book."
	msgAskFailed         = "Failed to get answer"
	msgListFailed        = "Failed to load your documents. Please try again."
	msgViewFailed        = "Error loading PDF. Please try again later."
	msgChunksFailed      = "Failed to load the indexed text for this document."
)

// TooLargeError is the validation error for an upload over MaxUploadBytes.
// Transports that cut the body short report it before calling Ingest.
func TooLargeError() error {
	return apperr.Validation("ingest", msgTooLarge)
}
