package documents

import "time"

// Document is a catalog entry for an uploaded PDF owned by a user.
type Document struct {
	ID          string
	OwnerID     string
	Name        string
	SizeBytes   int64
	FileHandle  string
	ContentType string
	UploadedAt  time.Time
}
