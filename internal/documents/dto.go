package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID  string    `json:"documentId"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	FileHandle  string    `json:"fileHandle"`
	UploadedAt  time.Time `json:"uploadedAt"`
	ViewURL     string    `json:"viewUrl,omitempty"`
}

// ToResponse converts a Document to its API shape.
func ToResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:  doc.ID,
		Name:        doc.Name,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		FileHandle:  doc.FileHandle,
		UploadedAt:  doc.UploadedAt,
	}
}
