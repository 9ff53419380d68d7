package qa

import (
	"sort"
	"time"
)

// Record is one question/answer exchange about a document.
// Records reference the document by name and are never edited after creation.
type Record struct {
	ID           string    `json:"id"`
	DocumentName string    `json:"documentName"`
	OwnerID      string    `json:"ownerId"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Timestamp    time.Time `json:"timestamp"`
}

// SortNewestFirst orders records by timestamp descending. Records with equal
// timestamps keep their relative order.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}
