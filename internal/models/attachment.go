package models

import "time"

// Attachment records an uploaded file bound to a complaint. The bytes live on
// disk under the configured upload directory, keyed by StorageKey.
type Attachment struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
