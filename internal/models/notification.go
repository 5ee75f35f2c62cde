package models

import "time"

// Notification ties one user to one complaint. At most one row exists per
// (user, complaint) pair; rows are soft-deleted, never removed.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ComplaintID string    `json:"complaint_id"`
	IsRead      bool      `json:"is_read"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NotificationSummary is a notification joined with the complaint fields the
// bell UI renders. This is the shape pushed over the stream.
type NotificationSummary struct {
	ID             string            `json:"id"`
	ComplaintID    string            `json:"complaintId"`
	Subject        string            `json:"subject"`
	TrackingNumber string            `json:"trackingNumber"`
	Priority       ComplaintPriority `json:"priority"`
	Status         ComplaintStatus   `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	IsRead         bool              `json:"isRead"`
}

// NotificationFeed is the per-user snapshot recomputed on every poll cycle:
// the most recent non-deleted notifications plus the unread count.
type NotificationFeed struct {
	Notifications []NotificationSummary `json:"notifications"`
	Total         int                   `json:"total"`
}
