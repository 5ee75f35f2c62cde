package models

import "time"

type ComplaintStatus string

const (
	ComplaintStatusNew        ComplaintStatus = "new"
	ComplaintStatusReceived   ComplaintStatus = "received"
	ComplaintStatusDiscussing ComplaintStatus = "discussing"
	ComplaintStatusProcessing ComplaintStatus = "processing"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusArchived   ComplaintStatus = "archived"
)

type ComplaintPriority string

const (
	ComplaintPriorityLow    ComplaintPriority = "low"
	ComplaintPriorityMedium ComplaintPriority = "medium"
	ComplaintPriorityHigh   ComplaintPriority = "high"
	ComplaintPriorityUrgent ComplaintPriority = "urgent"
)

// statusOrder positions the non-terminal pipeline states. Archived is handled
// separately since it is reachable from any non-new state.
var statusOrder = map[ComplaintStatus]int{
	ComplaintStatusNew:        0,
	ComplaintStatusReceived:   1,
	ComplaintStatusDiscussing: 2,
	ComplaintStatusProcessing: 3,
	ComplaintStatusResolved:   4,
}

func IsValidStatus(s ComplaintStatus) bool {
	if s == ComplaintStatusArchived {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

func IsValidPriority(p ComplaintPriority) bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh, ComplaintPriorityUrgent:
		return true
	}
	return false
}

// CanTransition reports whether a complaint may move from one status to the
// next. The pipeline is strictly forward, one step at a time; archived is a
// terminal state reachable from any state except new.
func CanTransition(from, to ComplaintStatus) bool {
	if from == ComplaintStatusArchived {
		return false
	}
	if to == ComplaintStatusArchived {
		return from != ComplaintStatusNew
	}
	fromPos, okFrom := statusOrder[from]
	toPos, okTo := statusOrder[to]
	if !okFrom || !okTo {
		return false
	}
	return toPos == fromPos+1
}

type Complaint struct {
	ID             string            `json:"id"`
	TrackingNumber string            `json:"tracking_number"`
	Subject        string            `json:"subject"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Priority       ComplaintPriority `json:"priority"`
	Status         ComplaintStatus   `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
