package push

import (
	"time"

	"github.com/civicdesk/civicdesk-api/internal/models"
)

// Frame type discriminators. Every frame on the wire is a single JSON object
// carrying one of these in its "type" field; consumers ignore types they do
// not recognize.
const (
	FrameTypeConnection = "connection"
	FrameTypeInitial    = "initial"
	FrameTypeUpdate     = "update"
	FrameTypeHeartbeat  = "heartbeat"
	FrameTypeError      = "error"
	FrameTypeDisconnect = "disconnect"
)

type ConnectionFrame struct {
	Type            string `json:"type"`
	Status          string `json:"status"`
	ConnectionCount int    `json:"connectionCount"`
}

// FeedFrame carries a full feed snapshot, as both the initial frame and
// subsequent update frames.
type FeedFrame struct {
	Type          string                       `json:"type"`
	Notifications []models.NotificationSummary `json:"notifications"`
	Total         int                          `json:"total"`
}

type HeartbeatFrame struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type DisconnectFrame struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewHeartbeatFrame(now time.Time) HeartbeatFrame {
	return HeartbeatFrame{
		Type:      FrameTypeHeartbeat,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

func NewFeedFrame(frameType string, feed models.NotificationFeed) FeedFrame {
	notifications := feed.Notifications
	if notifications == nil {
		notifications = []models.NotificationSummary{}
	}
	return FeedFrame{
		Type:          frameType,
		Notifications: notifications,
		Total:         feed.Total,
	}
}
