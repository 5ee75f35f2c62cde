package notification

import (
	"context"
	"fmt"

	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/rs/zerolog"
)

// Notifier delivers an out-of-band alert for a freshly submitted complaint.
// Delivery failures are logged and never surfaced to the submitter.
type Notifier interface {
	Notify(ctx context.Context, complaint models.Complaint) error
}

func logNotifyError(logger zerolog.Logger, err error, channel string, complaint models.Complaint) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("complaint_id", complaint.ID).
		Str("tracking_number", complaint.TrackingNumber).
		Str("channel", channel).
		Msg("failed to deliver complaint alert")
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
