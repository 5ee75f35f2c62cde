package notification

import (
	"context"

	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/civicdesk/civicdesk-api/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Service is the notification store facade the handlers and push sessions
// work against.
type Service interface {
	// Feed reconciles new complaints into the user's notifications, then
	// returns the most recent non-deleted entries and the unread count.
	Feed(ctx context.Context, userID string, limit int) (models.NotificationFeed, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	SoftDelete(ctx context.Context, userID, notificationID string) error
	// ComplaintSubmitted fans the new complaint out to the configured alert
	// channels. Channel failures are logged, never returned.
	ComplaintSubmitted(ctx context.Context, complaint models.Complaint)
}

type service struct {
	repo      repository.NotificationRepository
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		repo:      repo,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

func (s *service) Feed(ctx context.Context, userID string, limit int) (models.NotificationFeed, error) {
	created, err := s.repo.Reconcile(ctx, userID)
	if err != nil {
		return models.NotificationFeed{}, errors.Wrap(err, "reconcile")
	}
	if created > 0 {
		s.logger.Debug().Str("user_id", userID).Int64("created", created).Msg("reconciled new complaints")
	}

	notifications, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		return models.NotificationFeed{}, errors.Wrap(err, "list notifications")
	}
	total, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return models.NotificationFeed{}, errors.Wrap(err, "count unread")
	}

	if notifications == nil {
		notifications = []models.NotificationSummary{}
	}
	return models.NotificationFeed{Notifications: notifications, Total: total}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

func (s *service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *service) SoftDelete(ctx context.Context, userID, notificationID string) error {
	return s.repo.SoftDelete(ctx, userID, notificationID)
}

func (s *service) ComplaintSubmitted(ctx context.Context, complaint models.Complaint) {
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, complaint); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), complaint)
		}
	}
}
