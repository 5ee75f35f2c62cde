package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/pkg/errors"
)

type NotificationRepository interface {
	// Reconcile creates a notification row for every status-"new" complaint
	// the user has not been notified about yet. Returns the number of rows
	// created. Running it twice in a row creates nothing the second time.
	Reconcile(ctx context.Context, userID string) (int64, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.NotificationSummary, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	SoftDelete(ctx context.Context, userID, notificationID string) error
	GetByID(ctx context.Context, notificationID string) (models.Notification, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Reconcile(ctx context.Context, userID string) (int64, error) {
	// Check-then-insert expressed as one statement so concurrent calls for
	// the same user can only race at statement granularity. A duplicate row
	// produced by that race is a redundant notification, not corruption.
	const query = `
		INSERT INTO notifications (user_id, complaint_id)
		SELECT $1, c.id
		FROM complaints c
		WHERE c.status = 'new'
		  AND NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.user_id = $1 AND n.complaint_id = c.id
		  )
	`

	result, err := r.db.ExecContext(ctx, query, strings.TrimSpace(userID))
	if err != nil {
		return 0, errors.Wrap(err, "reconcile notifications")
	}
	return result.RowsAffected()
}

// clampFeedLimit keeps a caller-supplied limit inside the feed window:
// non-positive falls back to the default page, oversized clamps to the cap.
func clampFeedLimit(limit int) int {
	switch {
	case limit <= 0:
		return 5
	case limit > 100:
		return 100
	default:
		return limit
	}
}

func (r *notificationRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.NotificationSummary, error) {
	limit = clampFeedLimit(limit)

	const query = `
		SELECT n.id, n.complaint_id, c.subject, c.tracking_number, c.priority, c.status, n.created_at, n.is_read
		FROM notifications n
		JOIN complaints c ON c.id = n.complaint_id
		WHERE n.user_id = $1 AND n.is_deleted = FALSE
		ORDER BY n.created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.NotificationSummary
	for rows.Next() {
		var n models.NotificationSummary
		if err := rows.Scan(
			&n.ID,
			&n.ComplaintID,
			&n.Subject,
			&n.TrackingNumber,
			&n.Priority,
			&n.Status,
			&n.CreatedAt,
			&n.IsRead,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND is_read = FALSE AND is_deleted = FALSE
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(userID)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	const query = `
		UPDATE notifications
		SET is_read = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, strings.TrimSpace(notificationID), strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	return r.checkUpdateOutcome(ctx, result, notificationID)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	const query = `
		UPDATE notifications
		SET is_read = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND is_read = FALSE AND is_deleted = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, strings.TrimSpace(userID))
	return err
}

func (r *notificationRepository) SoftDelete(ctx context.Context, userID, notificationID string) error {
	const query = `
		UPDATE notifications
		SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, strings.TrimSpace(notificationID), strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	return r.checkUpdateOutcome(ctx, result, notificationID)
}

// checkUpdateOutcome distinguishes a genuinely missing row from an ownership
// mismatch. A mismatch is a silent no-op so callers never learn whether an id
// exists under another account; only a truly absent id reports not-found.
func (r *notificationRepository) checkUpdateOutcome(ctx context.Context, result sql.Result, notificationID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	const existsQuery = `SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, existsQuery, strings.TrimSpace(notificationID)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return sql.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, notificationID string) (models.Notification, error) {
	const query = `
		SELECT id, user_id, complaint_id, is_read, is_deleted, created_at, updated_at
		FROM notifications
		WHERE id = $1
	`
	var n models.Notification
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(notificationID)).Scan(
		&n.ID,
		&n.UserID,
		&n.ComplaintID,
		&n.IsRead,
		&n.IsDeleted,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return models.Notification{}, err
	}
	return n, nil
}
