package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type ComplaintRepository interface {
	Create(ctx context.Context, subject, description, category string, priority models.ComplaintPriority) (models.Complaint, error)
	GetByID(ctx context.Context, id string) (models.Complaint, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (models.Complaint, error)
	List(ctx context.Context, status models.ComplaintStatus, limit, offset int) ([]models.Complaint, error)
	UpdateStatus(ctx context.Context, id string, to models.ComplaintStatus) (models.Complaint, error)
}

type complaintRepository struct {
	db *sql.DB
}

func NewComplaintRepository(db *sql.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

const complaintColumns = `id, tracking_number, subject, description, category, priority, status, created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, subject, description, category string, priority models.ComplaintPriority) (models.Complaint, error) {
	if !models.IsValidPriority(priority) {
		priority = models.ComplaintPriorityMedium
	}

	query := `
		INSERT INTO complaints (tracking_number, subject, description, category, priority, status)
		VALUES ($1, $2, $3, $4, $5, 'new')
		RETURNING ` + complaintColumns

	trackingNumber := newTrackingNumber()
	row := r.db.QueryRowContext(ctx, query,
		trackingNumber,
		strings.TrimSpace(subject),
		strings.TrimSpace(description),
		strings.TrimSpace(category),
		priority,
	)
	return scanComplaint(row)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	return scanComplaint(r.db.QueryRowContext(ctx, query, strings.TrimSpace(id)))
}

func (r *complaintRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE tracking_number = $1`
	return scanComplaint(r.db.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(trackingNumber))))
}

func (r *complaintRepository) List(ctx context.Context, status models.ComplaintStatus, limit, offset int) ([]models.Complaint, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, complaint)
	}
	return complaints, rows.Err()
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id string, to models.ComplaintStatus) (models.Complaint, error) {
	if !models.IsValidStatus(to) {
		return models.Complaint{}, ErrInvalidTransition
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Complaint{}, err
	}
	if !models.CanTransition(current.Status, to) {
		return models.Complaint{}, errors.Wrapf(ErrInvalidTransition, "%s -> %s", current.Status, to)
	}

	// The status guard makes the update a no-op if another writer moved the
	// complaint between the read and the write.
	query := `
		UPDATE complaints
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING ` + complaintColumns
	return scanComplaint(r.db.QueryRowContext(ctx, query, current.ID, to, current.Status))
}

func scanComplaint(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Complaint, error) {
	var c models.Complaint
	if err := scanner.Scan(
		&c.ID,
		&c.TrackingNumber,
		&c.Subject,
		&c.Description,
		&c.Category,
		&c.Priority,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return models.Complaint{}, err
	}
	return c, nil
}

// newTrackingNumber produces the human-shareable complaint reference,
// e.g. CMP-3F2A9B1C.
func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CMP-" + strings.ToUpper(raw[:8])
}
