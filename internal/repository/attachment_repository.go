package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/models"
)

type AttachmentRepository interface {
	Create(ctx context.Context, a models.Attachment) (models.Attachment, error)
	GetByID(ctx context.Context, id string) (models.Attachment, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]models.Attachment, error)
}

type attachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, a models.Attachment) (models.Attachment, error) {
	const query = `
		INSERT INTO attachments (complaint_id, file_name, content_type, size_bytes, storage_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		a.ComplaintID,
		strings.TrimSpace(a.FileName),
		a.ContentType,
		a.SizeBytes,
		a.StorageKey,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return models.Attachment{}, err
	}
	return a, nil
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (models.Attachment, error) {
	const query = `
		SELECT id, complaint_id, file_name, content_type, size_bytes, storage_key, created_at
		FROM attachments
		WHERE id = $1`

	var a models.Attachment
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(id)).Scan(
		&a.ID,
		&a.ComplaintID,
		&a.FileName,
		&a.ContentType,
		&a.SizeBytes,
		&a.StorageKey,
		&a.CreatedAt,
	)
	if err != nil {
		return models.Attachment{}, err
	}
	return a, nil
}

func (r *attachmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.Attachment, error) {
	const query = `
		SELECT id, complaint_id, file_name, content_type, size_bytes, storage_key, created_at
		FROM attachments
		WHERE complaint_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(complaintID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.ComplaintID, &a.FileName, &a.ContentType, &a.SizeBytes, &a.StorageKey, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
