package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/models"
)

type SettingRepository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Get(ctx context.Context, key string) (models.Setting, error)
	Upsert(ctx context.Context, key, value string) (models.Setting, error)
}

type settingRepository struct {
	db *sql.DB
}

func NewSettingRepository(db *sql.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) List(ctx context.Context) ([]models.Setting, error) {
	const query = `SELECT key, value, updated_at FROM settings ORDER BY key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *settingRepository) Get(ctx context.Context, key string) (models.Setting, error) {
	const query = `SELECT key, value, updated_at FROM settings WHERE key = $1`

	var s models.Setting
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(key)).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		return models.Setting{}, err
	}
	return s, nil
}

func (r *settingRepository) Upsert(ctx context.Context, key, value string) (models.Setting, error) {
	const query = `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING key, value, updated_at`

	var s models.Setting
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(key), value).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		return models.Setting{}, err
	}
	return s, nil
}
