package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/image-tracker/internal/models"
)

type accessLogRecord struct {
	ID          int64          `db:"id"`
	ImageURL    string         `db:"image_url"`
	Promotion   sql.NullString `db:"promotion"`
	AccessCount int64          `db:"access_count"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *accessLogRecord) ToAccessLog() *models.AccessLog {
	return &models.AccessLog{
		ID:          r.ID,
		ImageURL:    r.ImageURL,
		Promotion:   r.Promotion.String,
		AccessCount: r.AccessCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type AccessRepository struct {
	db *sqlx.DB
}

func NewAccessRepository(db *sqlx.DB) *AccessRepository {
	return &AccessRepository{
		db: db,
	}
}

// RecordAccess records a single deduplicated access to imageURL. The dedup
// check, the atomic counter upsert and the history insert run in one
// transaction, so the counter and the history can never drift apart.
// It reports whether the access was recorded; a request with the same
// fingerprint seen within the trailing window is a duplicate and leaves
// the database untouched.
func (r *AccessRepository) RecordAccess(ctx context.Context, imageURL string, fp models.Fingerprint, window time.Duration) (bool, error) {
	const op = "database.postgres.AccessRepository.RecordAccess"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var duplicate bool
	dedupQuery := `SELECT EXISTS (
		SELECT 1 FROM image_access_history
		WHERE image_url = $1
			AND ip_address = $2
			AND user_agent = $3
			AND referrer = $4
			AND accessed_at >= $5
	)`

	cutoff := time.Now().Add(-window)

	err = tx.GetContext(ctx, &duplicate, dedupQuery, imageURL, fp.IP, fp.UserAgent, fp.Referrer, cutoff)
	if err != nil {
		return false, fmt.Errorf("%s: failed to check for duplicate access: %w", op, err)
	}

	if duplicate {
		return false, nil
	}

	upsertQuery := `INSERT INTO image_access_logs (image_url, access_count)
		VALUES ($1, 1)
		ON CONFLICT (image_url)
		DO UPDATE SET access_count = image_access_logs.access_count + 1, updated_at = now()`

	if _, err := tx.ExecContext(ctx, upsertQuery, imageURL); err != nil {
		return false, fmt.Errorf("%s: failed to increment access count: %w", op, err)
	}

	historyQuery := `INSERT INTO image_access_history (image_url, ip_address, user_agent, referrer)
		VALUES ($1, $2, $3, $4)`

	if _, err := tx.ExecContext(ctx, historyQuery, imageURL, fp.IP, fp.UserAgent, fp.Referrer); err != nil {
		return false, fmt.Errorf("%s: failed to insert access history: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return true, nil
}

// CreateLog inserts a zero-count log row for a freshly uploaded image.
// Existing rows are left untouched.
func (r *AccessRepository) CreateLog(ctx context.Context, imageURL, promotion string) error {
	const op = "database.postgres.AccessRepository.CreateLog"

	query := `INSERT INTO image_access_logs (image_url, promotion)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (image_url) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, imageURL, promotion); err != nil {
		return fmt.Errorf("%s: failed to create access log record: %w", op, err)
	}

	return nil
}

// SetPromotion upserts the promotion label on the log row for imageURL.
func (r *AccessRepository) SetPromotion(ctx context.Context, imageURL, promotion string) (*models.AccessLog, error) {
	const op = "database.postgres.AccessRepository.SetPromotion"

	rec := new(accessLogRecord)
	query := `INSERT INTO image_access_logs (image_url, promotion)
		VALUES ($1, $2)
		ON CONFLICT (image_url)
		DO UPDATE SET promotion = EXCLUDED.promotion, updated_at = now()
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, imageURL, promotion)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to set promotion: %w", op, err)
	}

	return rec.ToAccessLog(), nil
}
