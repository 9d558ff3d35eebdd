package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/image-tracker/internal/database"
	"github.com/vadimbarashkov/image-tracker/internal/models"
)

type shortenedURLRecord struct {
	ID          int64     `db:"id"`
	ShortID     string    `db:"short_id"`
	OriginalURL string    `db:"original_url"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *shortenedURLRecord) ToShortenedURL() *models.ShortenedURL {
	return &models.ShortenedURL{
		ID:          r.ID,
		ShortID:     r.ShortID,
		OriginalURL: r.OriginalURL,
		CreatedAt:   r.CreatedAt,
	}
}

type ShortenedURLRepository struct {
	db *sqlx.DB
}

func NewShortenedURLRepository(db *sqlx.DB) *ShortenedURLRepository {
	return &ShortenedURLRepository{
		db: db,
	}
}

func (r *ShortenedURLRepository) Create(ctx context.Context, shortID, originalURL string) (*models.ShortenedURL, error) {
	const op = "database.postgres.ShortenedURLRepository.Create"

	rec := new(shortenedURLRecord)
	query := `INSERT INTO shortened_urls(short_id, original_url)
		VALUES ($1, $2)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortID, originalURL)
	if err != nil {
		if isUniqueViolationError(err) {
			if strings.Contains(uniqueViolationConstraint(err), "original_url") {
				return nil, fmt.Errorf("%s: %w", op, database.ErrOriginalURLExists)
			}

			return nil, fmt.Errorf("%s: %w", op, database.ErrShortIDExists)
		}

		return nil, fmt.Errorf("%s: failed to create shortened url record: %w", op, err)
	}

	return rec.ToShortenedURL(), nil
}

func (r *ShortenedURLRepository) GetByShortID(ctx context.Context, shortID string) (*models.ShortenedURL, error) {
	const op = "database.postgres.ShortenedURLRepository.GetByShortID"

	rec := new(shortenedURLRecord)
	query := `SELECT * FROM shortened_urls
		WHERE short_id = $1`

	err := r.db.GetContext(ctx, rec, query, shortID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get shortened url record: %w", op, err)
	}

	return rec.ToShortenedURL(), nil
}

func (r *ShortenedURLRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.ShortenedURL, error) {
	const op = "database.postgres.ShortenedURLRepository.GetByOriginalURL"

	rec := new(shortenedURLRecord)
	query := `SELECT * FROM shortened_urls
		WHERE original_url = $1`

	err := r.db.GetContext(ctx, rec, query, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get shortened url record: %w", op, err)
	}

	return rec.ToShortenedURL(), nil
}
