package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/image-tracker/internal/database"
	"github.com/vadimbarashkov/image-tracker/internal/models"
)

var shortenedURLColumns = []string{"id", "short_id", "original_url", "created_at"}

func setupShortenedURLRepository(t testing.TB) (*ShortenedURLRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewShortenedURLRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestShortenedURLRepository_Create(t *testing.T) {
	t.Run("short id exists", func(t *testing.T) {
		repo, mock := setupShortenedURLRepository(t)

		mock.ExpectQuery(`INSERT INTO shortened_urls`).
			WithArgs("abc1234", "https://example.com/a.jpg").
			WillReturnError(&pgconn.PgError{
				Code:           uniqueViolationErrCode,
				ConstraintName: "shortened_urls_short_id_key",
			})

		url, err := repo.Create(context.TODO(), "abc1234", "https://example.com/a.jpg")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrShortIDExists)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("original url exists", func(t *testing.T) {
		repo, mock := setupShortenedURLRepository(t)

		mock.ExpectQuery(`INSERT INTO shortened_urls`).
			WithArgs("abc1234", "https://example.com/a.jpg").
			WillReturnError(&pgconn.PgError{
				Code:           uniqueViolationErrCode,
				ConstraintName: "shortened_urls_original_url_key",
			})

		url, err := repo.Create(context.TODO(), "abc1234", "https://example.com/a.jpg")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrOriginalURLExists)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupShortenedURLRepository(t)

		mock.ExpectQuery(`INSERT INTO shortened_urls`).
			WithArgs("abc1234", "https://example.com/a.jpg").
			WillReturnError(errUnknown)

		url, err := repo.Create(context.TODO(), "abc1234", "https://example.com/a.jpg")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupShortenedURLRepository(t)

		rows := sqlmock.NewRows(shortenedURLColumns).
			AddRow(1, "abc1234", "https://example.com/a.jpg", time.Time{})

		mock.ExpectQuery(`INSERT INTO shortened_urls`).
			WithArgs("abc1234", "https://example.com/a.jpg").
			WillReturnRows(rows)

		wantURL := models.ShortenedURL{
			ID:          1,
			ShortID:     "abc1234",
			OriginalURL: "https://example.com/a.jpg",
		}

		url, err := repo.Create(context.TODO(), "abc1234", "https://example.com/a.jpg")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, wantURL, *url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestShortenedURLRepository_GetByShortID(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupShortenedURLRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM shortened_urls`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		url, err := repo.GetByShortID(context.TODO(), "missing")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupShortenedURLRepository(t)

		rows := sqlmock.NewRows(shortenedURLColumns).
			AddRow(1, "abc1234", "https://example.com/a.jpg", time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM shortened_urls`).
			WithArgs("abc1234").
			WillReturnRows(rows)

		url, err := repo.GetByShortID(context.TODO(), "abc1234")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, "https://example.com/a.jpg", url.OriginalURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestShortenedURLRepository_GetByOriginalURL(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupShortenedURLRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM shortened_urls`).
			WithArgs("https://example.com/missing.jpg").
			WillReturnError(sql.ErrNoRows)

		url, err := repo.GetByOriginalURL(context.TODO(), "https://example.com/missing.jpg")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupShortenedURLRepository(t)

		rows := sqlmock.NewRows(shortenedURLColumns).
			AddRow(1, "abc1234", "https://example.com/a.jpg", time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM shortened_urls`).
			WithArgs("https://example.com/a.jpg").
			WillReturnRows(rows)

		url, err := repo.GetByOriginalURL(context.TODO(), "https://example.com/a.jpg")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, "abc1234", url.ShortID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
