package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/image-tracker/internal/models"
)

var summaryColumns = []string{"image_url", "promotion", "access_count", "unique_ips", "last_accessed", "created_at", "updated_at"}

func setupStatsRepository(t testing.TB) (*StatsRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewStatsRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestStatsRepository_ListSummaries(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupStatsRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM image_stats_summary`).
			WithArgs("", 10, 0).
			WillReturnError(errUnknown)

		summaries, err := repo.ListSummaries(context.TODO(), 10, 0, "")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, summaries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupStatsRepository(t)

		lastAccessed := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(summaryColumns).
			AddRow("https://example.com/a.jpg", "summer", 42, 7, lastAccessed, time.Time{}, time.Time{}).
			AddRow("https://example.com/b.jpg", nil, 10, 3, nil, time.Time{}, time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM image_stats_summary`).
			WithArgs("summer", 10, 0).
			WillReturnRows(rows)

		summaries, err := repo.ListSummaries(context.TODO(), 10, 0, "summer")

		assert.NoError(t, err)
		assert.Len(t, summaries, 2)
		assert.Equal(t, "summer", summaries[0].Promotion)
		assert.Equal(t, int64(42), summaries[0].AccessCount)
		assert.Equal(t, int64(7), summaries[0].UniqueIPs)
		assert.Equal(t, lastAccessed, *summaries[0].LastAccessed)
		assert.Empty(t, summaries[1].Promotion)
		assert.Nil(t, summaries[1].LastAccessed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStatsRepository_CountSummaries(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupStatsRepository(t)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM image_stats_summary`).
			WithArgs("").
			WillReturnError(errUnknown)

		total, err := repo.CountSummaries(context.TODO(), "")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Zero(t, total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupStatsRepository(t)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM image_stats_summary`).
			WithArgs("").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

		total, err := repo.CountSummaries(context.TODO(), "")

		assert.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStatsRepository_Refresh(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupStatsRepository(t)

		mock.ExpectExec(`REFRESH MATERIALIZED VIEW`).
			WillReturnError(errUnknown)

		err := repo.Refresh(context.TODO())

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupStatsRepository(t)

		mock.ExpectExec(`REFRESH MATERIALIZED VIEW`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Refresh(context.TODO())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStatsRepository_GetDetails(t *testing.T) {
	const imageURL = "https://example.com/a.jpg"
	const selfHost = "img.example.com"

	t.Run("overview error", func(t *testing.T) {
		repo, mock := setupStatsRepository(t)

		mock.ExpectQuery(`SELECT COUNT\(DISTINCT ip_address\)`).
			WithArgs(imageURL, selfHost).
			WillReturnError(errUnknown)

		details, err := repo.GetDetails(context.TODO(), imageURL, selfHost, 10, 20)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, details)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupStatsRepository(t)

		lastAccessed := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT COUNT\(DISTINCT ip_address\)`).
			WithArgs(imageURL, selfHost).
			WillReturnRows(sqlmock.NewRows([]string{"unique_ips", "last_accessed"}).
				AddRow(5, lastAccessed))

		mock.ExpectQuery(`SELECT referrer, COUNT`).
			WithArgs(imageURL, selfHost, 10).
			WillReturnRows(sqlmock.NewRows([]string{"referrer", "count"}).
				AddRow("https://blog.example.com", 12).
				AddRow("direct", 3))

		mock.ExpectQuery(`ORDER BY accessed_at DESC`).
			WithArgs(imageURL, selfHost, 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "image_url", "ip_address", "user_agent", "referrer", "accessed_at"}).
				AddRow(1, imageURL, "203.0.113.7", "curl/8.0", "direct", lastAccessed))

		mock.ExpectQuery(`EXTRACT\(HOUR`).
			WithArgs(imageURL, selfHost).
			WillReturnRows(sqlmock.NewRows([]string{"hour", "count"}).
				AddRow(12, 9).
				AddRow(13, 6))

		mock.ExpectQuery(`TO_CHAR`).
			WithArgs(imageURL, selfHost).
			WillReturnRows(sqlmock.NewRows([]string{"date", "count"}).
				AddRow("2025-03-01", 15))

		details, err := repo.GetDetails(context.TODO(), imageURL, selfHost, 10, 20)

		assert.NoError(t, err)
		assert.NotNil(t, details)
		assert.Equal(t, int64(5), details.UniqueIPs)
		assert.Equal(t, lastAccessed, *details.LastAccessed)
		assert.Equal(t, []models.ReferrerCount{
			{Referrer: "https://blog.example.com", Count: 12},
			{Referrer: "direct", Count: 3},
		}, details.TopReferrers)
		assert.Len(t, details.RecentAccesses, 1)
		assert.Equal(t, []models.HourCount{
			{Hour: 12, Count: 9},
			{Hour: 13, Count: 6},
		}, details.HourlyAccess)
		assert.Equal(t, []models.DayCount{
			{Date: "2025-03-01", Count: 15},
		}, details.DailyAccess)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
