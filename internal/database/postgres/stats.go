package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/image-tracker/internal/models"
)

type summaryRecord struct {
	ImageURL     string         `db:"image_url"`
	Promotion    sql.NullString `db:"promotion"`
	AccessCount  int64          `db:"access_count"`
	UniqueIPs    int64          `db:"unique_ips"`
	LastAccessed sql.NullTime   `db:"last_accessed"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r *summaryRecord) ToImageSummary() models.ImageSummary {
	s := models.ImageSummary{
		ImageURL:    r.ImageURL,
		Promotion:   r.Promotion.String,
		AccessCount: r.AccessCount,
		UniqueIPs:   r.UniqueIPs,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if r.LastAccessed.Valid {
		t := r.LastAccessed.Time
		s.LastAccessed = &t
	}

	return s
}

type accessRecord struct {
	ID         int64     `db:"id"`
	ImageURL   string    `db:"image_url"`
	IPAddress  string    `db:"ip_address"`
	UserAgent  string    `db:"user_agent"`
	Referrer   string    `db:"referrer"`
	AccessedAt time.Time `db:"accessed_at"`
}

// detailFilter excludes loopback clients and, when selfHost is not empty,
// traffic referred by the service's own pages.
const detailFilter = `image_url = $1
		AND ip_address NOT IN ('127.0.0.1', '::1')
		AND ($2 = '' OR referrer NOT ILIKE '%' || $2 || '%')`

type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{
		db: db,
	}
}

// ListSummaries returns one page of summary rows from the materialized view,
// ordered by access count, optionally filtered by a case-insensitive substring
// match on the promotion label.
func (r *StatsRepository) ListSummaries(ctx context.Context, limit, offset int, search string) ([]models.ImageSummary, error) {
	const op = "database.postgres.StatsRepository.ListSummaries"

	var recs []summaryRecord
	query := `SELECT image_url, promotion, access_count, unique_ips, last_accessed, created_at, updated_at
		FROM image_stats_summary
		WHERE ($1 = '' OR promotion ILIKE '%' || $1 || '%')
		ORDER BY access_count DESC, image_url
		LIMIT $2 OFFSET $3`

	err := r.db.SelectContext(ctx, &recs, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list summary records: %w", op, err)
	}

	summaries := make([]models.ImageSummary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, rec.ToImageSummary())
	}

	return summaries, nil
}

// CountSummaries returns the total number of summary rows matching search.
func (r *StatsRepository) CountSummaries(ctx context.Context, search string) (int64, error) {
	const op = "database.postgres.StatsRepository.CountSummaries"

	var total int64
	query := `SELECT COUNT(*) FROM image_stats_summary
		WHERE ($1 = '' OR promotion ILIKE '%' || $1 || '%')`

	err := r.db.GetContext(ctx, &total, query, search)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to count summary records: %w", op, err)
	}

	return total, nil
}

// Refresh rebuilds the image_stats_summary materialized view.
func (r *StatsRepository) Refresh(ctx context.Context) error {
	const op = "database.postgres.StatsRepository.Refresh"

	query := `REFRESH MATERIALIZED VIEW CONCURRENTLY image_stats_summary`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: failed to refresh materialized view: %w", op, err)
	}

	return nil
}

// GetDetails aggregates per-URL access statistics from the history table.
// Loopback traffic and traffic referred by selfHost are excluded everywhere.
func (r *StatsRepository) GetDetails(ctx context.Context, imageURL, selfHost string, topReferrers, recentAccesses int) (*models.ImageDetails, error) {
	const op = "database.postgres.StatsRepository.GetDetails"

	details := &models.ImageDetails{
		ImageURL: imageURL,
	}

	var overview struct {
		UniqueIPs    int64        `db:"unique_ips"`
		LastAccessed sql.NullTime `db:"last_accessed"`
	}
	overviewQuery := `SELECT COUNT(DISTINCT ip_address) AS unique_ips, MAX(accessed_at) AS last_accessed
		FROM image_access_history
		WHERE ` + detailFilter

	err := r.db.GetContext(ctx, &overview, overviewQuery, imageURL, selfHost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get access overview: %w", op, err)
	}

	details.UniqueIPs = overview.UniqueIPs
	if overview.LastAccessed.Valid {
		t := overview.LastAccessed.Time
		details.LastAccessed = &t
	}

	var referrers []struct {
		Referrer string `db:"referrer"`
		Count    int64  `db:"count"`
	}
	referrersQuery := `SELECT referrer, COUNT(*) AS count
		FROM image_access_history
		WHERE ` + detailFilter + `
		GROUP BY referrer
		ORDER BY count DESC, referrer
		LIMIT $3`

	err = r.db.SelectContext(ctx, &referrers, referrersQuery, imageURL, selfHost, topReferrers)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get top referrers: %w", op, err)
	}

	details.TopReferrers = make([]models.ReferrerCount, 0, len(referrers))
	for _, ref := range referrers {
		details.TopReferrers = append(details.TopReferrers, models.ReferrerCount{
			Referrer: ref.Referrer,
			Count:    ref.Count,
		})
	}

	var recent []accessRecord
	recentQuery := `SELECT id, image_url, ip_address, user_agent, referrer, accessed_at
		FROM image_access_history
		WHERE ` + detailFilter + `
		ORDER BY accessed_at DESC
		LIMIT $3`

	err = r.db.SelectContext(ctx, &recent, recentQuery, imageURL, selfHost, recentAccesses)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get recent accesses: %w", op, err)
	}

	details.RecentAccesses = make([]models.AccessRecord, 0, len(recent))
	for _, rec := range recent {
		details.RecentAccesses = append(details.RecentAccesses, models.AccessRecord{
			ID:         rec.ID,
			ImageURL:   rec.ImageURL,
			IPAddress:  rec.IPAddress,
			UserAgent:  rec.UserAgent,
			Referrer:   rec.Referrer,
			AccessedAt: rec.AccessedAt,
		})
	}

	var hourly []struct {
		Hour  int   `db:"hour"`
		Count int64 `db:"count"`
	}
	hourlyQuery := `SELECT EXTRACT(HOUR FROM accessed_at)::int AS hour, COUNT(*) AS count
		FROM image_access_history
		WHERE ` + detailFilter + `
		GROUP BY hour
		ORDER BY hour`

	err = r.db.SelectContext(ctx, &hourly, hourlyQuery, imageURL, selfHost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get hourly histogram: %w", op, err)
	}

	details.HourlyAccess = make([]models.HourCount, 0, len(hourly))
	for _, h := range hourly {
		details.HourlyAccess = append(details.HourlyAccess, models.HourCount{
			Hour:  h.Hour,
			Count: h.Count,
		})
	}

	var daily []struct {
		Date  string `db:"date"`
		Count int64  `db:"count"`
	}
	dailyQuery := `SELECT TO_CHAR(accessed_at, 'YYYY-MM-DD') AS date, COUNT(*) AS count
		FROM image_access_history
		WHERE ` + detailFilter + `
		GROUP BY date
		ORDER BY date DESC`

	err = r.db.SelectContext(ctx, &daily, dailyQuery, imageURL, selfHost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get daily time series: %w", op, err)
	}

	details.DailyAccess = make([]models.DayCount, 0, len(daily))
	for _, d := range daily {
		details.DailyAccess = append(details.DailyAccess, models.DayCount{
			Date:  d.Date,
			Count: d.Count,
		})
	}

	return details, nil
}
