package models

import "time"

// ImageSummary is one row of the paginated stats listing, read from the
// image_stats_summary materialized view.
type ImageSummary struct {
	ImageURL     string     `json:"image_url"`
	Promotion    string     `json:"promotion,omitempty"`
	AccessCount  int64      `json:"access_count"`
	UniqueIPs    int64      `json:"unique_ips"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ImageSummaryPage is a page of summary rows plus pagination metadata.
type ImageSummaryPage struct {
	Items      []ImageSummary `json:"items"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// ReferrerCount is a referrer with its access frequency.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

// HourCount is one bucket of the hour-of-day histogram.
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// DayCount is one point of the day-level access time series.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ImageDetails is the detailed per-URL statistics payload. All fields are
// computed with loopback and self-referential traffic excluded.
type ImageDetails struct {
	ImageURL       string          `json:"image_url"`
	UniqueIPs      int64           `json:"unique_ips"`
	LastAccessed   *time.Time      `json:"last_accessed,omitempty"`
	TopReferrers   []ReferrerCount `json:"top_referrers"`
	RecentAccesses []AccessRecord  `json:"recent_accesses"`
	HourlyAccess   []HourCount     `json:"hourly_access"`
	DailyAccess    []DayCount      `json:"daily_access"`
}
