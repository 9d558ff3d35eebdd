package models

import (
	"io"
	"time"
)

// AccessLog represents the per-URL access counter row.
type AccessLog struct {
	// ID is the unique identifier of the counter row.
	ID int64
	// ImageURL is the tracked image URL. Unique per row.
	ImageURL string
	// Promotion is an optional label attached to the image by the dashboard.
	Promotion string
	// AccessCount is the number of deduplicated accesses recorded so far.
	AccessCount int64
	// CreatedAt is the timestamp of the first recorded access or upload.
	CreatedAt time.Time
	// UpdatedAt is the timestamp of the last recorded access.
	UpdatedAt time.Time
}

// AccessRecord is a single entry of the append-only access history.
type AccessRecord struct {
	ID         int64     `json:"id"`
	ImageURL   string    `json:"image_url"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer"`
	AccessedAt time.Time `json:"accessed_at"`
}

// Fingerprint identifies a requester for deduplication purposes.
// Missing values are replaced with sentinels before the fingerprint
// reaches the service layer: "unknown" for IP and user agent,
// "direct" for the referrer.
type Fingerprint struct {
	IP        string
	UserAgent string
	Referrer  string
}

// ImageData holds fetched origin image bytes and their content type.
type ImageData struct {
	ContentType string
	Body        []byte
}

// Upload describes an incoming file upload.
type Upload struct {
	FileName    string
	Size        int64
	ContentType string
	Promotion   string
	Body        io.Reader
}
