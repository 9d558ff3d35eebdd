package models

import "time"

// ShortenedURL represents a short tracking link and its associated metadata.
type ShortenedURL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortID is the short random identifier associated with the original URL.
	ShortID string
	// OriginalURL is the original, full-length image URL that the short ID points to.
	OriginalURL string
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
}
