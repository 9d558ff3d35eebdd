package database

import "errors"

var (
	// ErrShortIDExists is returned when an attempt is made to create
	// a shortened URL with a short ID that already exists.
	ErrShortIDExists = errors.New("short id exists")
	// ErrOriginalURLExists is returned when an attempt is made to create
	// a shortened URL for an original URL that already has one.
	ErrOriginalURLExists = errors.New("original url exists")
	// ErrURLNotFound is returned when a shortened URL or an access log
	// row cannot be found for the given key.
	ErrURLNotFound = errors.New("url not found")
)
