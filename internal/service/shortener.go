package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/image-tracker/internal/database"
	"github.com/vadimbarashkov/image-tracker/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a short ID is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short id")

// ShortenedURLRepository defines the interface for working with shortened URLs at the business logic layer.
type ShortenedURLRepository interface {
	// Create inserts a new shortened URL into the repository.
	Create(ctx context.Context, shortID, originalURL string) (*models.ShortenedURL, error)

	// GetByShortID retrieves a shortened URL by its short ID.
	GetByShortID(ctx context.Context, shortID string) (*models.ShortenedURL, error)

	// GetByOriginalURL retrieves a shortened URL by the original URL it maps to.
	GetByOriginalURL(ctx context.Context, originalURL string) (*models.ShortenedURL, error)
}

// ShortLinkCache caches short ID resolutions. A nil cache disables caching.
type ShortLinkCache interface {
	Get(ctx context.Context, shortID string) (string, bool)
	Set(ctx context.Context, shortID, originalURL string)
}

// ShortenerService provides methods to create and resolve short tracking links.
// Shortening is lookup-or-create: a URL that already has a short link gets the
// existing one back rather than a second mapping.
type ShortenerService struct {
	repo          ShortenedURLRepository
	cache         ShortLinkCache
	shortIDLength int
}

func NewShortenerService(repo ShortenedURLRepository, cache ShortLinkCache, shortIDLength int) *ShortenerService {
	return &ShortenerService{
		repo:          repo,
		cache:         cache,
		shortIDLength: shortIDLength,
	}
}

// ShortenURL returns the shortened URL for originalURL, creating one if none
// exists yet. Short ID collisions are retried a bounded number of times; a
// concurrent create for the same original URL resolves to the winning row.
func (s *ShortenerService) ShortenURL(ctx context.Context, originalURL string) (*models.ShortenedURL, error) {
	const op = "service.ShortenerService.ShortenURL"
	const maxRetries = 5

	url, err := s.repo.GetByOriginalURL(ctx, originalURL)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, database.ErrURLNotFound) {
		return nil, fmt.Errorf("%s: failed to look up original url: %w", op, err)
	}

	for i := 0; i < maxRetries; i++ {
		shortID, err := gonanoid.New(s.shortIDLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short id: %w", op, err)
		}

		url, err := s.repo.Create(ctx, shortID, originalURL)
		if err != nil {
			if errors.Is(err, database.ErrShortIDExists) {
				continue
			}

			if errors.Is(err, database.ErrOriginalURLExists) {
				url, err := s.repo.GetByOriginalURL(ctx, originalURL)
				if err != nil {
					return nil, fmt.Errorf("%s: failed to look up original url: %w", op, err)
				}

				return url, nil
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		if s.cache != nil {
			s.cache.Set(ctx, url.ShortID, url.OriginalURL)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortID returns the original URL associated with the provided short ID.
func (s *ShortenerService) ResolveShortID(ctx context.Context, shortID string) (string, error) {
	const op = "service.ShortenerService.ResolveShortID"

	if s.cache != nil {
		if originalURL, ok := s.cache.Get(ctx, shortID); ok {
			return originalURL, nil
		}
	}

	url, err := s.repo.GetByShortID(ctx, shortID)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short id: %w", op, err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, url.ShortID, url.OriginalURL)
	}

	return url.OriginalURL, nil
}
