package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/image-tracker/internal/models"
	"github.com/vadimbarashkov/image-tracker/internal/storage"
)

type MockAccessRepository struct {
	mock.Mock
}

func (r *MockAccessRepository) RecordAccess(ctx context.Context, imageURL string, fp models.Fingerprint, window time.Duration) (bool, error) {
	args := r.Called(ctx, imageURL, fp, window)
	return args.Bool(0), args.Error(1)
}

type MockShortenedURLRepository struct {
	mock.Mock
}

func (r *MockShortenedURLRepository) Create(ctx context.Context, shortID, originalURL string) (*models.ShortenedURL, error) {
	args := r.Called(ctx, shortID, originalURL)
	url, _ := args.Get(0).(*models.ShortenedURL)
	return url, args.Error(1)
}

func (r *MockShortenedURLRepository) GetByShortID(ctx context.Context, shortID string) (*models.ShortenedURL, error) {
	args := r.Called(ctx, shortID)
	url, _ := args.Get(0).(*models.ShortenedURL)
	return url, args.Error(1)
}

func (r *MockShortenedURLRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.ShortenedURL, error) {
	args := r.Called(ctx, originalURL)
	url, _ := args.Get(0).(*models.ShortenedURL)
	return url, args.Error(1)
}

type MockAccessLogCreator struct {
	mock.Mock
}

func (r *MockAccessLogCreator) CreateLog(ctx context.Context, imageURL, promotion string) error {
	args := r.Called(ctx, imageURL, promotion)
	return args.Error(0)
}

type MockStatsRepository struct {
	mock.Mock
}

func (r *MockStatsRepository) ListSummaries(ctx context.Context, limit, offset int, search string) ([]models.ImageSummary, error) {
	args := r.Called(ctx, limit, offset, search)
	summaries, _ := args.Get(0).([]models.ImageSummary)
	return summaries, args.Error(1)
}

func (r *MockStatsRepository) CountSummaries(ctx context.Context, search string) (int64, error) {
	args := r.Called(ctx, search)
	return args.Get(0).(int64), args.Error(1)
}

func (r *MockStatsRepository) Refresh(ctx context.Context) error {
	args := r.Called(ctx)
	return args.Error(0)
}

func (r *MockStatsRepository) GetDetails(ctx context.Context, imageURL, selfHost string, topReferrers, recentAccesses int) (*models.ImageDetails, error) {
	args := r.Called(ctx, imageURL, selfHost, topReferrers, recentAccesses)
	details, _ := args.Get(0).(*models.ImageDetails)
	return details, args.Error(1)
}

type MockPromotionRepository struct {
	mock.Mock
}

func (r *MockPromotionRepository) SetPromotion(ctx context.Context, imageURL, promotion string) (*models.AccessLog, error) {
	args := r.Called(ctx, imageURL, promotion)
	log, _ := args.Get(0).(*models.AccessLog)
	return log, args.Error(1)
}

// fakeStore is an in-memory object store that records every Put.
type fakeStore struct {
	objects map[string][]byte
	types   map[string]string
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *fakeStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	s.puts++
	s.objects[name] = data
	s.types[name] = contentType
	return nil
}

func (s *fakeStore) Get(ctx context.Context, name string) ([]byte, string, error) {
	data, ok := s.objects[name]
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	return data, s.types[name], nil
}

// fakeCache is an in-memory short link cache.
type fakeCache struct {
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, shortID string) (string, bool) {
	originalURL, ok := c.entries[shortID]
	return originalURL, ok
}

func (c *fakeCache) Set(ctx context.Context, shortID, originalURL string) {
	c.entries[shortID] = originalURL
}
