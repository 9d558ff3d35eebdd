package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/image-tracker/internal/models"
)

type MockTrackerService struct {
	mock.Mock
}

func (s *MockTrackerService) TrackImage(ctx context.Context, imageURL string, fp models.Fingerprint) (*models.ImageData, error) {
	args := s.Called(ctx, imageURL, fp)
	data, _ := args.Get(0).(*models.ImageData)
	return data, args.Error(1)
}

type MockShortenerService struct {
	mock.Mock
}

func (s *MockShortenerService) ShortenURL(ctx context.Context, originalURL string) (*models.ShortenedURL, error) {
	args := s.Called(ctx, originalURL)
	url, _ := args.Get(0).(*models.ShortenedURL)
	return url, args.Error(1)
}

func (s *MockShortenerService) ResolveShortID(ctx context.Context, shortID string) (string, error) {
	args := s.Called(ctx, shortID)
	return args.String(0), args.Error(1)
}

type MockUploadService struct {
	mock.Mock
}

func (s *MockUploadService) UploadImage(ctx context.Context, upload models.Upload) (string, error) {
	args := s.Called(ctx, upload)
	return args.String(0), args.Error(1)
}

func (s *MockUploadService) GetFile(ctx context.Context, name string) (*models.ImageData, error) {
	args := s.Called(ctx, name)
	data, _ := args.Get(0).(*models.ImageData)
	return data, args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (s *MockStatsService) ListImageStats(ctx context.Context, page, limit int, search string) (*models.ImageSummaryPage, error) {
	args := s.Called(ctx, page, limit, search)
	stats, _ := args.Get(0).(*models.ImageSummaryPage)
	return stats, args.Error(1)
}

func (s *MockStatsService) GetImageDetails(ctx context.Context, imageURL string) (*models.ImageDetails, error) {
	args := s.Called(ctx, imageURL)
	details, _ := args.Get(0).(*models.ImageDetails)
	return details, args.Error(1)
}

func (s *MockStatsService) RefreshStats(ctx context.Context) error {
	args := s.Called(ctx)
	return args.Error(0)
}

func (s *MockStatsService) SetPromotion(ctx context.Context, imageURL, promotion string) (*models.AccessLog, error) {
	args := s.Called(ctx, imageURL, promotion)
	log, _ := args.Get(0).(*models.AccessLog)
	return log, args.Error(1)
}
