package service

import (
	"context"
	"fmt"

	"github.com/vadimbarashkov/image-tracker/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	topReferrersLimit   = 10
	recentAccessesLimit = 20
)

// StatsRepository defines the read side of the access analytics.
type StatsRepository interface {
	ListSummaries(ctx context.Context, limit, offset int, search string) ([]models.ImageSummary, error)
	CountSummaries(ctx context.Context, search string) (int64, error)
	Refresh(ctx context.Context) error
	GetDetails(ctx context.Context, imageURL, selfHost string, topReferrers, recentAccesses int) (*models.ImageDetails, error)
}

// PromotionRepository upserts promotion labels on summary rows.
type PromotionRepository interface {
	SetPromotion(ctx context.Context, imageURL, promotion string) (*models.AccessLog, error)
}

// StatsService provides the dashboard read and maintenance operations.
type StatsService struct {
	repo      StatsRepository
	promoRepo PromotionRepository
	selfHost  string
}

// NewStatsService creates a StatsService. selfHost is the host of the
// service's own public base URL; detail queries exclude traffic referred
// by it.
func NewStatsService(repo StatsRepository, promoRepo PromotionRepository, selfHost string) *StatsService {
	return &StatsService{
		repo:      repo,
		promoRepo: promoRepo,
		selfHost:  selfHost,
	}
}

// ListImageStats returns one page of summary rows plus pagination metadata.
// Page numbers start at 1; out-of-range page and limit values are clamped.
func (s *StatsService) ListImageStats(ctx context.Context, page, limit int, search string) (*models.ImageSummaryPage, error) {
	const op = "service.StatsService.ListImageStats"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	offset := (page - 1) * limit

	items, err := s.repo.ListSummaries(ctx, limit, offset, search)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list image stats: %w", op, err)
	}

	total, err := s.repo.CountSummaries(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count image stats: %w", op, err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &models.ImageSummaryPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// GetImageDetails returns detailed per-URL statistics with loopback and
// self-referential traffic excluded.
func (s *StatsService) GetImageDetails(ctx context.Context, imageURL string) (*models.ImageDetails, error) {
	const op = "service.StatsService.GetImageDetails"

	details, err := s.repo.GetDetails(ctx, imageURL, s.selfHost, topReferrersLimit, recentAccessesLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get image details: %w", op, err)
	}

	return details, nil
}

// RefreshStats rebuilds the precomputed summary view.
func (s *StatsService) RefreshStats(ctx context.Context) error {
	const op = "service.StatsService.RefreshStats"

	if err := s.repo.Refresh(ctx); err != nil {
		return fmt.Errorf("%s: failed to refresh stats: %w", op, err)
	}

	return nil
}

// SetPromotion upserts the promotion label for imageURL.
func (s *StatsService) SetPromotion(ctx context.Context, imageURL, promotion string) (*models.AccessLog, error) {
	const op = "service.StatsService.SetPromotion"

	log, err := s.promoRepo.SetPromotion(ctx, imageURL, promotion)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to set promotion: %w", op, err)
	}

	return log, nil
}
