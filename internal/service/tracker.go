package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vadimbarashkov/image-tracker/internal/models"
)

// dedupWindow is the trailing interval during which repeated requests with an
// identical fingerprint are collapsed into one counted access. Fixed by design,
// not configurable per request.
const dedupWindow = 3 * time.Second

const defaultImageContentType = "image/jpeg"

// ErrImageFetch is returned when the origin image cannot be fetched.
var ErrImageFetch = errors.New("failed to fetch origin image")

// AccessRepository records deduplicated image accesses.
type AccessRepository interface {
	// RecordAccess atomically increments the access counter and appends a
	// history row, unless an access with the same fingerprint was recorded
	// within the trailing window. It reports whether the access was recorded.
	RecordAccess(ctx context.Context, imageURL string, fp models.Fingerprint, window time.Duration) (bool, error)
}

// TrackerService implements the image access tracking flow: deduplicate,
// record, then proxy the origin image back to the caller.
type TrackerService struct {
	repo   AccessRepository
	client *http.Client
	logger *slog.Logger
}

func NewTrackerService(repo AccessRepository, client *http.Client, logger *slog.Logger) *TrackerService {
	return &TrackerService{
		repo:   repo,
		client: client,
		logger: logger,
	}
}

// TrackImage records a single access to imageURL keyed by the requester
// fingerprint, then fetches and returns the origin image bytes. Duplicate
// requests within the dedup window skip the recording step but still get
// the image. The origin is always fetched fresh; no retries.
func (s *TrackerService) TrackImage(ctx context.Context, imageURL string, fp models.Fingerprint) (*models.ImageData, error) {
	const op = "service.TrackerService.TrackImage"

	recorded, err := s.repo.RecordAccess(ctx, imageURL, fp, dedupWindow)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to record access: %w", op, err)
	}

	if !recorded {
		s.logger.Debug(
			"filtered duplicate request",
			slog.String("image_url", imageURL),
			slog.String("ip", fp.IP),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrImageFetch, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrImageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s: %w: origin returned status %d", op, ErrImageFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrImageFetch, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultImageContentType
	}

	return &models.ImageData{
		ContentType: contentType,
		Body:        body,
	}, nil
}
