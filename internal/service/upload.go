package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/vadimbarashkov/image-tracker/internal/models"
	"github.com/vadimbarashkov/image-tracker/internal/storage"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const objectNameSuffixLength = 7

var (
	// ErrFileTooLarge is returned when an uploaded file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedFileType is returned when an uploaded file has a disallowed content type.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// AccessLogCreator creates the initial zero-count log row for an uploaded image.
type AccessLogCreator interface {
	CreateLog(ctx context.Context, imageURL, promotion string) error
}

// UploadService validates and stores uploaded images and serves them back.
type UploadService struct {
	store        storage.Store
	repo         AccessLogCreator
	logger       *slog.Logger
	baseURL      string
	maxFileSize  int64
	allowedTypes []string
}

func NewUploadService(store storage.Store, repo AccessLogCreator, logger *slog.Logger, baseURL string, maxFileSize int64, allowedTypes []string) *UploadService {
	return &UploadService{
		store:        store,
		repo:         repo,
		logger:       logger,
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxFileSize:  maxFileSize,
		allowedTypes: allowedTypes,
	}
}

// UploadImage validates the upload, stores the bytes in the object store and
// returns the public URL. The initial access log row is best effort: its
// failure is logged and the upload still succeeds.
func (s *UploadService) UploadImage(ctx context.Context, upload models.Upload) (string, error) {
	const op = "service.UploadService.UploadImage"

	if upload.Size > s.maxFileSize {
		return "", fmt.Errorf("%s: %w: %d bytes exceeds limit of %d", op, ErrFileTooLarge, upload.Size, s.maxFileSize)
	}

	if !slices.Contains(s.allowedTypes, upload.ContentType) {
		return "", fmt.Errorf("%s: %w: %s", op, ErrUnsupportedFileType, upload.ContentType)
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, s.maxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("%s: failed to read upload body: %w", op, err)
	}
	if int64(len(data)) > s.maxFileSize {
		return "", fmt.Errorf("%s: %w: body exceeds limit of %d", op, ErrFileTooLarge, s.maxFileSize)
	}

	name, err := objectName(upload.FileName)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate object name: %w", op, err)
	}

	if err := s.store.Put(ctx, name, data, upload.ContentType); err != nil {
		return "", fmt.Errorf("%s: failed to store upload: %w", op, err)
	}

	imageURL := s.baseURL + "/files/" + name

	if err := s.repo.CreateLog(ctx, imageURL, upload.Promotion); err != nil {
		s.logger.Error(
			"failed to create access log for upload",
			slog.String("image_url", imageURL),
			slog.Any("err", err),
		)
	}

	return imageURL, nil
}

// GetFile returns the stored bytes and content type for a previously uploaded object.
func (s *UploadService) GetFile(ctx context.Context, name string) (*models.ImageData, error) {
	const op = "service.UploadService.GetFile"

	data, contentType, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get stored object: %w", op, err)
	}

	return &models.ImageData{
		ContentType: contentType,
		Body:        data,
	}, nil
}

// objectName builds a unique object name keeping the original file extension.
func objectName(fileName string) (string, error) {
	suffix, err := gonanoid.New(objectNameSuffixLength)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fileName))

	return fmt.Sprintf("image-%d-%s%s", time.Now().UnixMilli(), suffix, ext), nil
}
