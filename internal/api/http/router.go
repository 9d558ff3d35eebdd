package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/image-tracker/internal/models"
)

// TrackerService records image accesses and proxies origin image bytes.
type TrackerService interface {
	TrackImage(ctx context.Context, imageURL string, fp models.Fingerprint) (*models.ImageData, error)
}

// ShortenerService creates and resolves short tracking links.
type ShortenerService interface {
	ShortenURL(ctx context.Context, originalURL string) (*models.ShortenedURL, error)
	ResolveShortID(ctx context.Context, shortID string) (string, error)
}

// UploadService stores uploaded images and serves them back.
type UploadService interface {
	UploadImage(ctx context.Context, upload models.Upload) (string, error)
	GetFile(ctx context.Context, name string) (*models.ImageData, error)
}

// StatsService provides the dashboard read and maintenance operations.
type StatsService interface {
	ListImageStats(ctx context.Context, page, limit int, search string) (*models.ImageSummaryPage, error)
	GetImageDetails(ctx context.Context, imageURL string) (*models.ImageDetails, error)
	RefreshStats(ctx context.Context) error
	SetPromotion(ctx context.Context, imageURL, promotion string) (*models.AccessLog, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

func NewRouter(
	logger *httplog.Logger,
	baseURL string,
	trackerSvc TrackerService,
	shortenerSvc ShortenerService,
	uploadSvc UploadService,
	statsSvc StatsService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Get("/i/{shortID}", handleRedirectShortID(shortenerSvc))
	r.Get("/files/{fileName}", handleServeFile(uploadSvc))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Post("/upload", handleUploadImage(uploadSvc))
		r.Post("/shorten", handleShortenURL(shortenerSvc, validate, baseURL))
		r.Get("/track-image", handleTrackImage(trackerSvc))

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", handleListImageStats(statsSvc))
			r.Get("/detail", handleImageStatsDetails(statsSvc))
			r.Post("/refresh", handleRefreshStats(statsSvc))
			r.Put("/promotion", handleSetPromotion(statsSvc, validate))
		})
	})

	return r
}
