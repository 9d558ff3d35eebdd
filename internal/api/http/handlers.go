package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/image-tracker/internal/database"
	"github.com/vadimbarashkov/image-tracker/internal/models"
	"github.com/vadimbarashkov/image-tracker/internal/service"
	"github.com/vadimbarashkov/image-tracker/internal/storage"
	"github.com/vadimbarashkov/image-tracker/pkg/response"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// fingerprintFromRequest extracts the visitor fingerprint used for
// deduplication. Missing values are replaced with sentinels so the
// fingerprint always has three non-empty components.
func fingerprintFromRequest(r *http.Request) models.Fingerprint {
	ip := "unknown"
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		ip = host
	} else if r.RemoteAddr != "" {
		ip = r.RemoteAddr
	}

	userAgent := r.UserAgent()
	if userAgent == "" {
		userAgent = "unknown"
	}

	referrer := r.Referer()
	if referrer == "" {
		referrer = "direct"
	}

	return models.Fingerprint{
		IP:        ip,
		UserAgent: userAgent,
		Referrer:  referrer,
	}
}

func setNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

type uploadResponse struct {
	ImageURL string `json:"image_url"`
}

func handleUploadImage(svc UploadService) http.HandlerFunc {
	const op = "api.http.handleUploadImage"
	const successMsg = "The image was uploaded successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse("Bad Request", "A file form field is required."))
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
		}

		upload := models.Upload{
			FileName:    header.Filename,
			Size:        header.Size,
			ContentType: contentType,
			Promotion:   r.FormValue("promotion"),
			Body:        file,
		}

		imageURL, err := svc.UploadImage(r.Context(), upload)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrFileTooLarge):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse("File Too Large", "The uploaded file exceeds the size limit."))
			case errors.Is(err, service.ErrUnsupportedFileType):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse("Unsupported File Type", "Only JPEG, PNG, GIF and WebP images can be uploaded."))
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, uploadResponse{ImageURL: imageURL}))
	}
}

type shortenRequest struct {
	ImageURL string `json:"image_url" validate:"required,startswith=https://"`
}

type shortenResponse struct {
	ShortID     string    `json:"short_id"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func handleShortenURL(svc ShortenerService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The tracking link was created successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		shortened, err := svc.ShortenURL(r.Context(), req.ImageURL)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, shortenResponse{
			ShortID:     shortened.ShortID,
			ShortURL:    strings.TrimRight(baseURL, "/") + "/i/" + shortened.ShortID,
			OriginalURL: shortened.OriginalURL,
			CreatedAt:   shortened.CreatedAt,
		}))
	}
}

func handleTrackImage(svc TrackerService) http.HandlerFunc {
	const op = "api.http.handleTrackImage"

	return func(w http.ResponseWriter, r *http.Request) {
		imageURL := r.URL.Query().Get("image_url")
		if !strings.HasPrefix(imageURL, "https://") {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse("Bad Request", "A valid image_url query parameter is required."))
			return
		}

		data, err := svc.TrackImage(r.Context(), imageURL, fingerprintFromRequest(r))
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			if errors.Is(err, service.ErrImageFetch) {
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ErrorResponse("Image Fetch Failed", "The origin image could not be fetched."))
				return
			}

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		setNoCacheHeaders(w)
		w.Header().Set("Content-Type", data.ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(data.Body)
	}
}

func handleRedirectShortID(svc ShortenerService) http.HandlerFunc {
	const op = "api.http.handleRedirectShortID"

	return func(w http.ResponseWriter, r *http.Request) {
		shortID := chi.URLParam(r, "shortID")

		originalURL, err := svc.ResolveShortID(r.Context(), shortID)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, "/api/track-image?image_url="+url.QueryEscape(originalURL), http.StatusTemporaryRedirect)
	}
}

func handleServeFile(svc UploadService) http.HandlerFunc {
	const op = "api.http.handleServeFile"

	return func(w http.ResponseWriter, r *http.Request) {
		fileName := chi.URLParam(r, "fileName")

		data, err := svc.GetFile(r.Context(), fileName)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		w.Header().Set("Content-Type", data.ContentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.WriteHeader(http.StatusOK)
		w.Write(data.Body)
	}
}
