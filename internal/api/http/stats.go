package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/image-tracker/internal/models"
	"github.com/vadimbarashkov/image-tracker/pkg/response"
)

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return val
}

func handleListImageStats(svc StatsService) http.HandlerFunc {
	const op = "api.http.handleListImageStats"
	const successMsg = "The image statistics were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", 10)
		search := r.URL.Query().Get("search")

		stats, err := svc.ListImageStats(r.Context(), page, limit, search)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, stats))
	}
}

func handleImageStatsDetails(svc StatsService) http.HandlerFunc {
	const op = "api.http.handleImageStatsDetails"
	const successMsg = "The image details were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		imageURL := r.URL.Query().Get("image_url")
		if !strings.HasPrefix(imageURL, "https://") {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse("Bad Request", "A valid image_url query parameter is required."))
			return
		}

		details, err := svc.GetImageDetails(r.Context(), imageURL)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, details))
	}
}

func handleRefreshStats(svc StatsService) http.HandlerFunc {
	const op = "api.http.handleRefreshStats"
	const successMsg = "The statistics were refreshed successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RefreshStats(r.Context()); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

type promotionRequest struct {
	ImageURL  string `json:"image_url" validate:"required,startswith=https://"`
	Promotion string `json:"promotion" validate:"required"`
}

type accessLogResponse struct {
	ImageURL    string    `json:"image_url"`
	Promotion   string    `json:"promotion"`
	AccessCount int64     `json:"access_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAccessLogResponse(log *models.AccessLog) accessLogResponse {
	return accessLogResponse{
		ImageURL:    log.ImageURL,
		Promotion:   log.Promotion,
		AccessCount: log.AccessCount,
		CreatedAt:   log.CreatedAt,
		UpdatedAt:   log.UpdatedAt,
	}
}

func handleSetPromotion(svc StatsService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleSetPromotion"
	const successMsg = "The promotion label was updated successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req promotionRequest

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

		log, err := svc.SetPromotion(r.Context(), req.ImageURL, req.Promotion)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toAccessLogResponse(log)))
	}
}
