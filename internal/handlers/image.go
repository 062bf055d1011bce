package handlers

import (
	"net/http"

	"spot-booking-backend/internal/middleware"
	"spot-booking-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// UploadRequest represents a request for a presigned image upload
type UploadRequest struct {
	ContentType string `json:"content_type"`
}

// ImageHandler hands out presigned upload URLs
type ImageHandler struct {
	imageService *services.ImageService
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
	}
}

// PresignSpotImage handles POST /api/v1/spots/{spot_id}/images/upload-url
func (h *ImageHandler) PresignSpotImage(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err, "presign spot image")
		return
	}

	resp, err := h.imageService.PresignSpotImage(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "spot_id"), req.ContentType)
	if err != nil {
		respondAppError(w, r, err, "presign spot image")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// PresignReviewImage handles POST /api/v1/reviews/{review_id}/images/upload-url
func (h *ImageHandler) PresignReviewImage(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err, "presign review image")
		return
	}

	resp, err := h.imageService.PresignReviewImage(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "review_id"), req.ContentType)
	if err != nil {
		respondAppError(w, r, err, "presign review image")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
