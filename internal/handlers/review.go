package handlers

import (
	"net/http"

	"spot-booking-backend/internal/middleware"
	"spot-booking-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ReviewHandler handles review requests
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ListSpotReviews handles GET /api/v1/spots/{spot_id}/reviews
func (h *ReviewHandler) ListSpotReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.ListForSpot(r.Context(), chi.URLParam(r, "spot_id"))
	if err != nil {
		respondAppError(w, r, err, "list spot reviews")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

// CreateReview handles POST /api/v1/spots/{spot_id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var in services.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err, "create review")
		return
	}

	review, err := h.reviewService.Create(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "spot_id"), in)
	if err != nil {
		respondAppError(w, r, err, "create review")
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

// ListCurrentReviews handles GET /api/v1/reviews/current
func (h *ReviewHandler) ListCurrentReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.ListForUser(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		respondAppError(w, r, err, "list reviews")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

// UpdateReview handles PUT /api/v1/reviews/{review_id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var in services.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err, "update review")
		return
	}

	review, err := h.reviewService.Update(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "review_id"), in)
	if err != nil {
		respondAppError(w, r, err, "update review")
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/v1/reviews/{review_id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviewService.Delete(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "review_id")); err != nil {
		respondAppError(w, r, err, "delete review")
		return
	}
	deleted(w)
}

type reviewImageRequest struct {
	URL string `json:"url"`
}

// AddReviewImage handles POST /api/v1/reviews/{review_id}/images
func (h *ReviewHandler) AddReviewImage(w http.ResponseWriter, r *http.Request) {
	var req reviewImageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err, "add review image")
		return
	}

	image, err := h.reviewService.AddImage(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "review_id"), req.URL)
	if err != nil {
		respondAppError(w, r, err, "add review image")
		return
	}
	respondJSON(w, http.StatusCreated, image)
}

// DeleteReviewImage handles DELETE /api/v1/review-images/{image_id}
func (h *ReviewHandler) DeleteReviewImage(w http.ResponseWriter, r *http.Request) {
	if err := h.reviewService.DeleteImage(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "image_id")); err != nil {
		respondAppError(w, r, err, "delete review image")
		return
	}
	deleted(w)
}
