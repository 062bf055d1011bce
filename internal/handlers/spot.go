package handlers

import (
	"net/http"

	"spot-booking-backend/internal/middleware"
	"spot-booking-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// SpotHandler handles spot listings and their images
type SpotHandler struct {
	spotService *services.SpotService
}

// NewSpotHandler creates a new spot handler
func NewSpotHandler(spotService *services.SpotService) *SpotHandler {
	return &SpotHandler{spotService: spotService}
}

// ListSpots handles GET /api/v1/spots
func (h *SpotHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	params, err := services.ParseSpotListParams(r.URL.Query())
	if err != nil {
		respondAppError(w, r, err, "list spots")
		return
	}

	result, err := h.spotService.List(r.Context(), params)
	if err != nil {
		respondAppError(w, r, err, "list spots")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ListCurrentSpots handles GET /api/v1/spots/current
func (h *SpotHandler) ListCurrentSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.spotService.ListOwned(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		respondAppError(w, r, err, "list owned spots")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"spots": spots})
}

// GetSpot handles GET /api/v1/spots/{spot_id}
func (h *SpotHandler) GetSpot(w http.ResponseWriter, r *http.Request) {
	detail, err := h.spotService.Get(r.Context(), chi.URLParam(r, "spot_id"))
	if err != nil {
		respondAppError(w, r, err, "get spot")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// CreateSpot handles POST /api/v1/spots
func (h *SpotHandler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	var in services.SpotInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err, "create spot")
		return
	}

	spot, err := h.spotService.Create(r.Context(), middleware.GetPrincipal(r.Context()), in)
	if err != nil {
		respondAppError(w, r, err, "create spot")
		return
	}
	respondJSON(w, http.StatusCreated, spot)
}

// UpdateSpot handles PUT /api/v1/spots/{spot_id}
func (h *SpotHandler) UpdateSpot(w http.ResponseWriter, r *http.Request) {
	var in services.SpotInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err, "update spot")
		return
	}

	spot, err := h.spotService.Update(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "spot_id"), in)
	if err != nil {
		respondAppError(w, r, err, "update spot")
		return
	}
	respondJSON(w, http.StatusOK, spot)
}

// DeleteSpot handles DELETE /api/v1/spots/{spot_id}
func (h *SpotHandler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	if err := h.spotService.Delete(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "spot_id")); err != nil {
		respondAppError(w, r, err, "delete spot")
		return
	}
	deleted(w)
}

type spotImageRequest struct {
	URL     string `json:"url"`
	Preview bool   `json:"preview"`
}

// AddSpotImage handles POST /api/v1/spots/{spot_id}/images
func (h *SpotHandler) AddSpotImage(w http.ResponseWriter, r *http.Request) {
	var req spotImageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err, "add spot image")
		return
	}

	image, err := h.spotService.AddImage(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "spot_id"), req.URL, req.Preview)
	if err != nil {
		respondAppError(w, r, err, "add spot image")
		return
	}
	respondJSON(w, http.StatusCreated, image)
}

// DeleteSpotImage handles DELETE /api/v1/spot-images/{image_id}
func (h *SpotHandler) DeleteSpotImage(w http.ResponseWriter, r *http.Request) {
	if err := h.spotService.DeleteImage(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "image_id")); err != nil {
		respondAppError(w, r, err, "delete spot image")
		return
	}
	deleted(w)
}
