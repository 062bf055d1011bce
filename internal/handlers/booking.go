package handlers

import (
	"net/http"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/middleware"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// BookingHandler handles booking requests
type BookingHandler struct {
	bookingService *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

type bookingRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// dates parses both dates, reporting each bad one on its own field
func (req bookingRequest) dates() (models.Date, models.Date, error) {
	fields := map[string]string{}
	parse := func(field, raw, label string) models.Date {
		if raw == "" {
			fields[field] = label + " is required"
			return models.Date{}
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			fields[field] = label + " must be a YYYY-MM-DD date"
		}
		return d
	}
	start := parse("start_date", req.StartDate, "Start date")
	end := parse("end_date", req.EndDate, "End date")
	if len(fields) > 0 {
		return models.Date{}, models.Date{}, apperrors.NewValidationError("Bad Request", fields)
	}
	return start, end, nil
}

// ListSpotBookings handles GET /api/v1/spots/{spot_id}/bookings
func (h *BookingHandler) ListSpotBookings(w http.ResponseWriter, r *http.Request) {
	result, err := h.bookingService.ListForSpot(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "spot_id"))
	if err != nil {
		respondAppError(w, r, err, "list spot bookings")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CreateBooking handles POST /api/v1/spots/{spot_id}/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err, "create booking")
		return
	}
	start, end, err := req.dates()
	if err != nil {
		respondAppError(w, r, err, "create booking")
		return
	}

	booking, err := h.bookingService.Create(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "spot_id"), start, end)
	if err != nil {
		respondAppError(w, r, err, "create booking")
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

// ListCurrentBookings handles GET /api/v1/bookings/current
func (h *BookingHandler) ListCurrentBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.ListForUser(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		respondAppError(w, r, err, "list bookings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

// UpdateBooking handles PUT /api/v1/bookings/{booking_id}
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err, "update booking")
		return
	}
	start, end, err := req.dates()
	if err != nil {
		respondAppError(w, r, err, "update booking")
		return
	}

	booking, err := h.bookingService.Update(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "booking_id"), start, end)
	if err != nil {
		respondAppError(w, r, err, "update booking")
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// CancelBooking handles DELETE /api/v1/bookings/{booking_id}
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.bookingService.Cancel(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "booking_id")); err != nil {
		respondAppError(w, r, err, "cancel booking")
		return
	}
	deleted(w)
}
