package services

import (
	"context"
	"fmt"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository"
)

// AvailabilityChecker tests a date range against the existing bookings of a spot
type AvailabilityChecker struct {
	bookings repository.BookingStore
}

// NewAvailabilityChecker creates a new availability checker
func NewAvailabilityChecker(bookings repository.BookingStore) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings}
}

// HasConflict reports whether [start, end] overlaps a booking of the spot other
// than excludeBookingID. Touching boundaries count as overlap.
func (c *AvailabilityChecker) HasConflict(ctx context.Context, spotID string, start, end models.Date, excludeBookingID string) (bool, error) {
	candidate := models.DateRange{Start: start, End: end}
	if !candidate.Valid() {
		return false, apperrors.NewInvalidRangeError()
	}

	bookings, err := c.bookings.ListBySpot(ctx, spotID)
	if err != nil {
		return false, fmt.Errorf("failed to list spot bookings: %w", err)
	}
	for _, b := range bookings {
		if b.ID == excludeBookingID {
			continue
		}
		if b.Range().Overlaps(candidate) {
			return true, nil
		}
	}
	return false, nil
}
