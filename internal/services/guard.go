package services

import (
	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/models"
)

// Guard decides owner-only and author-only actions. It holds no state.
type Guard struct{}

// Authorize allows the action only when the principal owns the resource
func (Guard) Authorize(principal models.Principal, resourceOwnerID string) error {
	if principal.IsAnonymous() {
		return apperrors.NewUnauthenticatedError("Authentication required")
	}
	if principal.UserID != resourceOwnerID {
		return apperrors.NewForbiddenError("Forbidden")
	}
	return nil
}

// RequireSpotOwner allows the action only for the spot's owner
func (g Guard) RequireSpotOwner(principal models.Principal, spot *models.Spot) error {
	return g.Authorize(principal, spot.OwnerID)
}

// RequireAuthor allows the action only for the user who wrote the booking or review
func (g Guard) RequireAuthor(principal models.Principal, authorID string) error {
	return g.Authorize(principal, authorID)
}

// RejectSpotOwner denies the action to the spot's owner, e.g. booking their own spot
func (Guard) RejectSpotOwner(principal models.Principal, spot *models.Spot) error {
	if principal.IsAnonymous() {
		return apperrors.NewUnauthenticatedError("Authentication required")
	}
	if principal.UserID == spot.OwnerID {
		return apperrors.NewForbiddenError("Cannot create a booking at your own Spot")
	}
	return nil
}
