package repository

import (
	"context"
	"errors"

	"spot-booking-backend/internal/models"
)

var (
	// ErrNotFound is returned when the referenced row does not exist
	ErrNotFound = errors.New("not found")
	// ErrBookingConflict is returned when a booking write would overlap another booking of the same spot
	ErrBookingConflict = errors.New("booking overlaps an existing booking")
	// ErrDuplicateReview is returned when a user already reviewed the spot
	ErrDuplicateReview = errors.New("user already reviewed this spot")
	// ErrImageLimit is returned when a review already holds the maximum number of images
	ErrImageLimit = errors.New("image limit reached")
	// ErrEmailTaken is returned when another user registered the email
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken is returned when another user registered the username
	ErrUsernameTaken = errors.New("username already registered")
)

// UserStore persists users
type UserStore interface {
	// Create fails with ErrEmailTaken or ErrUsernameTaken on a uniqueness violation
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByCredential finds a user by email or username, case-insensitively
	GetByCredential(ctx context.Context, credential string) (*models.User, error)
	// GetPublicProfiles returns the public profiles of the given users keyed by id
	GetPublicProfiles(ctx context.Context, ids []string) (map[string]models.PublicUser, error)
}

// SpotStore persists spots and their images
type SpotStore interface {
	Create(ctx context.Context, spot *models.Spot) error
	GetByID(ctx context.Context, id string) (*models.Spot, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Spot, error)
	Update(ctx context.Context, spot *models.Spot) error
	// Delete removes the spot with its images, bookings and reviews
	Delete(ctx context.Context, id string) error
	// List returns spots matching the filter with preview image and average rating
	List(ctx context.Context, filter SpotFilter) ([]*models.SpotListItem, error)

	CreateImage(ctx context.Context, image *models.SpotImage) error
	GetImage(ctx context.Context, id string) (*models.SpotImage, error)
	ListImages(ctx context.Context, spotID string) ([]models.SpotImage, error)
	DeleteImage(ctx context.Context, id string) error
}

// BookingStore persists bookings. Writes that change a booked range are
// check-and-write operations serialized per spot.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListBySpot(ctx context.Context, spotID string) ([]*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Booking, error)
	// CreateIfAvailable inserts the booking unless it overlaps another booking
	// of the same spot, in which case it fails with ErrBookingConflict
	CreateIfAvailable(ctx context.Context, booking *models.Booking) error
	// UpdateIfAvailable moves the booking to its new dates unless they overlap
	// another booking of the same spot
	UpdateIfAvailable(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id string) error
}

// ReviewStore persists reviews and their images
type ReviewStore interface {
	// Create fails with ErrDuplicateReview if the user already reviewed the spot
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
	ListBySpot(ctx context.Context, spotID string) ([]*models.Review, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Review, error)
	Summary(ctx context.Context, spotID string) (models.RatingSummary, error)

	// AddImage appends an image unless the review already has limit images,
	// in which case it fails with ErrImageLimit
	AddImage(ctx context.Context, image *models.ReviewImage, limit int) error
	GetImage(ctx context.Context, id string) (*models.ReviewImage, error)
	ListImages(ctx context.Context, reviewID string) ([]models.ReviewImage, error)
	DeleteImage(ctx context.Context, id string) error
}

// Store bundles the entity stores
type Store struct {
	Users    UserStore
	Spots    SpotStore
	Bookings BookingStore
	Reviews  ReviewStore
}

// SpotFilter narrows a spot listing. Nil bounds are not applied; when both
// bounds of a pair are set the range is inclusive.
type SpotFilter struct {
	OwnerID  string
	MinLat   *float64
	MaxLat   *float64
	MinLng   *float64
	MaxLng   *float64
	MinPrice *float64
	MaxPrice *float64
	// Limit of zero means no limit
	Limit  int
	Offset int
}

// Matches reports whether the spot passes the filter's owner and range conditions
func (f SpotFilter) Matches(spot *models.Spot) bool {
	if f.OwnerID != "" && spot.OwnerID != f.OwnerID {
		return false
	}
	return inRange(spot.Lat, f.MinLat, f.MaxLat) &&
		inRange(spot.Lng, f.MinLng, f.MaxLng) &&
		inRange(spot.Price, f.MinPrice, f.MaxPrice)
}

func inRange(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
