// Package memory implements the repository stores in process memory. A
// single mutex guards all tables, so every check-and-write operation is
// atomic with respect to every other.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository"
)

type db struct {
	mu           sync.RWMutex
	users        map[string]models.User
	spots        map[string]models.Spot
	spotImages   map[string]models.SpotImage
	bookings     map[string]models.Booking
	reviews      map[string]models.Review
	reviewImages map[string]models.ReviewImage
}

// NewStore creates an empty in-memory store
func NewStore() *repository.Store {
	d := &db{
		users:        make(map[string]models.User),
		spots:        make(map[string]models.Spot),
		spotImages:   make(map[string]models.SpotImage),
		bookings:     make(map[string]models.Booking),
		reviews:      make(map[string]models.Review),
		reviewImages: make(map[string]models.ReviewImage),
	}
	return &repository.Store{
		Users:    &userStore{d},
		Spots:    &spotStore{d},
		Bookings: &bookingStore{d},
		Reviews:  &reviewStore{d},
	}
}

type userStore struct{ *db }

func (s *userStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailTaken
		}
		if strings.EqualFold(u.Username, user.Username) {
			return repository.ErrUsernameTaken
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *userStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *userStore) GetByCredential(_ context.Context, credential string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, credential) || strings.EqualFold(u.Username, credential) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userStore) GetPublicProfiles(_ context.Context, ids []string) (map[string]models.PublicUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make(map[string]models.PublicUser, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			profiles[id] = u.Public()
		}
	}
	return profiles, nil
}

type spotStore struct{ *db }

func (s *spotStore) Create(_ context.Context, spot *models.Spot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spots[spot.ID] = *spot
	return nil
}

func (s *spotStore) GetByID(_ context.Context, id string) (*models.Spot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spot, ok := s.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &spot, nil
}

func (s *spotStore) GetByIDs(_ context.Context, ids []string) (map[string]*models.Spot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spots := make(map[string]*models.Spot, len(ids))
	for _, id := range ids {
		if spot, ok := s.spots[id]; ok {
			spots[id] = &spot
		}
	}
	return spots, nil
}

func (s *spotStore) Update(_ context.Context, spot *models.Spot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.spots[spot.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := *spot
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	s.spots[spot.ID] = updated
	return nil
}

func (s *spotStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.spots, id)
	for imageID, image := range s.spotImages {
		if image.SpotID == id {
			delete(s.spotImages, imageID)
		}
	}
	for bookingID, booking := range s.bookings {
		if booking.SpotID == id {
			delete(s.bookings, bookingID)
		}
	}
	for reviewID, review := range s.reviews {
		if review.SpotID == id {
			s.deleteReviewLocked(reviewID)
		}
	}
	return nil
}

func (s *spotStore) List(_ context.Context, filter repository.SpotFilter) ([]*models.SpotListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Spot
	for _, spot := range s.spots {
		if filter.Matches(&spot) {
			matched = append(matched, spot)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	items := make([]*models.SpotListItem, 0, len(matched))
	for _, spot := range matched {
		summary := s.summaryLocked(spot.ID)
		items = append(items, &models.SpotListItem{
			Spot:         spot,
			PreviewImage: models.PreviewOf(s.spotImagesLocked(spot.ID)),
			AvgRating:    summary.AvgStarRating,
		})
	}
	return items, nil
}

func (s *spotStore) CreateImage(_ context.Context, image *models.SpotImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spots[image.SpotID]; !ok {
		return repository.ErrNotFound
	}
	s.spotImages[image.ID] = *image
	return nil
}

func (s *spotStore) GetImage(_ context.Context, id string) (*models.SpotImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	image, ok := s.spotImages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &image, nil
}

func (s *spotStore) ListImages(_ context.Context, spotID string) ([]models.SpotImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spotImagesLocked(spotID), nil
}

func (s *spotStore) DeleteImage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spotImages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.spotImages, id)
	return nil
}

type bookingStore struct{ *db }

func (s *bookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &booking, nil
}

func (s *bookingStore) ListBySpot(_ context.Context, spotID string) ([]*models.Booking, error) {
	return s.filter(func(b *models.Booking) bool { return b.SpotID == spotID }), nil
}

func (s *bookingStore) ListByUser(_ context.Context, userID string) ([]*models.Booking, error) {
	return s.filter(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (s *bookingStore) filter(keep func(*models.Booking) bool) []*models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := []*models.Booking{}
	for _, b := range s.bookings {
		if keep(&b) {
			booking := b
			bookings = append(bookings, &booking)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartDate.Before(bookings[j].StartDate)
	})
	return bookings
}

func (s *bookingStore) CreateIfAvailable(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spots[booking.SpotID]; !ok {
		return repository.ErrNotFound
	}
	if s.overlapsLocked(booking) {
		return repository.ErrBookingConflict
	}
	s.bookings[booking.ID] = *booking
	return nil
}

func (s *bookingStore) UpdateIfAvailable(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bookings[booking.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.overlapsLocked(booking) {
		return repository.ErrBookingConflict
	}
	existing.StartDate = booking.StartDate
	existing.EndDate = booking.EndDate
	existing.UpdatedAt = booking.UpdatedAt
	s.bookings[booking.ID] = existing
	return nil
}

// overlapsLocked reports whether the booking overlaps any other booking of its spot
func (s *bookingStore) overlapsLocked(booking *models.Booking) bool {
	candidate := booking.Range()
	for id, other := range s.bookings {
		if id == booking.ID || other.SpotID != booking.SpotID {
			continue
		}
		if other.Range().Overlaps(candidate) {
			return true
		}
	}
	return false
}

func (s *bookingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

type reviewStore struct{ *db }

func (s *reviewStore) Create(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spots[review.SpotID]; !ok {
		return repository.ErrNotFound
	}
	for _, r := range s.reviews {
		if r.SpotID == review.SpotID && r.UserID == review.UserID {
			return repository.ErrDuplicateReview
		}
	}
	s.reviews[review.ID] = *review
	return nil
}

func (s *reviewStore) GetByID(_ context.Context, id string) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	review, ok := s.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &review, nil
}

func (s *reviewStore) Update(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reviews[review.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Review = review.Review
	existing.Stars = review.Stars
	existing.UpdatedAt = review.UpdatedAt
	s.reviews[review.ID] = existing
	return nil
}

func (s *reviewStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	s.deleteReviewLocked(id)
	return nil
}

func (s *reviewStore) ListBySpot(_ context.Context, spotID string) ([]*models.Review, error) {
	return s.filter(func(r *models.Review) bool { return r.SpotID == spotID }), nil
}

func (s *reviewStore) ListByUser(_ context.Context, userID string) ([]*models.Review, error) {
	return s.filter(func(r *models.Review) bool { return r.UserID == userID }), nil
}

func (s *reviewStore) filter(keep func(*models.Review) bool) []*models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := []*models.Review{}
	for _, r := range s.reviews {
		if keep(&r) {
			review := r
			reviews = append(reviews, &review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews
}

func (s *reviewStore) Summary(_ context.Context, spotID string) (models.RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryLocked(spotID), nil
}

func (s *reviewStore) AddImage(_ context.Context, image *models.ReviewImage, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[image.ReviewID]; !ok {
		return repository.ErrNotFound
	}
	count := 0
	for _, existing := range s.reviewImages {
		if existing.ReviewID == image.ReviewID {
			count++
		}
	}
	if count >= limit {
		return repository.ErrImageLimit
	}
	s.reviewImages[image.ID] = *image
	return nil
}

func (s *reviewStore) GetImage(_ context.Context, id string) (*models.ReviewImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	image, ok := s.reviewImages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &image, nil
}

func (s *reviewStore) ListImages(_ context.Context, reviewID string) ([]models.ReviewImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	images := []models.ReviewImage{}
	for _, image := range s.reviewImages {
		if image.ReviewID == reviewID {
			images = append(images, image)
		}
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].CreatedAt.Before(images[j].CreatedAt)
	})
	return images, nil
}

func (s *reviewStore) DeleteImage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviewImages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.reviewImages, id)
	return nil
}

// The helpers below expect the caller to hold mu.

func (d *db) spotImagesLocked(spotID string) []models.SpotImage {
	images := []models.SpotImage{}
	for _, image := range d.spotImages {
		if image.SpotID == spotID {
			images = append(images, image)
		}
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].CreatedAt.Before(images[j].CreatedAt)
	})
	return images
}

func (d *db) summaryLocked(spotID string) models.RatingSummary {
	var summary models.RatingSummary
	total := 0
	for _, r := range d.reviews {
		if r.SpotID == spotID {
			summary.NumReviews++
			total += r.Stars
		}
	}
	if summary.NumReviews > 0 {
		avg := float64(total) / float64(summary.NumReviews)
		summary.AvgStarRating = &avg
	}
	return summary
}

func (d *db) deleteReviewLocked(reviewID string) {
	delete(d.reviews, reviewID)
	for imageID, image := range d.reviewImages {
		if image.ReviewID == reviewID {
			delete(d.reviewImages, imageID)
		}
	}
}
