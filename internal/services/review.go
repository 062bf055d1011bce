package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/cache"
	"spot-booking-backend/internal/logging"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	msgReviewNotFound      = "Review couldn't be found"
	msgReviewImageNotFound = "Review Image couldn't be found"

	// MaxReviewImages caps the images attached to one review
	MaxReviewImages = 10
)

// ReviewInput carries the editable fields of a review. Stars arrives as a
// JSON number and must be a whole number from 1 to 5.
type ReviewInput struct {
	Review string   `json:"review"`
	Stars  *float64 `json:"stars"`
}

// Validate returns a validation error listing every invalid field
func (in *ReviewInput) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Review) == "" {
		fields["review"] = "Review text is required"
	}
	if in.Stars == nil || *in.Stars != math.Trunc(*in.Stars) || *in.Stars < 1 || *in.Stars > 5 {
		fields["stars"] = "Stars must be an integer from 1 to 5"
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("Bad Request", fields)
	}
	return nil
}

// ReviewService handles reviews, their images and spot rating aggregation
type ReviewService struct {
	store *repository.Store
	guard Guard
	cache cache.Cache
	now   Clock
}

// NewReviewService creates a new review service; a nil cache disables invalidation
func NewReviewService(store *repository.Store, c cache.Cache, now Clock) *ReviewService {
	if c == nil {
		c = cache.Noop{}
	}
	if now == nil {
		now = utcNow
	}
	return &ReviewService{store: store, cache: c, now: now}
}

// Create records the principal's review of a spot
func (s *ReviewService) Create(ctx context.Context, principal models.Principal, spotID string, in ReviewInput) (_ *models.Review, err error) {
	ctx, span := logging.StartSpan(ctx, "ReviewService.Create")
	defer func() { endSpan(span, err) }()

	if principal.IsAnonymous() {
		return nil, apperrors.NewUnauthenticatedError("Authentication required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.Spots.GetByID(ctx, spotID); err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}

	now := s.now()
	review := &models.Review{
		ID:        uuid.New().String(),
		SpotID:    spotID,
		UserID:    principal.UserID,
		Review:    strings.TrimSpace(in.Review),
		Stars:     int(*in.Stars),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperrors.NewDuplicateReviewError()
		}
		return nil, storeErr(err, msgSpotNotFound)
	}
	invalidateSpot(ctx, s.cache, spotID)

	logging.FromContext(ctx).Info().
		Str("review_id", review.ID).
		Str("spot_id", spotID).
		Int("stars", review.Stars).
		Msg("Review created")
	return review, nil
}

// Update replaces the text and stars of the principal's review
func (s *ReviewService) Update(ctx context.Context, principal models.Principal, reviewID string, in ReviewInput) (_ *models.Review, err error) {
	ctx, span := logging.StartSpan(ctx, "ReviewService.Update")
	defer func() { endSpan(span, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	review, err := s.authoredReview(ctx, principal, reviewID)
	if err != nil {
		return nil, err
	}

	review.Review = strings.TrimSpace(in.Review)
	review.Stars = int(*in.Stars)
	review.UpdatedAt = s.now()
	if err := s.store.Reviews.Update(ctx, review); err != nil {
		return nil, storeErr(err, msgReviewNotFound)
	}
	invalidateSpot(ctx, s.cache, review.SpotID)
	return review, nil
}

// Delete removes the principal's review and its images
func (s *ReviewService) Delete(ctx context.Context, principal models.Principal, reviewID string) (err error) {
	ctx, span := logging.StartSpan(ctx, "ReviewService.Delete")
	defer func() { endSpan(span, err) }()

	review, err := s.authoredReview(ctx, principal, reviewID)
	if err != nil {
		return err
	}
	if err := s.store.Reviews.Delete(ctx, reviewID); err != nil {
		return storeErr(err, msgReviewNotFound)
	}
	invalidateSpot(ctx, s.cache, review.SpotID)

	logging.FromContext(ctx).Info().Str("review_id", reviewID).Msg("Review deleted")
	return nil
}

// AddImage attaches an image URL to the principal's review
func (s *ReviewService) AddImage(ctx context.Context, principal models.Principal, reviewID, imageURL string) (_ *models.ReviewImage, err error) {
	ctx, span := logging.StartSpan(ctx, "ReviewService.AddImage")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(imageURL) == "" {
		return nil, apperrors.NewValidationError("Bad Request", map[string]string{"url": "Image url is required"})
	}
	if _, err := s.authoredReview(ctx, principal, reviewID); err != nil {
		return nil, err
	}

	image := &models.ReviewImage{
		ID:        uuid.New().String(),
		ReviewID:  reviewID,
		URL:       strings.TrimSpace(imageURL),
		CreatedAt: s.now(),
	}
	if err := s.store.Reviews.AddImage(ctx, image, MaxReviewImages); err != nil {
		if errors.Is(err, repository.ErrImageLimit) {
			return nil, apperrors.NewImageLimitError()
		}
		return nil, storeErr(err, msgReviewNotFound)
	}
	return image, nil
}

// DeleteImage removes an image from the principal's review
func (s *ReviewService) DeleteImage(ctx context.Context, principal models.Principal, imageID string) (err error) {
	ctx, span := logging.StartSpan(ctx, "ReviewService.DeleteImage")
	defer func() { endSpan(span, err) }()

	image, err := s.store.Reviews.GetImage(ctx, imageID)
	if err != nil {
		return storeErr(err, msgReviewImageNotFound)
	}
	if _, err := s.authoredReview(ctx, principal, image.ReviewID); err != nil {
		return err
	}
	if err := s.store.Reviews.DeleteImage(ctx, imageID); err != nil {
		return storeErr(err, msgReviewImageNotFound)
	}
	return nil
}

// ListForSpot returns the reviews of a spot with their authors and images
func (s *ReviewService) ListForSpot(ctx context.Context, spotID string) (_ []models.ReviewDetail, err error) {
	ctx, span := logging.StartSpan(ctx, "ReviewService.ListForSpot")
	defer func() { endSpan(span, err) }()

	if _, err := s.store.Spots.GetByID(ctx, spotID); err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	reviews, err := s.store.Reviews.ListBySpot(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, "")
	}
	return s.details(ctx, reviews, false)
}

// ListForUser returns the principal's reviews with their spots and images
func (s *ReviewService) ListForUser(ctx context.Context, principal models.Principal) (_ []models.ReviewDetail, err error) {
	ctx, span := logging.StartSpan(ctx, "ReviewService.ListForUser")
	defer func() { endSpan(span, err) }()

	if principal.IsAnonymous() {
		return nil, apperrors.NewUnauthenticatedError("Authentication required")
	}
	reviews, err := s.store.Reviews.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, storeErr(err, "")
	}
	return s.details(ctx, reviews, true)
}

// AggregateForSpot counts the reviews of a spot and averages their stars.
// The average is nil when there are no reviews.
func (s *ReviewService) AggregateForSpot(ctx context.Context, spotID string) (_ models.RatingSummary, err error) {
	ctx, span := logging.StartSpan(ctx, "ReviewService.AggregateForSpot")
	defer func() { endSpan(span, err) }()

	if _, err := s.store.Spots.GetByID(ctx, spotID); err != nil {
		return models.RatingSummary{}, storeErr(err, msgSpotNotFound)
	}
	summary, err := s.store.Reviews.Summary(ctx, spotID)
	if err != nil {
		return models.RatingSummary{}, storeErr(err, "")
	}
	return summary, nil
}

func (s *ReviewService) authoredReview(ctx context.Context, principal models.Principal, reviewID string) (*models.Review, error) {
	review, err := s.store.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, storeErr(err, msgReviewNotFound)
	}
	if err := s.guard.RequireAuthor(principal, review.UserID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) details(ctx context.Context, reviews []*models.Review, withSpot bool) ([]models.ReviewDetail, error) {
	userIDs := make([]string, 0, len(reviews))
	spotIDs := make([]string, 0, len(reviews))
	for _, r := range reviews {
		userIDs = append(userIDs, r.UserID)
		spotIDs = append(spotIDs, r.SpotID)
	}

	profiles, err := s.store.Users.GetPublicProfiles(ctx, userIDs)
	if err != nil {
		return nil, storeErr(err, "")
	}
	var spots map[string]models.SpotSummary
	if withSpot {
		if spots, err = spotSummaries(ctx, s.store.Spots, spotIDs); err != nil {
			return nil, err
		}
	}

	result := make([]models.ReviewDetail, 0, len(reviews))
	for _, r := range reviews {
		images, err := s.store.Reviews.ListImages(ctx, r.ID)
		if err != nil {
			return nil, storeErr(err, "")
		}
		user, ok := profiles[r.UserID]
		if !ok {
			user = models.PublicUser{ID: r.UserID}
		}
		detail := models.ReviewDetail{Review: *r, User: user, Images: images}
		if spot, ok := spots[r.SpotID]; ok {
			// listings show the preview image, not the whole gallery
			spot.Images = nil
			detail.Spot = &spot
		}
		result = append(result, detail)
	}
	return result, nil
}
