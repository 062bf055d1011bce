package services

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/logging"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository"

	"github.com/google/uuid"
)

// Presigner issues upload URLs for object storage
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	ObjectURL(key string) string
}

// UploadResponse carries a presigned upload URL and the URL the image will have
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	ImageURL  string `json:"image_url"`
	ExpiresIn int    `json:"expires_in"`
}

// ImageService hands out presigned upload URLs for spot and review images
type ImageService struct {
	store     *repository.Store
	guard     Guard
	presigner Presigner
	expiry    time.Duration
}

// NewImageService creates a new image service
func NewImageService(store *repository.Store, presigner Presigner, expiry time.Duration) *ImageService {
	return &ImageService{store: store, presigner: presigner, expiry: expiry}
}

// PresignSpotImage issues an upload URL for an image of the principal's spot
func (s *ImageService) PresignSpotImage(ctx context.Context, principal models.Principal, spotID, contentType string) (_ *UploadResponse, err error) {
	ctx, span := logging.StartSpan(ctx, "ImageService.PresignSpotImage")
	defer func() { endSpan(span, err) }()

	if err := validateImageType(contentType); err != nil {
		return nil, err
	}
	spot, err := s.store.Spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	if err := s.guard.RequireSpotOwner(principal, spot); err != nil {
		return nil, err
	}
	return s.presign(ctx, fmt.Sprintf("spots/%s/%s", spotID, uuid.New().String()), contentType)
}

// PresignReviewImage issues an upload URL for an image of the principal's review
func (s *ImageService) PresignReviewImage(ctx context.Context, principal models.Principal, reviewID, contentType string) (_ *UploadResponse, err error) {
	ctx, span := logging.StartSpan(ctx, "ImageService.PresignReviewImage")
	defer func() { endSpan(span, err) }()

	if err := validateImageType(contentType); err != nil {
		return nil, err
	}
	review, err := s.store.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, storeErr(err, msgReviewNotFound)
	}
	if err := s.guard.RequireAuthor(principal, review.UserID); err != nil {
		return nil, err
	}
	return s.presign(ctx, fmt.Sprintf("reviews/%s/%s", reviewID, uuid.New().String()), contentType)
}

func (s *ImageService) presign(ctx context.Context, key, contentType string) (*UploadResponse, error) {
	if s.presigner == nil {
		return nil, apperrors.NewInternalError("Image uploads are not configured", nil)
	}
	uploadURL, err := s.presigner.PresignPut(ctx, key, contentType, s.expiry)
	if err != nil {
		return nil, apperrors.NewInternalError("Internal server error", err)
	}
	return &UploadResponse{
		UploadURL: uploadURL,
		ImageURL:  s.presigner.ObjectURL(key),
		ExpiresIn: int(s.expiry.Seconds()),
	}, nil
}

func validateImageType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return apperrors.NewValidationError("Bad Request", map[string]string{"content_type": "Content type must be an image"})
	}
	return nil
}
