package services

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/cache"
	"spot-booking-backend/internal/logging"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	msgSpotImageNotFound = "Spot Image couldn't be found"

	maxSpotNameLength = 50
	maxPage           = 10
	maxPageSize       = 20
)

// SpotInput carries the editable fields of a spot. Numeric fields are
// pointers so that a missing value can be told apart from zero.
type SpotInput struct {
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Country     string   `json:"country"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

// Validate returns a validation error listing every invalid field
func (in *SpotInput) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Address) == "" {
		fields["address"] = "Street address is required"
	}
	if strings.TrimSpace(in.City) == "" {
		fields["city"] = "City is required"
	}
	if strings.TrimSpace(in.State) == "" {
		fields["state"] = "State is required"
	}
	if strings.TrimSpace(in.Country) == "" {
		fields["country"] = "Country is required"
	}
	if in.Lat == nil || *in.Lat < -90 || *in.Lat > 90 {
		fields["lat"] = "Latitude is not valid"
	}
	if in.Lng == nil || *in.Lng < -180 || *in.Lng > 180 {
		fields["lng"] = "Longitude is not valid"
	}
	if name := strings.TrimSpace(in.Name); name == "" || utf8.RuneCountInString(name) > maxSpotNameLength {
		fields["name"] = "Name must be less than 50 characters"
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "Description is required"
	}
	if in.Price == nil || *in.Price < 0 {
		fields["price"] = "Price per day is required"
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("Bad Request", fields)
	}
	return nil
}

func (in *SpotInput) applyTo(spot *models.Spot) {
	spot.Address = strings.TrimSpace(in.Address)
	spot.City = strings.TrimSpace(in.City)
	spot.State = strings.TrimSpace(in.State)
	spot.Country = strings.TrimSpace(in.Country)
	spot.Lat = *in.Lat
	spot.Lng = *in.Lng
	spot.Name = strings.TrimSpace(in.Name)
	spot.Description = strings.TrimSpace(in.Description)
	spot.Price = *in.Price
}

// SpotListParams is a parsed spot search request. Page and Size are zero when absent.
type SpotListParams struct {
	Filter repository.SpotFilter
	Page   int
	Size   int
}

// ParseSpotListParams validates the search query string. Every bad
// parameter is reported on its own field.
func ParseSpotListParams(q url.Values) (SpotListParams, error) {
	var params SpotListParams
	fields := map[string]string{}

	parseInt := func(key string, max int, msg string) int {
		raw := q.Get(key)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > max {
			fields[key] = msg
			return 0
		}
		return n
	}
	// filters are named minPrice etc.; the snake_case spelling is accepted too
	// and errors are reported under whichever name was sent
	parseFloat := func(name, alias string, min, max float64, msg string) *float64 {
		key := name
		raw := q.Get(name)
		if raw == "" {
			key, raw = alias, q.Get(alias)
		}
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || v < min || v > max {
			fields[key] = msg
			return nil
		}
		return &v
	}

	params.Page = parseInt("page", maxPage, "Page must be between 1 and 10")
	params.Size = parseInt("size", maxPageSize, "Size must be between 1 and 20")

	f := &params.Filter
	f.MinLat = parseFloat("minLat", "min_lat", -90, 90, "Minimum latitude is invalid")
	f.MaxLat = parseFloat("maxLat", "max_lat", -90, 90, "Maximum latitude is invalid")
	f.MinLng = parseFloat("minLng", "min_lng", -180, 180, "Minimum longitude is invalid")
	f.MaxLng = parseFloat("maxLng", "max_lng", -180, 180, "Maximum longitude is invalid")
	f.MinPrice = parseFloat("minPrice", "min_price", 0, math.MaxFloat64, "Minimum price must be greater than or equal to 0")
	f.MaxPrice = parseFloat("maxPrice", "max_price", 0, math.MaxFloat64, "Maximum price must be greater than or equal to 0")

	if len(fields) > 0 {
		return SpotListParams{}, apperrors.NewValidationError("Bad Request", fields)
	}

	if params.Size > 0 {
		page := params.Page
		if page == 0 {
			page = 1
		}
		f.Limit = params.Size
		f.Offset = params.Size * (page - 1)
	}
	return params, nil
}

// SpotListResult is a page of search results. Page and size are echoed when given.
type SpotListResult struct {
	Spots []*models.SpotListItem `json:"spots"`
	Page  *int                   `json:"page,omitempty"`
	Size  *int                   `json:"size,omitempty"`
}

// SpotService handles spot listings, search and images
type SpotService struct {
	store *repository.Store
	guard Guard
	cache cache.Cache
	ttl   time.Duration
	now   Clock
}

// NewSpotService creates a new spot service; a nil cache disables caching
func NewSpotService(store *repository.Store, c cache.Cache, ttl time.Duration, now Clock) *SpotService {
	if c == nil {
		c = cache.Noop{}
	}
	if now == nil {
		now = utcNow
	}
	return &SpotService{store: store, cache: c, ttl: ttl, now: now}
}

// List searches spots
func (s *SpotService) List(ctx context.Context, params SpotListParams) (_ *SpotListResult, err error) {
	ctx, span := logging.StartSpan(ctx, "SpotService.List")
	defer func() { endSpan(span, err) }()

	spots, err := s.store.Spots.List(ctx, params.Filter)
	if err != nil {
		return nil, storeErr(err, "")
	}

	result := &SpotListResult{Spots: spots}
	if params.Page > 0 {
		page := params.Page
		result.Page = &page
	}
	if params.Size > 0 {
		size := params.Size
		result.Size = &size
	}
	return result, nil
}

// ListOwned returns the spots owned by the principal
func (s *SpotService) ListOwned(ctx context.Context, principal models.Principal) (_ []*models.SpotListItem, err error) {
	ctx, span := logging.StartSpan(ctx, "SpotService.ListOwned")
	defer func() { endSpan(span, err) }()

	if principal.IsAnonymous() {
		return nil, apperrors.NewUnauthenticatedError("Authentication required")
	}
	spots, err := s.store.Spots.List(ctx, repository.SpotFilter{OwnerID: principal.UserID})
	if err != nil {
		return nil, storeErr(err, "")
	}
	return spots, nil
}

// Get returns the full detail of a spot, served from the cache when possible
func (s *SpotService) Get(ctx context.Context, spotID string) (_ *models.SpotDetail, err error) {
	ctx, span := logging.StartSpan(ctx, "SpotService.Get")
	defer func() { endSpan(span, err) }()

	key := cache.SpotDetailKey(spotID)
	var cached models.SpotDetail
	if cacheGetJSON(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	spot, err := s.store.Spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	images, err := s.store.Spots.ListImages(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	summary, err := s.store.Reviews.Summary(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	profiles, err := s.store.Users.GetPublicProfiles(ctx, []string{spot.OwnerID})
	if err != nil {
		return nil, storeErr(err, "")
	}
	owner, ok := profiles[spot.OwnerID]
	if !ok {
		owner = models.PublicUser{ID: spot.OwnerID}
	}

	detail := &models.SpotDetail{
		Spot:          *spot,
		Images:        images,
		Owner:         owner,
		NumReviews:    summary.NumReviews,
		AvgStarRating: summary.AvgStarRating,
	}
	cacheSetJSON(ctx, s.cache, key, detail, s.ttl)
	return detail, nil
}

// Create lists a new spot owned by the principal
func (s *SpotService) Create(ctx context.Context, principal models.Principal, in SpotInput) (_ *models.Spot, err error) {
	ctx, span := logging.StartSpan(ctx, "SpotService.Create")
	defer func() { endSpan(span, err) }()

	if principal.IsAnonymous() {
		return nil, apperrors.NewUnauthenticatedError("Authentication required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	spot := &models.Spot{
		ID:        uuid.New().String(),
		OwnerID:   principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.applyTo(spot)
	if err := s.store.Spots.Create(ctx, spot); err != nil {
		return nil, storeErr(err, "")
	}

	logging.FromContext(ctx).Info().Str("spot_id", spot.ID).Str("owner_id", spot.OwnerID).Msg("Spot created")
	return spot, nil
}

// Update replaces the editable fields of the principal's spot
func (s *SpotService) Update(ctx context.Context, principal models.Principal, spotID string, in SpotInput) (_ *models.Spot, err error) {
	ctx, span := logging.StartSpan(ctx, "SpotService.Update")
	defer func() { endSpan(span, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	spot, err := s.ownedSpot(ctx, principal, spotID)
	if err != nil {
		return nil, err
	}

	in.applyTo(spot)
	spot.UpdatedAt = s.now()
	if err := s.store.Spots.Update(ctx, spot); err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	invalidateSpot(ctx, s.cache, spotID)

	logging.FromContext(ctx).Info().Str("spot_id", spotID).Msg("Spot updated")
	return spot, nil
}

// Delete removes the principal's spot with everything attached to it
func (s *SpotService) Delete(ctx context.Context, principal models.Principal, spotID string) (err error) {
	ctx, span := logging.StartSpan(ctx, "SpotService.Delete")
	defer func() { endSpan(span, err) }()

	if _, err := s.ownedSpot(ctx, principal, spotID); err != nil {
		return err
	}
	if err := s.store.Spots.Delete(ctx, spotID); err != nil {
		return storeErr(err, msgSpotNotFound)
	}
	invalidateSpot(ctx, s.cache, spotID)

	logging.FromContext(ctx).Info().Str("spot_id", spotID).Msg("Spot deleted")
	return nil
}

// AddImage attaches an image URL to the principal's spot
func (s *SpotService) AddImage(ctx context.Context, principal models.Principal, spotID, imageURL string, preview bool) (_ *models.SpotImage, err error) {
	ctx, span := logging.StartSpan(ctx, "SpotService.AddImage")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(imageURL) == "" {
		return nil, apperrors.NewValidationError("Bad Request", map[string]string{"url": "Image url is required"})
	}
	if _, err := s.ownedSpot(ctx, principal, spotID); err != nil {
		return nil, err
	}

	image := &models.SpotImage{
		ID:        uuid.New().String(),
		SpotID:    spotID,
		URL:       strings.TrimSpace(imageURL),
		Preview:   preview,
		CreatedAt: s.now(),
	}
	if err := s.store.Spots.CreateImage(ctx, image); err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	invalidateSpot(ctx, s.cache, spotID)
	return image, nil
}

// DeleteImage removes an image from the principal's spot
func (s *SpotService) DeleteImage(ctx context.Context, principal models.Principal, imageID string) (err error) {
	ctx, span := logging.StartSpan(ctx, "SpotService.DeleteImage")
	defer func() { endSpan(span, err) }()

	image, err := s.store.Spots.GetImage(ctx, imageID)
	if err != nil {
		return storeErr(err, msgSpotImageNotFound)
	}
	if _, err := s.ownedSpot(ctx, principal, image.SpotID); err != nil {
		return err
	}
	if err := s.store.Spots.DeleteImage(ctx, imageID); err != nil {
		return storeErr(err, msgSpotImageNotFound)
	}
	invalidateSpot(ctx, s.cache, image.SpotID)
	return nil
}

func (s *SpotService) ownedSpot(ctx context.Context, principal models.Principal, spotID string) (*models.Spot, error) {
	spot, err := s.store.Spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	if err := s.guard.RequireSpotOwner(principal, spot); err != nil {
		return nil, err
	}
	return spot, nil
}

// spotSummaries loads the given spots with their images and preview image
func spotSummaries(ctx context.Context, spots repository.SpotStore, ids []string) (map[string]models.SpotSummary, error) {
	byID, err := spots.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "")
	}

	summaries := make(map[string]models.SpotSummary, len(byID))
	for id, spot := range byID {
		images, err := spots.ListImages(ctx, id)
		if err != nil {
			return nil, storeErr(err, "")
		}
		summary := spot.Summary()
		summary.Images = images
		summary.PreviewImage = models.PreviewOf(images)
		summaries[id] = summary
	}
	return summaries, nil
}
