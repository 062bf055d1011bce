package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/logging"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	msgSpotNotFound    = "Spot couldn't be found"
	msgBookingNotFound = "Booking couldn't be found"
)

// BookingService handles the booking lifecycle
type BookingService struct {
	store   *repository.Store
	guard   Guard
	checker *AvailabilityChecker
	now     Clock
}

// NewBookingService creates a new booking service
func NewBookingService(store *repository.Store, now Clock) *BookingService {
	if now == nil {
		now = utcNow
	}
	return &BookingService{
		store:   store,
		checker: NewAvailabilityChecker(store.Bookings),
		now:     now,
	}
}

func (s *BookingService) today() models.Date {
	return models.DateOf(s.now())
}

// Create books the spot for [start, end] on behalf of the principal
func (s *BookingService) Create(ctx context.Context, principal models.Principal, spotID string, start, end models.Date) (_ *models.Booking, err error) {
	ctx, span := logging.StartSpan(ctx, "BookingService.Create")
	defer func() { endSpan(span, err) }()

	spot, err := s.store.Spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	if err := s.guard.RejectSpotOwner(principal, spot); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, spotID, start, end, ""); err != nil {
		return nil, err
	}

	now := s.now()
	booking := &models.Booking{
		ID:        uuid.New().String(),
		SpotID:    spotID,
		UserID:    principal.UserID,
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Bookings.CreateIfAvailable(ctx, booking); err != nil {
		return nil, bookingWriteErr(err, msgSpotNotFound)
	}

	logging.FromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("spot_id", spotID).
		Str("user_id", principal.UserID).
		Msg("Booking created")
	return booking, nil
}

// Update moves the principal's booking to [start, end]
func (s *BookingService) Update(ctx context.Context, principal models.Principal, bookingID string, start, end models.Date) (_ *models.Booking, err error) {
	ctx, span := logging.StartSpan(ctx, "BookingService.Update")
	defer func() { endSpan(span, err) }()

	booking, err := s.store.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, storeErr(err, msgBookingNotFound)
	}
	if err := s.guard.RequireAuthor(principal, booking.UserID); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, booking.SpotID, start, end, booking.ID); err != nil {
		return nil, err
	}

	booking.StartDate = start
	booking.EndDate = end
	booking.UpdatedAt = s.now()
	if err := s.store.Bookings.UpdateIfAvailable(ctx, booking); err != nil {
		return nil, bookingWriteErr(err, msgBookingNotFound)
	}

	logging.FromContext(ctx).Info().Str("booking_id", booking.ID).Msg("Booking updated")
	return booking, nil
}

// Cancel deletes the principal's booking unless it is in progress
func (s *BookingService) Cancel(ctx context.Context, principal models.Principal, bookingID string) (err error) {
	ctx, span := logging.StartSpan(ctx, "BookingService.Cancel")
	defer func() { endSpan(span, err) }()

	booking, err := s.store.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return storeErr(err, msgBookingNotFound)
	}
	if err := s.guard.RequireAuthor(principal, booking.UserID); err != nil {
		return err
	}
	if booking.Range().Contains(s.today()) {
		return apperrors.NewAlreadyStartedError()
	}
	if err := s.store.Bookings.Delete(ctx, bookingID); err != nil {
		return storeErr(err, msgBookingNotFound)
	}

	logging.FromContext(ctx).Info().Str("booking_id", bookingID).Msg("Booking cancelled")
	return nil
}

// ListForUser returns the principal's bookings with their spots and derived status
func (s *BookingService) ListForUser(ctx context.Context, principal models.Principal) (_ []models.UserBooking, err error) {
	ctx, span := logging.StartSpan(ctx, "BookingService.ListForUser")
	defer func() { endSpan(span, err) }()

	if principal.IsAnonymous() {
		return nil, apperrors.NewUnauthenticatedError("Authentication required")
	}

	bookings, err := s.store.Bookings.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, storeErr(err, "")
	}

	spotIDs := make([]string, 0, len(bookings))
	seen := make(map[string]bool)
	for _, b := range bookings {
		if !seen[b.SpotID] {
			seen[b.SpotID] = true
			spotIDs = append(spotIDs, b.SpotID)
		}
	}
	summaries, err := spotSummaries(ctx, s.store.Spots, spotIDs)
	if err != nil {
		return nil, err
	}

	today := s.today()
	result := make([]models.UserBooking, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, models.UserBooking{
			Booking: *b,
			Status:  b.StatusOn(today),
			Spot:    summaries[b.SpotID],
		})
	}
	return result, nil
}

// SpotBookings is the booking list of a spot as seen by one principal. The
// owner gets full bookings with the renter; everyone else gets dates only.
type SpotBookings struct {
	Owner  []models.OwnerBookingView
	Public []models.PublicBookingView
}

// IsOwnerView reports whether the full owner view was produced
func (b SpotBookings) IsOwnerView() bool {
	return b.Owner != nil
}

// MarshalJSON renders whichever view was produced under "bookings"
func (b SpotBookings) MarshalJSON() ([]byte, error) {
	if b.IsOwnerView() {
		return json.Marshal(map[string]interface{}{"bookings": b.Owner})
	}
	public := b.Public
	if public == nil {
		public = []models.PublicBookingView{}
	}
	return json.Marshal(map[string]interface{}{"bookings": public})
}

// ListForSpot returns the bookings of a spot, redacted unless the principal owns it
func (s *BookingService) ListForSpot(ctx context.Context, principal models.Principal, spotID string) (_ *SpotBookings, err error) {
	ctx, span := logging.StartSpan(ctx, "BookingService.ListForSpot")
	defer func() { endSpan(span, err) }()

	spot, err := s.store.Spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}
	bookings, err := s.store.Bookings.ListBySpot(ctx, spotID)
	if err != nil {
		return nil, storeErr(err, msgSpotNotFound)
	}

	if principal.IsAnonymous() || principal.UserID != spot.OwnerID {
		views := make([]models.PublicBookingView, 0, len(bookings))
		for _, b := range bookings {
			views = append(views, models.PublicBookingView{SpotID: b.SpotID, StartDate: b.StartDate, EndDate: b.EndDate})
		}
		return &SpotBookings{Public: views}, nil
	}

	userIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		userIDs = append(userIDs, b.UserID)
	}
	profiles, err := s.store.Users.GetPublicProfiles(ctx, userIDs)
	if err != nil {
		return nil, storeErr(err, "")
	}

	views := make([]models.OwnerBookingView, 0, len(bookings))
	for _, b := range bookings {
		user, ok := profiles[b.UserID]
		if !ok {
			user = models.PublicUser{ID: b.UserID}
		}
		views = append(views, models.OwnerBookingView{Booking: *b, User: user})
	}
	return &SpotBookings{Owner: views}, nil
}

// ensureAvailable validates the range and runs the pre-write conflict check
func (s *BookingService) ensureAvailable(ctx context.Context, spotID string, start, end models.Date, excludeID string) error {
	conflict, err := s.checker.HasConflict(ctx, spotID, start, end, excludeID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.NewInternalError("Internal server error", fmt.Errorf("failed to check availability: %w", err))
	}
	if conflict {
		return apperrors.NewConflictError()
	}
	return nil
}

func bookingWriteErr(err error, notFound string) error {
	if errors.Is(err, repository.ErrBookingConflict) {
		return apperrors.NewConflictError()
	}
	return storeErr(err, notFound)
}
