package services

import (
	"context"
	"encoding/json"
	"testing"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	var g Guard
	spot := &models.Spot{OwnerID: "owner"}

	assert.NoError(t, g.Authorize(owner, "owner"))
	assertKind(t, g.Authorize(guest, "owner"), apperrors.KindForbidden)
	assertKind(t, g.Authorize(models.Principal{}, "owner"), apperrors.KindUnauthenticated)

	assert.NoError(t, g.RequireSpotOwner(owner, spot))
	assertKind(t, g.RequireSpotOwner(guest, spot), apperrors.KindForbidden)
	assert.NoError(t, g.RequireAuthor(guest, "guest"))

	assert.NoError(t, g.RejectSpotOwner(guest, spot))
	assertKind(t, g.RejectSpotOwner(owner, spot), apperrors.KindForbidden)
	assertKind(t, g.RejectSpotOwner(models.Principal{}, spot), apperrors.KindUnauthenticated)
}

func TestAvailabilityChecker(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Bookings.CreateIfAvailable(ctx, &models.Booking{
		ID: "b1", SpotID: "s1", UserID: "guest", StartDate: mustDate("2024-01-10"), EndDate: mustDate("2024-01-20"),
	}))
	checker := NewAvailabilityChecker(store.Bookings)

	tests := []struct {
		name       string
		start, end string
		exclude    string
		want       bool
	}{
		{"inside", "2024-01-12", "2024-01-15", "", true},
		{"covering", "2024-01-05", "2024-01-25", "", true},
		{"touching end", "2024-01-20", "2024-01-22", "", true},
		{"before", "2024-01-01", "2024-01-09", "", false},
		{"after", "2024-01-21", "2024-01-25", "", false},
		{"self excluded", "2024-01-12", "2024-01-15", "b1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.HasConflict(ctx, "s1", mustDate(tt.start), mustDate(tt.end), tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := checker.HasConflict(ctx, "s1", mustDate("2024-01-12"), mustDate("2024-01-12"), "")
	assertKind(t, err, apperrors.KindInvalidRange)
}

func TestBookingCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewBookingService(newTestStore(t), fixedClock("2024-01-01"))

	booking, err := svc.Create(ctx, guest, "s1", mustDate("2024-01-10"), mustDate("2024-01-20"))
	require.NoError(t, err)
	assert.Equal(t, "guest", booking.UserID)
	assert.NotEmpty(t, booking.ID)

	_, err = svc.Create(ctx, other, "s1", mustDate("2024-01-12"), mustDate("2024-01-15"))
	assertKind(t, err, apperrors.KindConflict)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Sorry, this spot is already booked for the specified dates", appErr.Message)
	assert.Contains(t, appErr.Fields, "start_date")
	assert.Contains(t, appErr.Fields, "end_date")

	_, err = svc.Create(ctx, other, "s1", mustDate("2024-01-20"), mustDate("2024-01-22"))
	assertKind(t, err, apperrors.KindConflict)

	_, err = svc.Create(ctx, other, "s1", mustDate("2024-01-21"), mustDate("2024-01-25"))
	assert.NoError(t, err)
}

func TestBookingCreate_Rejections(t *testing.T) {
	ctx := context.Background()
	svc := NewBookingService(newTestStore(t), fixedClock("2024-01-01"))

	_, err := svc.Create(ctx, guest, "missing", mustDate("2024-01-10"), mustDate("2024-01-20"))
	assertKind(t, err, apperrors.KindNotFound)

	_, err = svc.Create(ctx, owner, "s1", mustDate("2024-01-10"), mustDate("2024-01-20"))
	assertKind(t, err, apperrors.KindForbidden)

	_, err = svc.Create(ctx, guest, "s1", mustDate("2024-01-10"), mustDate("2024-01-10"))
	assertKind(t, err, apperrors.KindInvalidRange)

	_, err = svc.Create(ctx, guest, "s1", mustDate("2024-01-20"), mustDate("2024-01-10"))
	assertKind(t, err, apperrors.KindInvalidRange)
}

func TestBookingUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewBookingService(newTestStore(t), fixedClock("2024-01-01"))

	b1, err := svc.Create(ctx, guest, "s1", mustDate("2024-01-10"), mustDate("2024-01-20"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, "s1", mustDate("2024-02-01"), mustDate("2024-02-05"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, guest, b1.ID, mustDate("2024-01-15"), mustDate("2024-01-25"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-25", updated.EndDate.String())

	_, err = svc.Update(ctx, guest, b1.ID, mustDate("2024-01-28"), mustDate("2024-02-01"))
	assertKind(t, err, apperrors.KindConflict)

	_, err = svc.Update(ctx, other, b1.ID, mustDate("2024-03-01"), mustDate("2024-03-02"))
	assertKind(t, err, apperrors.KindForbidden)

	_, err = svc.Update(ctx, guest, b1.ID, mustDate("2024-03-02"), mustDate("2024-03-01"))
	assertKind(t, err, apperrors.KindInvalidRange)

	_, err = svc.Update(ctx, guest, "missing", mustDate("2024-03-01"), mustDate("2024-03-02"))
	assertKind(t, err, apperrors.KindNotFound)
}

func TestBookingCancel(t *testing.T) {
	tests := []struct {
		today   string
		wantErr apperrors.Kind
	}{
		{"2024-01-09", ""},
		{"2024-01-10", apperrors.KindAlreadyStarted},
		{"2024-01-15", apperrors.KindAlreadyStarted},
		{"2024-01-20", apperrors.KindAlreadyStarted},
		{"2024-01-21", ""},
	}
	for _, tt := range tests {
		t.Run(tt.today, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			require.NoError(t, store.Bookings.CreateIfAvailable(ctx, &models.Booking{
				ID: "b1", SpotID: "s1", UserID: "guest", StartDate: mustDate("2024-01-10"), EndDate: mustDate("2024-01-20"),
			}))
			svc := NewBookingService(store, fixedClock(tt.today))

			assertKind(t, svc.Cancel(ctx, other, "b1"), apperrors.KindForbidden)

			err := svc.Cancel(ctx, guest, "b1")
			if tt.wantErr != "" {
				assertKind(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assertKind(t, svc.Cancel(ctx, guest, "b1"), apperrors.KindNotFound)
		})
	}
}

func TestBookingListForUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Spots.CreateImage(ctx, &models.SpotImage{ID: "i1", SpotID: "s1", URL: "cover.png", Preview: true}))
	svc := NewBookingService(store, fixedClock("2024-01-15"))

	for _, r := range [][2]string{{"2024-01-01", "2024-01-05"}, {"2024-01-14", "2024-01-16"}, {"2024-02-01", "2024-02-03"}} {
		require.NoError(t, store.Bookings.CreateIfAvailable(ctx, &models.Booking{
			ID: r[0], SpotID: "s1", UserID: "guest", StartDate: mustDate(r[0]), EndDate: mustDate(r[1]),
		}))
	}

	bookings, err := svc.ListForUser(ctx, guest)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, models.BookingStatusPast, bookings[0].Status)
	assert.Equal(t, models.BookingStatusInProgress, bookings[1].Status)
	assert.Equal(t, models.BookingStatusUpcoming, bookings[2].Status)
	assert.Equal(t, "Cabin", bookings[0].Spot.Name)
	require.NotNil(t, bookings[0].Spot.PreviewImage)
	assert.Equal(t, "cover.png", *bookings[0].Spot.PreviewImage)
	assert.Len(t, bookings[0].Spot.Images, 1)

	none, err := svc.ListForUser(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListForUser(ctx, models.Principal{})
	assertKind(t, err, apperrors.KindUnauthenticated)
}

func TestBookingListForSpot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewBookingService(store, fixedClock("2024-01-01"))

	empty, err := svc.ListForSpot(ctx, guest, "s1")
	require.NoError(t, err)
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bookings":[]}`, string(data))

	_, err = svc.Create(ctx, guest, "s1", mustDate("2024-01-10"), mustDate("2024-01-20"))
	require.NoError(t, err)

	t.Run("owner sees renter", func(t *testing.T) {
		result, err := svc.ListForSpot(ctx, owner, "s1")
		require.NoError(t, err)
		require.True(t, result.IsOwnerView())
		require.Len(t, result.Owner, 1)
		assert.Equal(t, models.PublicUser{ID: "guest", FirstName: "Gus", LastName: "Guest"}, result.Owner[0].User)
	})

	t.Run("others see dates only", func(t *testing.T) {
		result, err := svc.ListForSpot(ctx, other, "s1")
		require.NoError(t, err)
		require.False(t, result.IsOwnerView())

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{"bookings":[{"spot_id":"s1","start_date":"2024-01-10","end_date":"2024-01-20"}]}`, string(data))
	})

	t.Run("missing spot", func(t *testing.T) {
		_, err := svc.ListForSpot(ctx, owner, "missing")
		assertKind(t, err, apperrors.KindNotFound)
	})
}
