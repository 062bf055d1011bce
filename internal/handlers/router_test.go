package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spot-booking-backend/internal/cache"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository/memory"
	"spot-booking-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
}

// newTestRouter builds the API over an empty memory store with today pinned to 2024-01-01
func newTestRouter() http.Handler {
	store := memory.NewStore()
	now := func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	return NewRouter(Services{
		Users:    services.NewUserService(store.Users, "test-secret", time.Hour),
		Spots:    services.NewSpotService(store, cache.Noop{}, time.Minute, now),
		Bookings: services.NewBookingService(store, now),
		Reviews:  services.NewReviewService(store, cache.Noop{}, now),
		Images:   services.NewImageService(store, nil, time.Minute),
	})
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	server := httptest.NewServer(newTestRouter())
	t.Cleanup(server.Close)
	return &testAPI{t: t, server: server}
}

// do sends a JSON request and decodes the response into out when non-nil
func (a *testAPI) do(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+"/api/v1"+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) signup(username string) (string, string) {
	a.t.Helper()
	var result struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	status := a.do(http.MethodPost, "/users", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"password":   "secret123",
		"first_name": "Test",
		"last_name":  "User",
	}, &result)
	require.Equal(a.t, http.StatusCreated, status)
	require.NotEmpty(a.t, result.Token)
	return result.User.ID, result.Token
}

func (a *testAPI) createSpot(token string) string {
	a.t.Helper()
	var spot models.Spot
	status := a.do(http.MethodPost, "/spots", token, map[string]interface{}{
		"address": "1 Main St", "city": "Town", "state": "ST", "country": "US",
		"lat": 40.5, "lng": -73.9, "name": "Cabin", "description": "Quiet", "price": 120,
	}, &spot)
	require.Equal(a.t, http.StatusCreated, status)
	return spot.ID
}

func TestBookingFlow(t *testing.T) {
	api := newTestAPI(t)
	ownerID, ownerToken := api.signup("olive")
	_, guestToken := api.signup("gus")
	_, otherToken := api.signup("otto")
	spotID := api.createSpot(ownerToken)

	var booking models.Booking
	status := api.do(http.MethodPost, "/spots/"+spotID+"/bookings", guestToken,
		map[string]string{"start_date": "2024-02-01", "end_date": "2024-02-05"}, &booking)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2024-02-01", booking.StartDate.String())

	var errBody ErrorResponse
	status = api.do(http.MethodPost, "/spots/"+spotID+"/bookings", otherToken,
		map[string]string{"start_date": "2024-02-05", "end_date": "2024-02-07"}, &errBody)
	assert.Equal(t, http.StatusForbidden, status)
	assert.NotEmpty(t, errBody.Error)

	status = api.do(http.MethodPost, "/spots/"+spotID+"/bookings", ownerToken,
		map[string]string{"start_date": "2024-03-01", "end_date": "2024-03-02"}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	errBody = ErrorResponse{}
	status = api.do(http.MethodPost, "/spots/"+spotID+"/bookings", otherToken,
		map[string]string{"start_date": "2024-03-01"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody.Errors, "end_date")

	t.Run("non-owner sees dates only", func(t *testing.T) {
		var body struct {
			Bookings []map[string]interface{} `json:"bookings"`
		}
		status := api.do(http.MethodGet, "/spots/"+spotID+"/bookings", otherToken, nil, &body)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, body.Bookings, 1)
		assert.Equal(t, "2024-02-01", body.Bookings[0]["start_date"])
		assert.NotContains(t, body.Bookings[0], "id")
		assert.NotContains(t, body.Bookings[0], "user")
	})

	t.Run("owner sees renters", func(t *testing.T) {
		var body struct {
			Bookings []map[string]interface{} `json:"bookings"`
		}
		status := api.do(http.MethodGet, "/spots/"+spotID+"/bookings", ownerToken, nil, &body)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, body.Bookings, 1)
		assert.Equal(t, booking.ID, body.Bookings[0]["id"])
		assert.Contains(t, body.Bookings[0], "user")
	})

	t.Run("guest lists and cancels", func(t *testing.T) {
		var body struct {
			Bookings []models.UserBooking `json:"bookings"`
		}
		status := api.do(http.MethodGet, "/bookings/current", guestToken, nil, &body)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, body.Bookings, 1)
		assert.Equal(t, ownerID, body.Bookings[0].Spot.OwnerID)

		assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/bookings/"+booking.ID, otherToken, nil, nil))

		var msg MessageResponse
		status = api.do(http.MethodDelete, "/bookings/"+booking.ID, guestToken, nil, &msg)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Successfully deleted", msg.Message)
	})
}

func TestReviewFlow(t *testing.T) {
	api := newTestAPI(t)
	_, ownerToken := api.signup("olive")
	_, guestToken := api.signup("gus")
	spotID := api.createSpot(ownerToken)

	var detail map[string]interface{}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/spots/"+spotID, "", nil, &detail))
	assert.Nil(t, detail["avg_star_rating"])
	assert.EqualValues(t, 0, detail["num_reviews"])

	review := map[string]interface{}{"review": "Lovely", "stars": 4}
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/spots/"+spotID+"/reviews", guestToken, review, nil))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/spots/"+spotID+"/reviews", guestToken, review, nil))

	var errBody ErrorResponse
	status := api.do(http.MethodPost, "/spots/"+spotID+"/reviews", ownerToken,
		map[string]interface{}{"review": "", "stars": 7}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody.Errors, "review")
	assert.Contains(t, errBody.Errors, "stars")

	detail = nil
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/spots/"+spotID, "", nil, &detail))
	assert.EqualValues(t, 4, detail["avg_star_rating"])
	assert.EqualValues(t, 1, detail["num_reviews"])

	var reviews struct {
		Reviews []models.ReviewDetail `json:"reviews"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/spots/"+spotID+"/reviews", "", nil, &reviews))
	assert.Len(t, reviews.Reviews, 1)
}

func TestSpotRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, ownerToken := api.signup("olive")
	_, otherToken := api.signup("otto")
	spotID := api.createSpot(ownerToken)

	var owned struct {
		Spots []models.SpotListItem `json:"spots"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/spots/current", ownerToken, nil, &owned))
	assert.Len(t, owned.Spots, 1)

	var list services.SpotListResult
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/spots?page=1&size=5", "", nil, &list))
	assert.Len(t, list.Spots, 1)
	require.NotNil(t, list.Page)
	assert.Equal(t, 1, *list.Page)

	var errBody ErrorResponse
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/spots?page=0", "", nil, &errBody))
	assert.Contains(t, errBody.Errors, "page")

	update := map[string]interface{}{
		"address": "2 Main St", "city": "Town", "state": "ST", "country": "US",
		"lat": 40.5, "lng": -73.9, "name": "Cabin", "description": "Quiet", "price": 150,
	}
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, "/spots/"+spotID, otherToken, update, nil))
	assert.Equal(t, http.StatusOK, api.do(http.MethodPut, "/spots/"+spotID, ownerToken, update, nil))

	assert.Equal(t, http.StatusInternalServerError,
		api.do(http.MethodPost, "/spots/"+spotID+"/images/upload-url", ownerToken, UploadRequest{ContentType: "image/png"}, nil))

	assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/spots/"+spotID, ownerToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/spots/"+spotID, "", nil, nil))
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	var errBody ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/bookings/current", "", nil, &errBody))
	assert.Equal(t, "Authentication required", errBody.Error)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/spots", "not-a-token", nil, nil))
}

func TestSignupAndLogin(t *testing.T) {
	api := newTestAPI(t)
	api.signup("olive")

	var errBody ErrorResponse
	status := api.do(http.MethodPost, "/users", "", map[string]string{
		"email": "olive@example.com", "username": "olive2", "password": "secret123",
		"first_name": "Test", "last_name": "User",
	}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, errBody.Errors, "email")

	var result struct {
		Token string `json:"token"`
	}
	status = api.do(http.MethodPost, "/session", "", map[string]string{"credential": "olive", "password": "secret123"}, &result)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, result.Token)

	assert.Equal(t, http.StatusUnauthorized,
		api.do(http.MethodPost, "/session", "", map[string]string{"credential": "olive", "password": "wrong-pass"}, nil))
}

func TestSpotPriceFilter(t *testing.T) {
	api := newTestAPI(t)
	_, ownerToken := api.signup("olive")
	api.createSpot(ownerToken)

	var list services.SpotListResult
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/spots?minPrice=50&maxPrice=100", "", nil, &list))
	assert.Empty(t, list.Spots)

	list = services.SpotListResult{}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/spots?minPrice=50", "", nil, &list))
	assert.Len(t, list.Spots, 1)

	list = services.SpotListResult{}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/spots?min_price=50&max_price=100", "", nil, &list))
	assert.Empty(t, list.Spots)

	var errBody ErrorResponse
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/spots?minPrice=-5", "", nil, &errBody))
	assert.Contains(t, errBody.Errors, "minPrice")
}
