package handlers

import (
	"net/http"

	"spot-booking-backend/internal/logging"
	"spot-booking-backend/internal/middleware"
	"spot-booking-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Services bundles everything the HTTP layer calls into
type Services struct {
	Users    *services.UserService
	Spots    *services.SpotService
	Bookings *services.BookingService
	Reviews  *services.ReviewService
	Images   *services.ImageService
}

// NewRouter builds the API router
func NewRouter(svc Services) http.Handler {
	userHandler := NewUserHandler(svc.Users)
	spotHandler := NewSpotHandler(svc.Spots)
	bookingHandler := NewBookingHandler(svc.Bookings)
	reviewHandler := NewReviewHandler(svc.Reviews)
	imageHandler := NewImageHandler(svc.Images)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RealIP)
	r.Use(logging.AccessLog())
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.Signup)
		r.Post("/session", userHandler.Login)
		r.Get("/spots", spotHandler.ListSpots)
		r.Get("/spots/{spot_id}", spotHandler.GetSpot)
		r.Get("/spots/{spot_id}/reviews", reviewHandler.ListSpotReviews)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(svc.Users))

			r.Get("/spots/current", spotHandler.ListCurrentSpots)
			r.Post("/spots", spotHandler.CreateSpot)
			r.Put("/spots/{spot_id}", spotHandler.UpdateSpot)
			r.Delete("/spots/{spot_id}", spotHandler.DeleteSpot)
			r.Post("/spots/{spot_id}/images", spotHandler.AddSpotImage)
			r.Post("/spots/{spot_id}/images/upload-url", imageHandler.PresignSpotImage)
			r.Delete("/spot-images/{image_id}", spotHandler.DeleteSpotImage)

			r.Get("/spots/{spot_id}/bookings", bookingHandler.ListSpotBookings)
			r.Post("/spots/{spot_id}/bookings", bookingHandler.CreateBooking)
			r.Get("/bookings/current", bookingHandler.ListCurrentBookings)
			r.Put("/bookings/{booking_id}", bookingHandler.UpdateBooking)
			r.Delete("/bookings/{booking_id}", bookingHandler.CancelBooking)

			r.Post("/spots/{spot_id}/reviews", reviewHandler.CreateReview)
			r.Get("/reviews/current", reviewHandler.ListCurrentReviews)
			r.Put("/reviews/{review_id}", reviewHandler.UpdateReview)
			r.Delete("/reviews/{review_id}", reviewHandler.DeleteReview)
			r.Post("/reviews/{review_id}/images", reviewHandler.AddReviewImage)
			r.Post("/reviews/{review_id}/images/upload-url", imageHandler.PresignReviewImage)
			r.Delete("/review-images/{image_id}", reviewHandler.DeleteReviewImage)
		})
	})

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
