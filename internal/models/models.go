package models

import "time"

// Principal is the authenticated caller of a request
type Principal struct {
	UserID string
}

// IsAnonymous reports whether no user is attached to the principal
func (p Principal) IsAnonymous() bool {
	return p.UserID == ""
}

// User represents a registered user
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Public returns the profile fields that may be shown to other users
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

// PublicUser is the part of a user profile exposed to other users
type PublicUser struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Spot represents a rentable listing
type Spot struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary strips the bookkeeping timestamps
func (s *Spot) Summary() SpotSummary {
	return SpotSummary{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Address:     s.Address,
		City:        s.City,
		State:       s.State,
		Country:     s.Country,
		Lat:         s.Lat,
		Lng:         s.Lng,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
	}
}

// SpotSummary is a spot without timestamps, embedded in booking and review payloads
type SpotSummary struct {
	ID           string      `json:"id"`
	OwnerID      string      `json:"owner_id"`
	Address      string      `json:"address"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Country      string      `json:"country"`
	Lat          float64     `json:"lat"`
	Lng          float64     `json:"lng"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Price        float64     `json:"price"`
	PreviewImage *string     `json:"preview_image"`
	Images       []SpotImage `json:"images,omitempty"`
}

// SpotImage is an image attached to a spot
type SpotImage struct {
	ID        string    `json:"id"`
	SpotID    string    `json:"spot_id"`
	URL       string    `json:"url"`
	Preview   bool      `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
}

// SpotListItem is a spot as it appears in search results
type SpotListItem struct {
	Spot
	PreviewImage *string  `json:"preview_image"`
	AvgRating    *float64 `json:"avg_rating"`
}

// SpotDetail is the full view of a single spot
type SpotDetail struct {
	Spot
	Images        []SpotImage `json:"spot_images"`
	Owner         PublicUser  `json:"owner"`
	NumReviews    int         `json:"num_reviews"`
	AvgStarRating *float64    `json:"avg_star_rating"`
}

// RatingSummary aggregates the reviews of a spot. AvgStarRating is nil
// when the spot has no reviews.
type RatingSummary struct {
	NumReviews    int      `json:"num_reviews"`
	AvgStarRating *float64 `json:"avg_star_rating"`
}

// PreviewOf picks the earliest preview image
func PreviewOf(images []SpotImage) *string {
	var preview *SpotImage
	for i := range images {
		if !images[i].Preview {
			continue
		}
		if preview == nil || images[i].CreatedAt.Before(preview.CreatedAt) {
			preview = &images[i]
		}
	}
	if preview == nil {
		return nil
	}
	url := preview.URL
	return &url
}

// BookingStatus is derived from the current date, never stored
type BookingStatus string

const (
	BookingStatusUpcoming   BookingStatus = "upcoming"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusPast       BookingStatus = "past"
)

// Booking is an exclusive claim on a spot for a range of whole days
type Booking struct {
	ID        string    `json:"id"`
	SpotID    string    `json:"spot_id"`
	UserID    string    `json:"user_id"`
	StartDate Date      `json:"start_date"`
	EndDate   Date      `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Range returns the booked days
func (b *Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// StatusOn derives the booking state for the given day
func (b *Booking) StatusOn(today Date) BookingStatus {
	switch {
	case today.Before(b.StartDate):
		return BookingStatusUpcoming
	case today.After(b.EndDate):
		return BookingStatusPast
	default:
		return BookingStatusInProgress
	}
}

// UserBooking is a booking listed for its author
type UserBooking struct {
	Booking
	Status BookingStatus `json:"status"`
	Spot   SpotSummary   `json:"spot"`
}

// OwnerBookingView is what a spot owner sees of a booking on their spot
type OwnerBookingView struct {
	Booking
	User PublicUser `json:"user"`
}

// PublicBookingView is what anyone else sees: the dates only
type PublicBookingView struct {
	SpotID    string `json:"spot_id"`
	StartDate Date   `json:"start_date"`
	EndDate   Date   `json:"end_date"`
}

// Review is a guest's rating of a spot
type Review struct {
	ID        string    `json:"id"`
	SpotID    string    `json:"spot_id"`
	UserID    string    `json:"user_id"`
	Review    string    `json:"review"`
	Stars     int       `json:"stars"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewImage is an image attached to a review
type ReviewImage struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewDetail is a review with its author, images and optionally its spot
type ReviewDetail struct {
	Review
	User   PublicUser    `json:"user"`
	Spot   *SpotSummary  `json:"spot,omitempty"`
	Images []ReviewImage `json:"review_images"`
}
