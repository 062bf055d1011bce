package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes and constraint names the repositories translate
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"

	constraintUserEmail      = "users_email_key"
	constraintUserUsername   = "users_username_key"
	constraintReviewUserSpot = "reviews_user_spot_key"
)

// NewPostgresStore wires the PostgreSQL repositories over one pool
func NewPostgresStore(db *pgxpool.Pool) *Store {
	return &Store{
		Users:    NewUserRepository(db),
		Spots:    NewSpotRepository(db),
		Bookings: NewBookingRepository(db),
		Reviews:  NewReviewRepository(db),
	}
}

// validID reports whether id can name a row. Ids are UUID columns, so any
// other string is simply absent rather than a query error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// translatePgError maps constraint violations to the store's sentinel errors
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgExclusionViolation:
		return ErrBookingConflict
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintUserEmail:
			return ErrEmailTaken
		case constraintUserUsername:
			return ErrUsernameTaken
		case constraintReviewUserSpot:
			return ErrDuplicateReview
		}
	}
	return err
}
