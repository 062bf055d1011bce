package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spot-booking-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository handles database operations for bookings
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, spot_id, user_id, start_date, end_date, created_at, updated_at`

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// ListBySpot retrieves the bookings of a spot ordered by start date
func (r *BookingRepository) ListBySpot(ctx context.Context, spotID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE spot_id = $1 ORDER BY start_date ASC`
	return r.list(ctx, query, spotID)
}

// ListByUser retrieves the bookings made by a user ordered by start date
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY start_date ASC`
	return r.list(ctx, query, userID)
}

func (r *BookingRepository) list(ctx context.Context, query string, arg string) ([]*models.Booking, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, nil
}

// CreateIfAvailable inserts the booking while holding the spot's advisory
// lock. The bookings_no_overlap exclusion constraint backs the check.
func (r *BookingRepository) CreateIfAvailable(ctx context.Context, booking *models.Booking) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockSpot(ctx, tx, booking.SpotID); err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx, booking, ""); err != nil {
			return err
		}

		query := `
			INSERT INTO bookings (` + bookingColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.Exec(ctx, query,
			booking.ID, booking.SpotID, booking.UserID,
			booking.StartDate.Time(), booking.EndDate.Time(), booking.CreatedAt, booking.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return bookingWriteError("create", err)
	}
	return nil
}

// UpdateIfAvailable moves a booking to new dates under the spot's advisory lock
func (r *BookingRepository) UpdateIfAvailable(ctx context.Context, booking *models.Booking) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockSpot(ctx, tx, booking.SpotID); err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx, booking, booking.ID); err != nil {
			return err
		}

		query := `
			UPDATE bookings
			SET start_date = $2, end_date = $3, updated_at = $4
			WHERE id = $1
		`
		result, err := tx.Exec(ctx, query,
			booking.ID, booking.StartDate.Time(), booking.EndDate.Time(), booking.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return bookingWriteError("update", err)
	}
	return nil
}

// Delete deletes a booking by ID
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// lockSpot serializes booking writes of one spot until the transaction ends
func lockSpot(ctx context.Context, tx pgx.Tx, spotID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, spotID); err != nil {
		return fmt.Errorf("failed to lock spot bookings: %w", err)
	}
	return nil
}

// checkOverlap applies the closed-interval overlap rule against the other
// bookings of the spot
func checkOverlap(ctx context.Context, tx pgx.Tx, booking *models.Booking, excludeID string) error {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE spot_id = $1
			  AND start_date <= $3
			  AND $2 <= end_date
			  AND ($4 = '' OR id::text <> $4)
		)
	`
	var conflict bool
	err := tx.QueryRow(ctx, query,
		booking.SpotID, booking.StartDate.Time(), booking.EndDate.Time(), excludeID,
	).Scan(&conflict)
	if err != nil {
		return fmt.Errorf("failed to check booking overlap: %w", err)
	}
	if conflict {
		return ErrBookingConflict
	}
	return nil
}

func bookingWriteError(op string, err error) error {
	err = translatePgError(err)
	if errors.Is(err, ErrBookingConflict) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("failed to %s booking: %w", op, err)
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var booking models.Booking
	var start, end time.Time
	err := row.Scan(
		&booking.ID, &booking.SpotID, &booking.UserID, &start, &end,
		&booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	booking.StartDate = models.DateOf(start)
	booking.EndDate = models.DateOf(end)
	return &booking, nil
}
