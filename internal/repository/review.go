package repository

import (
	"context"
	"errors"
	"fmt"

	"spot-booking-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewRepository handles database operations for reviews and review images
type ReviewRepository struct {
	db *pgxpool.Pool
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, spot_id, user_id, review, stars, created_at, updated_at`

// Create creates a new review; reviews_user_spot_key rejects a second review
// of the same spot by the same user
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		review.ID, review.SpotID, review.UserID, review.Review, review.Stars,
		review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(translatePgError(err), ErrDuplicateReview) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// Update replaces the text and stars of a review
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	query := `UPDATE reviews SET review = $2, stars = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.Exec(ctx, query, review.ID, review.Review, review.Stars, review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a review by ID; its images cascade
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBySpot retrieves the reviews of a spot, newest first
func (r *ReviewRepository) ListBySpot(ctx context.Context, spotID string) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE spot_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, spotID)
}

// ListByUser retrieves the reviews written by a user, newest first
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *ReviewRepository) list(ctx context.Context, query, arg string) ([]*models.Review, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}
	return reviews, nil
}

// Summary counts the reviews of a spot and averages their stars. AVG over
// no rows is NULL, which leaves AvgStarRating nil.
func (r *ReviewRepository) Summary(ctx context.Context, spotID string) (models.RatingSummary, error) {
	query := `SELECT COUNT(*), AVG(stars)::float8 FROM reviews WHERE spot_id = $1`
	var summary models.RatingSummary
	if err := r.db.QueryRow(ctx, query, spotID).Scan(&summary.NumReviews, &summary.AvgStarRating); err != nil {
		return models.RatingSummary{}, fmt.Errorf("failed to summarize reviews: %w", err)
	}
	return summary, nil
}

// AddImage appends an image to a review. The review row is locked so that
// concurrent uploads cannot push the count past limit.
func (r *ReviewRepository) AddImage(ctx context.Context, image *models.ReviewImage, limit int) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var reviewID string
		err := tx.QueryRow(ctx, `SELECT id FROM reviews WHERE id = $1 FOR UPDATE`, image.ReviewID).Scan(&reviewID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock review: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM review_images WHERE review_id = $1`, image.ReviewID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count review images: %w", err)
		}
		if count >= limit {
			return ErrImageLimit
		}

		query := `INSERT INTO review_images (id, review_id, url, created_at) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, query, image.ID, image.ReviewID, image.URL, image.CreatedAt); err != nil {
			return fmt.Errorf("failed to create review image: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrImageLimit) {
			return err
		}
		return fmt.Errorf("failed to add review image: %w", err)
	}
	return nil
}

// GetImage retrieves a review image by ID
func (r *ReviewRepository) GetImage(ctx context.Context, id string) (*models.ReviewImage, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT id, review_id, url, created_at FROM review_images WHERE id = $1`
	var image models.ReviewImage
	err := r.db.QueryRow(ctx, query, id).Scan(&image.ID, &image.ReviewID, &image.URL, &image.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review image: %w", err)
	}
	return &image, nil
}

// ListImages retrieves the images of a review in upload order
func (r *ReviewRepository) ListImages(ctx context.Context, reviewID string) ([]models.ReviewImage, error) {
	query := `
		SELECT id, review_id, url, created_at
		FROM review_images
		WHERE review_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review images: %w", err)
	}
	images, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ReviewImage, error) {
		var image models.ReviewImage
		err := row.Scan(&image.ID, &image.ReviewID, &image.URL, &image.CreatedAt)
		return image, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan review images: %w", err)
	}
	return images, nil
}

// DeleteImage deletes a review image by ID
func (r *ReviewRepository) DeleteImage(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM review_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReview(row pgx.Row) (*models.Review, error) {
	var review models.Review
	err := row.Scan(
		&review.ID, &review.SpotID, &review.UserID, &review.Review, &review.Stars,
		&review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}
