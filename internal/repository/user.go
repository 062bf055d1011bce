package repository

import (
	"context"
	"errors"
	"fmt"

	"spot-booking-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, first_name, last_name, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.Username, user.FirstName, user.LastName,
		user.HashedPassword, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if translated := translatePgError(err); translated != err {
			return translated
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `
		SELECT id, email, username, first_name, last_name, hashed_password, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByCredential retrieves a user by email or username
func (r *UserRepository) GetByCredential(ctx context.Context, credential string) (*models.User, error) {
	query := `
		SELECT id, email, username, first_name, last_name, hashed_password, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1) OR lower(username) = lower($1)
		LIMIT 1
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, credential))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by credential: %w", err)
	}
	return user, nil
}

// GetPublicProfiles retrieves the public profiles of several users
func (r *UserRepository) GetPublicProfiles(ctx context.Context, ids []string) (map[string]models.PublicUser, error) {
	profiles := make(map[string]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	query := `SELECT id, first_name, last_name FROM users WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PublicUser
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan user profile: %w", err)
		}
		profiles[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user profiles: %w", err)
	}
	return profiles, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName,
		&user.HashedPassword, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
