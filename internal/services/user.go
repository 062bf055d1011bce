package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/logging"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 4
	minPasswordLength = 6
)

// SignupInput is a new account request
type SignupInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate returns a validation error listing every invalid field
func (in *SignupInput) Validate() error {
	fields := map[string]string{}
	if _, err := mail.ParseAddress(in.Email); err != nil || strings.ContainsAny(in.Email, "<> ") {
		fields["email"] = "Invalid email."
	}
	switch username := strings.TrimSpace(in.Username); {
	case len(username) < minUsernameLength:
		fields["username"] = "Username is required"
	case strings.Contains(username, "@"):
		fields["username"] = "Username cannot be an email."
	}
	if len(in.Password) < minPasswordLength {
		fields["password"] = "Password must be 6 characters or more."
	}
	if !isAlpha(in.FirstName) {
		fields["first_name"] = "First Name is required"
	}
	if !isAlpha(in.LastName) {
		fields["last_name"] = "Last Name is required"
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("Bad Request", fields)
	}
	return nil
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// AuthResult is a signed-in user with their token
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UserService handles accounts and tokens
type UserService struct {
	users      repository.UserStore
	jwtSecret  string
	jwtExpiry  time.Duration
	bcryptCost int
	now        Clock
}

// NewUserService creates a new user service
func NewUserService(users repository.UserStore, jwtSecret string, jwtExpiry time.Duration) *UserService {
	return &UserService{
		users:      users,
		jwtSecret:  jwtSecret,
		jwtExpiry:  jwtExpiry,
		bcryptCost: bcrypt.DefaultCost,
		now:        utcNow,
	}
}

// Signup creates an account and signs it in
func (s *UserService) Signup(ctx context.Context, in SignupInput) (_ *AuthResult, err error) {
	ctx, span := logging.StartSpan(ctx, "UserService.Signup")
	defer func() { endSpan(span, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("Internal server error", fmt.Errorf("failed to hash password: %w", err))
	}

	now := s.now()
	user := &models.User{
		ID:             uuid.New().String(),
		Email:          strings.TrimSpace(in.Email),
		Username:       strings.TrimSpace(in.Username),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		HashedPassword: string(hash),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, apperrors.NewAlreadyExistsError("User already exists",
				map[string]string{"email": "User with that email already exists"})
		case errors.Is(err, repository.ErrUsernameTaken):
			return nil, apperrors.NewAlreadyExistsError("User already exists",
				map[string]string{"username": "User with that username already exists"})
		}
		return nil, storeErr(err, "")
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Internal server error", err)
	}

	logging.FromContext(ctx).Info().Str("user_id", user.ID).Msg("User signed up")
	return &AuthResult{User: user, Token: token}, nil
}

// Login signs a user in by email or username
func (s *UserService) Login(ctx context.Context, credential, password string) (_ *AuthResult, err error) {
	ctx, span := logging.StartSpan(ctx, "UserService.Login")
	defer func() { endSpan(span, err) }()

	fields := map[string]string{}
	if strings.TrimSpace(credential) == "" {
		fields["credential"] = "Email or username is required"
	}
	if password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Bad Request", fields)
	}

	user, err := s.users.GetByCredential(ctx, strings.TrimSpace(credential))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthenticatedError("Invalid credentials")
		}
		return nil, storeErr(err, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, apperrors.NewUnauthenticatedError("Invalid credentials")
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Internal server error", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.jwtExpiry).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}
