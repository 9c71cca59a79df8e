package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nutrition-tracker-backend/internal/models"
	"nutrition-tracker-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an anonymous bearer token stays valid
const DefaultTokenTTL = 365 * 24 * time.Hour

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

var (
	// ErrInvalidToken is returned for tokens that fail signature, expiry or
	// subject checks
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownUser is returned for well-signed tokens whose user no longer exists
	ErrUnknownUser = errors.New("unknown user")
)

// tokenClaims identifies the person in the subject claim
type tokenClaims struct {
	jwt.RegisteredClaims
}

// UserService issues anonymous identities and their bearer tokens
type UserService struct {
	userRepo  UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time

	// known holds user IDs confirmed to exist
	known sync.Map
}

// NewUserService creates a new user service. A zero ttl uses DefaultTokenTTL.
func NewUserService(userRepo UserRepository, jwtSecret string, ttl time.Duration) *UserService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// GenerateJWT signs an HS256 token whose subject is the user ID
func (s *UserService) GenerateJWT(userID string) (string, error) {
	issued := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateJWT checks signature and expiry and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (interface{}, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Authenticate validates the token and confirms its user still exists.
// Confirmed users are remembered for the life of the process.
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (string, error) {
	userID, err := s.ValidateJWT(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, ok := s.known.Load(userID); ok {
		return userID, nil
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrUnknownUser, userID)
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	s.known.Store(userID, struct{}{})
	return userID, nil
}

// CreateUser stores a new anonymous user and returns it with a signed token
func (s *UserService) CreateUser(ctx context.Context) (*models.User, error) {
	userID := uuid.New().String()

	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user := &models.User{
		ID:        userID,
		Token:     token,
		CreatedAt: s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.known.Store(userID, struct{}{})
	return user, nil
}
