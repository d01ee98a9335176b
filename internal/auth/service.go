package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/fueltrack/backend-go/internal/models"
)

const (
	bcryptCost        = 12
	minPasswordLength = 6
	tokenTTL          = 7 * 24 * time.Hour
	userCacheSize     = 1000
	userCacheTTL      = 15 * time.Minute
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoToken            = errors.New("no token provided, authorization denied")
	ErrInvalidToken       = errors.New("token is not valid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrUserNotFound       = errors.New("user not found")
)

// userCacheEntry wraps a cached user with its expiry.
type userCacheEntry struct {
	user      *models.User
	expiresAt time.Time
}

// Service issues and verifies bearer tokens and manages user accounts.
// Resolved users are held in a TTL'd LRU so authenticated requests do not
// hit the store every time.
type Service struct {
	store     UserStore
	secret    []byte
	userCache *lru.Cache[string, *userCacheEntry]
}

func NewService(store UserStore, secret string) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is not configured")
	}

	cache, err := lru.New[string, *userCacheEntry](userCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating user cache: %w", err)
	}

	return &Service{
		store:     store,
		secret:    []byte(secret),
		userCache: cache,
	}, nil
}

// Register creates an account and returns the user with a signed token.
func (s *Service) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", ErrValidation)
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("checking existing user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    time.Now(),
	}

	// The email pre-check above is a fast path; the store's conditional
	// write is what actually guarantees uniqueness under concurrent
	// registrations.
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("Registered new user")

	token, err := s.signToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.signToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer Authorization header to a user.
func (s *Service) Authenticate(ctx context.Context, authHeader string) (*models.User, error) {
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, ErrNoToken
	}
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return s.resolveUser(ctx, claims.Subject)
}

// UpdateProfile changes mutable account fields and invalidates the cache.
func (s *Service) UpdateProfile(ctx context.Context, userID, name string, prefs *models.Preferences) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if prefs != nil {
		user.Preferences = *prefs
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	s.userCache.Remove(userID)

	return user, nil
}

func (s *Service) signToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

func (s *Service) resolveUser(ctx context.Context, userID string) (*models.User, error) {
	if entry, ok := s.userCache.Get(userID); ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.user, nil
		}
		s.userCache.Remove(userID)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		// Well-formed token whose subject no longer exists.
		return nil, ErrUserNotFound
	}

	s.userCache.Add(userID, &userCacheEntry{
		user:      user,
		expiresAt: time.Now().Add(userCacheTTL),
	})
	return user, nil
}
