package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltrack/backend-go/internal/models"
)

type memoryUserStore struct {
	byID      map[string]*models.User
	byEmail   map[string]*models.User
	idLookups int
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (m *memoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	if _, taken := m.byEmail[user.Email]; taken {
		return ErrEmailTaken
	}
	u := *user
	m.byID[user.ID] = &u
	m.byEmail[user.Email] = &u
	return nil
}

func (m *memoryUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.idLookups++
	return m.byID[id], nil
}

func (m *memoryUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.byEmail[email], nil
}

func (m *memoryUserStore) UpdateUser(_ context.Context, user *models.User) error {
	u := *user
	m.byID[user.ID] = &u
	m.byEmail[user.Email] = &u
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryUserStore) {
	t.Helper()
	store := newMemoryUserStore()
	svc, err := NewService(store, "test-secret")
	require.NoError(t, err)
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, " Driver@Example.COM ", "secret123", "Driver")
	require.NoError(t, err)
	assert.Equal(t, "driver@example.com", user.Email)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Equal(t, models.FuelPetrol, user.Preferences.DefaultFuelType)

	_, _, err = svc.Register(ctx, "driver@example.com", "secret123", "Driver")
	assert.ErrorIs(t, err, ErrEmailTaken)

	loggedIn, token, err := svc.Login(ctx, "driver@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "driver@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// staleReadUserStore never sees users by email, as when two registrations
// for the same address run before either write lands. Uniqueness must then
// come from the store's conditional write, not the read-then-write check.
type staleReadUserStore struct {
	*memoryUserStore
}

func (s *staleReadUserStore) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, nil
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	store := &staleReadUserStore{memoryUserStore: newMemoryUserStore()}
	svc, err := NewService(store, "test-secret")
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = svc.Register(ctx, "dup@example.com", "secret123", "First")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "dup@example.com", "secret123", "Second")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, store.byID, 1)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "not-an-email", "secret123", "Driver")
	assert.Error(t, err)

	_, _, err = svc.Register(ctx, "driver@example.com", "short", "Driver")
	assert.Error(t, err)

	_, _, err = svc.Register(ctx, "driver@example.com", "secret123", "  ")
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "driver@example.com", "secret123", "Driver")
	require.NoError(t, err)

	t.Run("valid token resolves user", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("repeat lookups hit the cache", func(t *testing.T) {
		before := store.idLookups
		for i := 0; i < 5; i++ {
			_, err := svc.Authenticate(ctx, "Bearer "+token)
			require.NoError(t, err)
		}
		assert.Equal(t, before, store.idLookups)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "Basic abc123")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "Bearer not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "Bearer "+other)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "Bearer "+expired)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		ghost, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "no-such-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "Bearer "+ghost)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "driver@example.com", "secret123", "Driver")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, "New Name", &models.Preferences{
		DefaultFuelType: models.FuelDiesel,
		Currency:        "INR",
		Units:           "metric",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, models.FuelDiesel, updated.Preferences.DefaultFuelType)

	_, err = svc.UpdateProfile(ctx, "no-such-user", "Name", nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(newMemoryUserStore(), "")
	assert.Error(t, err)
}
