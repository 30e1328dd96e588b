package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rotelab/rote-api/internal/config"
	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/service/auth"
	"github.com/rotelab/rote-api/internal/store"
)

// memoryUserStore is a map-backed store.UserStore for handler tests.
type memoryUserStore struct {
	byEmail map[string]*domain.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byEmail: make(map[string]*domain.User)}
}

func (s *memoryUserStore) Create(ctx context.Context, user *domain.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hash)
	user.Password = ""

	s.byEmail[user.Email] = user
	return nil
}

func (s *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (s *memoryUserStore) Update(ctx context.Context, user *domain.User) error { return nil }
func (s *memoryUserStore) Delete(ctx context.Context, id uuid.UUID) error      { return nil }
func (s *memoryUserStore) WithTx(tx *sql.Tx) store.UserStore                   { return s }

func newAuthHandlerForTest(t *testing.T) (*AuthHandler, *memoryUserStore) {
	t.Helper()

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "test-secret-that-is-at-least-32-chars-long",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 10080,
	})
	require.NoError(t, err)

	users := newMemoryUserStore()
	handler := NewAuthHandler(users, jwtService, auth.NewBcryptVerifier(), 60*time.Minute)
	return handler, users
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func registerTestUser(t *testing.T, users *memoryUserStore, email, password string) *domain.User {
	t.Helper()

	user, err := domain.NewUser(email, password)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("creates user and returns token pair", func(t *testing.T) {
		handler, users := newAuthHandlerForTest(t)

		req := jsonRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
			Email:    "student@example.com",
			Password: "correct-horse-battery",
		})
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEqual(t, uuid.Nil, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)

		stored, err := users.GetByEmail(context.Background(), "student@example.com")
		require.NoError(t, err)
		assert.Empty(t, stored.Password)
		assert.NotEmpty(t, stored.HashedPassword)
	})

	t.Run("duplicate email returns conflict", func(t *testing.T) {
		handler, users := newAuthHandlerForTest(t)
		registerTestUser(t, users, "taken@example.com", "correct-horse-battery")

		req := jsonRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
			Email:    "taken@example.com",
			Password: "another-long-password",
		})
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		handler, _ := newAuthHandlerForTest(t)

		req := jsonRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
			Email:    "student@example.com",
			Password: "short",
		})
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		// The plaintext must not be echoed back.
		assert.NotContains(t, rec.Body.String(), "short\"")
	})

	t.Run("malformed body returns bad request", func(t *testing.T) {
		handler, _ := newAuthHandlerForTest(t)

		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("valid credentials return token pair", func(t *testing.T) {
		handler, users := newAuthHandlerForTest(t)
		user := registerTestUser(t, users, "student@example.com", "correct-horse-battery")

		req := jsonRequest(t, http.MethodPost, "/auth/login", LoginRequest{
			Email:    "student@example.com",
			Password: "correct-horse-battery",
		})
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, user.ID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		handler, users := newAuthHandlerForTest(t)
		registerTestUser(t, users, "student@example.com", "correct-horse-battery")

		responses := make([]string, 0, 2)
		for _, attempt := range []LoginRequest{
			{Email: "student@example.com", Password: "wrong-password-entirely"},
			{Email: "nobody@example.com", Password: "correct-horse-battery"},
		} {
			req := jsonRequest(t, http.MethodPost, "/auth/login", attempt)
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			responses = append(responses, rec.Body.String())
		}

		// Both failures carry the same message so the endpoint does not
		// reveal which emails are registered.
		assert.Contains(t, responses[0], "Invalid credentials")
		assert.Contains(t, responses[1], "Invalid credentials")
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	t.Run("valid refresh token issues new pair", func(t *testing.T) {
		handler, users := newAuthHandlerForTest(t)
		user := registerTestUser(t, users, "student@example.com", "correct-horse-battery")

		refreshToken, err := handler.jwtService.GenerateRefreshToken(context.Background(), user.ID)
		require.NoError(t, err)

		req := jsonRequest(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{
			RefreshToken: refreshToken,
		})
		rec := httptest.NewRecorder()
		handler.RefreshToken(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp RefreshTokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		// The new access token must validate and carry the user's ID.
		claims, err := handler.jwtService.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("access token is rejected as refresh token", func(t *testing.T) {
		handler, users := newAuthHandlerForTest(t)
		user := registerTestUser(t, users, "student@example.com", "correct-horse-battery")

		accessToken, err := handler.jwtService.GenerateToken(context.Background(), user.ID)
		require.NoError(t, err)

		req := jsonRequest(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{
			RefreshToken: accessToken,
		})
		rec := httptest.NewRecorder()
		handler.RefreshToken(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token returns unauthorized", func(t *testing.T) {
		handler, _ := newAuthHandlerForTest(t)

		req := jsonRequest(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{
			RefreshToken: fmt.Sprintf("not.a.token-%d", time.Now().Unix()),
		})
		rec := httptest.NewRecorder()
		handler.RefreshToken(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
