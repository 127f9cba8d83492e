package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rclima/social-network-api/backend/internal/models"
	"github.com/rclima/social-network-api/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]uint

func (s stubResolver) UserID(_ context.Context, token string) (uint, error) {
	id, ok := s[token]
	if !ok {
		return 0, repositories.ErrTokenNotFound
	}
	return id, nil
}

type stubUserRepo map[uint]*models.User

func (s stubUserRepo) CreateUser(*models.User) error { return nil }
func (s stubUserRepo) GetUserByID(id uint) (*models.User, error) {
	user, ok := s[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}
func (s stubUserRepo) GetUserByEmail(string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}
func (s stubUserRepo) GetUsersByIDs([]uint) ([]models.User, error)    { return nil, nil }
func (s stubUserRepo) UpdateUser(*models.User) error                  { return nil }
func (s stubUserRepo) ListUsersExcluding(uint) ([]models.User, error) { return nil, nil }

func newAuthTestServer(confirmed bool) *echo.Echo {
	user := &models.User{ID: 7, Email: "alice@example.com", IsEmailConfirmed: confirmed}
	tokens := stubResolver{"good-token": 7}
	users := stubUserRepo{7: user}

	e := echo.New()
	g := e.Group("", TokenAuth(tokens, users), RequireEmailConfirmed())
	g.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, Actor(c).Email)
	})
	return e
}

func doAuth(e *echo.Echo, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenAuth(t *testing.T) {
	e := newAuthTestServer(true)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized},
		{"malformed header", "Bearer", http.StatusUnauthorized},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized},
		{"bearer scheme", "Bearer good-token", http.StatusOK},
		{"legacy token scheme", "Token good-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuth(e, tt.header)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestTokenAuthResolvesActor(t *testing.T) {
	e := newAuthTestServer(true)
	rec := doAuth(e, "Bearer good-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", rec.Body.String())
}

func TestRequireEmailConfirmed(t *testing.T) {
	e := newAuthTestServer(false)
	rec := doAuth(e, "Bearer good-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
