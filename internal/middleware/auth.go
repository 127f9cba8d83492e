package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rclima/social-network-api/backend/internal/models"
	"github.com/rclima/social-network-api/backend/internal/repositories"
)

// actorKey is the echo context key holding the resolved *models.User.
const actorKey = "actor"

// TokenResolver resolves an opaque bearer token to a user id.
type TokenResolver interface {
	UserID(ctx context.Context, token string) (uint, error)
}

// TokenAuth resolves the bearer token from the Authorization header and
// stores the authenticated user on the request context. Both the "Bearer" and
// the legacy "Token" schemes are accepted.
func TokenAuth(tokens TokenResolver, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}
			scheme := strings.ToLower(parts[0])
			if scheme != "bearer" && scheme != "token" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			ctx := c.Request().Context()
			userID, err := tokens.UserID(ctx, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token.")
			}

			user, err := users.GetUserByID(userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token.")
			}

			c.Set(actorKey, user)
			return next(c)
		}
	}
}

// RequireEmailConfirmed rejects authenticated users that have not confirmed
// their e-mail address yet. This is a distinct forbidden state, not an
// authentication failure.
func RequireEmailConfirmed() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := Actor(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}
			if !user.IsEmailConfirmed {
				return echo.NewHTTPError(http.StatusForbidden, "Email address not confirmed.")
			}
			return next(c)
		}
	}
}

// Actor returns the authenticated user stored by TokenAuth, or nil.
func Actor(c echo.Context) *models.User {
	user, _ := c.Get(actorKey).(*models.User)
	return user
}
