package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rclima/social-network-api/backend/internal/logger"
	"github.com/rclima/social-network-api/backend/internal/mailer"
	"github.com/rclima/social-network-api/backend/internal/middleware"
	"github.com/rclima/social-network-api/backend/internal/models"
	"github.com/rclima/social-network-api/backend/internal/repositories"
	"github.com/rclima/social-network-api/backend/validators"
	"golang.org/x/crypto/bcrypt"
)

// confirmationTokenTTL bounds how long a sign-up confirmation link stays valid.
const confirmationTokenTTL = time.Hour

// AuthHandler handles sign-up, confirmation, login and logout.
type AuthHandler struct {
	userRepository  repositories.UserRepository
	tokenRepository repositories.TokenRepository
	mailer          mailer.Mailer
	secretKey       string
	domain          string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, m mailer.Mailer, secretKey, domain string) *AuthHandler {
	return &AuthHandler{
		userRepository:  userRepo,
		tokenRepository: tokenRepo,
		mailer:          m,
		secretKey:       secretKey,
		domain:          domain,
	}
}

// RegisterAuthRoutes registers the public auth routes and the authenticated
// logout route.
func (h *AuthHandler) RegisterAuthRoutes(public *echo.Group, session *echo.Group) {
	public.POST("/users", h.SignUp)
	public.GET("/users/confirm-sign-up/:token", h.ConfirmSignUp)
	public.POST("/users/login", h.Login)
	session.POST("/users/logout", h.Logout)
}

// SignUp creates an unconfirmed account and sends the confirmation link.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req models.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validators.FieldErrors(err))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hashed),
		IsActive:     true,
	}

	if err := h.userRepository.CreateUser(user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"email": "A user with this email already exists.",
			})
		}
		logger.Log.Errorw("failed to create user", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	// Delivery is fire-and-forget; a failed send is logged, not retried.
	go h.sendConfirmationEmail(user)

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) sendConfirmationEmail(user *models.User) {
	token, err := h.confirmationToken(user.ID)
	if err != nil {
		logger.Log.Errorw("failed to sign confirmation token", "err", err, "user_id", user.ID)
		return
	}
	confirmationURL := h.domain + "/api/v1/users/confirm-sign-up/" + token
	if err := h.mailer.SendConfirmationEmail(user.Email, user.FirstName, confirmationURL); err != nil {
		logger.Log.Errorw("failed to send confirmation email", "err", err, "user_id", user.ID)
	}
}

func (h *AuthHandler) confirmationToken(userID uint) (string, error) {
	claims := &models.ConfirmationClaims{
		UID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(confirmationTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secretKey))
}

// ConfirmSignUp redeems the e-mailed token and marks the account confirmed.
// Confirming an already-confirmed account is not an error.
func (h *AuthHandler) ConfirmSignUp(c echo.Context) error {
	claims := &models.ConfirmationClaims{}
	token, err := jwt.ParseWithClaims(c.Param("token"), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.secretKey), nil
	})
	if err != nil || !token.Valid || claims.UID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "Invalid token."})
	}

	user, err := h.userRepository.GetUserByID(claims.UID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}

	if user.IsEmailConfirmed {
		return c.NoContent(http.StatusNoContent)
	}

	user.IsEmailConfirmed = true
	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to confirm user")
	}
	return c.NoContent(http.StatusNoContent)
}

// Login verifies credentials and issues (or reuses) the opaque bearer token.
// Unknown email, wrong password and disabled accounts all get the same
// response so accounts cannot be enumerated.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validators.FieldErrors(err))
	}

	invalidCredentials := func() error {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "Invalid credentials."})
	}

	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return invalidCredentials()
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}
	if !user.IsActive {
		return invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return invalidCredentials()
	}

	token, err := h.tokenRepository.Issue(c.Request().Context(), user.ID)
	if err != nil {
		logger.Log.Errorw("failed to issue token", "err", err, "user_id", user.ID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue token")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// Logout revokes the caller's bearer token.
func (h *AuthHandler) Logout(c echo.Context) error {
	user := middleware.Actor(c)

	err := h.tokenRepository.Revoke(c.Request().Context(), user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Token not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to revoke token")
	}
	return c.NoContent(http.StatusNoContent)
}
