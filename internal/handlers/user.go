package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rclima/social-network-api/backend/internal/logger"
	"github.com/rclima/social-network-api/backend/internal/middleware"
	"github.com/rclima/social-network-api/backend/internal/models"
	"github.com/rclima/social-network-api/backend/internal/repositories"
	"github.com/rclima/social-network-api/backend/internal/storage"
	"github.com/rclima/social-network-api/backend/validators"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles profile and user-directory HTTP requests
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	pictures         storage.PictureStore
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, pictures storage.PictureStore) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
		pictures:         pictures,
	}
}

// RegisterUserRoutes registers profile and directory routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.POST("/users/change-password", h.ChangePassword)
	g.PUT("/users/profile-picture", h.UploadProfilePicture)
	g.GET("/users/me", h.MyProfile)
	g.GET("/users", h.ListUsers)
	g.GET("/users/:uid", h.GetUser)
}

// ChangePassword verifies the old password and replaces it with the new one.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	actor := middleware.Actor(c)

	var req models.PasswordChangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validators.FieldErrors(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(req.OldPassword)); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"old_password": "Old password is incorrect.",
		})
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"new_password": "The new passwords don't match.",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	actor.PasswordHash = string(hashed)
	if err := h.userRepository.UpdateUser(actor); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update password")
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "Password changed successfully!"})
}

// UploadProfilePicture stores the uploaded image and saves its URL on the
// actor's profile.
func (h *UserHandler) UploadProfilePicture(c echo.Context) error {
	actor := middleware.Actor(c)

	file, err := c.FormFile("profile_picture")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"profile_picture": "No file was submitted.",
		})
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"profile_picture": "Upload a valid image.",
		})
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file")
	}
	defer src.Close()

	objectName := uuid.New().String() + filepath.Ext(file.Filename)
	url, err := h.pictures.SavePicture(c.Request().Context(), objectName, src, file.Size, contentType)
	if err != nil {
		logger.Log.Errorw("failed to store profile picture", "err", err, "user_id", actor.ID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store profile picture")
	}

	actor.ProfilePicture = &url
	if err := h.userRepository.UpdateUser(actor); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// MyProfile returns the authenticated user's own profile.
func (h *UserHandler) MyProfile(c echo.Context) error {
	actor := middleware.Actor(c)
	return c.JSON(http.StatusOK, models.MyProfile{
		ID:             actor.ID,
		FirstName:      actor.FirstName,
		LastName:       actor.LastName,
		Email:          actor.Email,
		ProfilePicture: actor.ProfilePicture,
	})
}

// GetUser returns another user's profile, annotated with whether that user
// follows the actor.
func (h *UserHandler) GetUser(c echo.Context) error {
	actor := middleware.Actor(c)

	id, err := strconv.ParseUint(c.Param("uid"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	user, err := h.userRepository.GetUserByID(uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}

	followsYou, err := h.followRepository.IsFollowing(user.ID, actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load follow state")
	}

	return c.JSON(http.StatusOK, models.UserProfile{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		IsFollowingYou: followsYou,
	})
}

// ListUsers returns the user directory: everyone except the actor, annotated
// with follower counts and whether each user follows the actor.
func (h *UserHandler) ListUsers(c echo.Context) error {
	actor := middleware.Actor(c)

	var params models.UserListQueryParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&params); err != nil {
		return c.JSON(http.StatusBadRequest, validators.FieldErrors(err))
	}

	users, err := h.userRepository.ListUsersExcluding(actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load users")
	}

	counts, err := h.followRepository.FollowerCounts()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load follower counts")
	}

	// Users who follow the actor drive the `is_following_you` annotation
	// and its filter.
	reverse, err := followerSet(h.followRepository, actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load followers")
	}

	results := make([]models.UserListItem, 0, len(users))
	for i := range users {
		user := &users[i]
		if params.IsFollowingYou != nil && *params.IsFollowingYou && !reverse[user.ID] {
			continue
		}
		if params.Search != "" && !matchesSearch(user.FullName(), params.Search) {
			continue
		}
		results = append(results, models.UserListItem{
			ID:             user.ID,
			FirstName:      user.FirstName,
			LastName:       user.LastName,
			Email:          user.Email,
			ProfilePicture: user.ProfilePicture,
			IsFollowingYou: reverse[user.ID],
			FollowersCount: counts[user.ID],
		})
	}

	if params.OrderingType == models.OrderingName {
		sort.SliceStable(results, func(i, j int) bool {
			return listItemName(&results[i]) < listItemName(&results[j])
		})
	} else {
		// Default ordering: most followed first, id ascending on ties.
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].FollowersCount > results[j].FollowersCount
		})
	}

	return respondList(c, results, params.Page, params.PageSize)
}

func listItemName(item *models.UserListItem) string {
	if item.LastName == nil {
		return item.FirstName + " "
	}
	return item.FirstName + " " + *item.LastName
}
