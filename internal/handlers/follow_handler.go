package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rclima/social-network-api/backend/internal/middleware"
	"github.com/rclima/social-network-api/backend/internal/models"
	"github.com/rclima/social-network-api/backend/internal/repositories"
	"github.com/rclima/social-network-api/backend/validators"
)

// FollowHandler handles follow toggle and following-list HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/following/:uid", h.Follow)
	g.GET("/following", h.ListFollowing)
}

// Follow idempotently creates or removes the edge from the actor to the
// target user, depending on the `follow` flag.
func (h *FollowHandler) Follow(c echo.Context) error {
	actor := middleware.Actor(c)

	targetID, err := strconv.ParseUint(c.Param("uid"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	var req models.FollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validators.FieldErrors(err))
	}

	target, err := h.userRepository.GetUserByID(uint(targetID))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}

	if target.ID == actor.ID {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "You can't follow yourself.",
		})
	}

	var detail string
	if *req.Follow {
		created, err := h.followRepository.CreateFollow(&models.Follow{
			FollowerID: actor.ID,
			FollowedID: target.ID,
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create follow")
		}
		detail = "Already following."
		if created {
			detail = "Now following."
		}
	} else {
		deleted, err := h.followRepository.DeleteFollow(actor.ID, target.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete follow")
		}
		detail = "Was not following."
		if deleted {
			detail = "Unfollowed."
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": detail})
}

// ListFollowing returns the actor's followed users, each annotated with
// whether the relationship is mutual, filtered/ordered/paginated per the
// query parameters.
func (h *FollowHandler) ListFollowing(c echo.Context) error {
	actor := middleware.Actor(c)

	var params models.FollowingListQueryParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&params); err != nil {
		return c.JSON(http.StatusBadRequest, validators.FieldErrors(err))
	}

	// Outgoing edges come back most recent first: that recency is the
	// default (`creation`) ordering of the listing.
	edges, err := h.followRepository.FollowingEdges(actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load followings")
	}

	reverse, err := followerSet(h.followRepository, actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load followers")
	}

	orderedIDs := make([]uint, 0, len(edges))
	for _, edge := range edges {
		if params.Mutual && !reverse[edge.FollowedID] {
			continue
		}
		orderedIDs = append(orderedIDs, edge.FollowedID)
	}

	// Resolving ids to records loses the edge ordering, so carry it
	// explicitly and re-sort by the original rank.
	rank := make(map[uint]int, len(orderedIDs))
	for pos, id := range orderedIDs {
		rank[id] = pos
	}

	users, err := h.userRepository.GetUsersByIDs(orderedIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load users")
	}
	sort.Slice(users, func(i, j int) bool {
		return rank[users[i].ID] < rank[users[j].ID]
	})

	if params.OrderingType == models.OrderingName {
		sort.SliceStable(users, func(i, j int) bool {
			return users[i].FullName() < users[j].FullName()
		})
	}

	results := make([]models.FollowedUser, 0, len(users))
	for i := range users {
		user := &users[i]
		if params.Search != "" && !matchesSearch(user.FullName(), params.Search) {
			continue
		}
		results = append(results, models.FollowedUser{
			ID:             user.ID,
			FirstName:      user.FirstName,
			LastName:       user.LastName,
			Email:          user.Email,
			ProfilePicture: user.ProfilePicture,
			IsMutual:       reverse[user.ID],
		})
	}

	return respondList(c, results, params.Page, params.PageSize)
}

// followerSet loads the ids following the given user into a membership set.
func followerSet(repo repositories.FollowRepository, userID uint) (map[uint]bool, error) {
	ids, err := repo.FollowerIDs(userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
