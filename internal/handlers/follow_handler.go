package handlers

import (
	"net/http"

	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
	"github.com/anonto42/mitaina/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow toggling and follower listings
type FollowHandler struct {
	followRepository   repositories.FollowRepository
	userRepository     repositories.UserRepository
	interactionService *services.InteractionService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, interactionService *services.InteractionService) *FollowHandler {
	return &FollowHandler{
		followRepository:   followRepo,
		userRepository:     userRepo,
		interactionService: interactionService,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group, m RouteMiddleware) {
	m = m.withDefaults()
	g.POST("/users/:username/follow", h.ToggleFollow, m.RequireAuth)
	g.GET("/users/:username/followers", h.GetFollowers, m.OptionalAuth)
	g.GET("/users/:username/following", h.GetFollowing, m.OptionalAuth)
}

// ToggleFollow follows the user if not yet followed and unfollows otherwise
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	target, err := lookupUser(c, h.userRepository)
	if err != nil {
		return err
	}

	result, err := h.interactionService.ToggleFollow(c.Request().Context(), currentUserID, target.ID)
	if err != nil {
		return serviceError(c, err)
	}
	followers, err := h.followRepository.GetFollowersCount(c.Request().Context(), target.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"is_following":    result.Created,
			"followers_count": followers,
		},
	})
}

// GetFollowers lists who follows the user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	user, err := lookupUser(c, h.userRepository)
	if err != nil {
		return err
	}
	follows, err := h.followRepository.GetFollowers(c.Request().Context(), user.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return writeFollows(c, follows)
}

// GetFollowing lists whom the user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	user, err := lookupUser(c, h.userRepository)
	if err != nil {
		return err
	}
	follows, err := h.followRepository.GetFollowing(c.Request().Context(), user.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return writeFollows(c, follows)
}

func writeFollows(c echo.Context, follows []models.Follow) error {
	views := make([]FollowView, len(follows))
	for i, f := range follows {
		views[i] = newFollowView(f)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"follows": views,
			"count":   len(views),
		},
	})
}
