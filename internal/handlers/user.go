package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	postHandler      *PostHandler
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, postHandler *PostHandler) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
		postHandler:      postHandler,
	}
}

// RegisterUserRoutes registers profile and per-user listing routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, m RouteMiddleware) {
	m = m.withDefaults()
	g.GET("/users/me", h.GetProfile, m.RequireAuth)
	g.PATCH("/users/me", h.UpdateProfile, m.RequireAuth)
	g.GET("/users/:username", h.GetUser, m.OptionalAuth)
	g.GET("/users/:username/posts", h.GetUserPosts, m.OptionalAuth)
	g.GET("/users/:username/reactions", h.GetUserReactions, m.OptionalAuth)
}

func (h *UserHandler) lookup(c echo.Context) (*models.User, error) {
	return lookupUser(c, h.userRepository)
}

// lookupUser resolves the :username path parameter.
func lookupUser(c echo.Context, users repositories.UserRepository) (*models.User, error) {
	user, err := users.GetUserByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return nil, serviceError(c, err)
	}
	return user, nil
}

func (h *UserHandler) profile(c echo.Context, user *models.User) (models.UserProfile, error) {
	ctx := c.Request().Context()
	p := models.UserProfile{UserCompact: user.ToCompact()}

	var err error
	if p.FollowersCount, err = h.followRepository.GetFollowersCount(ctx, user.ID); err != nil {
		return p, err
	}
	if p.FollowingCount, err = h.followRepository.GetFollowingCount(ctx, user.ID); err != nil {
		return p, err
	}
	if viewerID := getUserIDFromContext(c); viewerID != 0 && viewerID != user.ID {
		if p.IsFollowed, err = h.followRepository.IsFollowing(ctx, viewerID, user.ID); err != nil {
			return p, err
		}
	}
	return p, nil
}

// GetUser returns a public profile by username
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.lookup(c)
	if err != nil {
		return err
	}
	p, err := h.profile(c, user)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": p})
}

func (h *UserHandler) currentUser(c echo.Context) (*models.User, error) {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "User no longer exists")
		}
		return nil, serviceError(c, err)
	}
	return user, nil
}

func (h *UserHandler) detail(c echo.Context, user *models.User) error {
	p, err := h.profile(c, user)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": models.UserDetail{UserProfile: p, Email: user.Email}})
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return h.detail(c, user)
}

// UpdateProfile updates the authenticated user's username, handle name or email
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if req.Username != "" && req.Username != user.Username {
		if other, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil && other.ID != user.ID {
			return echo.NewHTTPError(http.StatusConflict, "Username already taken")
		}
		user.Username = req.Username
	}
	if req.Email != "" && !strings.EqualFold(req.Email, user.Email) {
		if other, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil && other.ID != user.ID {
			return echo.NewHTTPError(http.StatusConflict, "Email already registered")
		}
		user.Email = req.Email
	}
	if req.HandleName != nil {
		user.HandleName = strings.TrimSpace(*req.HandleName)
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return serviceError(c, err)
	}
	return h.detail(c, user)
}

// GetUserPosts lists the user's live posts, newest first
func (h *UserHandler) GetUserPosts(c echo.Context) error {
	user, err := h.lookup(c)
	if err != nil {
		return err
	}

	page := pageFromQuery(c)
	posts, total, err := h.postHandler.postService.ListPosts(c.Request().Context(), models.PostFilter{AuthorID: user.ID}, page)
	if err != nil {
		return serviceError(c, err)
	}
	views, err := h.postHandler.views(c, posts)
	if err != nil {
		return serviceError(c, err)
	}
	return paginated(c, "posts", views, page, total)
}

// GetUserReactions lists the posts the user reacted to with ?type=
func (h *UserHandler) GetUserReactions(c echo.Context) error {
	user, err := h.lookup(c)
	if err != nil {
		return err
	}
	return h.postHandler.reactedPosts(c, user.ID)
}
