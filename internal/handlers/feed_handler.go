package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postHandler *PostHandler
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postHandler *PostHandler) *FeedHandler {
	return &FeedHandler{postHandler: postHandler}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group, m RouteMiddleware) {
	m = m.withDefaults()
	g.GET("/feed", h.GetFeed, m.RequireAuth)
}

// GetFeed returns the posts of the users the current user follows
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page := pageFromQuery(c)
	posts, total, err := h.postHandler.postService.Feed(c.Request().Context(), currentUserID, page)
	if err != nil {
		return serviceError(c, err)
	}
	views, err := h.postHandler.views(c, posts)
	if err != nil {
		return serviceError(c, err)
	}
	return paginated(c, "posts", views, page, total)
}
