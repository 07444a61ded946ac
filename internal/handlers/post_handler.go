package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts and reactions
type PostHandler struct {
	postService        *services.PostService
	interactionService *services.InteractionService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postService *services.PostService, interactionService *services.InteractionService) *PostHandler {
	return &PostHandler{
		postService:        postService,
		interactionService: interactionService,
	}
}

// RegisterPostRoutes registers post, reaction and own-reaction routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, m RouteMiddleware) {
	m = m.withDefaults()
	g.GET("/posts", h.GetPosts, m.OptionalAuth)
	g.GET("/posts/:id", h.GetPost, m.OptionalAuth)
	g.POST("/posts", h.CreatePost, m.RequireAuth, m.PostCreateThrottle)
	g.DELETE("/posts/:id", h.DeletePost, m.RequireAuth)
	g.POST("/posts/:id/react", h.ToggleReaction, m.RequireAuth, m.ReactionThrottle)
	g.POST("/posts/:id/report", h.ReportPost, m.RequireAuth, m.ReportThrottle)
	g.GET("/me/reactions", h.GetMyReactions, m.RequireAuth)
}

// views attaches the viewer's own reactions when the request is authenticated.
func (h *PostHandler) views(c echo.Context, posts []models.Post) ([]PostView, error) {
	set := h.interactionService.ReactionTypes()
	mine := map[uint][]string{}
	if viewerID := getUserIDFromContext(c); viewerID != 0 && len(posts) > 0 {
		ids := make([]uint, len(posts))
		for i, p := range posts {
			ids[i] = p.ID
		}
		var err error
		mine, err = h.postService.MyReactions(c.Request().Context(), viewerID, ids)
		if err != nil {
			return nil, err
		}
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		views[i] = newPostView(p, set, mine[p.ID])
	}
	return views, nil
}

func (h *PostHandler) view(c echo.Context, post *models.Post) (PostView, error) {
	views, err := h.views(c, []models.Post{*post})
	if err != nil {
		return PostView{}, err
	}
	return views[0], nil
}

// GetPosts lists live posts, filtered by genre and search text
func (h *PostHandler) GetPosts(c echo.Context) error {
	page := pageFromQuery(c)
	filter := models.PostFilter{
		Genre:    c.QueryParam("genre"),
		Search:   c.QueryParam("q"),
		Ordering: c.QueryParam("ordering"),
	}

	posts, total, err := h.postService.ListPosts(c.Request().Context(), filter, page)
	if err != nil {
		return serviceError(c, err)
	}
	views, err := h.views(c, posts)
	if err != nil {
		return serviceError(c, err)
	}
	return paginated(c, "posts", views, page, total)
}

// GetPost retrieves a live post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}

	post, err := h.postService.GetPost(c.Request().Context(), postID)
	if err != nil {
		return serviceError(c, err)
	}
	v, err := h.view(c, post)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": v})
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Text = models.StripSuffix(req.Text)
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.postService.CreatePost(c.Request().Context(), currentUserID, req)
	if err != nil {
		return serviceError(c, err)
	}
	v, err := h.view(c, post)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": v})
}

// DeletePost soft-deletes the current user's post
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}

	if err := h.postService.DeletePost(c.Request().Context(), currentUserID, postID); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleReaction adds the reaction if absent and removes it otherwise
func (h *PostHandler) ToggleReaction(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}

	var req models.ReactionToggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reactionType := strings.TrimSpace(req.ReactionType)
	result, err := h.interactionService.ToggleReaction(c.Request().Context(), currentUserID, postID, reactionType)
	if err != nil {
		return serviceError(c, err)
	}
	v, err := h.view(c, result.Post)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"is_reacted":      result.Created,
			"reaction_type":   reactionType,
			"reaction_counts": v.ReactionCounts,
			"post":            v,
		},
	})
}

// ReportPost files a report on a post, once per user
func (h *PostHandler) ReportPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}

	var req models.CreateReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	report, err := h.postService.ReportPost(c.Request().Context(), currentUserID, postID, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": report})
}

// GetMyReactions lists the posts the current user reacted to with ?type=
func (h *PostHandler) GetMyReactions(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return h.reactedPosts(c, currentUserID)
}

func (h *PostHandler) reactedPosts(c echo.Context, userID uint) error {
	reactionType := c.QueryParam("type")
	if reactionType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter 'type' is required")
	}

	page := pageFromQuery(c)
	posts, total, err := h.postService.ReactedPosts(c.Request().Context(), userID, reactionType, page)
	if err != nil {
		return serviceError(c, err)
	}
	views, err := h.views(c, posts)
	if err != nil {
		return serviceError(c, err)
	}
	return paginated(c, "posts", views, page, total)
}
