package handlers

import (
	"net/http"

	"github.com/anonto42/mitaina/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ActivityHandler serves the current user's activity log
type ActivityHandler struct {
	activity *services.ActivityRecorder
}

func NewActivityHandler(activity *services.ActivityRecorder) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group, m RouteMiddleware) {
	m = m.withDefaults()
	g.GET("/me/activity", h.GetActivity, m.RequireAuth)
}

// GetActivity returns the newest activity entries of the current user
func (h *ActivityHandler) GetActivity(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page := pageFromQuery(c)
	activities, err := h.activity.List(c.Request().Context(), currentUserID, int64(page.Offset()), int64(page.Size))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"activities": activities,
		},
	})
}
