package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/mitaina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	now                    func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		now:                    time.Now,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group, m RouteMiddleware) {
	m = m.withDefaults()
	g.GET("/me/notifications", h.GetNotifications, m.RequireAuth)
	g.GET("/me/notifications/grouped", h.GetGroupedNotifications, m.RequireAuth)
	g.GET("/me/notifications/unread-count", h.GetUnreadCount, m.RequireAuth)
	g.PATCH("/me/notifications/:id/read", h.MarkAsRead, m.RequireAuth)
	g.PATCH("/me/notifications/read-all", h.MarkAllAsRead, m.RequireAuth)
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page := pageFromQuery(c)
	notifications, total, err := h.notificationRepository.GetByRecipientID(c.Request().Context(), currentUserID, page)
	if err != nil {
		return serviceError(c, err)
	}
	return paginated(c, "notifications", newNotificationViews(notifications), page, total)
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ctx := c.Request().Context()
	groups, err := h.notificationRepository.GetGrouped(ctx, currentUserID, h.now())
	if err != nil {
		return serviceError(c, err)
	}
	unreadCount, err := h.notificationRepository.GetUnreadCount(ctx, currentUserID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": echo.Map{
				"today":     newNotificationViews(groups.Today),
				"yesterday": newNotificationViews(groups.Yesterday),
				"thisWeek":  newNotificationViews(groups.ThisWeek),
				"older":     newNotificationViews(groups.Older),
			},
			"unreadCount": unreadCount,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the current user's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notifID, err := parseID(c, "id", "notification")
	if err != nil {
		return err
	}

	n, err := h.notificationRepository.MarkAsRead(c.Request().Context(), notifID, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": newNotificationView(*n)})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	updated, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUserID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"updated": updated}})
}
