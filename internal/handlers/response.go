package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/mitaina/backend/internal/middleware"
	"github.com/anonto42/mitaina/backend/internal/repositories"
	"github.com/anonto42/mitaina/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// getUserIDFromContext returns the authenticated user id, or 0 for anonymous requests.
func getUserIDFromContext(c echo.Context) uint {
	id, _ := middleware.UserIDFromContext(c)
	return id
}

// pageFromQuery reads the page and limit query parameters.
func pageFromQuery(c echo.Context) repositories.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return repositories.Page{Number: page, Size: limit}
}

func parseID(c echo.Context, name, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+label+" ID")
	}
	return uint(id), nil
}

// paginated writes the list envelope used by every listing endpoint.
func paginated(c echo.Context, key string, items interface{}, page repositories.Page, total int64) error {
	totalPages := int(math.Ceil(float64(total) / float64(page.Size)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			key: items,
		},
		"meta": echo.Map{
			"currentPage":     page.Number,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    page.Size,
			"hasNextPage":     page.Number < totalPages,
			"hasPreviousPage": page.Number > 1,
		},
	})
}

// serviceError maps domain errors to HTTP errors. Anything unexpected is
// logged and reported as 500.
func serviceError(c echo.Context, err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, services.ErrInvalidArgument), errors.Is(err, services.ErrAlreadyReported):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	slog.Error("request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"error", err,
	)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
