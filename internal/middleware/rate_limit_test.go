package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/mitaina/backend/internal/models"
)

func TestScopedRateLimiterAllow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewScopedRateLimiter("report", 3, 24*time.Hour)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("user:1"), "request %d", i)
	}
	assert.False(t, rl.Allow("user:1"))
	assert.True(t, rl.Allow("user:2"))

	now = now.Add(9 * time.Hour)
	assert.True(t, rl.Allow("user:1"))
	assert.False(t, rl.Allow("user:1"))
}

func TestScopedRateLimiterSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewScopedRateLimiter("reaction", 1, time.Hour)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(30 * time.Minute)
	rl.Allow("b")
	now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, rl.Sweep())
	assert.False(t, rl.Allow("b"))
}

func TestScopedRateLimiterDisabled(t *testing.T) {
	rl := NewScopedRateLimiter("post_create", 0, time.Hour)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("ip:1.2.3.4"))
	}
}

func TestRateLimitMiddlewareKeysByUser(t *testing.T) {
	rl := NewScopedRateLimiter("post_create", 1, 24*time.Hour)
	e := echo.New()
	e.POST("/posts", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, OptionalJWTAuthMiddleware(testSecret), rl.Middleware())

	alice, err := IssueToken(testSecret, &models.User{ID: 1}, time.Hour)
	require.NoError(t, err)
	bob, err := IssueToken(testSecret, &models.User{ID: 2}, time.Hour)
	require.NoError(t, err)

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, do(alice))
	assert.Equal(t, http.StatusTooManyRequests, do(alice))
	assert.Equal(t, http.StatusCreated, do(bob))
	assert.Equal(t, http.StatusCreated, do(""))
	assert.Equal(t, http.StatusTooManyRequests, do(""))
}

func TestGlobalRateLimitSeparatesUsersFromAnonymous(t *testing.T) {
	user := NewScopedRateLimiter("user", 2, 24*time.Hour)
	anon := NewScopedRateLimiter("anon", 1, 24*time.Hour)
	e := echo.New()
	e.Use(GlobalRateLimitMiddleware(testSecret, user, anon, func(c echo.Context) bool {
		return c.Request().URL.Path == "/health"
	}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/posts", ok)
	e.GET("/health", ok)

	alice, err := IssueToken(testSecret, &models.User{ID: 1}, time.Hour)
	require.NoError(t, err)

	do := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/posts", ""))
	assert.Equal(t, http.StatusTooManyRequests, do("/posts", ""))
	assert.Equal(t, http.StatusTooManyRequests, do("/posts", "not-a-token"))

	assert.Equal(t, http.StatusOK, do("/posts", alice))
	assert.Equal(t, http.StatusOK, do("/posts", alice))
	assert.Equal(t, http.StatusTooManyRequests, do("/posts", alice))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("/health", ""))
	}
}
