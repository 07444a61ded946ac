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

const testSecret = "test-secret"

func whoami(c echo.Context) error {
	id, ok := UserIDFromContext(c)
	if !ok {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id})
}

func serve(mw echo.MiddlewareFunc, header string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/", whoami, mw)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, &models.User{ID: 7, Username: "alice"}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, err := IssueToken(testSecret, &models.User{ID: 7}, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)
}

func TestJWTAuthMiddleware(t *testing.T) {
	token, err := IssueToken(testSecret, &models.User{ID: 3, Username: "bob"}, time.Hour)
	require.NoError(t, err)
	mw := JWTAuthMiddleware(testSecret)

	rec := serve(mw, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":3}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(mw, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(mw, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(mw, "Bearer garbage").Code)
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	token, err := IssueToken(testSecret, &models.User{ID: 3}, time.Hour)
	require.NoError(t, err)
	mw := OptionalJWTAuthMiddleware(testSecret)

	rec := serve(mw, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = serve(mw, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":3}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(mw, "Bearer garbage").Code)
}
