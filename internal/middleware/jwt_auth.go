package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// contextKeyUser is where the authenticated claims are stored on echo.Context.
const contextKeyUser = "user"

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = 72 * time.Hour

// IssueToken signs an HS256 access token for user.
func IssueToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies tokenString and returns its claims.
func ParseToken(secret, tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
// ok is false when the header is absent.
func bearerToken(c echo.Context) (token string, ok bool, err error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", true, echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], true, nil
}

func authenticate(c echo.Context, secret string, required bool) error {
	tokenString, present, err := bearerToken(c)
	if err != nil {
		return err
	}
	if !present {
		if required {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
		}
		return nil
	}

	claims, err := ParseToken(secret, tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	c.Set(contextKeyUser, claims)
	return nil
}

// JWTAuthMiddleware rejects requests without a valid bearer token and stores
// the token claims in the context.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, secret, true); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalJWTAuthMiddleware lets anonymous requests through but still rejects
// a malformed or invalid token.
func OptionalJWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, secret, false); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by the auth middleware.
func ClaimsFromContext(c echo.Context) (*models.JwtCustomClaims, bool) {
	claims, ok := c.Get(contextKeyUser).(*models.JwtCustomClaims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the authenticated user id, or false for anonymous requests.
func UserIDFromContext(c echo.Context) (uint, bool) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}
