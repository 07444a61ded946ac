package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/mitaina/backend/internal/middleware"
	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// reservedUsernames collide with static routes under /users.
var reservedUsernames = map[string]struct{}{"me": {}}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   IDTokenVerifier
	jwtSecret      string
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which
// disables Firebase login.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth IDTokenVerifier, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, m RouteMiddleware) {
	m = m.withDefaults()
	g.POST("/signup", h.Signup, m.LoginThrottle)
	g.POST("/signin", h.SignIn, m.LoginThrottle)
	g.POST("/firebase-login", h.FirebaseLogin, m.LoginThrottle)
}

func (h *AuthHandler) tokenResponse(c echo.Context, status int, user *models.User) error {
	token, err := middleware.IssueToken(h.jwtSecret, user, middleware.TokenTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(status, echo.Map{"token": token, "user": user.ToCompact()})
}

// Signup handles local user registration
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if _, reserved := reservedUsernames[strings.ToLower(req.Username)]; reserved {
		return echo.NewHTTPError(http.StatusBadRequest, "This username is reserved")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Username already taken")
	}
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username:   req.Username,
		HandleName: strings.TrimSpace(req.HandleName),
		Email:      req.Email,
		Password:   string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return serviceError(c, err)
	}

	return h.tokenResponse(c, http.StatusCreated, user)
}

// SignIn handles local authentication with a username or email and a password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByLogin(c.Request().Context(), strings.TrimSpace(req.Login))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return serviceError(c, err)
	}
	if user.Password == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return h.tokenResponse(c, http.StatusOK, user)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT, creating
// or linking the account on first login
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}
	name, _ := token.Claims["name"].(string)

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Claiming an account by email requires Firebase to have verified it.
		if verified, _ := token.Claims["email_verified"].(bool); !verified {
			return echo.NewHTTPError(http.StatusForbidden, "Firebase email is not verified")
		}
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			user.FirebaseUID = &firebaseUID
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return serviceError(c, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = &models.User{
				Username:    generatedUsername(email),
				HandleName:  truncateRunes(name, 50),
				Email:       email,
				FirebaseUID: &firebaseUID,
			}
			if err := h.userRepository.CreateUser(ctx, user); err != nil {
				return serviceError(c, err)
			}
		default:
			return serviceError(c, err)
		}
	default:
		return serviceError(c, err)
	}

	return h.tokenResponse(c, http.StatusOK, user)
}

var usernameUnsafe = regexp.MustCompile(`[^\p{L}\p{N}_.+-]+`)

// generatedUsername derives a unique-enough username from the email local part.
func generatedUsername(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	local = truncateRunes(usernameUnsafe.ReplaceAllString(local, ""), 30)
	if local == "" {
		local = "user"
	}
	return local + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
