package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anonto42/mitaina/backend/internal/handlers"
	"github.com/anonto42/mitaina/backend/internal/middleware"
	"github.com/anonto42/mitaina/backend/internal/repositories"
	"github.com/anonto42/mitaina/backend/internal/services"
	"github.com/anonto42/mitaina/backend/pkg/config"
	"github.com/anonto42/mitaina/backend/validators"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Dependencies are the external resources the routes are built on.
// Mongo and FirebaseAuth are optional.
type Dependencies struct {
	Config       *config.Config
	SQL          *gorm.DB
	Mongo        *mongo.Client
	FirebaseAuth handlers.IDTokenVerifier
	Logger       *slog.Logger
}

// SetupMiddleware configures global Echo middleware and the request validator
func SetupMiddleware(e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	e.Validator = validators.NewValidator(cfg.Genres)

	e.Use(eMiddleware.RequestIDWithConfig(eMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Warn("request", append(attrs, "error", v.Error)...)
			} else {
				logger.Info("request", attrs...)
			}
			return nil
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	logger.Debug("global middleware configured")
}

// SetupRoutes migrates the schema, wires repositories, services and handlers,
// and registers every route. It returns the throttles so the caller can sweep them.
func SetupRoutes(e *echo.Echo, deps Dependencies) ([]*middleware.ScopedRateLimiter, error) {
	cfg, logger := deps.Config, deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := repositories.AutoMigrate(deps.SQL); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("auto-migrations completed")

	e.GET("/health", handlers.HealthCheck)

	// --- Repositories and services ---
	store := repositories.NewGormStore(deps.SQL)
	repos := store.Repos()

	var activityRepo repositories.ActivityRepository = repositories.NopActivityRepository{}
	if deps.Mongo != nil {
		mongoRepo := repositories.NewMongoActivityRepository(deps.Mongo.Database(cfg.MongoDatabase))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("creating activity indexes failed", "error", err)
		}
		cancel()
		activityRepo = mongoRepo
	}
	activity := services.NewActivityRecorder(activityRepo, logger)

	reactionSet := cfg.ReactionSet()
	interactionService := services.NewInteractionService(store, reactionSet, activity, logger)
	postService := services.NewPostService(store, reactionSet, cfg.Genres, activity, logger)

	// --- Middleware shared by the route groups ---
	anon := middleware.NewScopedRateLimiter("anon", cfg.Throttle.Anon.Count, cfg.Throttle.Anon.Period)
	user := middleware.NewScopedRateLimiter("user", cfg.Throttle.User.Count, cfg.Throttle.User.Period)
	login := middleware.NewScopedRateLimiter("login", cfg.Throttle.Login.Count, cfg.Throttle.Login.Period)
	e.Use(middleware.GlobalRateLimitMiddleware(cfg.JWTSecret, user, anon, func(c echo.Context) bool {
		return !strings.HasPrefix(c.Request().URL.Path, "/api/")
	}))
	postCreate := middleware.NewScopedRateLimiter("post_create", cfg.Throttle.PostCreate.Count, cfg.Throttle.PostCreate.Period)
	reaction := middleware.NewScopedRateLimiter("reaction", cfg.Throttle.Reaction.Count, cfg.Throttle.Reaction.Period)
	report := middleware.NewScopedRateLimiter("report", cfg.Throttle.Report.Count, cfg.Throttle.Report.Period)
	m := handlers.RouteMiddleware{
		RequireAuth:        middleware.JWTAuthMiddleware(cfg.JWTSecret),
		OptionalAuth:       middleware.OptionalJWTAuthMiddleware(cfg.JWTSecret),
		LoginThrottle:      login.Middleware(),
		PostCreateThrottle: postCreate.Middleware(),
		ReactionThrottle:   reaction.Middleware(),
		ReportThrottle:     report.Middleware(),
	}

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(repos.Users, deps.FirebaseAuth, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"), m)
	logger.Debug("auth routes configured", "firebase", deps.FirebaseAuth != nil)

	api := e.Group("/api/v1")

	postHandler := handlers.NewPostHandler(postService, interactionService)
	postHandler.RegisterPostRoutes(api, m)

	handlers.NewFeedHandler(postHandler).RegisterFeedRoutes(api, m)
	handlers.NewUserHandler(repos.Users, repos.Follows, postHandler).RegisterUserRoutes(api, m)
	handlers.NewFollowHandler(repos.Follows, repos.Users, interactionService).RegisterFollowRoutes(api, m)
	handlers.NewNotificationHandler(repos.Notifications).RegisterNotificationRoutes(api, m)
	handlers.NewActivityHandler(activity).RegisterActivityRoutes(api, m)

	logger.Info("routes configured",
		"reaction_types", reactionSet.String(),
		"throttle_anon", cfg.Throttle.Anon.String(),
		"throttle_user", cfg.Throttle.User.String(),
		"throttle_login", cfg.Throttle.Login.String(),
		"throttle_post_create", cfg.Throttle.PostCreate.String(),
		"throttle_reaction", cfg.Throttle.Reaction.String(),
		"throttle_report", cfg.Throttle.Report.String(),
	)
	return []*middleware.ScopedRateLimiter{anon, user, login, postCreate, reaction, report}, nil
}
