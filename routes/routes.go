package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"course_market_backend/config"
	"course_market_backend/db"
	"course_market_backend/draft"
	"course_market_backend/guard"
	"course_market_backend/handlers"
	"course_market_backend/logger"
	"course_market_backend/middleware"
	"course_market_backend/models"
	"course_market_backend/publish"
	"course_market_backend/viewer"
)

// Deps are the shared clients the routes are built from. Redis and
// Thumbnails are optional and may be nil.
type Deps struct {
	Config     *config.Config
	DB         *sql.DB
	Redis      *redis.Client
	Thumbnails publish.ThumbnailStore
	Log        *logger.Logger
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, d Deps) {
	cfg, log := d.Config, d.Log

	// Repositories
	courseRepo := db.NewCourseRepository(d.DB)
	roleRepo := db.NewRoleRepository(d.DB)
	userRepo := db.NewUserRepository(d.DB)
	dashboardRepo := db.NewDashboardRepository(d.DB)

	tokens := middleware.NewTokenService(d.DB, []byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	routeGuard := guard.New(guard.DefaultRoutes(), roleRepo, log)

	var drafts draft.Store
	if d.Redis != nil {
		drafts = draft.NewRedisStore(d.Redis, cfg.DraftTTL)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, roleRepo, tokens, log)
	roleHandler := handlers.NewRoleHandler(roleRepo, log)
	courseHandler := handlers.NewCourseHandler(
		publish.NewOrchestrator(courseRepo, roleRepo, d.Thumbnails, log),
		viewer.New(courseRepo, log),
		drafts,
		cfg.MaxThumbnailBytes,
		log,
	)
	dashboardHandler := handlers.NewDashboardHandler(dashboardRepo, courseRepo, log)
	guardHandler := handlers.NewGuardHandler(routeGuard)
	healthHandler := handlers.NewHealthHandler(d.DB)

	// Public routes
	r.GET("/health", healthHandler.HealthCheck)
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.GET("/course/:slug", courseHandler.GetCourse)
	r.GET("/guard", middleware.OptionalAuth(tokens), guardHandler.Check)

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens, log))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/userinfo", authHandler.UserInfo)
		protected.POST("/functions/ensure-teacher-role", roleHandler.EnsureTeacherRole)
	}

	teacher := protected.Group("/")
	teacher.Use(middleware.RequireRoles(routeGuard, models.RoleTeacher))
	{
		teacher.GET("/teacher/overview", dashboardHandler.Overview)
		teacher.GET("/teacher/courses", dashboardHandler.Courses)

		publishing := teacher.Group("/courses")
		if d.Redis != nil {
			limiter := middleware.NewRateLimiter(d.Redis, log)
			publishing.Use(limiter.Limit("publish", cfg.PublishRateLimit, cfg.PublishRateWindow))
		}
		publishing.POST("/publish", courseHandler.PublishCourse)
		publishing.POST("/draft", courseHandler.SaveDraft)

		if drafts != nil {
			draftHandler := handlers.NewDraftHandler(drafts, log)
			teacher.GET("/drafts/current", draftHandler.Get)
			teacher.PUT("/drafts/current", draftHandler.Put)
			teacher.PATCH("/drafts/current", draftHandler.Patch)
			teacher.DELETE("/drafts/current", draftHandler.Delete)
		}
	}
}
