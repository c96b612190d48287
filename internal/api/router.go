package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/app"
	iauth "github.com/liuxin327/heartbeat/internal/auth"
	"github.com/liuxin327/heartbeat/internal/handlers"
	"github.com/liuxin327/heartbeat/internal/middleware"
	"github.com/liuxin327/heartbeat/internal/services"
	"github.com/liuxin327/heartbeat/internal/storage"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, sessions *iauth.SessionService, store *storage.LocalStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if store == nil {
		return nil, fmt.Errorf("photo store must be provided")
	}

	userSvc, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	pairingSvc, err := services.NewPairingService(db)
	if err != nil {
		return nil, err
	}
	taskSvc, err := services.NewTaskService(db)
	if err != nil {
		return nil, err
	}
	checkInSvc, err := services.NewCheckInService(db)
	if err != nil {
		return nil, err
	}
	commentSvc, err := services.NewCommentService(db)
	if err != nil {
		return nil, err
	}
	likeSvc, err := services.NewLikeService(db)
	if err != nil {
		return nil, err
	}
	scoreSvc, err := services.NewScoreService(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSWithOrigins(cfg.Server.CORS.Origins))
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}

	// Uploaded photos are served as static files.
	r.Static(store.BaseURL(), store.Dir())

	authHandler := handlers.NewAuthHandler(userSvc, sessions)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	// Authenticated auth routes
	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)

	// Users and pairing
	userHandler := handlers.NewUserHandler(userSvc, pairingSvc)
	users := api.Group("/users")
	{
		users.GET("/profile", userHandler.Profile)
		users.POST("/bind", userHandler.BindPartner)
	}

	// Tasks
	taskHandler := handlers.NewTaskHandler(taskSvc)
	checkInHandler := handlers.NewCheckInHandler(checkInSvc, store)
	tasks := api.Group("/tasks")
	{
		tasks.GET("", taskHandler.List)
		tasks.POST("", taskHandler.Create)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PATCH("/:id", taskHandler.Update)
		tasks.GET("/:id/checkins", checkInHandler.ListByTask)
	}

	// Check-ins, comments, likes
	commentHandler := handlers.NewCommentHandler(commentSvc)
	likeHandler := handlers.NewLikeHandler(likeSvc)
	checkIns := api.Group("/checkins")
	{
		checkIns.POST("", checkInHandler.Create)
		checkIns.GET("/:id", checkInHandler.Get)
		checkIns.GET("/:id/comments", commentHandler.List)
		checkIns.POST("/:id/comments", commentHandler.Create)
		checkIns.GET("/:id/likes", likeHandler.List)
		checkIns.POST("/:id/likes", likeHandler.Like)
		checkIns.DELETE("/:id/likes", likeHandler.Unlike)
	}
	api.DELETE("/comments/:id", commentHandler.Delete)

	// Dashboard
	api.GET("/dashboard", checkInHandler.Dashboard)

	// Score requests
	scoreHandler := handlers.NewScoreHandler(scoreSvc)
	scores := api.Group("/scores")
	{
		scores.GET("/requests", scoreHandler.List)
		scores.POST("/requests", scoreHandler.Create)
		scores.POST("/requests/:id/respond", scoreHandler.Respond)
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
