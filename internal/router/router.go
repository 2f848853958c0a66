package router

import (
	"log"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/feathr-social/backend/internal/handlers"
	"github.com/feathr-social/backend/internal/middleware"
	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/push"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/feathr-social/backend/internal/storage"
	"github.com/feathr-social/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// firebaseAuthClient may be nil; the firebase login route then rejects.
func SetupRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config, firebaseAuthClient *auth.Client) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Post{},
		&models.PostPayload{},
		&models.Favorite{},
		&models.Repost{},
		&models.Follow{},
		&models.Notification{},
		&models.NotificationStream{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.Static("/media", cfg.MediaRoot)

	// --- Initialize repositories and services ---
	accountRepo := repositories.NewPostgresAccountRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	favoriteRepo := repositories.NewPostgresFavoriteRepository(db)
	repostRepo := repositories.NewPostgresRepostRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	notificationRepo := repositories.NewPostgresNotificationRepository(db)
	streamRepo := repositories.NewPostgresStreamRepository(db)

	fileStore := storage.NewLocalFileStore(cfg.MediaRoot, cfg.MediaBaseURL)
	hub := push.NewHub()
	notifier := push.NewNotifier(db, streamRepo, hub, time.Now)
	serializer := handlers.NewPostSerializer(postRepo, favoriteRepo, repostRepo, fileStore)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(accountRepo, firebaseAuthClient, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Public reads (viewer flags off when anonymous) ---
	public := e.Group("/api/v1")
	public.Use(middleware.OptionalAuth(cfg.JWTSecret))

	feedHandler := handlers.NewFeedHandler(postRepo, followRepo, serializer)
	feedHandler.RegisterFeedRoutes(public)

	profileHandler := handlers.NewProfileHandler(accountRepo, followRepo, fileStore, notifier)
	profileHandler.RegisterPublicRoutes(public)
	log.Println("Feed and profile routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))

	postHandler := handlers.NewPostHandler(postRepo, repostRepo, accountRepo, fileStore, notifier)
	postHandler.RegisterPostRoutes(api)

	toggleHandler := handlers.NewToggleHandler(postRepo, favoriteRepo, repostRepo, accountRepo, notifier)
	toggleHandler.RegisterToggleRoutes(api)

	profileHandler.RegisterProtectedRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, streamRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Post, toggle and notification routes configured.")

	// --- Notification stream (token-authenticated websocket) ---
	streamHandler := handlers.NewStreamHandler(streamRepo, hub, time.Now)
	streamHandler.RegisterStreamRoutes(e)
	log.Println("Notification stream route configured.")

	log.Println("All routes configured.")
}
