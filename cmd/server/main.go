package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/edtech-labs/learning-task-api/internal/auth"
	"github.com/edtech-labs/learning-task-api/internal/config"
	"github.com/edtech-labs/learning-task-api/internal/constants"
	"github.com/edtech-labs/learning-task-api/internal/database"
	apierrors "github.com/edtech-labs/learning-task-api/internal/errors"
	"github.com/edtech-labs/learning-task-api/internal/handlers"
	"github.com/edtech-labs/learning-task-api/internal/middleware"
	"github.com/edtech-labs/learning-task-api/internal/ratelimit"
	"github.com/edtech-labs/learning-task-api/internal/repository"
	"github.com/edtech-labs/learning-task-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Login attempt limiter backed by Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisHost + ":" + cfg.RedisPort,
	})
	loginLimiter := ratelimit.NewRedisLimiter(redisClient, ratelimit.Config{
		Limit:  constants.LoginRateLimit,
		Window: constants.LoginRateWindow,
	}, "login:")

	// Token manager for bearer auth
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, constants.TokenTTL, constants.TokenIssuer)

	// Wire repositories, services and handlers
	userRepo := repository.NewUserRepository(database.GetDB())
	taskRepo := repository.NewTaskRepository(database.GetDB())

	authService := services.NewAuthService(userRepo, tokenManager)
	taskService := services.NewTaskService(taskRepo, userRepo)

	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)

	requireAuth := middleware.RequireAuth(tokenManager, userRepo)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		apierrors.InternalError(c, "")
		c.Abort()
	}))

	// Health check endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "EdTech Learning Task Manager API is running",
		})
	})

	// Auth routes
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", middleware.LoginRateLimit(loginLimiter), authHandler.Login)
		authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
		authRoutes.GET("/teachers-list", authHandler.ListTeachers)
		authRoutes.GET("/students-of-teacher", requireAuth, authHandler.ListStudents)
	}

	// Task routes (protected)
	taskRoutes := r.Group("/tasks")
	taskRoutes.Use(requireAuth)
	{
		taskRoutes.GET("", taskHandler.ListTasks)
		taskRoutes.POST("", taskHandler.CreateTask)
		taskRoutes.PUT("/:id", taskHandler.UpdateTask)
		taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
	}

	// Unmatched routes answer in the same JSON envelope
	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, fmt.Sprintf("Not found - %s", c.Request.URL.Path))
	})

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
