// @title           DataLens Backend API
// @version         1.0.0
// @description     Backend API for the DataLens data analysis platform. Handles project and file management, tabular data processing pipelines, AI-assisted chat over project data, and dashboard visualizations.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"datalens-backend/docs"
	"datalens-backend/internal/assistant"
	"datalens-backend/internal/config"
	"datalens-backend/internal/database"
	"datalens-backend/internal/events"
	"datalens-backend/internal/handlers"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/middleware"
	"datalens-backend/internal/services"
	"datalens-backend/internal/storage"
	"datalens-backend/internal/tabular"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	if cfg.DatabaseURL == "" {
		appLogger.Fatalw("DATABASE_URL is not set")
	}

	dbClient, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatalw("Failed to initialize database client", "error", err)
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize migrator", "error", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		appLogger.Fatalw("Migration failed", "error", err)
	}
	migrator.Close()
	appLogger.Infow("Migrations completed successfully")

	tabularClient := tabular.NewClient(cfg.TabularAPIBaseURL)
	assistantClient := assistant.NewClient(cfg.AIBackendURL)

	storageClient, err := storage.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		appLogger.Fatalw("Failed to initialize storage client", "error", err)
	}

	publisher, err := events.NewPublisher(cfg.SupabaseURL, cfg.SupabasePublishableKey)
	if err != nil {
		appLogger.Fatalw("Failed to initialize event publisher", "error", err)
	}

	userSync := services.NewUserSync(dbClient, appLogger)
	loader := services.NewLoader(tabularClient, dbClient, publisher, appLogger)

	usersHandler := handlers.NewUsersHandler(userSync, dbClient)
	projectsHandler := handlers.NewProjectsHandler(dbClient, storageClient, publisher, appLogger)
	uploadHandler := handlers.NewUploadHandler(dbClient, tabularClient, storageClient, publisher, appLogger)
	filesHandler := handlers.NewFilesHandler(dbClient, tabularClient, storageClient, appLogger)
	loadHandler := handlers.NewLoadHandler(dbClient, loader, appLogger)
	chatHandler := handlers.NewChatHandler(dbClient, assistantClient, appLogger)
	visualizationsHandler := handlers.NewVisualizationsHandler(dbClient, appLogger)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// User identity
	api.POST("/users/sync", usersHandler.SyncUser)
	api.GET("/users/me", usersHandler.GetMe)

	// Projects
	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.POST("/projects/load", loadHandler.LoadProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.PATCH("/projects/:project_id", projectsHandler.UpdateProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)

	// Files
	api.POST("/projects/:project_id/files", uploadHandler.UploadFiles)
	api.GET("/projects/:project_id/files", filesHandler.GetFiles)
	api.DELETE("/projects/:project_id/files/:file_id", filesHandler.DeleteFile)
	api.GET("/files/:file_uuid/cleaned", filesHandler.DownloadCleaned)
	api.GET("/files/:file_uuid/analysis", filesHandler.DownloadAnalysis)

	// Chat
	api.POST("/projects/:project_id/chat", chatHandler.SendMessage)
	api.POST("/projects/:project_id/chat/save", chatHandler.SaveVisualization)

	// Visualizations
	api.GET("/visualizations", visualizationsHandler.ListVisualizations)
	api.POST("/visualizations", visualizationsHandler.CreateVisualization)
	api.PATCH("/visualizations/layouts", visualizationsHandler.UpdateLayouts)
	api.GET("/visualizations/:visualization_id", visualizationsHandler.GetVisualization)
	api.DELETE("/visualizations/:visualization_id", visualizationsHandler.DeleteVisualization)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	appLogger.Infow("Server starting", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		appLogger.Fatalw("Failed to start server", "error", err)
	}
}
