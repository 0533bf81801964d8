package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"byggmart/internal/caching"
	"byggmart/internal/handlers"
	"byggmart/internal/jobs/background"
	"byggmart/internal/middleware"
	"byggmart/internal/repositories"
	"byggmart/internal/services"
	"byggmart/pkg/database"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background(), services.ExportBucket); err != nil {
		log.Printf("WARN: could not ensure export bucket: %v", err)
	}

	// Repositories
	basisRepo := repositories.NewInvoiceBasisRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	customerRepo := repositories.NewCustomerRepo(pool)
	auditRepo := repositories.NewAuditLogsRepo(pool)

	// Services
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)
	recorder := services.NewAuditRecorder(auditRepo)
	basisSvc := services.NewInvoiceBasisService(basisRepo, projectRepo, customerRepo, auditRepo, recorder, cacheSvc)
	exportSvc := services.NewExportService(basisRepo, storageSvc)

	// Background jobs
	scheduler, err := background.NewJobScheduler(recorder)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	// Handlers
	basisHandlers := handlers.NewInvoiceBasisHandlers(basisSvc, exportSvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.Liveness)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTMiddleware(jwtSecret))

	v1.GET("/projects/:projectId/invoice-basis", basisHandlers.FindByPeriod)
	v1.GET("/invoice-basis/:id", basisHandlers.GetByID)
	v1.PUT("/invoice-basis/:id/header", basisHandlers.UpdateHeader)
	v1.PUT("/invoice-basis/:id/lines/:lineId", basisHandlers.UpdateLine)
	v1.POST("/invoice-basis/:id/lock", basisHandlers.Lock, middleware.RequireAction(services.ActionLockInvoiceBasis))
	v1.POST("/invoice-basis/:id/pdf", basisHandlers.ExportPDF)
	v1.GET("/invoice-basis/:id/audit", basisHandlers.AuditTrail, middleware.RequireAction(services.ActionViewAuditLog))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Fatal(e.Start(":" + port))
}
