package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"stockroom/internal/caching"
	"stockroom/internal/config"
	"stockroom/internal/handlers"
	"stockroom/internal/jobs"
	"stockroom/internal/jobs/background"
	"stockroom/internal/middleware"
	"stockroom/internal/models"
	"stockroom/internal/repositories"
	"stockroom/internal/services"
	"stockroom/internal/store"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Persistence backend
	var backend store.Store
	switch cfg.Backend {
	case config.BackendMinio:
		minioStore, err := store.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("Failed to initialize object store: %v", err)
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to prepare bucket: %v", err)
		}
		backend = minioStore
	default:
		fileStore, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to initialize data directory: %v", err)
		}
		backend = fileStore
	}

	// Snapshot layer: warmed once, refreshed on writes, read fallback when
	// the backend is unreachable.
	snapshot := store.NewSnapshotStore(backend)
	if err := snapshot.Warm(ctx, store.Collections); err != nil {
		log.Fatalf("Failed to warm collection snapshots: %v", err)
	}

	// Cache service (best-effort; disabled without REDIS_ADDR)
	var cacheSvc caching.CacheService
	if cfg.RedisAddr != "" {
		cacheSvc = caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	} else {
		cacheSvc = caching.NewNoopCacheService()
	}

	// Create repositories
	userRepo := repositories.NewUserRepository(snapshot)
	productRepo := repositories.NewProductRepository(snapshot)
	movementRepo := repositories.NewMovementRepository(snapshot)
	requestRepo := repositories.NewRequestRepository(snapshot)

	// Create services
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret)
	productSvc := services.NewProductService(productRepo, movementRepo, cacheSvc)
	stockSvc := services.NewStockService(productRepo, movementRepo, cacheSvc)
	requestSvc := services.NewRequestService(requestRepo, productRepo, stockSvc)

	seedUsers(ctx, userRepo, authSvc, cfg)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, cacheSvc)
	productHandlers := handlers.NewProductHandlers(productSvc, stockSvc)
	movementHandlers := handlers.NewMovementHandlers(stockSvc)
	requestHandlers := handlers.NewRequestHandlers(requestSvc)
	healthHandlers := handlers.NewHealthHandlers(snapshot, cacheSvc)

	// Background jobs
	alertSvc := jobs.NewReorderAlertService(productRepo)
	scheduler, err := background.NewJobScheduler(alertSvc, snapshot)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Authentication routes
	e.POST("/auth/login", authHandlers.Login)
	e.POST("/auth/register", authHandlers.Register)

	// Public catalog reads
	e.GET("/products", productHandlers.ListProducts)
	e.GET("/products/:id", productHandlers.GetProduct)

	// Authenticated routes
	authed := e.Group("", middleware.Authenticate(authSvc))
	authed.GET("/auth/me", authHandlers.Me)
	authed.POST("/movements", movementHandlers.CreateMovement)
	authed.POST("/requests", requestHandlers.CreateRequest)
	authed.GET("/requests", requestHandlers.ListRequests)

	// Admin-only routes
	admin := e.Group("", middleware.Authenticate(authSvc), middleware.RequireAdmin())
	admin.POST("/products", productHandlers.CreateProduct)
	admin.POST("/products/bulk", productHandlers.BulkCreateProducts)
	admin.PUT("/products/:id", productHandlers.UpdateProduct)
	admin.DELETE("/products/:id", productHandlers.DeleteProduct)
	admin.GET("/movements", movementHandlers.ListMovements)
	admin.PUT("/requests/:id", requestHandlers.UpdateRequest)

	log.Printf("stockroom v%s starting on port %d (backend: %s)", version, cfg.Port, cfg.Backend)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}

// seedUsers creates the default admin and operator accounts on a fresh
// installation. Runs only when the users collection is empty and seed
// passwords are configured.
func seedUsers(ctx context.Context, userRepo repositories.UserRepository, authSvc services.AuthService, cfg *config.Config) {
	users, err := userRepo.List(ctx)
	if err != nil {
		log.Printf("Skipping user seeding, cannot read users: %v", err)
		return
	}
	if len(users) > 0 {
		return
	}

	if cfg.SeedAdminPassword != "" {
		if _, err := authSvc.Register(ctx, "admin", cfg.SeedAdminPassword, models.RoleAdmin); err != nil {
			log.Printf("Failed to seed admin user: %v", err)
		} else {
			log.Println("Seeded default admin user")
		}
	}
	if cfg.SeedOperatorPassword != "" {
		if _, err := authSvc.Register(ctx, "operator", cfg.SeedOperatorPassword, models.RoleOperator); err != nil {
			log.Printf("Failed to seed operator user: %v", err)
		} else {
			log.Println("Seeded default operator user")
		}
	}
}
