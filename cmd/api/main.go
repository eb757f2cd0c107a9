package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"propertyhub_backend/internal/controller"
	"propertyhub_backend/internal/middleware"
	"propertyhub_backend/internal/model"
	"propertyhub_backend/internal/service"
	"propertyhub_backend/pkg/cache"
	"propertyhub_backend/pkg/config"
	"propertyhub_backend/pkg/cron"
	"propertyhub_backend/pkg/database"
	"propertyhub_backend/pkg/seed"
	"propertyhub_backend/pkg/storage"
	"propertyhub_backend/pkg/utils/jwt"
)

type controllers struct {
	auth       *controller.AuthController
	properties *controller.PropertyController
	media      *controller.MediaController
	stats      *controller.StatsController
	catalog    *controller.CatalogController
}

func setupRoutes(app *fiber.App, db *gorm.DB, h controllers) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", h.auth.Register)
	auth.Post("/login", h.auth.Login)

	// Catalogs
	api.Get("/amenities", h.catalog.ListAmenities)
	api.Get("/categories", h.catalog.ListCategories)

	// Public Properties Routes
	properties := api.Group("/properties")
	properties.Get("/", h.properties.ListProperties)
	properties.Get("/search", h.properties.SearchProperties)
	properties.Get("/featured", h.properties.FeaturedProperties)
	properties.Get("/:id", h.properties.GetProperty)
	properties.Get("/:id/images", h.media.ListImages)
	properties.Get("/:id/documents", h.media.ListDocuments)

	api.Get("/users/:owner_id/properties", h.properties.ListOwnerProperties)

	// Protected Routes
	authRequired := middleware.AuthMiddleware()
	owns := middleware.CheckPropertyOwnership(db)

	api.Get("/me", authRequired, h.auth.GetMe)
	api.Get("/me/properties", authRequired, h.properties.ListMyProperties)

	properties.Post("/", authRequired, h.properties.CreateProperty)
	properties.Put("/:id", authRequired, owns, h.properties.UpdateProperty)
	properties.Patch("/:id/status", authRequired, owns, h.properties.UpdateStatus)
	properties.Delete("/:id", authRequired, owns, h.properties.DeleteProperty)
	properties.Post("/:id/images", authRequired, owns, h.media.UploadPropertyImages)
	properties.Delete("/:id/images/:image_id", authRequired, owns, h.media.DeletePropertyImage)
	properties.Post("/:id/documents", authRequired, owns, h.media.UploadPropertyDocument)
	properties.Delete("/:id/documents/:document_id", authRequired, owns, h.media.DeletePropertyDocument)

	// Admin routes
	admin := api.Group("/admin", authRequired, middleware.RequireAdmin())
	admin.Get("/stats", h.stats.GetDashboardStats)
	admin.Get("/properties/export", h.properties.ExportProperties)
	admin.Put("/properties/:id/verify", h.properties.VerifyProperty)
	admin.Put("/properties/:id/reject", h.properties.RejectProperty)
}

func newLogger(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}

// newApp wires services and controllers onto a fresh Fiber app.
func newApp(cfg *config.Config, db *gorm.DB, store storage.Storage, redisCache *cache.Cache, cleanup *service.CleanupService) *fiber.App {
	propertyService := service.NewPropertyService(db, store, cleanup, redisCache, newLogger("property"),
		model.PropertyStatus(cfg.Listing.DefaultStatus))
	mediaService := service.NewMediaService(db, store, cleanup, redisCache, newLogger("media"))
	statsService := service.NewStatsService(db, redisCache, newLogger("stats"))

	app := fiber.New(fiber.Config{
		BodyLimit: 200 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	if local, ok := store.(*storage.Local); ok {
		app.Static(cfg.Storage.URLPrefix, local.Root())
	}

	setupRoutes(app, db, controllers{
		auth:       controller.NewAuthController(db, newLogger("auth")),
		properties: controller.NewPropertyController(propertyService),
		media:      controller.NewMediaController(mediaService),
		stats:      controller.NewStatsController(statsService),
		catalog:    controller.NewCatalogController(db),
	})
	return app
}

func main() {
	cfg := config.Load()
	jwt.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpirationHours)*time.Hour)

	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatal("Could not connect to database:", err)
	}
	db := database.GetDB()

	if err := database.MigrateDatabase(db, model.AllModels()...); err != nil {
		log.Fatal("Migration failed:", err)
	}
	seed.Run(db, cfg.Seed)

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal("Could not initialize storage:", err)
	}

	redisCache := cache.New(cfg.Redis)
	defer redisCache.Close()

	cleanupLog := newLogger("cleanup")
	cleanup := service.NewCleanupService(db, store, cleanupLog, cfg.Cleanup.MaxAttempts, cfg.Cleanup.BatchSize)

	scheduler, err := cron.InitFileCleanupCron(cfg.Cleanup.Schedule, cleanup, cleanupLog)
	if err != nil {
		log.Fatal("Could not schedule file cleanup:", err)
	}
	defer scheduler.Stop()

	app := newApp(cfg, db, store, redisCache, cleanup)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Printf("Server is running on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
