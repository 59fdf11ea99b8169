package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/cache"
	"storefront/pkg/database"
	"storefront/pkg/hash"
	"storefront/pkg/rabbitmq"
)

// NewApp wires repositories, services and handlers into a Fiber app. The
// returned cleanup releases the database, broker and cache connections.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Repositories ---
	var (
		userRepo    repositories.UserRepository
		productRepo repositories.ProductRepository
	)
	if cfg.Database.Driver == "memory" {
		userRepo = repositories.NewMemoryUserRepository()
		productRepo = repositories.NewMemoryProductRepository()
	} else {
		db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.App.Debug, &models.User{}, &models.Product{})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		userRepo = repositories.NewGORMUserRepository(db)
		productRepo = repositories.NewGORMProductRepository(db)
	}

	// --- Optional infrastructure ---
	var publisher services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, events disabled", zap.Error(err))
		} else {
			publisher = mqClient
			closers = append(closers, func() { _ = mqClient.Close() })
			if err := mqClient.ConsumeEvents(rabbitmq.LogEvent(log.Named("events"))); err != nil {
				log.Warn("Failed to start RabbitMQ consumer", zap.Error(err))
			}
		}
	}

	var productCache services.ProductCache
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unavailable, product cache disabled", zap.Error(err))
		} else {
			productCache = cache.NewProductCache(rdb, cfg.Redis.TTL)
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}

	// --- Services ---
	hasher := hash.NewBcrypt(cfg.Security.BcryptCost)
	userService := services.NewUserService(userRepo, hasher, publisher, log)
	authService, err := services.NewAuthService(userService, hasher, cfg.JWT.Secret, cfg.JWT.Expiry, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	productService := services.NewProductService(productRepo, publisher, productCache, log)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := userService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		DisableStartupMessage: true,
	})
	app.Use(middleware.Logger(log.Named("http")))
	app.Use(middleware.Recover(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": cfg.Database.Driver,
			"events":   publisher != nil,
			"cache":    productCache != nil,
		})
	})

	gates := handlers.Gates{
		Authenticated: middleware.AuthRequired(authService, log),
		Admin:         middleware.AdminRequired(userService, log),
	}
	handlers.NewAuthHandler(authService, log).RegisterRoutes(app)
	handlers.NewUserHandler(userService, log).RegisterRoutes(app, gates)
	handlers.NewProductHandler(productService, log).RegisterRoutes(app, gates)

	return app, cleanup, nil
}
