package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/HlisTilen/NiaARM/internal/auth"
	"github.com/HlisTilen/NiaARM/internal/config"
	"github.com/HlisTilen/NiaARM/internal/dataset"
	"github.com/HlisTilen/NiaARM/internal/engine"
	"github.com/HlisTilen/NiaARM/internal/instrument"
	"github.com/HlisTilen/NiaARM/internal/storage"
	"github.com/HlisTilen/NiaARM/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db driver: %s)", cfg.Server.Port, cfg.Database.Driver)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// 3. Bootstrap catalog tables
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap catalog tables: %v", err)
	}
	log.Println("Catalog tables ready")

	// 4. Hydrate the dataset registry from the catalog
	reg := dataset.NewRegistry()
	if err := dataset.LoadAll(ctx, db.DB, reg); err != nil {
		log.Printf("WARN: Failed to load dataset catalog: %v", err)
	}
	log.Printf("Datasets loaded: %d", len(reg.All()))

	files := storage.NewLocalStorage(cfg.Storage.LocalPath)

	// 5. Instrumentation
	var tracer *instrument.Tracer
	if cfg.Instrumentation.Enabled {
		buffer := instrument.NewEventBuffer(db, cfg.Instrumentation.BufferSize, cfg.Instrumentation.FlushIntervalMs)
		defer buffer.Stop()
		tracer = instrument.NewTracer(buffer)

		cleanupCtx, cancelCleanup := context.WithCancel(ctx)
		defer cancelCleanup()
		go instrument.RunCleanupLoop(cleanupCtx, db, cfg.Instrumentation.RetentionDays)
	}

	// 6. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(instrument.Middleware(tracer, cfg.Instrumentation.SamplingRate))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. Auth routes (mounted before the auth middleware)
	authHandler := auth.NewAuthHandler(db, cfg.JWTSecret)
	auth.RegisterAuthRoutes(app, authHandler)

	// 9. Auth middleware for all protected routes
	authMW := auth.AuthMiddleware(cfg.JWTSecret)
	adminMW := auth.RequireAdmin()

	// 10. Dataset and rule evaluation routes
	handler := engine.NewHandler(db, reg, files, cfg)
	engine.RegisterRoutes(app, handler, authMW)

	// 11. Event query routes (admin only)
	eventHandler := instrument.NewEventHandler(db)
	app.Get("/_events", authMW, adminMW, eventHandler.List)
	app.Post("/_events", authMW, eventHandler.Emit)

	// 12. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(engine.ErrorResponse{
		Error: &engine.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
