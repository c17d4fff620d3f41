package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ganttboard/internal/config"
	"ganttboard/internal/database"
	"ganttboard/internal/handlers"
	"ganttboard/internal/jobs"
	"ganttboard/internal/logging"
	"ganttboard/internal/middleware"
	"ganttboard/internal/services"
	"ganttboard/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (optional in production)
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, using environment variables")
	}

	logging.Init()
	cfg := config.Load()

	// SQL database (SQLite file or MySQL DSN)
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// MongoDB is optional; without it the activity feed is disabled
	var mongo *database.MongoDB
	var activityService *services.ActivityService
	if cfg.MongoURI != "" {
		mongo, err = database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		activityService = services.NewActivityService(mongo)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := activityService.EnsureIndexes(ctx); err != nil {
			log.Printf("⚠️  Failed to create activity indexes: %v", err)
		}
		cancel()
	} else {
		log.Println("⚠️  MONGODB_URI not set, activity feed disabled")
	}

	// Redis is optional; without it live updates stay instance-local
	var redisService *services.RedisService
	var pubsubService *services.PubSubService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer redisService.Close()

		instanceID := uuid.New().String()
		pubsubService = services.NewPubSubService(redisService, instanceID)
	} else {
		log.Println("⚠️  REDIS_URL not set, live updates are single-instance only")
	}

	// JWT auth; nil means dev-mode bypass (never in production)
	var jwtAuth *auth.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
	} else if cfg.Environment == "production" {
		log.Fatal("❌ JWT_SECRET is required in production")
	} else {
		log.Println("⚠️  JWT_SECRET not set, auth disabled (development only)")
	}

	// Services
	orgService := services.NewOrgService(db)
	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db)
	feed := services.NewProjectFeed(pubsubService)
	taskService := services.NewTaskService(db, feed)
	depService := services.NewDependencyService(db)
	commentService := services.NewCommentService(db, userService)
	analyticsService := services.NewAnalyticsService(db)
	exportService := services.NewExportService(projectService, taskService)

	metrics := services.InitMetrics(feed)
	feed.SetMetrics(metrics)

	if pubsubService != nil {
		if err := pubsubService.Start(); err != nil {
			log.Fatalf("❌ Failed to start pub/sub: %v", err)
		}
		defer pubsubService.Stop()
	}

	// Demo seeding (only touches an empty database)
	if cfg.SeedFile != "" {
		seedService := services.NewSeedService(db, orgService, userService, projectService, taskService)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := seedService.Run(ctx, cfg.SeedFile); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		cancel()
	}

	// Background jobs
	sweep := jobs.NewDelayedSweep(taskService, projectService, activityService, redisService, metrics)
	var retention *jobs.ActivityRetention
	if activityService != nil {
		retention = jobs.NewActivityRetention(activityService, cfg.ActivityRetention)
	}
	runner, err := jobs.NewRunner(sweep, retention, cfg.SweepCron)
	if err != nil {
		log.Fatalf("❌ Failed to create job runner: %v", err)
	}
	if err := runner.Start(); err != nil {
		log.Fatalf("❌ Failed to start jobs: %v", err)
	}
	defer runner.Stop()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GanttBoard v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    2 * 1024 * 1024, // JSON bodies only; exports go out, not in
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("ganttboard")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Auth=%d/15min, Authenticated=%d/min, WS=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.AuthMax,
		rateLimitConfig.AuthenticatedMax,
		rateLimitConfig.WebSocketMax,
	)

	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, mongo, redisService)
	authHandler := handlers.NewAuthHandler(jwtAuth, orgService, userService)
	projectHandler := handlers.NewProjectHandler(projectService, taskService, depService, activityService)
	taskHandler := handlers.NewTaskHandler(taskService, projectService, activityService)
	depHandler := handlers.NewDependencyHandler(depService, projectService)
	commentHandler := handlers.NewCommentHandler(commentService, taskService, activityService)
	activityHandler := handlers.NewActivityHandler(activityService, projectService)
	teamHandler := handlers.NewTeamHandler(userService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, exportService)
	wsHandler := handlers.NewWebSocketHandler(feed, taskService, projectService, metrics)
	pageHandler := handlers.NewPageHandler(os.Getenv("STATIC_DIR"))

	// Public routes
	app.Get("/health", healthHandler.Check)

	authRoutes := app.Group("/api/auth", middleware.AuthRateLimiter(rateLimitConfig))
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.Refresh)
	authRoutes.Post("/logout", authHandler.Logout)

	// Authenticated API: JWT, then role resolution, then per-user limits
	api := app.Group("/api",
		middleware.AuthMiddleware(jwtAuth),
		middleware.RequireMember(userService),
		middleware.AuthenticatedRateLimiter(rateLimitConfig),
	)
	write := middleware.RequireWriteAccess()
	admin := middleware.RequireAdmin()

	api.Get("/auth/me", authHandler.Me)

	api.Get("/projects", projectHandler.List)
	api.Post("/projects", write, projectHandler.Create)
	api.Get("/projects/:id", projectHandler.Get)
	api.Put("/projects/:id", write, projectHandler.Update)
	api.Delete("/projects/:id", write, projectHandler.Delete)
	api.Get("/projects/:id/gantt", projectHandler.Gantt)
	api.Get("/projects/:id/dependencies", depHandler.List)
	api.Get("/projects/:id/activities", activityHandler.ProjectFeed)

	api.Get("/tasks", taskHandler.List)
	api.Post("/tasks", write, taskHandler.Create)
	api.Get("/tasks/:id", taskHandler.Get)
	api.Put("/tasks/:id", write, taskHandler.Patch)
	api.Patch("/tasks/:id", write, taskHandler.Patch)
	api.Patch("/tasks/:id/order", write, taskHandler.Reorder)
	api.Delete("/tasks/:id", write, taskHandler.Delete)
	api.Post("/tasks/:id/dependencies", write, depHandler.Create)
	api.Delete("/dependencies/:id", write, depHandler.Delete)
	api.Get("/tasks/:id/comments", commentHandler.List)
	api.Post("/tasks/:id/comments", write, commentHandler.Create)
	api.Delete("/comments/:id", commentHandler.Delete)

	api.Get("/activities", activityHandler.OrgFeed)

	api.Get("/team", teamHandler.List)
	api.Post("/team", admin, teamHandler.Add)
	api.Patch("/team/:id/role", admin, teamHandler.UpdateRole)
	api.Delete("/team/:id", admin, teamHandler.Remove)

	api.Get("/analytics/summary", analyticsHandler.Summary)
	api.Get("/analytics/export", middleware.ExportRateLimiter(rateLimitConfig), analyticsHandler.Export)

	// Live task feed (token accepted via ?token= for browsers)
	app.Get("/ws/projects/:id",
		middleware.WebSocketRateLimiter(rateLimitConfig),
		middleware.AuthMiddleware(jwtAuth),
		middleware.RequireMember(userService),
		wsHandler.Upgrade,
		websocket.New(wsHandler.Handle),
	)

	// Browser pages behind the page guard
	app.Use(middleware.PageGuard(jwtAuth))
	pageHandler.Register(app)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️  Shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 GanttBoard listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	if mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		mongo.Close(ctx)
		cancel()
	}
	log.Println("✅ Server stopped")
}
