package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/finityo/configs"
	"github.com/maheshrc27/finityo/internal/api/handlers"
	"github.com/maheshrc27/finityo/internal/api/middleware"
	"github.com/maheshrc27/finityo/internal/delivery"
	job "github.com/maheshrc27/finityo/internal/jobs"
	"github.com/maheshrc27/finityo/internal/queue"
	"github.com/maheshrc27/finityo/internal/repository"
	"github.com/maheshrc27/finityo/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = repository.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	if cfg.DeliveryMode == config.DeliveryModeLive {
		log.Println("Delivery mode: live, posts will be published to the platforms")
	} else {
		log.Println("Delivery mode: simulation")
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	attemptRepo := repository.NewDeliveryAttemptRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	settingsRepository := repository.NewSettingsRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)

	deliveryService := delivery.NewService(*cfg, nil)
	postService := service.NewPostService(postRepo, settingsRepository, attemptRepo)
	approvalService := service.NewApprovalService(postRepo)
	retryService := service.NewRetryService(postRepo)
	autoScheduleService := service.NewAutoScheduleService(postRepo, analyticsRepo)
	analyticsService := service.NewAnalyticsService(analyticsRepo)
	settingsService := service.NewSettingsService(settingsRepository)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)
	mediaService := service.NewMediaService(service.NewR2Service(*cfg))
	notificationService := service.NewNotificationService(settingsRepository, service.LogMailer{})

	duePostsJob := job.NewDuePostsJob(postRepo, attemptRepo, deliveryService, queue.NewNotifier(client), cfg.SweepConcurrency)
	recurrenceJob := job.NewRecurrenceJob(postRepo)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok", "delivery_mode": cfg.DeliveryMode})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	cronHandler := handlers.NewCronHandler(duePostsJob, recurrenceJob)
	trigger := app.Group("/cron", middleware.CronSecret(cfg.CronSecret))
	trigger.Post("/process-due", cronHandler.ProcessDue)
	trigger.Post("/expand-recurrences", cronHandler.ExpandRecurrences)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/info", settings.GetSettingsInfo)
	api.Post("/settings/update", settings.UpdateSettings)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/schedule", post.SchedulePost)
	api.Post("/posts/unschedule", post.UnschedulePost)
	api.Post("/posts/reorder", post.ReorderPosts)
	api.Post("/posts/remove", post.RemovePost)
	api.Get("/posts/attempts", post.ListAttempts)

	approval := handlers.NewApprovalHandler(approvalService)
	api.Post("/posts/approve", approval.ApprovePost)
	api.Post("/posts/reject", approval.RejectPost)
	api.Get("/posts/pending", approval.ListPending)

	retry := handlers.NewRetryHandler(retryService)
	api.Post("/posts/retry", retry.RetryPost)
	api.Post("/posts/retry_all", retry.RetryAll)
	api.Post("/posts/discard", retry.DiscardPost)
	api.Get("/posts/failed", retry.ListFailed)

	autoSchedule := handlers.NewAutoScheduleHandler(autoScheduleService)
	api.Post("/posts/auto_schedule", limiter.New(limiter.Config{
		Max:          5,
		Expiration:   time.Minute,
		KeyGenerator: middleware.UserKey,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many auto-schedule requests, try again in a minute",
			})
		},
	}), autoSchedule.AutoSchedule)

	analytics := handlers.NewAnalyticsHandler(analyticsService)
	api.Get("/analytics", analytics.ListSnapshots)
	api.Post("/analytics", analytics.RecordSnapshot)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.UploadMedia)

	//queue
	queueW := queue.NewQueue(duePostsJob, recurrenceJob, notificationService)

	c := cron.New()
	if err := c.AddFunc(cfg.SweepInterval, func() {
		if err := queue.EnqueueSweep(client, queue.TaskTypeProcessDue, time.Minute); err != nil {
			log.Printf("Failed to enqueue due-post sweep: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid SWEEP_INTERVAL %q: %v", cfg.SweepInterval, err)
	}
	if err := c.AddFunc(cfg.RecurrenceInterval, func() {
		if err := queue.EnqueueSweep(client, queue.TaskTypeExpandRecurrences, 5*time.Minute); err != nil {
			log.Printf("Failed to enqueue recurrence sweep: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid RECURRENCE_INTERVAL %q: %v", cfg.RecurrenceInterval, err)
	}
	c.Start()

	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})

	mux := asynq.NewServeMux()
	queueW.Register(mux)

	log.Println("Starting the Asynq server...")
	if err := server.Start(mux); err != nil {
		log.Fatalf("Could not start Asynq server: %v", err)
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.HTTPAddr)

	gracefulShutdown(app, c, server)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, server *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	server.Shutdown()

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
