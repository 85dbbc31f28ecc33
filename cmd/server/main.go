package main // Entry point package

import (
	"context" // Context for the schema bootstrap
	"log"     // Logging library for fatal startup errors
	"time"    // Timeout for the schema bootstrap

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/Jaum1981/cinema-analytics-api/internal/config"     // Internal config loader
	"github.com/Jaum1981/cinema-analytics-api/internal/database"   // MySQL pool and schema bootstrap
	"github.com/Jaum1981/cinema-analytics-api/internal/handler"    // HTTP handlers
	"github.com/Jaum1981/cinema-analytics-api/internal/logger"     // Dated-file application logger
	"github.com/Jaum1981/cinema-analytics-api/internal/middleware" // Request log, cache, rate limit
	"github.com/Jaum1981/cinema-analytics-api/internal/model"      // Entity schemas for the query layer
	"github.com/Jaum1981/cinema-analytics-api/internal/queue"      // Sale event consumer
	"github.com/Jaum1981/cinema-analytics-api/internal/report"     // Report assembler
	"github.com/Jaum1981/cinema-analytics-api/internal/repository" // CRUD repositories and entity store
	"github.com/Jaum1981/cinema-analytics-api/internal/router"     // Route registration
	queue_publisher "github.com/Jaum1981/cinema-analytics-api/internal/service"
)

func main() {
	_ = godotenv.Load()      // Load .env when present; real env vars win
	cfg := config.Load()     // Load environment config, fatal on missing keys

	lg, err := logger.New(cfg.LogDir) // Open today's log files
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Close()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName) // Open and ping the pool
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second) // Bound the schema bootstrap
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient() // Nil when Redis is absent; cache and limiter degrade to pass-through

	// Repositories and the read-only store view the reports run over.
	movies := repository.NewMovieRepo(db)
	directors := repository.NewDirectorRepo(db)
	rooms := repository.NewRoomRepo(db)
	sessions := repository.NewSessionRepo(db)
	tickets := repository.NewTicketRepo(db)
	payments := repository.NewPaymentRepo(db)
	entityStore := repository.NewEntityStore(movies, directors, rooms, sessions, tickets, payments)

	schemas := model.Schemas() // Field schemas shared by filters, joins and reports
	assembler := report.NewAssembler(entityStore, schemas,
		report.WithMaxPageSize(cfg.MaxPageSize),
		report.WithParallelism(cfg.JoinParallelism))

	entities := handler.NewEntityHandler(movies, directors, rooms, sessions, tickets, payments, schemas, lg, cfg.MaxPageSize)
	if cfg.QueueEnabled {
		entities.PublishSale = queue_publisher.PublishTicketSold // Completed payments announce a sale
		go func() {
			// The consumer reconnects forever; it only returns on a
			// setup error worth surfacing.
			if err := queue.StartTicketSoldConsumer(cfg.QueueURL, cfg.QueueName, cfg.LogDir); err != nil {
				lg.Error("sales consumer stopped: %v", err)
			}
		}()
	}
	reports := handler.NewReportHandler(assembler, lg, cfg.StoreTimeout)
	logs := handler.NewLogsHandler(lg)

	e := echo.New()                        // Create Echo instance
	e.HideBanner = true                    // Startup info goes through our own logs
	e.Use(middleware.RequestLogger(lg))    // Every request lands in the dated log files
	router.RegisterRoutes(e, db, logs)     // Health check + log inspection
	router.RegisterEntities(e, entities)   // CRUD for the six collections
	router.RegisterReports(e, reports,     // Reports behind cache + rate limit
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	addr := ":" + cfg.Port                                // Address string with port
	lg.Info("listening on %s (env=%s)", addr, cfg.Env)    // Record startup in the application log
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
