package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/meetingloop/backend/pkg/validator"

	"github.com/meetingloop/backend/internal/adapter/handler"
	"github.com/meetingloop/backend/internal/adapter/repository"
	"github.com/meetingloop/backend/internal/infrastructure/cache"
	"github.com/meetingloop/backend/internal/infrastructure/database"
	"github.com/meetingloop/backend/internal/infrastructure/external/video"
	"github.com/meetingloop/backend/internal/infrastructure/storage"
	"github.com/meetingloop/backend/internal/usecase/identity"
	"github.com/meetingloop/backend/internal/usecase/workflow"
	pkgai "github.com/meetingloop/backend/pkg/ai"
	"github.com/meetingloop/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE and run sql-migrate in CI/CD.")
		}
		log.Println("🔄 Applying migrations...")
		if err := database.Migrate(db, logger); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	userRepo := repository.NewUserRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	runRepo := repository.NewWorkflowRunRepository(db)
	stepRepo := repository.NewWorkflowStepRepository(db)

	// Initialize Redis dedupe (optional fast path)
	var deduper workflow.Deduper
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisDeduper, err := cache.NewRedisDeduper(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisDeduper.Close()
		deduper = redisDeduper
	} else {
		log.Println("⚠️  Redis disabled; relying on the run table unique index for dedupe")
	}

	// Initialize transcript archive (optional)
	var archive workflow.TranscriptArchive
	if cfg.Storage.Enabled {
		log.Println("🗄️  Initializing transcript archive...")
		minioArchive, err := storage.NewMinIOArchive(&cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		archive = minioArchive
	}

	// Initialize video provisioning client
	log.Println("🎥 Initializing video client...")
	videoClient := video.NewClient(
		cfg.Video.URL,
		cfg.Video.APIKey,
		cfg.Video.APISecret,
		cfg.Video.AgentName,
		cfg.Video.UseMock,
		logger,
	)
	if cfg.Video.UseMock {
		log.Println("⚠️  Video client running in MOCK mode (no real server needed)")
	}

	// Initialize summarizer
	log.Println("🤖 Initializing summarizer...")
	summarizer := pkgai.NewOpenAISummarizer(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, logger)

	// Initialize the transcript pipeline and its engine
	log.Println("⚙️  Initializing workflow engine...")
	resolver := identity.NewResolver(userRepo, agentRepo, logger)
	pipeline := workflow.NewPipeline(
		meetingRepo,
		resolver,
		summarizer,
		&http.Client{Timeout: cfg.Workflow.FetchTimeout},
		archive,
		pkgai.SummaryParams{
			ForceLanguage: cfg.Workflow.ForceLanguage,
			MaxSections:   cfg.Workflow.MaxSections,
			Length:        pkgai.SummaryLength(cfg.Workflow.SummaryLength),
		},
		logger,
	)
	engine := workflow.NewEngine(runRepo, stepRepo, pipeline, workflow.EngineConfig{
		WorkerCount:  cfg.Workflow.WorkerCount,
		PollInterval: cfg.Workflow.PollInterval,
	}, logger)
	engine.StartWorkerPool()

	// Initialize webhook gateway
	log.Println("🪝 Initializing webhook handler...")
	enqueuer := workflow.NewEnqueuer(runRepo, deduper, cfg.Workflow.MaxRetries, logger)
	webhookHandler := handler.NewWebhook(cfg, meetingRepo, agentRepo, videoClient, enqueuer, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, webhookHandler, logger)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	engine.StopWorkerPool()

	log.Println("✅ Server stopped gracefully")
}
