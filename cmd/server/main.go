package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/devplatform/github-automation/internal/analyzer"
	"github.com/devplatform/github-automation/internal/api"
	"github.com/devplatform/github-automation/internal/audit"
	"github.com/devplatform/github-automation/internal/config"
	"github.com/devplatform/github-automation/internal/db"
	"github.com/devplatform/github-automation/internal/github"
	"github.com/devplatform/github-automation/internal/webhook"

	_ "github.com/devplatform/github-automation/docs"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	// Load configuration with defaults
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate minimum required config
	if cfg.DBConnectionString == "" {
		logger.Fatal("Missing required configuration (DB_CONNECTION_STRING must be set)")
	}
	if cfg.WebhookSecret == "" {
		logger.Warn("GITHUB_WEBHOOK_SECRET not set, webhook signatures will not be verified")
	}

	// Initialize database
	store, err := db.NewPostgresStore(cfg.DBConnectionString)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations with retry logic
	if err := retry(3, 5*time.Second, func() error {
		return store.Migrate()
	}); err != nil {
		logger.Fatalf("Failed to run migrations after retries: %v", err)
	}

	// Initialize services
	auditLogger := audit.New(store, logger)
	githubClient := github.NewClient(cfg.GitHubToken, cfg.GitHubTimeout, logger)
	commitAnalyzer := analyzer.NewService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.AnalyzerTimeout, githubClient, logger)
	prGenerator := github.NewGenerator(githubClient, logger)
	processor := webhook.NewProcessor(store, commitAnalyzer, prGenerator, auditLogger, logger)
	router := webhook.NewRouter(processor, logger)
	guard := webhook.NewGuard(cfg.WebhookSecret)
	handler := api.NewHandler(store, guard, router, auditLogger, logger)

	// Setup router with middleware
	engine := api.SetupRouter(handler)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(engine)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server exited properly")
}

// retry retries a function up to a certain number of attempts with a delay between attempts
func retry(attempts int, sleep time.Duration, fn func() error) error {
	if err := fn(); err != nil {
		if attempts--; attempts > 0 {
			time.Sleep(sleep)
			return retry(attempts, sleep, fn)
		}
		return err
	}
	return nil
}
