package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bitematch/bitematch/internal/database"
	"github.com/bitematch/bitematch/internal/handlers"
	"github.com/bitematch/bitematch/internal/services"
	"github.com/bitematch/bitematch/pkg/helper"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	config := helper.LoadConfigFromEnv()

	logger, err := newLogger(config.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	// Open the catalog/preference store
	store, err := database.NewStore(config.DBPath)
	if err != nil {
		log.Fatalw("failed to open store", "path", config.DBPath, "error", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorw("error closing store", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Import the dataset on first run, then load the catalog snapshot
	importer := database.NewCSVImporter(store, log)
	if err := importer.ImportIfEmpty(ctx, config.DatasetPath); err != nil {
		log.Fatalw("dataset import failed", "error", err)
	}
	status, err := importer.GetImportStatus(ctx)
	if err != nil {
		log.Fatalw("failed to get import status", "error", err)
	}
	log.Infow("store ready", "foods", status["foods"], "preferences", status["preferences"])

	catalog, err := store.LoadCatalog(ctx)
	if err != nil {
		log.Fatalw("failed to load catalog", "error", err)
	}
	log.Infow("catalog snapshot loaded", "items", len(catalog))

	// Initialize services and API handlers
	recommender := services.NewRecommendationService(catalog, log)
	apiHandler := handlers.NewAPIHandler(recommender, store, log)

	// Setup Gin router
	if config.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	apiHandler.SetupRoutes(router)

	// Create server with graceful shutdown
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Port),
		Handler: router,
	}

	go func() {
		log.Infow("server starting", "port", config.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Infow("server exited properly")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
