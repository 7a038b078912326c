package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/api/handlers"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/chatgpt"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/config"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/database"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/extraction"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/health"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/middleware"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/repository"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/services"
	"github.com/Ayash-Bera/webgpt-analyzer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	utils.SetLevel(cfg.Log.Level)

	logger.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"base_url": cfg.ChatGPT.BaseURL,
		"scope":    cfg.Extraction.UsedResultsScope,
	}).Info("Starting conversation analyzer...")

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    cfg.Log.Level,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}

	var runRepo models.AnalysisRunRepository
	if dbManager.HasDatabase() {
		runRepo = repository.NewRepositoryManager(dbManager.DB).AnalysisRun
	} else {
		logger.Info("database.url not set, run log disabled")
	}

	var limiter middleware.Limiter
	if dbManager.HasRedis() {
		limiter = middleware.NewRedisRateLimiter(database.NewCache(dbManager.Redis, logger), cfg.Server.RateLimit, logger)
	} else {
		memLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	client := chatgpt.NewClient(cfg.ChatGPT.BaseURL, cfg.ChatGPT.UserAgent, cfg.ChatGPT.Timeout, logger)
	engine := extraction.NewEngine(cfg.ExtractionOptions(), logger)
	analysisService := services.NewAnalysisService(chatgpt.NewFetcher(client, logger), engine, runRepo, logger)
	checker := health.NewHealthChecker(dbManager, client, logger)

	analysisHandler := handlers.NewAnalysisHandler(analysisService, services.NewRunRegistry(), logger)
	healthHandler := handlers.NewHealthHandler(checker)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/health/details", healthHandler.HandleHealthDetails)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(limiter))
	{
		api.POST("/analyze", analysisHandler.HandleAnalyze)
		api.POST("/analyze/document", analysisHandler.HandleAnalyzeDocument)
		api.GET("/runs/recent", analysisHandler.HandleRecentRuns)
		api.GET("/runs/:run_id", analysisHandler.HandleGetRun)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go checker.PeriodicHealthCheck(ctx, time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}

	logger.Info("Server stopped")
}
