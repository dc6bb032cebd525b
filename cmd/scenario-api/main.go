package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/analysis"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/config"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scoring"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/pkg/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		// Logger depends on config, so fall back to a development logger here
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize logger
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		logger, _ = zap.NewDevelopment()
		logger.Warn("Invalid log level, using development logger", zap.Error(err))
	}
	defer logger.Sync()

	policy, err := exposure.ParsePolicy(cfg.Upload.Policy)
	if err != nil {
		logger.Fatal("Invalid upload policy", zap.Error(err))
	}

	// Report archive
	var archive storage.ReportArchive = storage.NewNoopArchive()
	if cfg.Archive.Enabled() {
		s3Archive, err := storage.NewS3Archive(context.Background(), storage.S3Options{
			Bucket:        cfg.Archive.Bucket,
			Region:        cfg.Archive.Region,
			Prefix:        cfg.Archive.Prefix,
			PresignExpiry: cfg.Archive.PresignExpiry.Std(),
		}, logger.Named("archive"))
		if err != nil {
			logger.Fatal("Failed to initialise report archive", zap.Error(err))
		}
		archive = s3Archive
	}

	// Initialize Analysis Module
	store := analysis.NewSessionStore(cfg.Sessions.TTL.Std(), logger.Named("sessions"))
	if err := store.StartSweeper(cfg.Sessions.SweepSchedule); err != nil {
		logger.Fatal("Failed to start session sweeper", zap.Error(err))
	}
	defer store.StopSweeper()

	service := analysis.NewService(store, archive, analysis.ServiceConfig{
		Title:        cfg.Report.Title,
		Organisation: cfg.Report.Organisation,
	}, logger.Named("analysis"))
	handler := analysis.NewHandler(service, analysis.HandlerConfig{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		DefaultPolicy:  policy,
	}, logger.Named("http"))

	// Setup Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.MaxMultipartMemory = cfg.Upload.MaxBytes

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	{
		handler.RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":              "healthy",
			"timestamp":           time.Now(),
			"catalog_version":     scenarios.CatalogVersion,
			"formula_version":     scoring.FormulaVersion,
			"recommender_version": scenarios.RecommenderVersion,
			"archive_enabled":     archive.Enabled(),
			"active_analyses":     store.Size(),
			"session_ttl":         store.TTL().String(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// requestLogger logs each request through zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
