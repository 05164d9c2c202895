package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/comusielak/exercise-status-api/api/swagger"
	"github.com/comusielak/exercise-status-api/internal/handler"
	"github.com/comusielak/exercise-status-api/internal/middleware"
	"github.com/comusielak/exercise-status-api/internal/repository"
	"github.com/comusielak/exercise-status-api/internal/service"
	"github.com/comusielak/exercise-status-api/internal/statusfile"
	"github.com/comusielak/exercise-status-api/pkg/cache"
	"github.com/comusielak/exercise-status-api/pkg/config"
	"github.com/comusielak/exercise-status-api/pkg/database"
	"github.com/comusielak/exercise-status-api/pkg/export"
	"github.com/comusielak/exercise-status-api/pkg/logger"
	corsmiddleware "github.com/comusielak/exercise-status-api/pkg/middleware/cors"
	reqidmiddleware "github.com/comusielak/exercise-status-api/pkg/middleware/requestid"
	"github.com/comusielak/exercise-status-api/pkg/scratch"
	"github.com/comusielak/exercise-status-api/pkg/storage"
)

// @title Exercise Status API
// @version 0.1.0
// @description Status-file round trip for exercise grading
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	scratchMgr, err := scratch.NewManager(cfg.Exports.ScratchDir, logr)
	if err != nil {
		logr.Sugar().Fatalw("scratch dir unavailable", "error", err)
	}

	bundleStore, err := storage.NewBundleStore(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("bundle store unavailable", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	assignmentRepo := repository.NewAssignmentRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Uploads.ProcessedTTL)

	codec := statusfile.NewCodec(logr)
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	statusSvc := service.NewStatusService(statusRepo, logr)
	exportSvc := service.NewExportService(assignmentRepo, scratchMgr, codec, bundleStore, signer, export.NewPDFExporter(), service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.ResultTTL,
	}, logr)
	uploadSvc := service.NewUploadService(assignmentRepo, statusSvc, sessionRepo, codec, scratchMgr, service.UploadConfig{
		MaxArchiveBytes: cfg.Uploads.MaxArchiveBytes,
	}, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentRepo)
	exportHandler := handler.NewExportHandler(exportSvc, metricsSvc, logr)
	uploadHandler := handler.NewUploadHandler(uploadSvc, metricsSvc, cfg.Uploads.MaxArchiveBytes, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	// download links carry their own HMAC signature instead of a JWT
	api.GET("/export/:token", exportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.GET("/assignments/:id/members", assignmentHandler.Members)
	protected.POST("/assignments/:id/export", exportHandler.Create)
	protected.POST("/assignments/:id/upload", uploadHandler.Upload)
	protected.GET("/assignments/:id/upload/status", uploadHandler.Status)

	// leftover scratch dirs are removed on shutdown even when requests
	// were interrupted mid-flight
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logr.Info("shutting down, sweeping scratch dirs")
		scratchMgr.Sweep()
		if n := exportSvc.CleanupExpired(); n > 0 {
			logr.Info("expired bundles removed on shutdown", zap.Int("count", n))
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
