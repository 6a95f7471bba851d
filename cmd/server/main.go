// Package main runs the yoga platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pranaflow/backend/config"
	"github.com/pranaflow/backend/internal/auth"
	"github.com/pranaflow/backend/internal/courses"
	"github.com/pranaflow/backend/internal/emaillogs"
	"github.com/pranaflow/backend/internal/enrollments"
	"github.com/pranaflow/backend/internal/middleware"
	"github.com/pranaflow/backend/internal/practice"
	"github.com/pranaflow/backend/internal/video"
	"github.com/pranaflow/backend/pkg/database"
	"github.com/pranaflow/backend/pkg/queue"
	"github.com/pranaflow/backend/pkg/redis"
	"github.com/pranaflow/backend/pkg/response"
	"github.com/pranaflow/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			CoversBucket:         cfg.AWS.CoversBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Courses, classes and enrollments
	courseRepo := courses.NewRepository(pool)
	enrollmentRepo := enrollments.NewRepository(pool)
	courseHandler := courses.NewHandler(courseRepo, s3Client, enrollmentRepo, logger)
	enrollmentHandler := enrollments.NewHandler(enrollmentRepo, courseRepo, logger)

	// Practice logs and stats
	practiceRepo := practice.NewRepository(pool)
	practiceHandler := practice.NewHandler(practiceRepo, courseRepo, enrollmentRepo, logger)

	// Video provider (Mux) and asset status pipeline
	muxClient := video.NewMuxClient(video.Config{
		TokenID:       cfg.Video.TokenID,
		TokenSecret:   cfg.Video.TokenSecret,
		WebhookSecret: cfg.Video.WebhookSecret,
		TestMode:      cfg.Video.TestMode,
	}, logger)
	videoRepo := video.NewRepository(pool)
	videoHandler := video.NewHandler(muxClient, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	videoWebhook := video.NewWebhookHandler(videoRepo, muxClient, jobQueue, logger)

	// Email log audit (sends happen in cmd/worker)
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Courses
		api.GET("/courses", courseHandler.List)
		api.POST("/courses", middleware.RequireRole("teacher", "admin"), courseHandler.Create)
		api.GET("/courses/:id", courseHandler.GetByID)
		api.PATCH("/courses/:id", middleware.RequireRole("teacher", "admin"), courseHandler.Update)
		api.DELETE("/courses/:id", middleware.RequireRole("teacher", "admin"), courseHandler.Delete)
		api.POST("/courses/:id/cover", middleware.RequireRole("teacher", "admin"), courseHandler.UploadCover)

		// Classes
		api.POST("/courses/:id/classes", middleware.RequireRole("teacher", "admin"), courseHandler.CreateClass)
		api.PATCH("/classes/:id", middleware.RequireRole("teacher", "admin"), courseHandler.UpdateClass)
		api.DELETE("/classes/:id", middleware.RequireRole("teacher", "admin"), courseHandler.DeleteClass)

		// Enrollments
		api.POST("/courses/:id/enroll", enrollmentHandler.Enroll)
		api.GET("/me/enrollments", enrollmentHandler.ListMine)

		// Practice
		api.POST("/practice", practiceHandler.Log)
		api.GET("/me/practice", practiceHandler.ListMine)
		api.GET("/me/practice/stats", practiceHandler.Stats)

		// Video pipeline: uploads and deletes are teacher-gated so no
		// provider call happens for unauthorized callers; asset reads are
		// open to any authenticated user.
		api.POST("/videos/uploads", middleware.RequireRole("teacher", "admin"), videoHandler.CreateUpload)
		api.GET("/videos/uploads/:id", middleware.RequireRole("teacher", "admin"), videoHandler.GetUpload)
		api.GET("/videos/assets/:id", videoHandler.GetAsset)
		api.DELETE("/videos/assets/:id", middleware.RequireRole("teacher", "admin"), videoHandler.DeleteAsset)

		// Admin audit
		api.GET("/admin/email-logs", middleware.RequireRole("admin"), emailLogsHandler.List)
	}

	// Webhooks (no JWT; payload signature is verified in the handler)
	router.POST("/webhooks/video", videoWebhook.Handle)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
