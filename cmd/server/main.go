// Package main runs the karaoke stage server: recording session lifecycle,
// performance uploads, and the live gallery over WebSocket.
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

	"github.com/neon-karaoke/backend/config"
	"github.com/neon-karaoke/backend/internal/capture"
	"github.com/neon-karaoke/backend/internal/gallery"
	"github.com/neon-karaoke/backend/internal/middleware"
	"github.com/neon-karaoke/backend/internal/notify"
	"github.com/neon-karaoke/backend/internal/performances"
	"github.com/neon-karaoke/backend/internal/preview"
	"github.com/neon-karaoke/backend/internal/realtime"
	"github.com/neon-karaoke/backend/internal/session"
	"github.com/neon-karaoke/backend/pkg/database"
	"github.com/neon-karaoke/backend/pkg/redis"
	"github.com/neon-karaoke/backend/pkg/response"
	"github.com/neon-karaoke/backend/pkg/storage"
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

	s3Cfg := storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		PerformancesBucket:   cfg.AWS.PerformancesBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		PublicRead:           cfg.AWS.PublicRead,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	// Stage hub with cross-instance delivery of client-directed events.
	stagePubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, stagePubSub, stagePubSub)
	defer hub.Close()

	// Performances: repository + live change feed.
	perfRepo := performances.NewRepository(pool)
	feed := performances.NewFeed(rdb.Client, perfRepo, logger)

	// Recording sessions.
	relay := capture.NewRelay()
	previews := preview.NewRegistry()
	notifier := notify.NewHubNotifier(hub, logger)
	sessionManager := session.NewManager(session.Deps{
		Device:    relay,
		Objects:   s3Client,
		Records:   perfRepo,
		Previews:  previews,
		Notifier:  notifier,
		Logger:    logger,
		MediaType: cfg.Capture.MediaType,
		Extension: cfg.Capture.Extension,
		AfterSave: func() {
			if err := feed.Publish(context.Background()); err != nil {
				logger.Warn("change publish failed", zap.Error(err))
			}
		},
	}, logger)
	sessionHandler := session.NewHandler(sessionManager, relay, previews, logger)

	// Gallery: renderer + snapshot-driven synchronizer.
	renderer := gallery.NewRenderer(cfg.Gallery.ProfileURLBase)
	galleryHandler := gallery.NewHandler(perfRepo, renderer, feed, logger)
	synchronizer := gallery.NewSynchronizer(feed, renderer, hub, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Recording sessions
	router.POST("/sessions", sessionHandler.Create)
	router.GET("/sessions/:id", sessionHandler.Get)
	router.POST("/sessions/:id/start", sessionHandler.Start)
	router.POST("/sessions/:id/chunks", sessionHandler.PushChunk)
	router.POST("/sessions/:id/stop", sessionHandler.Stop)
	router.POST("/sessions/:id/confirm", sessionHandler.Confirm)
	router.POST("/sessions/:id/rerecord", sessionHandler.ReRecord)
	router.GET("/preview/:token", sessionHandler.Preview)

	// Gallery
	router.GET("/performances", galleryHandler.List)
	router.POST("/performances/:id/reactions/:kind", galleryHandler.React)

	// WebSocket (live gallery, notices, playback coordination)
	router.GET("/ws", realtime.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go func() {
		if err := synchronizer.Run(bgCtx); err != nil && err != context.Canceled {
			logger.Error("gallery synchronizer stopped", zap.Error(err))
		}
	}()
	go sessionManager.RunJanitor(bgCtx, time.Duration(cfg.Session.IdleTTLMinutes)*time.Minute)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	bgCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := zapCfg.Build()
	return logger
}
