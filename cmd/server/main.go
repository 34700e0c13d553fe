package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"timegrid/internal/app"
	"timegrid/internal/config"
	"timegrid/internal/drag"
	"timegrid/internal/logging"
	"timegrid/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logging.Init(cfg.Env)
	logger := logging.Get()
	defer logger.Sync()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	appInstance := &app.App{
		DB:    pool,
		Drags: drag.NewRedisStore(redisClient, time.Duration(cfg.DragTTLSeconds)*time.Second),
		Cfg:   cfg,
		Log:   logger,
	}
	if err := appInstance.Migrate(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", appInstance.GoogleOAuth2CallbackHandler)

	router.Use(appInstance.AuthMiddleware())

	api := router.Group("/api")
	{
		entries := api.Group("/entries")
		{
			entries.POST("", appInstance.CreateEntryHandler)
			entries.GET("", appInstance.GetWindowHandler)
			entries.PUT("/:id", appInstance.UpdateEntryHandler)
			entries.DELETE("/:id", appInstance.DeleteEntryHandler)
			entries.DELETE("/:id/occurrences/:day", appInstance.DeleteOccurrenceHandler)
			entries.POST("/:id/truncate", appInstance.TruncateSeriesHandler)
		}

		dragGroup := api.Group("/drag")
		{
			dragGroup.POST("", appInstance.StartDragHandler)
			dragGroup.PUT("/move", appInstance.MoveDragHandler)
			dragGroup.POST("/release", appInstance.ReleaseDragHandler)
			dragGroup.DELETE("", appInstance.CancelDragHandler)
		}

		api.GET("/feed/:user", appInstance.FeedHandler)

		overlay := api.Group("/overlay/google")
		{
			overlay.GET("/auth", appInstance.GoogleAuthHandler)
			overlay.GET("", appInstance.GoogleOverlayHandler)
		}
	}

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := server.Run(router, cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
