// Package main runs the PulseDeck HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pulsedeck/backend/config"
	"github.com/pulsedeck/backend/internal/auth"
	"github.com/pulsedeck/backend/internal/live"
	"github.com/pulsedeck/backend/internal/middleware"
	"github.com/pulsedeck/backend/internal/presentations"
	"github.com/pulsedeck/backend/internal/questions"
	"github.com/pulsedeck/backend/internal/realtime"
	"github.com/pulsedeck/backend/internal/responses"
	"github.com/pulsedeck/backend/pkg/database"
	"github.com/pulsedeck/backend/pkg/queue"
	"github.com/pulsedeck/backend/pkg/redis"
	"github.com/pulsedeck/backend/pkg/response"
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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Repositories
	authRepo := auth.NewRepository(pool)
	presentationRepo := presentations.NewRepository(pool)
	questionRepo := questions.NewRepository(pool)
	responseRepo := responses.NewRepository(pool)

	// Live core
	registry := live.NewRegistry(presentationRepo, questionRepo)
	intake := live.NewIntake(registry, questionRepo, responseRepo)
	presenter := live.NewPresenter(registry, questionRepo, hub, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	audience := live.NewAudience(registry, presentationRepo, questionRepo, intake, hub, jobQueue, logger)

	// Audience count: group membership size, pushed to both sides of the room.
	hub.SetAudienceChangeHandler(func(group string, count int) {
		id, ok := strings.CutPrefix(group, "presentation:")
		if !ok {
			return
		}
		payload := live.AudienceCountPayload{Count: count}
		hub.Broadcast(group, live.EventAudienceCountUpdated, payload)
		hub.Broadcast("presenter:"+id, live.EventAudienceCountUpdated, payload)
	})

	// Handlers
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	presentationHandler := presentations.NewHandler(presentationRepo, audience)
	questionHandler := questions.NewHandler(questionRepo, presentationRepo)
	responseHandler := responses.NewHandler(responseRepo, questionRepo, presentationRepo)

	resolveOwner := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}

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

	// Public live status (audience polling; never leaks existence)
	router.GET("/presentations/:id/live", presentationHandler.Status)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/presentations", presentationHandler.List)
		api.POST("/presentations", presentationHandler.Create)
		api.GET("/presentations/:id", presentationHandler.GetByID)
		api.PATCH("/presentations/:id", presentationHandler.Update)
		api.DELETE("/presentations/:id", presentationHandler.Delete)
		api.GET("/presentations/:id/participation", responseHandler.Participation)

		api.POST("/presentations/:id/questions", questionHandler.Create)
		api.GET("/presentations/:id/questions", questionHandler.ListByPresentation)
		api.DELETE("/questions/:id", questionHandler.Delete)

		api.GET("/questions/:id/responses", responseHandler.ListByQuestion)
	}

	// WebSocket (token in query, optional: audience connects anonymously)
	router.GET("/ws", realtime.ServeWs(hub, logger, audience, presenter, resolveOwner))

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
