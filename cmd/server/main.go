// Package main runs the quiz session HTTP server with graceful shutdown.
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

	"github.com/quizdeck/backend/config"
	"github.com/quizdeck/backend/internal/auth"
	"github.com/quizdeck/backend/internal/middleware"
	"github.com/quizdeck/backend/internal/responses"
	"github.com/quizdeck/backend/internal/sessions"
	"github.com/quizdeck/backend/internal/templates"
	"github.com/quizdeck/backend/pkg/database"
	"github.com/quizdeck/backend/pkg/redis"
	"github.com/quizdeck/backend/pkg/response"
	"github.com/quizdeck/backend/pkg/utils"
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

	// Redis is optional; without it quiz lookups hit Postgres directly.
	var quizCache *sessions.Cache
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("quiz cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			quizCache = sessions.NewCache(rdb.Client, cfg.Redis.QuizTTL, logger)
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		hash, err := utils.HashPassword(cfg.Admin.Password)
		if err != nil {
			logger.Fatal("hash admin password", zap.Error(err))
		}
		if err := authRepo.EnsureAccount(ctx, cfg.Admin.Username, hash); err != nil {
			logger.Fatal("seed admin account", zap.Error(err))
		}
	}

	// Templates
	templateRepo := templates.NewRepository(pool)
	templateHandler := templates.NewHandler(templateRepo, logger)

	// Sessions
	sessionRepo := sessions.NewRepository(pool)
	responseRepo := responses.NewRepository(pool)
	sessionHandler := sessions.NewHandler(sessionRepo, templateRepo, responseRepo, quizCache, logger)

	// Responses
	responseHandler := responses.NewHandler(responseRepo, sessionRepo, templateRepo, logger)

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
	}

	// Participant endpoints (public; join code is the credential)
	router.GET("/quiz/:code", sessionHandler.GetQuizByCode)
	router.POST("/quiz/submit", responseHandler.Submit)

	// Organizer API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	api.Use(middleware.RequireRole(auth.RoleOrganizer))
	{
		api.GET("/templates", templateHandler.List)
		api.POST("/templates", templateHandler.Create)
		api.GET("/templates/:id", templateHandler.GetByID)

		api.GET("/sessions", sessionHandler.List)
		api.POST("/sessions", sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.GetByID)
		api.PATCH("/sessions/:id", sessionHandler.Update)
	}

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
