package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/research-match-api/api/swagger"
	"github.com/noah-isme/research-match-api/internal/handler"
	"github.com/noah-isme/research-match-api/internal/middleware"
	"github.com/noah-isme/research-match-api/internal/repository"
	"github.com/noah-isme/research-match-api/internal/router"
	"github.com/noah-isme/research-match-api/internal/service"
	"github.com/noah-isme/research-match-api/pkg/cache"
	"github.com/noah-isme/research-match-api/pkg/config"
	"github.com/noah-isme/research-match-api/pkg/database"
	"github.com/noah-isme/research-match-api/pkg/logger"
)

// @title Research Match API
// @version 1.0.0
// @description Connects professors publishing research projects with students applying to them.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// the directory cache is an optimisation; run without it
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		redisRepo := repository.NewCacheRepository(redisClient, logr)
		defer redisRepo.Close()
		cacheRepo = redisRepo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, service.CacheOptions{
		DefaultTTL: cfg.Cache.DirectoryTTL,
		Namespace:  cfg.Cache.Namespace,
	}, logr)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)

	validate := service.NewValidator()
	userSvc := service.NewUserService(userRepo, cacheSvc, validate, logr, cfg.Cache.DirectoryTTL)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "research-match-api",
	}, userSvc)
	projectSvc := service.NewProjectService(projectRepo, applicationRepo, validate, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, projectRepo, validate, metricsSvc, logr)
	exportSvc := service.NewExportService(applicationSvc, logr)

	var loginLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		loginLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, metricsSvc)
	}

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CookieName:     cfg.JWT.CookieName,
		EnableSwagger:  cfg.Swagger.Enabled && cfg.Env != config.EnvProduction,
		Logger:         logr,
		Authenticator:  authSvc,
		Observer:       metricsSvc,
		LoginLimiter:   loginLimiter,
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Name:   cfg.JWT.CookieName,
			Secure: cfg.JWT.CookieSecure,
			TTL:    authSvc.TokenTTL(),
		}),
		Users:        handler.NewUserHandler(userSvc),
		Projects:     handler.NewProjectHandler(projectSvc),
		Applications: handler.NewApplicationHandler(applicationSvc, exportSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc.Handler()),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
