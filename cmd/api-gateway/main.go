package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lifeline-health/lifeline-api/api/swagger"
	"github.com/lifeline-health/lifeline-api/internal/handler"
	"github.com/lifeline-health/lifeline-api/internal/middleware"
	"github.com/lifeline-health/lifeline-api/internal/models"
	"github.com/lifeline-health/lifeline-api/internal/repository"
	"github.com/lifeline-health/lifeline-api/internal/service"
	"github.com/lifeline-health/lifeline-api/pkg/cache"
	"github.com/lifeline-health/lifeline-api/pkg/config"
	"github.com/lifeline-health/lifeline-api/pkg/database"
	"github.com/lifeline-health/lifeline-api/pkg/export"
	"github.com/lifeline-health/lifeline-api/pkg/logger"
	corsmiddleware "github.com/lifeline-health/lifeline-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lifeline-health/lifeline-api/pkg/middleware/requestid"
	"github.com/lifeline-health/lifeline-api/pkg/storage"
)

// @title Lifeline API
// @version 1.0.0
// @description Donation and request lifecycle service for the Lifeline coordination platform
// @BasePath /api/v1
// @schemes http
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	certificateStore, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init certificate storage", "error", err)
	}

	intents := repository.NewIntentRepository(db)
	matches := repository.NewMatchRepository(db)
	organRequests := repository.NewOrganRequestRepository(db)
	fundRequests := repository.NewFundRequestRepository(db)
	notifications := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logr)

	hub := service.NewNotificationHub(notifications, cacheRepo, metricsSvc, logr, service.NotificationHubConfig{
		Channel:           cfg.Notifications.Channel,
		UnreadCacheTTL:    cfg.Notifications.UnreadCacheTTL,
		WorkerConcurrency: cfg.Notifications.WorkerConcurrency,
		WorkerRetries:     cfg.Notifications.WorkerRetries,
		RetryDelay:        cfg.Notifications.RetryDelay,
	})

	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	renderer := export.NewCertificateRenderer(cfg.Certificates.IssuerName)
	certificates := service.NewCertificateService(intents, renderer, certificateStore, signer, logr)

	donations := service.NewDonationLedger(intents, matches, validate, logr)
	requests := service.NewRequestLedger(organRequests, fundRequests, validate, logr)
	coordinator := service.NewLifecycleCoordinator(donations, requests, hub, metricsSvc, certificates, logr)
	exports := service.NewExportService(donations, requests, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub.Start(ctx)
	defer hub.Stop()
	certificates.Start(ctx)
	defer certificates.Stop()

	donationHandler := handler.NewDonationHandler(coordinator, donations)
	requestHandler := handler.NewRequestHandler(coordinator, requests)
	notificationHandler := handler.NewNotificationHandler(hub)
	certificateHandler := handler.NewCertificateHandler(certificates)
	adminHandler := handler.NewAdminHandler(metricsSvc, exports)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.GET("/certificates/download", certificateHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokens))

	donationsGroup := api.Group("/donations")
	{
		donationsGroup.POST("/intents", middleware.RequireRoles(models.RoleDonor), donationHandler.SubmitIntent)
		donationsGroup.GET("/intents", donationHandler.ListIntents)
		donationsGroup.GET("/intents/:id", donationHandler.GetIntent)
		donationsGroup.POST("/intents/:id/verify", middleware.RequireRoles(models.RoleHospital), donationHandler.VerifyIntent)
		donationsGroup.GET("/intents/:id/certificate", middleware.RequireRoles(models.RoleDonor, models.RoleHospital), certificateHandler.SignedURL)

		donationsGroup.POST("/matches", middleware.RequireRoles(models.RoleHospital), donationHandler.CreateMatch)
		donationsGroup.GET("/matches", donationHandler.ListMatches)
		donationsGroup.GET("/matches/:id", donationHandler.GetMatch)
		donationsGroup.POST("/matches/:id/accept", middleware.RequireRoles(models.RolePatient, models.RoleDonor), donationHandler.AcceptMatch)
		donationsGroup.POST("/matches/:id/payment", middleware.RequireRoles(models.RoleHospital), donationHandler.ConfirmPayment)
		donationsGroup.POST("/matches/:id/complete", middleware.RequireRoles(models.RoleHospital), donationHandler.CompleteDonation)
	}

	requestsGroup := api.Group("/requests")
	{
		requestsGroup.POST("/organs", middleware.RequireRoles(models.RolePatient), requestHandler.SubmitOrganRequest)
		requestsGroup.GET("/organs", requestHandler.ListOrganRequests)
		requestsGroup.GET("/organs/:id", requestHandler.GetOrganRequest)
		requestsGroup.POST("/organs/:id/decision", middleware.RequireRoles(models.RoleHospital), requestHandler.DecideOrganRequest)
		requestsGroup.POST("/organs/:id/donor", middleware.RequireRoles(models.RoleHospital), requestHandler.DeclareDonorMatch)

		requestsGroup.POST("/funds", middleware.RequireRoles(models.RolePatient), requestHandler.SubmitFundRequest)
		requestsGroup.GET("/funds", requestHandler.ListFundRequests)
		requestsGroup.GET("/funds/:id", requestHandler.GetFundRequest)
		requestsGroup.POST("/funds/:id/decision", middleware.RequireRoles(models.RoleNGO), requestHandler.DecideFundRequest)
	}

	notificationsGroup := api.Group("/notifications")
	{
		notificationsGroup.GET("", notificationHandler.List)
		notificationsGroup.POST("/:id/read", notificationHandler.MarkRead)
		notificationsGroup.POST("/read-all", notificationHandler.MarkAllRead)
		notificationsGroup.GET("/unread-count", notificationHandler.UnreadCount)
	}

	adminGroup := api.Group("/admin", middleware.RequireRoles())
	{
		adminGroup.GET("/stats", adminHandler.Stats)
		adminGroup.GET("/exports/:kind", adminHandler.Export)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
