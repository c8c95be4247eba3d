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

	_ "github.com/noah-isme/uks-adp-api/api/swagger"
	"github.com/noah-isme/uks-adp-api/internal/handler"
	"github.com/noah-isme/uks-adp-api/internal/middleware"
	"github.com/noah-isme/uks-adp-api/internal/models"
	"github.com/noah-isme/uks-adp-api/internal/repository"
	"github.com/noah-isme/uks-adp-api/internal/service"
	"github.com/noah-isme/uks-adp-api/pkg/cache"
	"github.com/noah-isme/uks-adp-api/pkg/config"
	"github.com/noah-isme/uks-adp-api/pkg/database"
	"github.com/noah-isme/uks-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uks-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uks-adp-api/pkg/middleware/requestid"
)

// @title UKS ADP API
// @version 0.1.0
// @description Vaccination campaign scheduling and guardian response tracking
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs notification dedupe; the API stays up without it.
		logr.Sugar().Warnw("redis unavailable, notification dedupe disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	campaignRepo := repository.NewCampaignRepository(db)
	classCampaignRepo := repository.NewClassCampaignRepository(db)
	campaignStudentRepo := repository.NewCampaignStudentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notifSvc *service.NotificationService
	if cfg.Notifications.Enabled {
		notifSvc = service.NewNotificationService(notificationRepo, cacheRepo, nil, service.NotificationConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			DedupeTTL:  cfg.Notifications.DedupeTTL,
		}, logr)
		notifSvc.Start(ctx)
		defer notifSvc.Stop()
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "uks-adp-api",
	})
	campaignClassSvc := service.NewCampaignClassService(classCampaignRepo, campaignRepo, classRepo, validate, logr)
	campaignStudentSvc := service.NewCampaignStudentService(campaignStudentRepo, classCampaignRepo, validate, logr)

	var metricsSvc *service.MetricsService
	if notifSvc != nil {
		metricsSvc = service.NewMetricsService(notifSvc)
	} else {
		metricsSvc = service.NewMetricsService(nil)
	}

	var scheduleSvc *service.VaccinationScheduleService
	if notifSvc != nil {
		scheduleSvc = service.NewVaccinationScheduleService(campaignRepo, classCampaignRepo, campaignStudentRepo, studentRepo, notifSvc, metricsSvc, validate, logr)
	} else {
		scheduleSvc = service.NewVaccinationScheduleService(campaignRepo, classCampaignRepo, campaignStudentRepo, studentRepo, nil, metricsSvc, validate, logr)
	}

	exportSvc := service.NewExportService(campaignStudentRepo, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	scheduleHandler := handler.NewVaccinationScheduleHandler(scheduleSvc, exportSvc)
	campaignClassHandler := handler.NewCampaignClassHandler(campaignClassSvc)
	campaignStudentHandler := handler.NewCampaignStudentHandler(campaignStudentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleNurse)

	schedules := api.Group("/vaccination-schedules", middleware.JWT(authSvc))
	schedules.POST("", staff, middleware.Audit(userRepo, models.AuditActionScheduleCreate, "vaccination_schedule"), scheduleHandler.Create)
	schedules.GET("", scheduleHandler.List)
	schedules.GET("/events", scheduleHandler.Events)
	schedules.GET("/events/:eventId", scheduleHandler.EventDetail)
	schedules.GET("/events/:eventId/classes/:classId", scheduleHandler.ClassDetail)
	if cfg.Export.Enabled {
		schedules.GET("/events/:eventId/export", staff, scheduleHandler.ExportEvent)
		schedules.GET("/events/:eventId/classes/:classId/export", staff, scheduleHandler.ExportClass)
	}
	schedules.PUT("/:id/result", staff, middleware.Audit(userRepo, models.AuditActionResultRecord, "vaccination_schedule"), scheduleHandler.UpdateResult)
	schedules.PUT("/:id/approve", middleware.Audit(userRepo, models.AuditActionScheduleUpdate, "vaccination_schedule"), scheduleHandler.Approve)
	schedules.PUT("/:id/cancel", middleware.Audit(userRepo, models.AuditActionScheduleUpdate, "vaccination_schedule"), scheduleHandler.Cancel)
	schedules.DELETE("/:id", staff, middleware.Audit(userRepo, models.AuditActionScheduleDelete, "vaccination_schedule"), scheduleHandler.Delete)
	schedules.DELETE("/events/:eventId", staff, middleware.Audit(userRepo, models.AuditActionScheduleDelete, "campaign"), scheduleHandler.DeleteEvent)
	schedules.GET("/campaigns", scheduleHandler.Campaigns)
	schedules.GET("/results/student/:studentId", scheduleHandler.ResultsByStudent)
	schedules.GET("/pending/student/:studentId", scheduleHandler.PendingByStudent)

	if notifSvc != nil {
		notificationHandler := handler.NewNotificationHandler(notifSvc)
		notifications := api.Group("/notifications", middleware.JWT(authSvc))
		notifications.GET("/student/:studentId", notificationHandler.ByStudent)
	}

	campaignClasses := api.Group("/campaign-class", middleware.JWT(authSvc), staff)
	campaignClasses.POST("", campaignClassHandler.Create)
	campaignClasses.GET("", campaignClassHandler.List)
	campaignClasses.GET("/:id", campaignClassHandler.Get)
	campaignClasses.PUT("/:id", campaignClassHandler.Update)
	campaignClasses.DELETE("/:id", campaignClassHandler.Delete)
	campaignClasses.GET("/campaign/:campaignId", campaignClassHandler.ByCampaign)
	campaignClasses.DELETE("/campaign/:campaignId", campaignClassHandler.DeleteByCampaign)
	campaignClasses.GET("/class/:classId", campaignClassHandler.ByClass)
	campaignClasses.DELETE("/class/:classId", campaignClassHandler.DeleteByClass)

	campaignStudents := api.Group("/campaign-student", middleware.JWT(authSvc))
	campaignStudents.POST("", staff, campaignStudentHandler.Create)
	campaignStudents.POST("/batch", staff, campaignStudentHandler.BatchCreate)
	campaignStudents.GET("", campaignStudentHandler.List)
	campaignStudents.GET("/:id", campaignStudentHandler.Get)
	campaignStudents.PUT("/:id", campaignStudentHandler.Update)
	campaignStudents.PUT("/:id/status", campaignStudentHandler.UpdateStatus)
	campaignStudents.DELETE("/:id", staff, campaignStudentHandler.Delete)
	campaignStudents.GET("/class-campaign/:id", campaignStudentHandler.ByClassCampaign)
	campaignStudents.DELETE("/class-campaign/:id", staff, campaignStudentHandler.DeleteByClassCampaign)
	campaignStudents.GET("/student/:studentId", campaignStudentHandler.ByStudent)
	campaignStudents.DELETE("/student/:studentId", staff, campaignStudentHandler.DeleteByStudent)
	campaignStudents.GET("/status/:status", campaignStudentHandler.ByStatus)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
