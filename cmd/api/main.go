package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/techmatch/techmatch-api/internal/handler"
	"github.com/techmatch/techmatch-api/internal/middleware"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/internal/repository"
	"github.com/techmatch/techmatch-api/internal/service"
	"github.com/techmatch/techmatch-api/pkg/cache"
	"github.com/techmatch/techmatch-api/pkg/clock"
	"github.com/techmatch/techmatch-api/pkg/config"
	"github.com/techmatch/techmatch-api/pkg/database"
	"github.com/techmatch/techmatch-api/pkg/logger"
	corsmiddleware "github.com/techmatch/techmatch-api/pkg/middleware/cors"
	reqidmiddleware "github.com/techmatch/techmatch-api/pkg/middleware/requestid"
	"github.com/techmatch/techmatch-api/pkg/storage"
)

// @title TechMatch API
// @version 1.0.0
// @description Marketplace connecting businesses with verified technicians
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The recommendation cache degrades to pass-through without redis.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Documents.UploadDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload directory", "error", err)
	}

	validate := validator.New()
	clk := clock.System()

	userRepo := repository.NewUserRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	jobRepo := repository.NewJobRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	policy := service.DocumentPolicy{
		AllowedExtensions: cfg.Documents.AllowedExtensions,
		MaxFileSizeBytes:  cfg.Documents.MaxFileSizeBytes,
	}

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		AdminEmail:         cfg.AdminSeed.Email,
		AdminPassword:      cfg.AdminSeed.Password,
	})
	notificationService := service.NewNotificationService(notificationRepo, userRepo, clk, logr)
	verificationService := service.NewVerificationService(
		verificationRepo, userRepo, documentRepo, store, policy, notificationService, clk, logr, metricsService,
		service.VerificationServiceConfig{
			DefaultCooldown: time.Duration(cfg.Verification.CooldownSeconds) * time.Second,
		})
	skillService := service.NewSkillService(
		skillRepo, documentRepo, store, policy, notificationService, clk, logr, metricsService,
		service.SkillServiceConfig{
			PendingLimit: cfg.Skills.PendingLimit,
			Vocabulary:   cfg.Skills.Vocabulary,
		})
	jobService := service.NewJobService(
		jobRepo, skillService, cacheRepo, notificationService, clk, logr, metricsService,
		service.JobServiceConfig{
			RecommendTTL:   cfg.Recommend.CacheTTL,
			RecommendLimit: cfg.Recommend.Limit,
		})
	userService := service.NewUserService(userRepo, clk, logr)
	documentService := service.NewDocumentService(documentRepo, store, logr)

	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(bootCtx); err != nil {
		cancel()
		logr.Sugar().Fatalw("failed to seed admin account", "error", err)
	}
	cancel()

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	verificationHandler := handler.NewVerificationHandler(verificationService)
	skillHandler := handler.NewSkillHandler(skillService)
	jobHandler := handler.NewJobHandler(jobService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	documentHandler := handler.NewDocumentHandler(documentService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	authRequired := middleware.JWT(authService)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	technicianOnly := middleware.RequireRoles(models.RoleTechnician)
	businessOnly := middleware.RequireRoles(models.RoleBusiness)
	verified := middleware.RequireVerified(verificationService)
	pendingOnly := middleware.PendingOnly(verificationService)
	cooldown := middleware.CooldownGuard(verificationService, clk)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authRequired, authHandler.Logout)
		auth.POST("/change-password", authRequired, authHandler.ChangePassword)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	users := api.Group("/users", authRequired)
	{
		users.GET("/me", userHandler.Profile)
		users.PUT("/me/technician-profile", technicianOnly, userHandler.UpdateTechnicianProfile)
		users.PUT("/me/business-profile", businessOnly, userHandler.UpdateBusinessProfile)
	}

	verification := api.Group("/verification", authRequired)
	{
		verification.POST("", pendingOnly, cooldown, verificationHandler.Submit)
		verification.GET("/status", verificationHandler.Status)
	}

	skills := api.Group("/skills", authRequired)
	{
		skills.GET("/suggest", skillHandler.Suggest)
		skills.GET("", technicianOnly, skillHandler.Mine)
		skills.POST("", technicianOnly, verified, skillHandler.Submit)
	}

	jobs := api.Group("/jobs", authRequired, verified)
	{
		jobs.POST("", businessOnly, jobHandler.Create)
		jobs.GET("", technicianOnly, jobHandler.ListOpen)
		jobs.GET("/mine", businessOnly, jobHandler.Mine)
		jobs.GET("/assigned", technicianOnly, jobHandler.Assigned)
		jobs.GET("/stats", businessOnly, jobHandler.Stats)
		jobs.GET("/recommendations", technicianOnly, jobHandler.Recommend)
		jobs.GET("/:id", technicianOnly, jobHandler.Window)
		jobs.DELETE("/:id", businessOnly, jobHandler.Delete)
		jobs.POST("/:id/apply", technicianOnly, jobHandler.Apply)
		jobs.DELETE("/:id/apply", technicianOnly, jobHandler.Withdraw)
		jobs.POST("/:id/complete", technicianOnly, jobHandler.MarkComplete)
		jobs.POST("/:id/confirm", businessOnly, jobHandler.ConfirmCompletion)
		jobs.GET("/:id/applications", businessOnly, jobHandler.Applications)
		jobs.POST("/:id/applications/:applicationId/approve", businessOnly, jobHandler.ApproveApplication)
		jobs.POST("/:id/applications/:applicationId/deny", businessOnly, jobHandler.DenyApplication)
		jobs.GET("/:id/tasks", businessOnly, jobHandler.Tasks)
		jobs.POST("/:id/tasks", businessOnly, jobHandler.AddTask)
		jobs.DELETE("/:id/tasks/:taskId", businessOnly, jobHandler.DeleteTask)
		jobs.PUT("/:id/tasks/:taskId", jobHandler.SetTaskDone)
	}
	api.GET("/applications", authRequired, verified, technicianOnly, jobHandler.MyApplications)

	notifications := api.Group("/notifications", authRequired)
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	documents := api.Group("/documents", authRequired)
	{
		documents.GET("", documentHandler.Mine)
		documents.GET("/:id", documentHandler.Download)
	}

	admin := api.Group("/admin", authRequired, adminOnly)
	{
		admin.GET("/users", userHandler.List)
		admin.PUT("/users/:id/active", userHandler.SetActive)
		admin.GET("/verification", verificationHandler.Queue)
		admin.GET("/verification/:id", verificationHandler.Detail)
		admin.POST("/verification/:id/approve", verificationHandler.Approve)
		admin.POST("/verification/:id/reject", verificationHandler.Reject)
		admin.GET("/skills", skillHandler.Queue)
		admin.GET("/skills/:id", skillHandler.Detail)
		admin.POST("/skills/:id/approve", skillHandler.Approve)
		admin.POST("/skills/:id/reject", skillHandler.Reject)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
