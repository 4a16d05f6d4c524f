package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/sanketcencora/squadron-verify-api/api/swagger"
	"github.com/sanketcencora/squadron-verify-api/internal/handler"
	"github.com/sanketcencora/squadron-verify-api/internal/middleware"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/internal/repository"
	"github.com/sanketcencora/squadron-verify-api/internal/service"
	"github.com/sanketcencora/squadron-verify-api/pkg/cache"
	"github.com/sanketcencora/squadron-verify-api/pkg/config"
	"github.com/sanketcencora/squadron-verify-api/pkg/database"
	"github.com/sanketcencora/squadron-verify-api/pkg/logger"
	"github.com/sanketcencora/squadron-verify-api/pkg/mailer"
	corsmiddleware "github.com/sanketcencora/squadron-verify-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sanketcencora/squadron-verify-api/pkg/middleware/requestid"
	"github.com/sanketcencora/squadron-verify-api/pkg/storage"
)

// @title Squadron Verify API
// @version 1.0.0
// @description IT asset verification campaign service
// @BasePath /api
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
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, stats caching disabled", zap.Error(err))
		redisClient = nil
	}

	evidenceStore, err := storage.NewLocalStorage(cfg.Evidence.StorageDir)
	if err != nil {
		logr.Fatal("evidence storage init failed", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Evidence.SignedURLSecret, cfg.Evidence.SignedURLTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	recordRepo := repository.NewVerificationRecordRepository(db)
	tokenRepo := repository.NewVerificationTokenRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	peripheralRepo := repository.NewPeripheralRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "squadron-verify-api",
	})
	tokenSvc := service.NewTokenService(tokenRepo, cfg.Verification, logr)

	var mail service.Mailer
	if cfg.Notifications.Enabled {
		mail = mailer.NewSMTPMailer(cfg.Notifications.SMTPAddr, cfg.Notifications.FromAddress)
	} else {
		mail = mailer.NewLogMailer(logr)
	}
	notifySvc := service.NewNotificationService(mail, tokenSvc, cfg.Notifications, logr)

	campaignSvc := service.NewCampaignService(
		campaignRepo, recordRepo, assetRepo, peripheralRepo,
		userRepo, tokenSvc, notifySvc, userRepo, nil, logr)
	verificationSvc := service.NewVerificationService(
		recordRepo, assetRepo, campaignSvc, cacheRepo, cfg.Stats, userRepo, nil, logr)
	ocrSvc := service.NewOCRService(cfg.OCR, logr)
	publicSvc := service.NewPublicVerifyService(
		tokenSvc, verificationSvc, campaignRepo, peripheralRepo, campaignSvc, ocrSvc, logr)
	evidenceSvc := service.NewEvidenceService(evidenceStore, signer, cfg.Evidence, logr)
	exportSvc := service.NewExportService(recordRepo, campaignRepo, logr)
	userSvc := service.NewUserService(userRepo, nil, logr)
	assetSvc := service.NewAssetService(assetRepo, nil, logr)
	peripheralSvc := service.NewPeripheralService(peripheralRepo, nil, logr)
	equipmentSvc := service.NewEquipmentService(equipmentRepo, nil, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	campaignHandler := handler.NewCampaignHandler(campaignSvc, tokenSvc, exportSvc, metricsSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc, evidenceSvc)
	publicHandler := handler.NewPublicVerifyHandler(publicSvc, tokenSvc, evidenceSvc, ocrSvc, metricsSvc)
	assetHandler := handler.NewAssetHandler(assetSvc)
	peripheralHandler := handler.NewPeripheralHandler(peripheralSvc)
	equipmentHandler := handler.NewEquipmentHandler(equipmentSvc)
	userHandler := handler.NewUserHandler(userSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	authed := auth.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.POST("/logout", authHandler.Logout)
	authed.POST("/change-password", authHandler.ChangePassword)
	authed.GET("/me", authHandler.Me)

	// The employee-facing surface is gated by the link secret, not a session.
	public := api.Group("/public")
	public.GET("/verify/:token", publicHandler.Payload)
	public.POST("/verify/:token/submit", publicHandler.Submit)
	public.POST("/verify/:token/extract-tag", publicHandler.ExtractTag)
	public.POST("/verify/:token/evidence", publicHandler.UploadEvidence)
	public.POST("/verify/:token/complete", publicHandler.Complete)
	public.GET("/evidence/:token", publicHandler.DownloadEvidence)

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc))
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleManager))

	admin.GET("/campaigns", campaignHandler.List)
	admin.POST("/campaigns", campaignHandler.Create)
	admin.GET("/campaigns/stats", campaignHandler.Stats)
	admin.GET("/campaigns/:id", campaignHandler.Get)
	admin.PUT("/campaigns/:id", campaignHandler.Update)
	admin.DELETE("/campaigns/:id", campaignHandler.Delete)
	admin.POST("/campaigns/:id/launch", campaignHandler.Launch)
	admin.POST("/campaigns/:id/reminders", campaignHandler.SendReminders)
	admin.POST("/campaigns/:id/complete", campaignHandler.Complete)
	admin.POST("/campaigns/:id/recount", campaignHandler.RecomputeCounts)
	admin.GET("/campaigns/:id/tokens", campaignHandler.Tokens)
	admin.GET("/campaigns/:id/records/stats", verificationHandler.CampaignStats)
	admin.GET("/campaigns/:id/export/csv", campaignHandler.ExportCSV)
	admin.GET("/campaigns/:id/export/pdf", campaignHandler.ExportPDF)

	admin.GET("/verification-records", verificationHandler.List)
	admin.GET("/verification-records/:id", verificationHandler.Get)
	admin.POST("/verification-records/:id/review", verificationHandler.Review)
	admin.POST("/verification-records/:id/exception", verificationHandler.MarkException)
	admin.GET("/verification-records/:id/evidence-url", verificationHandler.EvidenceURL)

	admin.GET("/assets", assetHandler.List)
	admin.POST("/assets", assetHandler.Create)
	admin.GET("/assets/:id", assetHandler.Get)
	admin.DELETE("/assets/:id", assetHandler.Delete)
	admin.POST("/assets/:id/assign", assetHandler.Assign)
	admin.POST("/assets/:id/unassign", assetHandler.Unassign)

	admin.GET("/peripherals", peripheralHandler.List)
	admin.POST("/peripherals", peripheralHandler.Create)
	admin.GET("/peripherals/:id", peripheralHandler.Get)
	admin.DELETE("/peripherals/:id", peripheralHandler.Delete)
	admin.POST("/peripherals/:id/assign", peripheralHandler.Assign)

	admin.GET("/equipment", equipmentHandler.List)
	admin.POST("/equipment", equipmentHandler.Create)
	admin.GET("/equipment/stats", equipmentHandler.Stats)
	admin.GET("/equipment/:id", equipmentHandler.Get)
	admin.PUT("/equipment/:id", equipmentHandler.Update)
	admin.DELETE("/equipment/:id", equipmentHandler.Delete)

	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id", userHandler.Update)
	admin.DELETE("/users/:id", userHandler.Deactivate)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifySvc.Start(rootCtx)
	defer notifySvc.Stop()

	go sweepExpiredTokens(rootCtx, tokenSvc, metricsSvc, cfg.Verification.SweepInterval, logr)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// sweepExpiredTokens periodically purges expired unused verification tokens.
func sweepExpiredTokens(ctx context.Context, tokens *service.TokenService, metrics *service.MetricsService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.SweepExpired(ctx)
			if err != nil {
				logr.Warn("token sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				metrics.TokensSwept(removed)
				logr.Info("expired tokens swept", zap.Int64("removed", removed))
			}
		}
	}
}
