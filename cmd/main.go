package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"coupon-issuance-service/internal/config"
	"coupon-issuance-service/internal/delivery"
	"coupon-issuance-service/internal/events"
	"coupon-issuance-service/internal/handlers"
	"coupon-issuance-service/internal/middleware"
	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/repository"
	"coupon-issuance-service/internal/service"
	"coupon-issuance-service/internal/stats"
)

// @title Coupon Issuance API
// @version 1.0.0
// @description Branch coupon issuance service with WhatsApp delivery

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securitydefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}

	logger.Info("Running database migrations...")
	if err := db.AutoMigrate(&models.User{}, &models.Coupon{}); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("✓ Database migrations completed")

	userRepo := repository.NewUserRepository(db)
	couponRepo := repository.NewCouponRepository(db)

	if err := seedAdmin(userRepo, cfg, logger); err != nil {
		logger.Fatalf("Failed to seed admin account: %v", err)
	}

	// Initialize NATS events publisher (optional)
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize events publisher (events won't be published)")
		} else {
			defer eventsPublisher.Close()
			logger.Info("✓ NATS events publisher initialized")
		}
	} else {
		logger.Info("NATS_URL not configured, event publishing disabled")
	}

	// Select the delivery gateway and stats source by mode
	var (
		gateway    delivery.Gateway
		aggregator stats.Aggregator
		branches   *handlers.BranchHandler
	)
	switch cfg.DeliveryMode {
	case config.DeliveryModeERP:
		erpClient := delivery.NewERPClient(cfg.ERPBaseURL, cfg.ERPUsername, cfg.ERPPassword, cfg.ERPCampaignTag, cfg.OutboundTimeout, logger)
		gateway = delivery.NewERPGateway(erpClient, cfg.ERPTemplateName, logger)
		aggregator = stats.NewERPAggregator(erpClient, cfg.Branches, logger)
		branches = handlers.NewBranchHandler(cfg.Branches, erpClient, logger)
		logger.Info("✓ ERP delivery gateway initialized")
	case config.DeliveryModeWhatsApp:
		gateway = delivery.NewWhatsAppGateway(cfg.WhatsAppAPIURL, cfg.WhatsAppToken, cfg.OutboundTimeout, logger)
		aggregator = stats.NewLocalAggregator(couponRepo)
		branches = handlers.NewBranchHandler(cfg.Branches, nil, logger)
		logger.Info("✓ WhatsApp delivery gateway initialized")
	default:
		logger.Fatalf("Unknown DELIVERY_MODE %q", cfg.DeliveryMode)
	}

	couponService := service.NewCouponService(couponRepo, service.NewCodeGenerator(cfg.CouponPrefix), gateway, cfg.DeliveryMode, logger)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTTTL, logger)
	couponHandler := handlers.NewCouponHandler(couponService, couponRepo, eventsPublisher, cfg.DefaultPageSize, cfg.MaxPageSize, logger)
	exportHandler := handlers.NewExportHandler(couponRepo, logger)
	staffHandler := handlers.NewStaffHandler(userRepo, logger)
	statsHandler := handlers.NewStatsHandler(aggregator, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	// Unauthenticated endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadyCheck(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret, userRepo))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.GET("/branches", branches.GetBranches)

		authed.POST("/coupons", couponHandler.IssueCoupon)
		authed.GET("/coupons", couponHandler.ListCoupons)
		authed.POST("/coupons/:id/resend", couponHandler.ResendCoupon)

		authed.GET("/stats", statsHandler.GetStats)

		admin := authed.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/coupons/export", exportHandler.ExportCoupons)

			admin.GET("/staff", staffHandler.ListStaff)
			admin.POST("/staff", staffHandler.CreateStaff)
			admin.PATCH("/staff/:id/toggle", staffHandler.ToggleStaff)
			admin.PATCH("/staff/:id/password", staffHandler.ChangePassword)
		}
	}

	logger.Infof("Coupon issuance service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server:", err)
	}
}

// seedAdmin ensures at least one admin account exists. The bootstrap
// credentials come from ADMIN_USERNAME/ADMIN_PASSWORD.
func seedAdmin(users repository.UserRepositoryInterface, cfg *config.Config, logger *logrus.Logger) error {
	ctx := context.Background()

	count, err := users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := repository.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		return err
	}

	logger.WithField("username", admin.Username).Info("✓ Bootstrap admin account created")
	return nil
}
