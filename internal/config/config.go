package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Delivery modes select which gateway sends coupon messages.
const (
	DeliveryModeWhatsApp = "whatsapp"
	DeliveryModeERP      = "erp"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port           string
	Environment    string
	AllowedOrigins []string

	// JWT
	JWTSecret string
	JWTTTL    time.Duration

	// Bootstrap admin account, seeded on first boot
	AdminUsername string
	AdminPassword string

	// Coupon issuance
	CouponPrefix string
	Branches     []string

	// Delivery
	DeliveryMode    string
	OutboundTimeout time.Duration

	// WhatsApp direct-API variant
	WhatsAppAPIURL string
	WhatsAppToken  string

	// ERP-mediated variant
	ERPBaseURL      string
	ERPUsername     string
	ERPPassword     string
	ERPCampaignTag  string
	ERPTemplateName string

	// Events
	NATSURL string

	// Pagination
	DefaultPageSize int
	MaxPageSize     int
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtTTLHours, _ := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	outboundTimeout, _ := strconv.Atoi(getEnv("OUTBOUND_TIMEOUT_SECONDS", "15"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "50"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "coupons_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Server
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
		JWTTTL:    time.Duration(jwtTTLHours) * time.Hour,

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		CouponPrefix: getEnv("COUPON_PREFIX", "CPN"),
		Branches:     splitList(getEnv("BRANCHES", "Muscat,Salalah,Sohar")),

		DeliveryMode:    getEnv("DELIVERY_MODE", DeliveryModeWhatsApp),
		OutboundTimeout: time.Duration(outboundTimeout) * time.Second,

		WhatsAppAPIURL: getEnv("WHATSAPP_API_URL", ""),
		WhatsAppToken:  getEnv("WHATSAPP_TOKEN", ""),

		ERPBaseURL:      getEnv("ERP_BASE_URL", ""),
		ERPUsername:     getEnv("ERP_USERNAME", ""),
		ERPPassword:     getEnv("ERP_PASSWORD", ""),
		ERPCampaignTag:  getEnv("ERP_CAMPAIGN_TAG", "COUPONS"),
		ERPTemplateName: getEnv("ERP_TEMPLATE_NAME", "coupon_message"),

		NATSURL: getEnv("NATS_URL", ""),

		// Pagination
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Surface unique-index violations as gorm.ErrDuplicatedKey so the
		// issuance retry loop can recognize them.
		TranslateError: true,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
