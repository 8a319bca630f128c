package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	// AuthJWTSecret verifies tokens issued by the identity provider.
	AuthJWTSecret string

	// CommissionRate is the platform share of a settled payment, as a
	// fraction of the original amount. Snapshotted onto each commission
	// at creation time.
	CommissionRate float64

	ProcessorAPIKey        string
	ProcessorWebhookSecret string
	CheckoutSuccessURL     string
	CheckoutCancelURL      string
	OnboardingRefreshURL   string
	OnboardingReturnURL    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "grannhjalp"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		CommissionRate: getenvFloat("COMMISSION_RATE", 0.10),

		ProcessorAPIKey:        strings.TrimSpace(getenv("PROCESSOR_API_KEY", "")),
		ProcessorWebhookSecret: strings.TrimSpace(getenv("PROCESSOR_WEBHOOK_SECRET", "")),
		CheckoutSuccessURL:     getenv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/payments/success"),
		CheckoutCancelURL:      getenv("CHECKOUT_CANCEL_URL", "http://localhost:3000/payments/cancel"),
		OnboardingRefreshURL:   getenv("ONBOARDING_REFRESH_URL", "http://localhost:3000/account/onboarding"),
		OnboardingReturnURL:    getenv("ONBOARDING_RETURN_URL", "http://localhost:3000/account"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "grannhjalp"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
