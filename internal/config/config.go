package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string

	HTTPAddr string

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

	AmazonPay AmazonPayConfig
	Checkout  CheckoutConfig
	Reconcile ReconcileConfig

	RedisAddr    string
	LockTTL      time.Duration
	SlackWebhook string
}

// AmazonPayConfig configures the payment gateway client.
type AmazonPayConfig struct {
	BaseURL     string
	StoreID     string
	PublicKeyID string
	MerchantID  string
	Sandbox     bool
	MaxRetries  int
}

// CheckoutConfig controls checkout session handling.
type CheckoutConfig struct {
	// SessionValidity is the processor-side authorization window for an
	// open checkout session.
	SessionValidity time.Duration
	// CancelMargin is added on top of SessionValidity before the timeout
	// worker may cancel an unconsumed order.
	CancelMargin time.Duration
}

// ReconcileConfig controls the timeout worker.
type ReconcileConfig struct {
	PollInterval time.Duration
	BatchSize    int
	JobTimeout   time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "payflow"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "payflow"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		AmazonPay: AmazonPayConfig{
			BaseURL:     getenv("AMAZON_PAY_BASE_URL", "https://pay-api.amazon.com"),
			StoreID:     getenv("AMAZON_PAY_STORE_ID", ""),
			PublicKeyID: getenv("AMAZON_PAY_PUBLIC_KEY_ID", ""),
			MerchantID:  getenv("AMAZON_PAY_MERCHANT_ID", ""),
			Sandbox:     getenvBool("AMAZON_PAY_SANDBOX", true),
			MaxRetries:  getenvInt("AMAZON_PAY_MAX_RETRIES", 3),
		},
		Checkout: CheckoutConfig{
			SessionValidity: getenvDuration("CHECKOUT_SESSION_VALIDITY", 24*time.Hour),
			CancelMargin:    getenvDuration("CHECKOUT_CANCEL_MARGIN", time.Hour),
		},
		Reconcile: ReconcileConfig{
			PollInterval: getenvDuration("RECONCILE_POLL_INTERVAL", time.Minute),
			BatchSize:    getenvInt("RECONCILE_BATCH_SIZE", 50),
			JobTimeout:   getenvDuration("RECONCILE_JOB_TIMEOUT", 5*time.Minute),
		},

		RedisAddr:    strings.TrimSpace(getenv("REDIS_ADDR", "")),
		LockTTL:      getenvDuration("ORDER_LOCK_TTL", 2*time.Minute),
		SlackWebhook: strings.TrimSpace(getenv("SLACK_WEBHOOK_URL", "")),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Module wires application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
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

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
