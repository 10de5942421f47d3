package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	PayPal   PayPalConfig
	Ops      OpsConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// PayPalConfig holds the gateway defaults. PdtToken and UseSandbox can be
// overridden per deployment through gateway_settings rows.
type PayPalConfig struct {
	UseSandbox    bool
	BusinessEmail string
	PdtToken      string
	VerifyTimeout time.Duration
	// Browser destinations for the return/cancel flows.
	HomeURL              string
	CheckoutCompletedURL string // order id appended
	OrderDetailsURL      string // order id appended
	// Retry budget before an unpaying series is deactivated.
	MaxRecurringFailures int
}

type OpsConfig struct {
	JWTSecret string
	Issuer    string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("SERVER_PORT", "8080"),
			Env:          getenv("SERVER_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "paygate:paygate@tcp(localhost:3306)/paygate?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		PayPal: PayPalConfig{
			UseSandbox:           getenvBool("PAYPAL_USE_SANDBOX", true),
			BusinessEmail:        getenv("PAYPAL_BUSINESS_EMAIL", ""),
			PdtToken:             getenv("PAYPAL_PDT_TOKEN", ""),
			VerifyTimeout:        15 * time.Second,
			HomeURL:              getenv("HOME_URL", "/"),
			CheckoutCompletedURL: getenv("CHECKOUT_COMPLETED_URL", "/checkout/completed/"),
			OrderDetailsURL:      getenv("ORDER_DETAILS_URL", "/orders/"),
			MaxRecurringFailures: getenvInt("MAX_RECURRING_FAILURES", 3),
		},
		Ops: OpsConfig{
			JWTSecret: getenv("OPS_JWT_SECRET", "change-me-in-production"),
			Issuer:    getenv("OPS_JWT_ISSUER", "paygate"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
