package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port            string
	StorefrontURL   string
	DatabaseURL     string
	ProviderBaseURL string
	ProviderAPIKey  string
	CommerceBaseURL string
	CommerceAPIKey  string
	WebhookBaseURL  string
	WebhookToken    string

	ExternalTimeout time.Duration
	RetryLease      time.Duration
	AuditInterval   time.Duration
	StuckAfter      time.Duration

	CheckoutRPS   float64
	CheckoutBurst int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            getenv("PORT", "8080"),
		StorefrontURL:   getenv("STOREFRONT_URL", "http://localhost:3000"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ProviderBaseURL: getenv("PAYMENT_API_URL", "https://api.mollie.com"),
		ProviderAPIKey:  os.Getenv("PAYMENT_API_KEY"),
		CommerceBaseURL: os.Getenv("COMMERCE_API_URL"),
		CommerceAPIKey:  os.Getenv("COMMERCE_API_KEY"),
		WebhookBaseURL:  os.Getenv("WEBHOOK_BASE_URL"),
		WebhookToken:    os.Getenv("WEBHOOK_TOKEN"),
		ExternalTimeout: getenvDuration("EXTERNAL_TIMEOUT", 10*time.Second),
		RetryLease:      getenvDuration("RETRY_LEASE", time.Minute),
		AuditInterval:   getenvDuration("AUDIT_INTERVAL", 5*time.Minute),
		StuckAfter:      getenvDuration("STUCK_AFTER", 15*time.Minute),
		CheckoutRPS:     getenvFloat("CHECKOUT_RPS", 1),
		CheckoutBurst:   getenvInt("CHECKOUT_BURST", 5),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.ProviderAPIKey == "" {
		return nil, fmt.Errorf("PAYMENT_API_KEY environment variable is required")
	}

	if cfg.CommerceBaseURL == "" {
		return nil, fmt.Errorf("COMMERCE_API_URL environment variable is required")
	}

	if cfg.WebhookBaseURL == "" {
		return nil, fmt.Errorf("WEBHOOK_BASE_URL environment variable is required")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
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

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
