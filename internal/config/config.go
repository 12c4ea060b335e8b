package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// ServiceTitan API configuration
	STBaseURL      string
	STAuthURL      string
	STClientID     string
	STClientSecret string
	STTenantID     string
	STAppKey       string
	STTimeout      time.Duration

	// Tenant-specific ServiceTitan IDs
	BusinessUnitPlumbing int64
	BusinessUnitDrain    int64
	JobTypeService       int64
	JobTypeDrain         int64
	CampaignID           int64
	DispatchFeeSKU       int64
	DispatchFeeEnabled   bool

	// Scheduling
	DefaultState   string
	BookingHorizon int // business days offered when the caller has no preference

	// Identity resolution
	IdentityStrictMatch bool

	// Call transcript extraction (Gemini)
	GeminiAPIKey string
	GeminiModel  string

	// Booking-alert chat webhook (Google Chat style)
	NotifyWebhookURL string
	NotifyTimeout    time.Duration

	// Dedupe
	DedupeWindow time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		STBaseURL:      getEnv("ST_BASE_URL", "https://api.servicetitan.io"),
		STAuthURL:      getEnv("ST_AUTH_URL", "https://auth.servicetitan.io/connect/token"),
		STClientID:     getEnv("ST_CLIENT_ID", ""),
		STClientSecret: getEnv("ST_CLIENT_SECRET", ""),
		STTenantID:     getEnv("ST_TENANT_ID", ""),
		STAppKey:       getEnv("ST_APP_KEY", ""),
		STTimeout:      getEnvAsDuration("ST_TIMEOUT", 15*time.Second),

		BusinessUnitPlumbing: getEnvAsInt64("ST_BUSINESS_UNIT_PLUMBING", 40464378),
		BusinessUnitDrain:    getEnvAsInt64("ST_BUSINESS_UNIT_DRAIN", 40472669),
		JobTypeService:       getEnvAsInt64("ST_JOB_TYPE_SERVICE", 40464992),
		JobTypeDrain:         getEnvAsInt64("ST_JOB_TYPE_DRAIN", 79265910),
		CampaignID:           getEnvAsInt64("ST_CAMPAIGN_ID", 313),
		DispatchFeeSKU:       getEnvAsInt64("ST_DISPATCH_FEE_SKU", 43942323),
		DispatchFeeEnabled:   getEnvAsBool("ST_DISPATCH_FEE_ENABLED", false),

		DefaultState:   getEnv("DEFAULT_STATE", "OH"),
		BookingHorizon: getEnvAsInt("BOOKING_HORIZON_DAYS", 5),

		IdentityStrictMatch: getEnvAsBool("IDENTITY_STRICT_MATCH", false),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyTimeout:    getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),

		DedupeWindow: getEnvAsDuration("DEDUPE_WINDOW", 5*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
