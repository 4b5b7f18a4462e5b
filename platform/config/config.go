// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for the operator-identity middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq-based batch scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetRecalculateInterval() time.Duration
	GetAttributionInterval() time.Duration
}

// EngineConfig provides tuning knobs for the RFV engine.
type EngineConfig interface {
	// GetPostPurchaseDays is the D+N follow-up offset for pos_compra tasks.
	GetPostPurchaseDays() int
	// GetTaskExpiryDays is how long a generated task stays actionable.
	GetTaskExpiryDays() int
	// GetPolicyPath points to the optional YAML segmentation policy table.
	GetPolicyPath() string
}

// EmailConfig provides settings for the operator digest email.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetDigestRecipients() []string
}

// PhoneConfig provides defaults for phone number normalization.
type PhoneConfig interface {
	GetDefaultPhoneRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	MigrationsEnabled   bool
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	RecalculateInterval time.Duration
	AttributionInterval time.Duration
	PostPurchaseDays    int
	TaskExpiryDays      int
	PolicyPath          string
	EmailEnabled        bool
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	EmailFromName       string
	EmailFromAddress    string
	DigestRecipients    []string
	DefaultPhoneRegion  string
}

// Load reads configuration from the environment (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MigrationsEnabled:   strings.EqualFold(getEnv("RUN_MIGRATIONS", "true"), "true"),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "rfv"),
		AsynqConcurrency:    getIntEnv("ASYNQ_CONCURRENCY", 10),
		RecalculateInterval: mustDuration(getEnv("RFV_RECALCULATE_INTERVAL", "24h")),
		AttributionInterval: mustDuration(getEnv("RFV_ATTRIBUTION_INTERVAL", "1h")),
		PostPurchaseDays:    getIntEnv("RFV_POST_PURCHASE_DAYS", 3),
		TaskExpiryDays:      getIntEnv("RFV_TASK_EXPIRY_DAYS", 7),
		PolicyPath:          getEnv("RFV_POLICY_PATH", ""),
		EmailEnabled:        emailEnabled,
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getIntEnv("SMTP_PORT", 587),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "RFV Copilot"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		DigestRecipients:    splitCSV(getEnv("DIGEST_RECIPIENTS", "")),
		DefaultPhoneRegion:  getEnv("DEFAULT_PHONE_REGION", "BR"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED is true")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.PostPurchaseDays < 1 {
		return nil, fmt.Errorf("RFV_POST_PURCHASE_DAYS must be at least 1")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string                { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string            { return c.JWTAccessSecret }
func (c *Config) GetHTTPAddr() string                   { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool                 { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string              { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool               { return c.CORSAllowCreds }
func (c *Config) GetRedisURL() string                   { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool             { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string             { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int              { return c.AsynqConcurrency }
func (c *Config) GetRecalculateInterval() time.Duration { return c.RecalculateInterval }
func (c *Config) GetAttributionInterval() time.Duration { return c.AttributionInterval }
func (c *Config) GetPostPurchaseDays() int              { return c.PostPurchaseDays }
func (c *Config) GetTaskExpiryDays() int                { return c.TaskExpiryDays }
func (c *Config) GetPolicyPath() string                 { return c.PolicyPath }
func (c *Config) GetEmailEnabled() bool                 { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string                   { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                      { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string               { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string               { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string              { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string           { return c.EmailFromAddress }
func (c *Config) GetDigestRecipients() []string         { return c.DigestRecipients }
func (c *Config) GetDefaultPhoneRegion() string         { return c.DefaultPhoneRegion }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
