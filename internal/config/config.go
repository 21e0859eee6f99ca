package config

import (
	"fmt"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
)

const (
	BackendSupabase = "supabase"
	BackendMemory   = "memory"

	DefaultAdminEmail = "mateuszniema1@gmail.com"
)

type Config struct {
	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Backend selects the remote backend implementation ("supabase" or "memory")
	Backend          string
	SeedDemoData     bool
	DevAdminPassword string

	// Database
	DatabaseURL string

	// Admin access
	AdminEmails []string
	AdminRole   string

	// Sessions
	SessionCookie string
	SessionSecret string

	// Contact mail
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	ContactEmail string

	// Server
	Port        string
	Environment string
	BaseURL     string
	LogLevel    string
}

func Load() (*Config, error) {
	cfg := &Config{
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "project-images"),

		Backend:          getEnv("BACKEND", BackendSupabase),
		SeedDemoData:     getEnv("SEED_DEMO_DATA", "true") == "true",
		DevAdminPassword: getEnv("DEV_ADMIN_PASSWORD", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AdminEmails: getEnvList("ADMIN_EMAILS", []string{DefaultAdminEmail}),
		AdminRole:   getEnv("ADMIN_ROLE", ""),

		SessionCookie: getEnv("SESSION_COOKIE", "portfolio_session"),
		SessionSecret: getEnv("SESSION_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),
		ContactEmail: getEnv("CONTACT_EMAIL", "mateuszkazmierczak109@gmail.com"),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.SupabasePublishableKey == "" {
			return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
		}
	case BackendMemory:
		if c.IsProduction() {
			return fmt.Errorf("BACKEND=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown BACKEND %q", c.Backend)
	}
	if len(c.AdminEmails) == 0 && c.AdminRole == "" {
		return fmt.Errorf("ADMIN_EMAILS or ADMIN_ROLE is required")
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether contact messages can be delivered over SMTP.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
