package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	SMS      SMSConfig
	Sweep    SweepConfig
	Dispatch DispatchConfig
	Template TemplateConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// SMSConfig holds SMS gateway configuration
type SMSConfig struct {
	APIURL      string
	APIKey      string
	SenderID    string
	CountryCode string // prepended during phone normalization
}

// SweepConfig holds escalation sweep scheduling configuration
type SweepConfig struct {
	Schedule string // cron spec, e.g. "@every 1h" or "0 * * * *"
}

// DispatchConfig holds notification fan-out configuration
type DispatchConfig struct {
	Workers     int           // bounded pool size for concurrent sends
	SendTimeout time.Duration // per recipient/channel send deadline
}

// TemplateConfig holds template cache configuration
type TemplateConfig struct {
	CacheTTL time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("PORT", getEnv("SERVER_PORT", "8080")),
		},
		SMS: SMSConfig{
			APIURL:      getEnv("SMS_API_URL", "https://sms.arkesel.com/sms/api"),
			APIKey:      os.Getenv("SMS_API_KEY"),
			SenderID:    getEnv("SMS_SENDER_ID", "GunCrime"),
			CountryCode: getEnv("SMS_COUNTRY_CODE", "233"),
		},
		Sweep: SweepConfig{
			Schedule: getEnv("SWEEP_SCHEDULE", "@every 1h"),
		},
		Dispatch: DispatchConfig{
			Workers:     getEnvInt("DISPATCH_WORKERS", 8),
			SendTimeout: time.Duration(getEnvInt("DISPATCH_SEND_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Template: TemplateConfig{
			CacheTTL: time.Duration(getEnvInt("TEMPLATE_CACHE_TTL_SECONDS", 3600)) * time.Second,
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
