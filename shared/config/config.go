package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret string

	// Super Admin
	SuperAdminEmail    string
	SuperAdminPassword string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	// Email Configuration
	EmailFrom     string
	EmailFromName string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPUseTLS    bool

	// Rate Limiting
	RateLimitMaxRequests       string
	RateLimitTimeWindowSeconds string

	// Frontend URL (invitation links)
	FrontendURL string

	// Admin Service
	AdminServiceURL string
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("✅ Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg = &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "launchpulse"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-this"),

		// Super Admin
		SuperAdminEmail:    getEnv("SUPER_ADMIN_EMAIL", "admin@launchpulse.io"),
		SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", "admin123"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		// Email Configuration
		EmailFrom:     getEnv("EMAIL_FROM", "noreply@launchpulse.io"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "LaunchPulse"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.example.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:    getEnvAsBool("SMTP_USE_TLS", false),

		// Rate Limiting
		RateLimitMaxRequests:       getEnv("RATE_LIMIT_MAX_REQUESTS", "100"),
		RateLimitTimeWindowSeconds: getEnv("RATE_LIMIT_TIME_WINDOW_SECONDS", "60"),

		// Frontend URL
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Admin Service
		AdminServiceURL: getEnv("ADMIN_SERVICE_URL", "http://localhost:8001"),
	}

	log.Println("✅ Configuration loaded successfully")
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// GetRateLimitMaxRequests returns the rate limit max requests as integer
func (c *Config) GetRateLimitMaxRequests() int {
	return parseIntOr(c.RateLimitMaxRequests, 100)
}

// GetRateLimitTimeWindowSeconds returns the rate limit window as integer
func (c *Config) GetRateLimitTimeWindowSeconds() int {
	return parseIntOr(c.RateLimitTimeWindowSeconds, 60)
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool gets environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseIntOr(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return defaultValue
}
