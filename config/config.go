package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported model artifact formats
const (
	ModelFormatXGBoost  = "xgboost"
	ModelFormatLightGBM = "lightgbm"
)

// Config holds all application configuration
type Config struct {
	Port               string
	GoEnv              string
	DBDriver           string
	DatabaseURL        string
	MySQLUser          string
	MySQLPassword      string
	MySQLHost          string
	MySQLPort          string
	MySQLDatabase      string
	ModelPath          string
	ModelFormat        string
	ModelCacheTTL      time.Duration
	ModelS3Bucket      string
	ModelS3Key         string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	CORSAllowedOrigins []string
	RedisURL           string
	PredictRateLimit   int
	LogLevel           string
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In hosted environments variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	return FromEnv()
}

// FromEnv builds and validates a Config from the current environment only
func FromEnv() (*Config, error) {
	cacheTTL, err := time.ParseDuration(getEnv("MODEL_CACHE_TTL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("MODEL_CACHE_TTL is not a valid duration: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("PREDICT_RATE_LIMIT", "0"))
	if err != nil {
		return nil, fmt.Errorf("PREDICT_RATE_LIMIT must be an integer: %w", err)
	}

	config := &Config{
		Port:               getEnv("PORT", "3000"),
		GoEnv:              getEnv("GO_ENV", "development"),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MySQLUser:          getEnv("MYSQLUSER", ""),
		MySQLPassword:      getEnv("MYSQLPASSWORD", ""),
		MySQLHost:          getEnv("MYSQLHOST", "localhost"),
		MySQLPort:          getEnv("MYSQLPORT", "3306"),
		MySQLDatabase:      getEnv("MYSQL_DATABASE", ""),
		ModelPath:          getEnv("MODEL_PATH", "model_xgboost.bin"),
		ModelFormat:        strings.ToLower(getEnv("MODEL_FORMAT", ModelFormatXGBoost)),
		ModelCacheTTL:      cacheTTL,
		ModelS3Bucket:      getEnv("MODEL_S3_BUCKET", ""),
		ModelS3Key:         getEnv("MODEL_S3_KEY", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RedisURL:           getEnv("REDIS_URL", ""),
		PredictRateLimit:   rateLimit,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL:
		if c.DatabaseURL == "" && c.MySQLDatabase == "" {
			return fmt.Errorf("DATABASE_URL or MYSQL_DATABASE is required for the mysql driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.ModelFormat {
	case ModelFormatXGBoost, ModelFormatLightGBM:
	default:
		return fmt.Errorf("unsupported MODEL_FORMAT %q", c.ModelFormat)
	}

	if c.ModelCacheTTL < 0 {
		return fmt.Errorf("MODEL_CACHE_TTL must not be negative")
	}
	if c.PredictRateLimit < 0 {
		return fmt.Errorf("PREDICT_RATE_LIMIT must not be negative")
	}
	if (c.ModelS3Bucket == "") != (c.ModelS3Key == "") {
		return fmt.Errorf("MODEL_S3_BUCKET and MODEL_S3_KEY must be set together")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetDatabaseURL returns the DSN for the configured driver.
// For mysql without DATABASE_URL it is assembled from the MYSQL* variables.
func (c *Config) GetDatabaseURL() string {
	if c.DatabaseURL != "" || c.DBDriver != DriverMySQL {
		return c.DatabaseURL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDatabase)
}

// HasRemoteModel returns true when the model artifact should be fetched from S3
func (c *Config) HasRemoteModel() bool {
	return c.ModelS3Bucket != "" && c.ModelS3Key != ""
}

// GetConfig returns the process-wide configuration
func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the process-wide configuration (also used by tests)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
