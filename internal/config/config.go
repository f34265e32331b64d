package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PresignExpiry time.Duration
}

// AuthConfig holds bearer token verification settings.
// Tokens are issued by an external identity provider; this service only verifies them.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// DocumentsConfig holds document handling policy.
type DocumentsConfig struct {
	MaxUploadBytes  int64
	DefaultPageSize int
	MaxPageSize     int
	// DirectDelete enables the owner hard-delete endpoint. When disabled,
	// owners must go through a DELETE change request.
	DirectDelete bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	Timezone    string
	LogLevel    string
	StoreDriver string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Auth        AuthConfig
	Documents   DocumentsConfig
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		Timezone:    getEnv("APP_TIMEZONE", "UTC"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", ""),
			Region:        getEnv("MINIO_REGION", "us-east-1"),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PresignExpiry: time.Duration(getEnvInt("MINIO_PRESIGN_EXPIRY_SEC", 900)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		Documents: DocumentsConfig{
			MaxUploadBytes:  int64(getEnvInt("DOCUMENTS_MAX_UPLOAD_BYTES", 10*1024*1024)),
			DefaultPageSize: getEnvInt("DOCUMENTS_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getEnvInt("DOCUMENTS_MAX_PAGE_SIZE", 100),
			DirectDelete:    getEnvBool("DOCUMENTS_DIRECT_DELETE", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
