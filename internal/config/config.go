package config

import (
	"os"
	"strconv"
)

// StoreConfig bounds the in-memory temporary document store.
type StoreConfig struct {
	TTLSec     int
	MaxEntries int
}

// FetchConfig holds settings for remote document ingestion.
type FetchConfig struct {
	TimeoutSec   int
	MaxBodyBytes int64
}

// ConvertConfig holds settings for the external PDF converter.
type ConvertConfig struct {
	Binary     string
	TimeoutSec int
}

// DatabaseConfig holds PostgreSQL connection settings for the ingestion audit
// log. Leaving Host empty disables the audit feature entirely.
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

// MinIOConfig holds object storage settings used by document publication.
type MinIOConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	Bucket           string
	UseSSL           bool
	PresignExpirySec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port string

	// DownloadBaseURL is the externally resolvable address embedded in
	// download links, e.g. "http://127.0.0.1:8080".
	DownloadBaseURL string

	// DocumentsDir is the working directory for on-disk document tools.
	DocumentsDir string

	Store    StoreConfig
	Fetch    FetchConfig
	Convert  ConvertConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port:            getEnv("PORT", "8080"),
		DownloadBaseURL: getEnv("DOWNLOAD_BASE_URL", "http://127.0.0.1:8080"),
		DocumentsDir:    getEnv("DOCUMENTS_DIR", "."),
		Store: StoreConfig{
			TTLSec:     getEnvInt("STORE_TTL_SEC", 3600),
			MaxEntries: getEnvInt("STORE_MAX_ENTRIES", 1024),
		},
		Fetch: FetchConfig{
			TimeoutSec:   getEnvInt("FETCH_TIMEOUT_SEC", 30),
			MaxBodyBytes: int64(getEnvInt("FETCH_MAX_BODY_BYTES", 50<<20)),
		},
		Convert: ConvertConfig{
			Binary:     getEnv("PDF_CONVERTER_BIN", "soffice"),
			TimeoutSec: getEnvInt("PDF_CONVERT_TIMEOUT_SEC", 120),
		},
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
			Endpoint:         getEnv("MINIO_ENDPOINT", ""),
			AccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:        getEnv("MINIO_SECRET_KEY", ""),
			Bucket:           getEnv("MINIO_BUCKET", ""),
			UseSSL:           getEnvBool("MINIO_USE_SSL", false),
			PresignExpirySec: getEnvInt("MINIO_PRESIGN_EXPIRY_SEC", 3600),
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
