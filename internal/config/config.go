package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig collects everything the server needs at startup.
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabasePath  string
	SessionSecret string
	GinMode       string
	CacheTTL      time.Duration

	LogPath       string
	LogLevel      string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	UploadDir     string
	UploadURLPath string

	AdminUserName string
	AdminPassword string
}

// Load reads the application configuration from environment variables,
// filling in safe defaults for anything missing. A .env file in the working
// directory is applied first when present.
func Load() AppConfig {
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "inkpress.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "inkpress-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	cacheTTL := durationOr("CACHE_TTL", 30*time.Minute)

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		DatabasePath:  databasePath,
		SessionSecret: sessionSecret,
		GinMode:       ginMode,
		CacheTTL:      cacheTTL,

		LogPath:       strings.TrimSpace(os.Getenv("LOG_PATH")),
		LogLevel:      logLevel,
		LogMaxSizeMB:  intOr("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: intOr("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: intOr("LOG_MAX_AGE_DAYS", 7),

		MinioEndpoint:  strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")),
		MinioAccessKey: strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY")),
		MinioSecretKey: strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY")),
		MinioBucket:    stringOr("MINIO_BUCKET", "inkpress-media"),
		MinioUseSSL:    boolOr("MINIO_USE_SSL", false),

		UploadDir:     stringOr("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath: stringOr("UPLOAD_URL_PATH", "/static/uploads"),

		AdminUserName: strings.TrimSpace(os.Getenv("ADMIN_USER_NAME")),
		AdminPassword: strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
	}
}

func stringOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func intOr(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func boolOr(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
