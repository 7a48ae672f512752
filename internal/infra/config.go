package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Job store backends.
const (
	JobStoreFile     = "file"
	JobStorePostgres = "postgres"
	JobStoreRedis    = "redis"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	ServiceName string

	JobStore       string
	JobDBFile      string
	DatabaseURL    string
	RedisURL       string
	RedisKeyPrefix string

	DownloadDir string
	TempDir     string

	TencentSecretID  string
	TencentSecretKey string
	TencentRegion    string
	TencentEndpoint  string

	DefaultResultFormat string
	DefaultEnablePBR    bool
	MaxImageBytes       int64
	MaxUploadBytes      int64

	ProviderTimeout      time.Duration
	ImageFetchTimeout    time.Duration
	AssetDownloadTimeout time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	CORSAllowedOrigins []string
	DefaultLocale      string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "5000"),
		ServiceName: getEnv("SERVICE_NAME", "hunyuan3d"),

		JobStore:       strings.ToLower(getEnv("JOB_STORE", JobStoreFile)),
		JobDBFile:      getEnv("JOB_DB_FILE", ".job_db.json"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "hunyuan3d:"),

		DownloadDir: getEnv("DOWNLOAD_DIR", "downloads"),
		TempDir:     os.Getenv("TEMP_DIR"),

		TencentSecretID:  os.Getenv("TENCENTCLOUD_SECRET_ID"),
		TencentSecretKey: os.Getenv("TENCENTCLOUD_SECRET_KEY"),
		TencentRegion:    getEnv("TENCENTCLOUD_REGION", "ap-guangzhou"),
		TencentEndpoint:  getEnv("TENCENTCLOUD_ENDPOINT", "ai3d.tencentcloudapi.com"),

		DefaultResultFormat: strings.ToUpper(getEnv("DEFAULT_RESULT_FORMAT", "GLB")),
		DefaultEnablePBR:    getEnvBool("DEFAULT_ENABLE_PBR", true),
		MaxImageBytes:       int64(getEnvInt("MAX_IMAGE_MB", 10)) << 20,
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_MB", 12)) << 20,

		ProviderTimeout:      time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30)),
		ImageFetchTimeout:    time.Second * time.Duration(getEnvInt("IMAGE_FETCH_TIMEOUT_SECONDS", 60)),
		AssetDownloadTimeout: time.Second * time.Duration(getEnvInt("ASSET_DOWNLOAD_TIMEOUT_SECONDS", 300)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 360)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
	}

	switch cfg.JobStore {
	case JobStoreFile:
		if strings.TrimSpace(cfg.JobDBFile) == "" {
			return nil, fmt.Errorf("JOB_DB_FILE is required for the file job store")
		}
	case JobStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres job store")
		}
	case JobStoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for the redis job store")
		}
	default:
		return nil, fmt.Errorf("unsupported JOB_STORE %q", cfg.JobStore)
	}

	if cfg.MaxImageBytes <= 0 || cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_MB and MAX_UPLOAD_MB must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	return ParseBool(os.Getenv(key), fallback)
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseBool accepts the usual spellings of a boolean flag and falls back to
// def for empty or unrecognized input.
func ParseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}
