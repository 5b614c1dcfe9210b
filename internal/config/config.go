package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Metadata store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Blob store drivers.
const (
	StorageLocal = "local"
	StorageMinIO = "minio"
)

// DefaultMaxUploadBytes is the upload ceiling used when MAX_UPLOAD_BYTES is unset (10 MiB).
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

// DatabaseConfig holds metadata store connection settings.
// Path is used by the sqlite driver, the remaining connection fields by postgres.
type DatabaseConfig struct {
	Driver             string
	Path               string
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
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects the blob store and the upload limits.
type StorageConfig struct {
	Driver         string
	UploadDir      string
	MaxUploadBytes int64
	MinIO          MinIOConfig
}

// ReconcileConfig controls the orphaned blob sweep.
// An Interval of zero disables the periodic job; the CLI command still works.
type ReconcileConfig struct {
	Interval    time.Duration
	GracePeriod time.Duration
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level    string
	Format   string
	Location string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Env              string
	Port             string
	CORSAllowOrigins string
	Database         DatabaseConfig
	Storage          StorageConfig
	Reconcile        ReconcileConfig
	Log              LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Env:              getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		Database: DatabaseConfig{
			Driver:             strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:               getEnv("DB_PATH", "./data/documents.db"),
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
		Storage: StorageConfig{
			Driver:         strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		Reconcile: ReconcileConfig{
			Interval:    getEnvDuration("RECONCILE_INTERVAL", 0),
			GracePeriod: getEnvDuration("RECONCILE_GRACE_PERIOD", time.Hour),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Format:   getEnv("LOG_FORMAT", "json"),
			Location: getEnv("TZ_LOCATION", "UTC"),
		},
	}
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// BodyLimit is the largest request body fiber accepts: the upload ceiling plus
// headroom for multipart boundaries and headers.
func (c *AppConfig) BodyLimit() int {
	return int(c.Storage.MaxUploadBytes) + 1024*1024
}

// TimeLocation resolves the configured time zone, falling back to UTC.
func (c LogConfig) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
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

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil && i > 0 {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d >= 0 {
			return d
		}
	}
	return def
}
