package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	AppName string
	Port    int

	ClassifierPort int

	DBURL string

	JWTSecret     string
	JWTAlgorithm  string
	JWTExpMinutes int

	AdminEmail    string
	AdminPassword string

	ClassifierURL string

	StoragePath           string
	MaxUploadBytes        int64
	PhotoBackend          string
	PhotoCleanupOnFailure bool

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AdminCacheTTL time.Duration
	// AdminCacheLocal enables the in-process listing cache when Redis is
	// not configured. Only safe with a single API replica.
	AdminCacheLocal bool

	OTLPEndpoint       string
	CORSAllowedOrigins []string
}

const (
	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

// Load reads an optional .env file and then the process environment.
func Load() Config {
	// a missing .env is fine, real env always wins
	_ = godotenv.Load()

	return Config{
		Env:            getEnv("APP_ENV", "dev"),
		AppName:        getEnv("APP_NAME", "photo-classification-api"),
		Port:           getEnvInt("PORT", 8080),
		ClassifierPort: getEnvInt("CLASSIFIER_PORT", 8001),

		DBURL: getEnv("DATABASE_URL", buildDBURL()),

		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		JWTAlgorithm:  getEnv("JWT_ALGORITHM", "HS256"),
		JWTExpMinutes: getEnvInt("JWT_EXP_MINUTES", 60),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		ClassifierURL: strings.TrimRight(getEnv("CLASSIFIER_URL", "http://classifier:8001"), "/"),

		StoragePath:           getEnv("STORAGE_PATH", "/data/photos"),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_BYTES", 5*1024*1024)),
		PhotoBackend:          getEnv("PHOTO_BACKEND", PhotoBackendLocal),
		PhotoCleanupOnFailure: getEnvBool("PHOTO_CLEANUP_ON_FAILURE", false),

		S3Bucket:    getEnv("S3_BUCKET", "photos"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		AdminCacheTTL: time.Duration(getEnvInt("ADMIN_CACHE_TTL_SECONDS", 30)) * time.Second,

		AdminCacheLocal: getEnvBool("ADMIN_CACHE_LOCAL", false),

		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpMinutes) * time.Minute
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "db")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	pass := getEnv("DB_PASSWORD", "postgres")
	name := getEnv("DB_NAME", "photo_platform")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an integer, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
