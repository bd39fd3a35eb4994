package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver  string
	DSN       string
	JWTSecret string
	AppPort   string
	PublicURL string

	Location         *time.Location
	WorkdayStart     string
	LateGrace        time.Duration
	SignupOrg        string
	SignupNeedsAdmin bool

	AdminEmail    string
	AdminPassword string

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	StorageDriver  string
	StorageDir     string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	DocumentURLTTL time.Duration
	MaxUploadBytes int64

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
}

func Load() Config {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	} else {
		log.Println("✅ .env file loaded successfully!")
	}

	cfg := FromEnv()
	if cfg.DSN == "" {
		log.Fatal("❌ DB_DSN not set in environment")
	}
	return cfg
}

// FromEnv builds a Config from the current environment, applying defaults.
func FromEnv() Config {
	cfg := Config{
		DBDriver:         strings.ToLower(envOr("DB_DRIVER", "mysql")),
		DSN:              os.Getenv("DB_DSN"),
		JWTSecret:        envOr("JWT_SECRET", "dev-secret-only"),
		AppPort:          envOr("APP_PORT", "8080"),
		PublicURL:        strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
		WorkdayStart:     envOr("WORKDAY_START", "09:00"),
		LateGrace:        time.Duration(envInt("LATE_GRACE_MINUTES", 15)) * time.Minute,
		SignupOrg:        envOr("SIGNUP_ORG", "default"),
		SignupNeedsAdmin: envBool("SIGNUP_REQUIRES_APPROVAL", true),
		AdminEmail:       envOr("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:    envOr("ADMIN_PASSWORD", "admin12345"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisChannel:     envOr("REDIS_CHANNEL", "hrdesk:changes"),
		StorageDriver:    strings.ToLower(envOr("STORAGE_DRIVER", "local")),
		StorageDir:       envOr("STORAGE_DIR", "./data/objects"),
		MinioEndpoint:    os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:   os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:   os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:      envOr("MINIO_BUCKET", "hrdesk-documents"),
		MinioUseSSL:      envBool("MINIO_USE_SSL", false),
		DocumentURLTTL:   envDuration("DOCUMENT_URL_TTL", 15*time.Minute),
		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_MB", 20)) << 20,
		LLMBaseURL:       strings.TrimRight(envOr("LLM_BASE_URL", "https://api.openai.com/v1"), "/"),
		LLMAPIKey:        os.Getenv("LLM_API_KEY"),
		LLMModel:         envOr("LLM_MODEL", "gpt-4o-mini"),
	}

	tz := envOr("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("⚠️ invalid TIMEZONE %q, falling back to UTC: %v", tz, err)
		loc = time.UTC
	}
	cfg.Location = loc

	if _, err := time.Parse("15:04", cfg.WorkdayStart); err != nil {
		log.Printf("⚠️ invalid WORKDAY_START %q, using 09:00", cfg.WorkdayStart)
		cfg.WorkdayStart = "09:00"
	}

	switch cfg.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		log.Printf("⚠️ unknown DB_DRIVER %q, using mysql", cfg.DBDriver)
		cfg.DBDriver = "mysql"
	}

	return cfg
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("⚠️ invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ invalid %s=%q, using %t", key, v, def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("⚠️ invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
