package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres  = "postgres"
	StoreBackendPostgREST = "postgrest"
	StoreBackendMemory    = "memory"

	StorageBackendSupabase = "supabase"
	StorageBackendMinio    = "minio"

	ImageProviderFal    = "fal"
	ImageProviderGemini = "gemini"
)

type Config struct {
	// Image model
	ImageProvider string
	FalAPIKey     string
	FalBaseURL    string
	FalModel      string
	FalTimeout    time.Duration
	GeminiAPIKey  string
	GeminiModel   string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Persistence
	StoreBackend string
	DatabaseURL  string

	// Object storage
	StorageBackend string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
	MinioRegion    string

	// Edit lock
	RedisURL    string
	EditLockTTL time.Duration

	MaxImageBytes int64

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		ImageProvider: getEnv("IMAGE_PROVIDER", ImageProviderFal),
		FalAPIKey:     getEnv("FAL_KEY", ""),
		FalBaseURL:    getEnv("FAL_BASE_URL", "https://fal.run"),
		FalModel:      getEnv("FAL_MODEL", "fal-ai/gemini-25-flash-image"),
		FalTimeout:    time.Duration(getEnvInt("FAL_TIMEOUT_SECONDS", 120)) * time.Second,
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "project-images"),

		StoreBackend: getEnv("STORE_BACKEND", StoreBackendPostgres),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageBackendSupabase),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "project-images"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		MinioRegion:    getEnv("MINIO_REGION", ""),

		RedisURL:    getEnv("REDIS_URL", ""),
		EditLockTTL: time.Duration(getEnvInt("EDIT_LOCK_TTL_SECONDS", 300)) * time.Second,

		MaxImageBytes: int64(getEnvInt("MAX_IMAGE_BYTES", 20<<20)),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}

	switch c.ImageProvider {
	case ImageProviderFal:
		if c.FalAPIKey == "" {
			return fmt.Errorf("FAL_KEY is required")
		}
	case ImageProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown IMAGE_PROVIDER %q", c.ImageProvider)
	}

	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreBackendPostgREST:
		if c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required for the postgrest store")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.StorageBackend {
	case StorageBackendSupabase:
	case StorageBackendMinio:
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for minio storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	return nil
}

// IsDevelopment reports whether development-only routes may be served.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// StorageKey is the key used to upload objects to Supabase Storage. The
// service role key wins when present since uploads happen server side.
func (c *Config) StorageKey() string {
	if c.SupabaseServiceRoleKey != "" {
		return c.SupabaseServiceRoleKey
	}
	return c.SupabasePublishableKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
