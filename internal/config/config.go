package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/labstack/gommon/random"
)

// Backend selects the persistence adapter.
const (
	BackendFile  = "file"
	BackendMinio = "minio"
)

// Config is assembled from environment variables with development
// defaults. Only STORAGE_BACKEND=minio requires extra settings.
type Config struct {
	Port      int
	JWTSecret string

	Backend string
	DataDir string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Seed credentials, applied only when the users collection is empty.
	SeedAdminPassword    string
	SeedOperatorPassword string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 8080,
		Backend:              envOr("STORAGE_BACKEND", BackendFile),
		DataDir:              envOr("DATA_DIR", "data"),
		MinioEndpoint:        envOr("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:       envOr("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:       envOr("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:          envOr("MINIO_BUCKET", "stockroom"),
		MinioUseSSL:          os.Getenv("MINIO_USE_SSL") == "true",
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		SeedAdminPassword:    os.Getenv("SEED_ADMIN_PASSWORD"),
		SeedOperatorPassword: os.Getenv("SEED_OPERATOR_PASSWORD"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", dbStr, err)
		}
		cfg.RedisDB = db
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: JWT_SECRET not set, using generated secret; tokens will not survive restarts")
	}

	if cfg.Backend != BackendFile && cfg.Backend != BackendMinio {
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want %q or %q)", cfg.Backend, BackendFile, BackendMinio)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
