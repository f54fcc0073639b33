package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGCS   = "gcs"
	BackendMinio = "minio"
)

// Config is loaded once at startup and never mutated afterwards. Rotating
// the JWT secret or any credential requires a restart.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	PublicURL   string
	LogLevel    string

	AssetBackend       string
	GCSBucketName      string
	GCSCredentialsFile string
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	MinioPublicURL     string

	StagingDir         string
	MaxImageDimension  int
	MaxImagePixels     int
	UploadTimeout      time.Duration
	UploadRetries      int
	UploadConcurrency  int
	MaxImagesPerRecipe int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load reads an optional .env file and the process environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		Port:        getEnv("PORT", "3000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3000"), "/"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		AssetBackend:       strings.ToLower(getEnv("ASSET_BACKEND", BackendGCS)),
		GCSBucketName:      os.Getenv("GCS_BUCKET_NAME"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		MinioEndpoint:      os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:        os.Getenv("MINIO_BUCKET"),
		MinioPublicURL:     strings.TrimRight(os.Getenv("MINIO_PUBLIC_URL"), "/"),

		StagingDir: getEnv("STAGING_DIR", os.TempDir()),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
	}

	var err error
	if cfg.MinioUseSSL, err = getBool("MINIO_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.MaxImageDimension, err = getInt("MAX_IMAGE_DIMENSION", 4000); err != nil {
		return Config{}, err
	}
	if cfg.MaxImagePixels, err = getInt("MAX_IMAGE_PIXELS", 50_000_000); err != nil {
		return Config{}, err
	}
	if cfg.UploadTimeout, err = getDuration("UPLOAD_TIMEOUT", 50*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.UploadRetries, err = getInt("UPLOAD_RETRIES", 3); err != nil {
		return Config{}, err
	}
	if cfg.UploadConcurrency, err = getInt("UPLOAD_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if cfg.MaxImagesPerRecipe, err = getInt("MAX_IMAGES_PER_RECIPE", 10); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	switch c.AssetBackend {
	case BackendGCS:
		if c.GCSBucketName == "" {
			return errors.New("config: GCS_BUCKET_NAME is required for the gcs backend")
		}
	case BackendMinio:
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" || c.MinioBucket == "" {
			return errors.New("config: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required for the minio backend")
		}
	default:
		return fmt.Errorf("config: unknown ASSET_BACKEND %q", c.AssetBackend)
	}
	if c.UploadRetries < 1 {
		return errors.New("config: UPLOAD_RETRIES must be at least 1")
	}
	if c.UploadConcurrency < 1 {
		return errors.New("config: UPLOAD_CONCURRENCY must be at least 1")
	}
	if c.MaxImagePixels < 0 {
		return errors.New("config: MAX_IMAGE_PIXELS must not be negative")
	}
	if c.MaxImagesPerRecipe < 0 {
		return errors.New("config: MAX_IMAGES_PER_RECIPE must not be negative")
	}
	return nil
}

// SMTPEnabled reports whether verification emails can be delivered.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
