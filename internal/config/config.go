package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendSupabase = "supabase"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

// MaxPresignTTL is the longest lifetime a presigned URL may carry.
const MaxPresignTTL = 15 * time.Minute

type Config struct {
	// Server
	Port            string        `env:"PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Identity
	JWTSecret string `env:"JWT_SECRET"`

	// Metadata store
	MetadataBackend  string `env:"METADATA_BACKEND" envDefault:"postgres"`
	DatabaseURL      string `env:"DATABASE_URL"`
	DynamoDBTable    string `env:"DYNAMODB_TABLE" envDefault:"photos"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`

	// Blob store
	BlobBackend        string        `env:"BLOB_BACKEND" envDefault:"supabase"`
	SupabaseURL        string        `env:"SUPABASE_URL"`
	SupabaseServiceKey string        `env:"SUPABASE_SERVICE_KEY"`
	OriginalsBucket    string        `env:"ORIGINALS_BUCKET" envDefault:"photos-originals"`
	EditedBucket       string        `env:"EDITED_BUCKET" envDefault:"photos-edited"`
	S3Endpoint         string        `env:"S3_ENDPOINT"`
	S3Region           string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID      string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey  string        `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle     bool          `env:"S3_USE_PATH_STYLE" envDefault:"false"`
	PresignTTL         time.Duration `env:"PRESIGN_TTL" envDefault:"15m"`

	// Event feed
	EventsEnabled bool `env:"EVENTS_ENABLED" envDefault:"false"`

	// Upload rate limiting; disabled when RedisURL is empty
	RedisURL         string        `env:"REDIS_URL"`
	UploadRateLimit  int           `env:"UPLOAD_RATE_LIMIT" envDefault:"30"`
	UploadRateWindow time.Duration `env:"UPLOAD_RATE_WINDOW" envDefault:"1m"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	loadEnvFile(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
	}
}

func (c *Config) normalize() {
	c.MetadataBackend = strings.ToLower(strings.TrimSpace(c.MetadataBackend))
	c.BlobBackend = strings.ToLower(strings.TrimSpace(c.BlobBackend))
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretAccessKey = strings.TrimSpace(c.S3SecretAccessKey)

	origins := c.AllowedOrigins[:0]
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.MetadataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres metadata backend")
		}
	case BackendDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb metadata backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown METADATA_BACKEND %q", c.MetadataBackend)
	}

	switch c.BlobBackend {
	case BackendSupabase:
		if err := c.requireSupabase("the supabase blob backend"); err != nil {
			return err
		}
	case BackendS3:
		if c.S3Region == "" {
			return fmt.Errorf("S3_REGION is required for the s3 blob backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	if c.EventsEnabled {
		if err := c.requireSupabase("EVENTS_ENABLED"); err != nil {
			return err
		}
	}
	if c.OriginalsBucket == "" || c.EditedBucket == "" {
		return fmt.Errorf("ORIGINALS_BUCKET and EDITED_BUCKET are required")
	}
	if c.OriginalsBucket == c.EditedBucket {
		return fmt.Errorf("ORIGINALS_BUCKET and EDITED_BUCKET must differ")
	}
	if c.PresignTTL <= 0 || c.PresignTTL > MaxPresignTTL {
		return fmt.Errorf("PRESIGN_TTL must be positive and at most %s", MaxPresignTTL)
	}
	if c.RedisURL != "" && (c.UploadRateLimit <= 0 || c.UploadRateWindow <= 0) {
		return fmt.Errorf("UPLOAD_RATE_LIMIT and UPLOAD_RATE_WINDOW must be positive when REDIS_URL is set")
	}
	return nil
}

func (c *Config) requireSupabase(what string) error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required for %s", what)
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required for %s", what)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
