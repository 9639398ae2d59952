package s3archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/astrafabric/astrafabric/internal/pkg/env"
)

// Config holds S3 archival configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
	// RetainDays is how long webhook logs stay in MySQL before they are
	// shipped to the archive bucket.
	RetainDays int
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	retainDays := 7
	if v := env.GetEnv("S3_ARCHIVE_RETAIN_DAYS", ""); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &retainDays); err != nil || retainDays < 1 {
			retainDays = 7
		}
	}

	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_ARCHIVE_ENABLED", "false") == "true",
		RetainDays:      retainDays,
	}

	// Validate required fields if archival is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 archival is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 archival is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 archival is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if S3 archival is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// GetObjectKey generates a standardized S3 object key for a webhook log export
func (c *Config) GetObjectKey(source, logUUID string, createdAt time.Time) string {
	// Format: webhook-logs/<source>/YYYY/MM/UUID.json
	return fmt.Sprintf("webhook-logs/%s/%04d/%02d/%s.json", source, createdAt.Year(), int(createdAt.Month()), logUUID)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}

// GetBucketName returns the bucket name as configured (no automatic prefixing)
func (c *Config) GetBucketName() string {
	return c.BucketName
}
