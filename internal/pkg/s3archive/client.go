package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"

	"github.com/astrafabric/astrafabric/app/models"
)

// Client wraps the S3 client with archive-specific functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// UploadResult describes a completed archive upload
type UploadResult struct {
	ObjectKey string
	Bucket    string
	Size      int64
}

// NewClient creates a new S3 archive client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 archival is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible providers want path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[S3Archive] Successfully initialized S3 client for bucket: %s", cfg.GetBucketName())
	return client, nil
}

// testConnection tests the S3 connection by checking if the bucket exists
func (c *Client) testConnection() error {
	ctx := context.Background()
	bucketName := c.config.GetBucketName()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})

	if err != nil {
		// If bucket doesn't exist, try to create it (for development)
		if GetAppEnv() != "prod" {
			log.Warnf("[S3Archive] Bucket %s not found, attempting to create it", bucketName)
			return c.createBucket(bucketName)
		}
		return fmt.Errorf("bucket %s not accessible: %w", bucketName, err)
	}

	return nil
}

// createBucket creates a new S3 bucket (dev/staging only)
func (c *Client) createBucket(bucketName string) error {
	ctx := context.Background()

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}

	// For AWS regions other than us-east-1, we need to specify the location
	// constraint. S3-compatible providers ignore it.
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}

	_, err := c.s3Client.CreateBucket(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	log.Infof("[S3Archive] Successfully created bucket: %s", bucketName)
	return nil
}

// ArchiveWebhookLog serializes a webhook log row and uploads it as JSON.
func (c *Client) ArchiveWebhookLog(ctx context.Context, logRow *models.WebhookLog) (*UploadResult, error) {
	bucketName := c.config.GetBucketName()
	objectKey := c.config.GetObjectKey(logRow.Source, logRow.UUID, logRow.CreatedAt)

	body, err := json.Marshal(webhookLogExport{
		UUID:             logRow.UUID,
		Source:           logRow.Source,
		EventType:        logRow.EventType,
		PaymentReference: logRow.PaymentReference,
		Headers:          logRow.Headers,
		Payload:          logRow.Payload,
		Signature:        logRow.Signature,
		SignatureValid:   logRow.SignatureValid,
		ProcessingStatus: logRow.ProcessingStatus,
		ErrorMessage:     logRow.ErrorMessage,
		IPAddress:        logRow.IPAddress,
		CreatedAt:        logRow.CreatedAt,
		ArchivedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize webhook log %s: %w", logRow.UUID, err)
	}

	log.Infof("[S3Archive] Uploading webhook log %s -> s3://%s/%s (Size: %d bytes)",
		logRow.UUID, bucketName, objectKey, len(body))

	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"source":            logRow.Source,
			"payment-reference": logRow.PaymentReference,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload webhook log %s: %w", logRow.UUID, err)
	}

	return &UploadResult{
		ObjectKey: objectKey,
		Bucket:    bucketName,
		Size:      int64(len(body)),
	}, nil
}

// webhookLogExport is the archived JSON shape. Kept separate from the model
// so the archive format stays stable across schema changes.
type webhookLogExport struct {
	UUID             string    `json:"uuid"`
	Source           string    `json:"source"`
	EventType        string    `json:"event_type"`
	PaymentReference string    `json:"payment_reference"`
	Headers          string    `json:"headers"`
	Payload          string    `json:"payload"`
	Signature        string    `json:"signature"`
	SignatureValid   *bool     `json:"signature_valid"`
	ProcessingStatus string    `json:"processing_status"`
	ErrorMessage     string    `json:"error_message"`
	IPAddress        string    `json:"ip_address"`
	CreatedAt        time.Time `json:"created_at"`
	ArchivedAt       time.Time `json:"archived_at"`
}
