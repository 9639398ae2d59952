package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/astrafabric/astrafabric/app/models"
	"github.com/astrafabric/astrafabric/internal/pkg/database"
	"github.com/astrafabric/astrafabric/internal/pkg/s3archive"
)

var (
	archiveClient     *s3archive.Client
	archiveClientOnce sync.Once
	archiveClientErr  error
)

// getArchiveClient lazily initializes the shared S3 archive client.
func getArchiveClient() (*s3archive.Client, error) {
	archiveClientOnce.Do(func() {
		cfg, err := s3archive.LoadConfig()
		if err != nil {
			archiveClientErr = err
			return
		}
		if !cfg.IsEnabled() {
			archiveClientErr = errors.New("S3 archival is disabled")
			return
		}
		archiveClient, archiveClientErr = s3archive.NewClient(cfg)
	})
	return archiveClient, archiveClientErr
}

// processArchiveWebhookLogJob ships one webhook log row to the archive bucket
// and marks the row as archived.
func (q *Queue) processArchiveWebhookLogJob(ctx context.Context, job *Job) error {
	payload, err := ArchiveWebhookLogJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid archive_webhook_log payload: %w", err)
	}

	client, err := getArchiveClient()
	if err != nil {
		return err
	}

	db := database.GetDB()
	var logRow models.WebhookLog
	if err := db.First(&logRow, payload.WebhookLogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Row already gone; nothing to archive.
			log.Warnf("[JobQueue] Webhook log %d vanished before archival", payload.WebhookLogID)
			return nil
		}
		return err
	}
	if logRow.ArchivedAt != nil {
		return nil
	}

	result, err := client.ArchiveWebhookLog(ctx, &logRow)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := db.Model(&models.WebhookLog{}).
		Where("id = ?", logRow.ID).
		Update("archived_at", now).Error; err != nil {
		return fmt.Errorf("failed to mark webhook log %d archived: %w", logRow.ID, err)
	}

	log.Infof("[JobQueue] Archived webhook log %s to s3://%s/%s", logRow.UUID, result.Bucket, result.ObjectKey)
	return nil
}

// EnqueuePendingArchives scans for webhook logs past the retention window and
// enqueues an archival job per row. Called periodically by the manager.
func (q *Queue) EnqueuePendingArchives(retainDays int) error {
	if retainDays < 1 {
		retainDays = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retainDays)

	db := database.GetDB()
	var rows []models.WebhookLog
	if err := db.Select("id", "uuid").
		Where("archived_at IS NULL AND created_at < ?", cutoff).
		Limit(200).
		Find(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		payload := ArchiveWebhookLogJobPayload{WebhookLogID: row.ID, LogUUID: row.UUID}
		if _, err := q.EnqueueJob(JobTypeArchiveWebhookLog, payload.ToMap()); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		log.Infof("[JobQueue] Enqueued %d webhook logs for archival", len(rows))
	}
	return nil
}
