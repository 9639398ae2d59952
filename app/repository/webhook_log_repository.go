package repository

import (
	"github.com/astrafabric/astrafabric/app/models"
	"gorm.io/gorm"
)

// webhookLogRepository implements the WebhookLogRepository interface. Rows
// are created by the webhook receiver; this repository only reads them for
// the admin audit views.
type webhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a new webhook log repository instance
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

// GetByID retrieves a webhook log entry by its ID
func (r *webhookLogRepository) GetByID(id uint) (*models.WebhookLog, error) {
	var logRow models.WebhookLog
	err := r.db.First(&logRow, id).Error
	if err != nil {
		return nil, err
	}
	return &logRow, nil
}

// GetByReference retrieves all log entries for a payment reference
func (r *webhookLogRepository) GetByReference(reference string) ([]models.WebhookLog, error) {
	var logs []models.WebhookLog
	err := r.db.Where("payment_reference = ?", reference).
		Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// List retrieves webhook log entries with pagination
func (r *webhookLogRepository) List(offset, limit int) ([]models.WebhookLog, error) {
	var logs []models.WebhookLog
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, err
}

// ListBySource retrieves log entries for a single gateway with pagination
func (r *webhookLogRepository) ListBySource(source string, offset, limit int) ([]models.WebhookLog, error) {
	var logs []models.WebhookLog
	err := r.db.Where("source = ?", source).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, err
}

// Count returns the total number of webhook log entries
func (r *webhookLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.WebhookLog{}).Count(&count).Error
	return count, err
}

// CountFailed returns the number of entries that ended in failure or error
func (r *webhookLogRepository) CountFailed() (int64, error) {
	var count int64
	err := r.db.Model(&models.WebhookLog{}).
		Where("processing_status IN ?", []string{models.WebhookProcessingFailed, models.WebhookProcessingError}).
		Count(&count).Error
	return count, err
}
