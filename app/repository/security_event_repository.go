package repository

import (
	"time"

	"github.com/astrafabric/astrafabric/app/models"
	"gorm.io/gorm"
)

// securityEventRepository implements the SecurityEventRepository interface
type securityEventRepository struct {
	db *gorm.DB
}

// NewSecurityEventRepository creates a new security event repository instance
func NewSecurityEventRepository(db *gorm.DB) SecurityEventRepository {
	return &securityEventRepository{db: db}
}

// GetByCustomerID retrieves a customer's events with pagination, newest first
func (r *securityEventRepository) GetByCustomerID(customerID uint, offset, limit int) ([]models.SecurityEvent, error) {
	var events []models.SecurityEvent
	err := r.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

// CountByCustomerID returns the total number of events for a customer
func (r *securityEventRepository) CountByCustomerID(customerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SecurityEvent{}).
		Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

// CountUnresolvedByCustomerID returns the number of open events for a customer
func (r *securityEventRepository) CountUnresolvedByCustomerID(customerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SecurityEvent{}).
		Where("customer_id = ? AND is_resolved = ?", customerID, false).Count(&count).Error
	return count, err
}

// SeverityBreakdown returns the event count per severity for a customer
func (r *securityEventRepository) SeverityBreakdown(customerID uint) (map[string]int64, error) {
	type row struct {
		Severity string
		Total    int64
	}
	var rows []row
	err := r.db.Model(&models.SecurityEvent{}).
		Select("severity, COUNT(*) as total").
		Where("customer_id = ?", customerID).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]int64, len(rows))
	for _, rw := range rows {
		breakdown[rw.Severity] = rw.Total
	}
	return breakdown, nil
}

// Resolve marks an event as resolved with optional notes
func (r *securityEventRepository) Resolve(id uint, notes string, at time.Time) error {
	return r.db.Model(&models.SecurityEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_resolved":      true,
			"resolved_at":      at,
			"resolution_notes": notes,
		}).Error
}
