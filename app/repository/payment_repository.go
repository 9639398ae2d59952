package repository

import (
	"time"

	"github.com/astrafabric/astrafabric/app/models"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface. Payment rows
// are written exclusively through the payments service; this repository is
// the read side for dashboards, admin views and the status API.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByID retrieves a payment by its ID
func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByReference retrieves a payment by its local reference
func (r *paymentRepository) GetByReference(reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("reference = ?", reference).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByCustomerID retrieves a customer's payments with pagination
func (r *paymentRepository) GetByCustomerID(customerID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// List retrieves payments with pagination
func (r *paymentRepository) List(offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// ListByStatus retrieves payments filtered by status with pagination
func (r *paymentRepository) ListByStatus(status string, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// Count returns the total number of payments
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of payments in a given status
func (r *paymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// RevenueBetween sums completed payment amounts within a time range
func (r *paymentRepository) RevenueBetween(start, end time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&models.Payment{}).
		Where("status = ? AND completed_at BETWEEN ? AND ?", models.PaymentStatusCompleted, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}
