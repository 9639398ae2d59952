package repository

import (
	"github.com/astrafabric/astrafabric/app/models"
	"gorm.io/gorm"
)

// contactInquiryRepository implements the ContactInquiryRepository interface
type contactInquiryRepository struct {
	db *gorm.DB
}

// NewContactInquiryRepository creates a new contact inquiry repository instance
func NewContactInquiryRepository(db *gorm.DB) ContactInquiryRepository {
	return &contactInquiryRepository{db: db}
}

// Create stores a new contact inquiry
func (r *contactInquiryRepository) Create(inquiry *models.ContactInquiry) error {
	return r.db.Create(inquiry).Error
}

// GetByID retrieves an inquiry by its ID
func (r *contactInquiryRepository) GetByID(id uint) (*models.ContactInquiry, error) {
	var inquiry models.ContactInquiry
	err := r.db.First(&inquiry, id).Error
	if err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// List retrieves inquiries with pagination, newest first
func (r *contactInquiryRepository) List(offset, limit int) ([]models.ContactInquiry, error) {
	var inquiries []models.ContactInquiry
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&inquiries).Error
	return inquiries, err
}

// ListByStatus retrieves inquiries filtered by status with pagination
func (r *contactInquiryRepository) ListByStatus(status string, offset, limit int) ([]models.ContactInquiry, error) {
	var inquiries []models.ContactInquiry
	err := r.db.Where("status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&inquiries).Error
	return inquiries, err
}

// UpdateStatus changes the workflow status of an inquiry
func (r *contactInquiryRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.ContactInquiry{}).Where("id = ?", id).
		Update("status", status).Error
}

// Count returns the total number of inquiries
func (r *contactInquiryRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ContactInquiry{}).Count(&count).Error
	return count, err
}
