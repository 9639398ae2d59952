package repository

import (
	"time"

	"github.com/astrafabric/astrafabric/app/models"
	"gorm.io/gorm"
)

// CustomerRepository defines the interface for customer-related database operations
type CustomerRepository interface {
	Create(customer *models.Customer) error
	GetByID(id uint) (*models.Customer, error)
	GetByUUID(uuid string) (*models.Customer, error)
	GetByEmail(email string) (*models.Customer, error)
	Update(customer *models.Customer) error
	RecordLogin(id uint, at time.Time) error
	List(offset, limit int) ([]models.Customer, error)
	Count() (int64, error)
	Search(query string) ([]models.Customer, error)
}

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	GetByID(id uint) (*models.Payment, error)
	GetByReference(reference string) (*models.Payment, error)
	GetByCustomerID(customerID uint, offset, limit int) ([]models.Payment, error)
	List(offset, limit int) ([]models.Payment, error)
	ListByStatus(status string, offset, limit int) ([]models.Payment, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	RevenueBetween(start, end time.Time) (float64, error)
}

// SubscriptionRepository defines the interface for subscription-related database operations
type SubscriptionRepository interface {
	GetByID(id uint) (*models.Subscription, error)
	GetByUUID(uuid string) (*models.Subscription, error)
	GetActiveByCustomerID(customerID uint) (*models.Subscription, error)
	GetByCustomerID(customerID uint) ([]models.Subscription, error)
	List(offset, limit int) ([]models.Subscription, error)
	Count() (int64, error)
	CountActive() (int64, error)
	ExpireOverdue(now time.Time) (int64, error)
}

// WebhookLogRepository defines the interface for webhook audit log operations
type WebhookLogRepository interface {
	GetByID(id uint) (*models.WebhookLog, error)
	GetByReference(reference string) ([]models.WebhookLog, error)
	List(offset, limit int) ([]models.WebhookLog, error)
	ListBySource(source string, offset, limit int) ([]models.WebhookLog, error)
	Count() (int64, error)
	CountFailed() (int64, error)
}

// ContactInquiryRepository defines the interface for contact form submissions
type ContactInquiryRepository interface {
	Create(inquiry *models.ContactInquiry) error
	GetByID(id uint) (*models.ContactInquiry, error)
	List(offset, limit int) ([]models.ContactInquiry, error)
	ListByStatus(status string, offset, limit int) ([]models.ContactInquiry, error)
	UpdateStatus(id uint, status string) error
	Count() (int64, error)
}

// SecurityEventRepository defines the interface for the dashboard event feed
type SecurityEventRepository interface {
	GetByCustomerID(customerID uint, offset, limit int) ([]models.SecurityEvent, error)
	CountByCustomerID(customerID uint) (int64, error)
	CountUnresolvedByCustomerID(customerID uint) (int64, error)
	SeverityBreakdown(customerID uint) (map[string]int64, error)
	Resolve(id uint, notes string, at time.Time) error
}

// AdminUserRepository defines the interface for admin account operations
type AdminUserRepository interface {
	GetByUsername(username string) (*models.AdminUser, error)
	Save(admin *models.AdminUser) error
	Count() (int64, error)
	Create(admin *models.AdminUser) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Customer       CustomerRepository
	Payment        PaymentRepository
	Subscription   SubscriptionRepository
	WebhookLog     WebhookLogRepository
	ContactInquiry ContactInquiryRepository
	SecurityEvent  SecurityEventRepository
	AdminUser      AdminUserRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Customer:       NewCustomerRepository(db),
		Payment:        NewPaymentRepository(db),
		Subscription:   NewSubscriptionRepository(db),
		WebhookLog:     NewWebhookLogRepository(db),
		ContactInquiry: NewContactInquiryRepository(db),
		SecurityEvent:  NewSecurityEventRepository(db),
		AdminUser:      NewAdminUserRepository(db),
	}
}
