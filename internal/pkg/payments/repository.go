package payments

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/astrafabric/astrafabric/app/models"
	"github.com/astrafabric/astrafabric/internal/pkg/metrics/counter"
)

// Repository provides the DB operations used by the payments service.
type Repository interface {
	GetOrCreateCustomer(email, name, company, phone string) (*models.Customer, error)
	GetCustomerByID(id uint) (*models.Customer, error)

	CreatePayment(p *models.Payment) error
	SavePayment(p *models.Payment) error
	GetPaymentByReference(reference string) (*models.Payment, error)
	// TransitionPayment applies updates only while the payment is still in
	// fromStatus. The bool reports whether a row actually changed, which is
	// how duplicate webhook deliveries are detected.
	TransitionPayment(id uint, fromStatus string, updates map[string]interface{}) (bool, error)

	// CreateSubscriptionIfAbsent inserts the subscription unless one already
	// exists for the same payment. The bool is false on the duplicate path.
	CreateSubscriptionIfAbsent(sub *models.Subscription) (bool, error)
	GetSubscriptionByID(id uint) (*models.Subscription, error)
	CancelSubscription(id uint, endDate time.Time) error

	CreateWebhookLog(l *models.WebhookLog) error
	SetWebhookLogEvent(id uint, paymentReference, eventType string) error
	FinishWebhookLog(id uint, processingStatus, errorMessage string) error

	// RecordAnomaly files a SecurityEvent for a payment that reached a state
	// the catalog cannot explain, so it shows up for manual reconciliation.
	RecordAnomaly(event *models.SecurityEvent) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetOrCreateCustomer(email, name, company, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("email = ?", email).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	customer = models.Customer{
		Email:    email,
		Name:     name,
		Company:  company,
		Phone:    phone,
		IsActive: true,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&customer).Error; err != nil {
		return nil, err
	}

	// Re-read so a concurrent insert still yields the winning row.
	if err := r.db.Where("email = ?", email).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) GetCustomerByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) CreatePayment(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) SavePayment(p *models.Payment) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) GetPaymentByReference(reference string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("reference = ?", reference).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) TransitionPayment(id uint, fromStatus string, updates map[string]interface{}) (bool, error) {
	tx := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreateSubscriptionIfAbsent(sub *models.Subscription) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_id"}},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected > 0
	// Ensure the struct reflects the stored row after either path.
	if err := r.db.Where("payment_id = ?", sub.PaymentID).First(sub).Error; err != nil {
		return false, err
	}
	return created, nil
}

func (r *gormRepository) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CancelSubscription(id uint, endDate time.Time) error {
	return r.db.Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.SubscriptionStatusCancelled,
			"end_date": endDate,
		}).Error
}

func (r *gormRepository) CreateWebhookLog(l *models.WebhookLog) error {
	return r.db.Create(l).Error
}

func (r *gormRepository) SetWebhookLogEvent(id uint, paymentReference, eventType string) error {
	return r.db.Model(&models.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_reference": paymentReference,
			"event_type":        eventType,
		}).Error
}

func (r *gormRepository) FinishWebhookLog(id uint, processingStatus, errorMessage string) error {
	return r.db.Model(&models.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processing_status": processingStatus,
			"error_message":     errorMessage,
		}).Error
}

func (r *gormRepository) RecordAnomaly(event *models.SecurityEvent) error {
	// A repeat of an unresolved anomaly bumps the buffered occurrence
	// counter instead of piling up rows.
	var existing models.SecurityEvent
	err := r.db.Where("customer_id = ? AND event_type = ? AND is_resolved = ?",
		event.CustomerID, event.EventType, false).
		First(&existing).Error
	if err == nil {
		return counter.AddEventOccurrence(existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(event).Error
}
