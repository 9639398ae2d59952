package repository

import (
	"time"

	"github.com/astrafabric/astrafabric/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByID retrieves a subscription by its ID
func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByUUID retrieves a subscription by its UUID
func (r *subscriptionRepository) GetByUUID(uuid string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("uuid = ?", uuid).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveByCustomerID retrieves the customer's current active subscription.
// When several are active the one ending last wins.
func (r *subscriptionRepository) GetActiveByCustomerID(customerID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("customer_id = ? AND status = ?", customerID, models.SubscriptionStatusActive).
		Order("end_date DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByCustomerID retrieves all subscriptions of a customer, newest first
func (r *subscriptionRepository) GetByCustomerID(customerID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// List retrieves subscriptions with pagination
func (r *subscriptionRepository) List(offset, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, err
}

// Count returns the total number of subscriptions
func (r *subscriptionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Count(&count).Error
	return count, err
}

// CountActive returns the number of active subscriptions
func (r *subscriptionRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).
		Where("status = ?", models.SubscriptionStatusActive).Count(&count).Error
	return count, err
}

// ExpireOverdue cancels active subscriptions whose end date has passed and
// returns how many rows were affected.
func (r *subscriptionRepository) ExpireOverdue(now time.Time) (int64, error) {
	res := r.db.Model(&models.Subscription{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.SubscriptionStatusActive, now).
		Update("status", models.SubscriptionStatusCancelled)
	return res.RowsAffected, res.Error
}
