package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription plan tiers.
const (
	PlanEssential    = "essential"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// Billing cycles.
const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// Subscription status values.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription is an activated plan. It only ever comes into existence as the
// side effect of a confirmed Payment; the unique PaymentID index keeps a
// replayed webhook from activating a payment twice.
type Subscription struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UUID       string `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	CustomerID uint   `gorm:"not null;index" json:"customer_id"`
	PaymentID  uint   `gorm:"not null;uniqueIndex" json:"payment_id"`

	Plan         string  `gorm:"type:varchar(20);not null" json:"plan"`
	BillingCycle string  `gorm:"type:varchar(20);not null;default:'monthly'" json:"billing_cycle"`
	Amount       float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency     string  `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status       string  `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	StartDate time.Time  `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate   *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	return nil
}

// DaysRemaining returns the whole days until the subscription ends, never
// negative. Subscriptions without an end date report zero.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if s.EndDate == nil {
		return 0
	}
	d := int(s.EndDate.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
