package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment status values. Transitions are one-directional: a payment leaves
// "pending" exactly once and never regresses from a terminal state. The only
// transition out of a terminal state is completed -> refunded.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"
)

// Payment gateway identifiers used across models and the payments service.
const (
	GatewayNowPayments = "nowpayments"
	GatewayFlutterwave = "flutterwave"
)

// Payment method identifiers.
const (
	PaymentMethodCrypto = "crypto"
	PaymentMethodCard   = "card"
)

// Payment records a single payment attempt against a gateway. The locally
// generated Reference correlates the gateway's checkout session with this row.
type Payment struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UUID           string `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	CustomerID     uint   `gorm:"not null;index" json:"customer_id"`
	SubscriptionID *uint  `gorm:"index;default:null" json:"subscription_id,omitempty"`

	PaymentMethod        string `gorm:"type:varchar(50);not null" json:"payment_method"`
	Gateway              string `gorm:"type:varchar(50);not null" json:"gateway"`
	GatewayTransactionID string `gorm:"type:varchar(255);index;default:''" json:"gateway_transaction_id"`
	Reference            string `gorm:"type:varchar(255);uniqueIndex;not null" json:"reference"`

	Amount   float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency string  `gorm:"type:varchar(10);not null" json:"currency"`

	Status          string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	GatewayStatus   string `gorm:"type:varchar(50);default:''" json:"gateway_status"`
	FailureReason   string `gorm:"type:text" json:"failure_reason,omitempty"`
	WebhookVerified bool   `gorm:"default:false;not null" json:"webhook_verified"`

	IPAddress string `gorm:"type:varchar(45);default:''" json:"-"`
	UserAgent string `gorm:"type:text" json:"-"`

	CompletedAt *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	return nil
}

// IsTerminal reports whether the payment reached a state no webhook may
// overwrite, refunds excepted.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}
