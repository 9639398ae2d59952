package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Webhook processing outcomes stored on WebhookLog.ProcessingStatus.
const (
	WebhookProcessingPending   = "pending"
	WebhookProcessingCompleted = "completed"
	WebhookProcessingFailed    = "failed"
	WebhookProcessingRefunded  = "refunded"
	WebhookProcessingIgnored   = "ignored"
	WebhookProcessingError     = "error"
)

// WebhookLog is the append-only audit record of every inbound gateway
// notification. The row is written before any processing happens so that
// malformed or malicious payloads still leave a trail. After creation the
// request only fills in the parsed reference and the processing outcome;
// headers, payload and signature are never rewritten.
type WebhookLog struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	UUID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`

	Source           string `gorm:"type:varchar(50);not null;index" json:"source"`
	EventType        string `gorm:"type:varchar(50);not null" json:"event_type"`
	PaymentReference string `gorm:"type:varchar(255);index;default:''" json:"payment_reference"`

	Headers   string `gorm:"type:text" json:"-"`
	Payload   string `gorm:"type:longtext" json:"-"`
	Signature string `gorm:"type:varchar(255);default:''" json:"-"`

	SignatureValid   *bool  `gorm:"default:null" json:"signature_valid,omitempty"`
	ProcessingStatus string `gorm:"type:varchar(20);not null;default:'pending';index" json:"processing_status"`
	ErrorMessage     string `gorm:"type:text" json:"error_message,omitempty"`

	IPAddress string `gorm:"type:varchar(45);default:''" json:"-"`
	// ArchivedAt is set once the row has been shipped to the S3 archive bucket.
	ArchivedAt *time.Time `gorm:"type:timestamp;default:null;index" json:"archived_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (w *WebhookLog) BeforeCreate(tx *gorm.DB) error {
	if w.UUID == "" {
		w.UUID = uuid.NewString()
	}
	return nil
}
