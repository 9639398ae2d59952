package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Security event severities shown on the customer dashboard.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SecurityEvent is a monitoring finding attributed to a customer. The
// commerce side of the platform only reads these for the dashboard feed and
// metrics endpoint; ingestion happens elsewhere.
type SecurityEvent struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UUID       string `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	CustomerID uint   `gorm:"not null;index" json:"customer_id"`

	EventType    string `gorm:"type:varchar(50);not null;index" json:"event_type"`
	Severity     string `gorm:"type:varchar(20);not null;index" json:"severity"`
	Description  string `gorm:"type:text;not null" json:"description"`
	SourceIP     string `gorm:"type:varchar(45);default:''" json:"source_ip"`
	TargetSystem string `gorm:"type:varchar(255);default:''" json:"target_system"`

	// OccurrenceCount tracks repeat sightings of the same finding. Increments
	// are buffered in Redis and flushed in batches.
	OccurrenceCount int64 `gorm:"default:1;not null" json:"occurrence_count"`

	RawData         string     `gorm:"type:longtext" json:"-"`
	IsResolved      bool       `gorm:"default:false;index" json:"is_resolved"`
	ResolvedAt      *time.Time `gorm:"type:timestamp;default:null" json:"resolved_at,omitempty"`
	ResolutionNotes string     `gorm:"type:text" json:"resolution_notes,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *SecurityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
	return nil
}
