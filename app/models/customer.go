package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
)

// Customer is the identity record behind subscriptions and payments.
// Customers are created implicitly on their first payment attempt.
type Customer struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UUID      string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email,max=255"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=2,max=255"`
	Company   string     `gorm:"type:varchar(255);default:''" json:"company" validate:"max=255"`
	Phone     string     `gorm:"type:varchar(30);default:''" json:"phone" validate:"max=30"`
	IsActive  bool       `gorm:"default:true;not null" json:"is_active"`
	LastLogin *time.Time `gorm:"type:timestamp;default:null" json:"last_login,omitempty"`
	// LoginCount is incremented via the buffered metrics counter, not inline.
	LoginCount int64 `gorm:"default:0;not null" json:"login_count"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Subscriptions []Subscription `gorm:"foreignKey:CustomerID" json:"-"`
	Payments      []Payment      `gorm:"foreignKey:CustomerID" json:"-"`
}

func (c *Customer) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// BeforeCreate assigns the public UUID when none was set by the caller.
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	return nil
}
