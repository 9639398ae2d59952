package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InquiryStatusNew      = "new"
	InquiryStatusAssigned = "assigned"
	InquiryStatusClosed   = "closed"
)

// ContactInquiry stores submissions of the public contact form.
type ContactInquiry struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	UUID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`

	Name    string `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=2,max=255"`
	Email   string `gorm:"type:varchar(255);not null;index" json:"email" validate:"required,email,max=255"`
	Company string `gorm:"type:varchar(255);default:''" json:"company" validate:"max=255"`
	Phone   string `gorm:"type:varchar(30);default:''" json:"phone" validate:"max=30"`
	Subject string `gorm:"type:varchar(255);not null" json:"subject" validate:"required,max=255"`
	Message string `gorm:"type:text;not null" json:"message" validate:"required,max=5000"`

	Status       string `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	AssignedTo   string `gorm:"type:varchar(255);default:''" json:"assigned_to"`
	ResponseSent bool   `gorm:"default:false;not null" json:"response_sent"`

	IPAddress string `gorm:"type:varchar(45);default:''" json:"-"`
	UserAgent string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *ContactInquiry) Validate() error {
	v := validator.New()

	return v.Struct(i)
}

func (i *ContactInquiry) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.NewString()
	}
	return nil
}
