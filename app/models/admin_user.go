package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const adminMaxFailedAttempts = 5
const adminLockoutDuration = 15 * time.Minute

// AdminUser is a staff account for the admin area. Password hashes use
// bcrypt; repeated failures lock the account for a fixed window.
type AdminUser struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"type:text;not null" json:"-"`
	IsActive       bool       `gorm:"default:true;not null" json:"is_active"`
	FailedAttempts int        `gorm:"default:0;not null" json:"-"`
	LockedUntil    *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	LastLoginAt    *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLocked reports whether the lockout window is still open.
func (a *AdminUser) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// CheckPassword verifies the given password against the stored hash and
// returns the updated failed-attempt state. Callers persist the changes.
func (a *AdminUser) CheckPassword(password string, now time.Time) bool {
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil {
		a.FailedAttempts = 0
		a.LockedUntil = nil
		return true
	}

	a.FailedAttempts++
	if a.FailedAttempts >= adminMaxFailedAttempts {
		until := now.Add(adminLockoutDuration)
		a.LockedUntil = &until
	}
	return false
}

func HashAdminPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
