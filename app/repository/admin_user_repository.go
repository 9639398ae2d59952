package repository

import (
	"github.com/astrafabric/astrafabric/app/models"
	"gorm.io/gorm"
)

// adminUserRepository implements the AdminUserRepository interface
type adminUserRepository struct {
	db *gorm.DB
}

// NewAdminUserRepository creates a new admin user repository instance
func NewAdminUserRepository(db *gorm.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

// GetByUsername retrieves an admin account by username
func (r *adminUserRepository) GetByUsername(username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.Where("username = ?", username).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// Save persists changes to an existing admin account
func (r *adminUserRepository) Save(admin *models.AdminUser) error {
	return r.db.Save(admin).Error
}

// Count returns the total number of admin accounts
func (r *adminUserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.AdminUser{}).Count(&count).Error
	return count, err
}

// Create stores a new admin account
func (r *adminUserRepository) Create(admin *models.AdminUser) error {
	return r.db.Create(admin).Error
}
