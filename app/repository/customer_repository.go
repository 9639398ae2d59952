package repository

import (
	"time"

	"github.com/astrafabric/astrafabric/app/models"
	"gorm.io/gorm"
)

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository instance
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create creates a new customer in the database
func (r *customerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

// GetByID retrieves a customer by its ID
func (r *customerRepository) GetByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByUUID retrieves a customer by its public UUID
func (r *customerRepository) GetByUUID(uuid string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("uuid = ?", uuid).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByEmail retrieves a customer by email address
func (r *customerRepository) GetByEmail(email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("email = ?", email).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Update updates an existing customer in the database
func (r *customerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

// RecordLogin stamps the last login time
func (r *customerRepository) RecordLogin(id uint, at time.Time) error {
	return r.db.Model(&models.Customer{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

// List retrieves customers with pagination
func (r *customerRepository) List(offset, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&customers).Error
	return customers, err
}

// Count returns the total number of customers
func (r *customerRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Customer{}).Count(&count).Error
	return count, err
}

// Search finds customers by email, name or company
func (r *customerRepository) Search(query string) ([]models.Customer, error) {
	var customers []models.Customer
	like := "%" + query + "%"
	err := r.db.Where("email LIKE ? OR name LIKE ? OR company LIKE ?", like, like, like).
		Order("created_at DESC").Limit(100).Find(&customers).Error
	return customers, err
}
