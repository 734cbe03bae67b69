// internal/repository/vendor.go
package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/models"
)

// VendorRepository resolves and persists Vendor rows. Vendors are created
// lazily on first reference and never deleted automatically.
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// FindByNameCI looks up a vendor by case-insensitive name match.
func (r *VendorRepository) FindByNameCI(name string) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.Where("lower(name) = lower(?)", strings.TrimSpace(name)).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetOrCreateByName returns the existing vendor matching name case-insensitively,
// creating one if none exists. Safe to call concurrently: a unique index on
// lower(name) makes the create race resolve to the existing row.
func (r *VendorRepository) GetOrCreateByName(name string) (*models.Vendor, error) {
	name = strings.TrimSpace(name)
	if existing, err := r.FindByNameCI(name); err == nil {
		return existing, nil
	} else if !errorsIsNotFound(err) {
		return nil, err
	}

	v := &models.Vendor{Name: name}
	if err := r.db.Create(v).Error; err != nil {
		// Lost the create race to a concurrent insert; fetch the winner.
		if existing, findErr := r.FindByNameCI(name); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return v, nil
}

func (r *VendorRepository) Get(id uuid.UUID) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.db.First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepository) List(limit, offset int) ([]models.Vendor, int64, error) {
	var vendors []models.Vendor
	var total int64
	if err := r.db.Model(&models.Vendor{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.Order("name asc").Limit(limit).Offset(offset).Find(&vendors).Error; err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}

func errorsIsNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}
