// internal/repository/offer.go
package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/models"
)

type OfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) Create(o *models.Offer) error {
	return r.db.Create(o).Error
}

type OfferFilter struct {
	VendorID       *uuid.UUID
	ProductID      *uuid.UUID
	SourceDocID    *uuid.UUID
	Since          *time.Time
	Condition      *string
	Location       *string
	MinPrice       *float64
	MaxPrice       *float64
	Limit          int
	Offset         int
}

func (r *OfferRepository) List(f OfferFilter) ([]models.Offer, int64, error) {
	q := r.db.Model(&models.Offer{})
	q = applyOfferFilter(q, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var offers []models.Offer
	q = r.db.Model(&models.Offer{})
	q = applyOfferFilter(q, f)
	if err := q.Order("captured_at desc").Limit(limit).Offset(f.Offset).Find(&offers).Error; err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

func applyOfferFilter(q *gorm.DB, f OfferFilter) *gorm.DB {
	if f.VendorID != nil {
		q = q.Where("vendor_id = ?", *f.VendorID)
	}
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.SourceDocID != nil {
		q = q.Where("source_document_id = ?", *f.SourceDocID)
	}
	if f.Since != nil {
		q = q.Where("captured_at >= ?", *f.Since)
	}
	if f.Condition != nil && *f.Condition != "" {
		q = q.Where("lower(condition) = lower(?)", *f.Condition)
	}
	if f.Location != nil && *f.Location != "" {
		q = q.Where("lower(location) LIKE lower(?)", "%"+*f.Location+"%")
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	return q
}

// BestOfferForProduct returns the lowest-price offer for a product (optionally
// scoped to a vendor), used by search_best_price (§4.9).
func (r *OfferRepository) BestOfferForProduct(productID uuid.UUID, f OfferFilter) (*models.Offer, error) {
	q := r.db.Model(&models.Offer{}).Where("product_id = ?", productID)
	clone := f
	clone.ProductID = nil
	q = applyOfferFilter(q, clone)

	var o models.Offer
	err := q.Order("price asc, captured_at desc").First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// AlternateOffersForProduct returns up to limit offers for a product after
// excluding the given best-offer id, ordered ascending by price then most
// recent capture.
func (r *OfferRepository) AlternateOffersForProduct(productID uuid.UUID, excludeID uuid.UUID, limit int, f OfferFilter) ([]models.Offer, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := r.db.Model(&models.Offer{}).Where("product_id = ? AND id <> ?", productID, excludeID)
	clone := f
	clone.ProductID = nil
	q = applyOfferFilter(q, clone)

	var offers []models.Offer
	err := q.Order("price asc, captured_at desc").Limit(limit).Find(&offers).Error
	return offers, err
}
