// internal/repository/product.go
package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/models"
)

// ProductRepository resolves canonical products and their aliases. Callers
// never materialize bidirectional Product<->ProductAlias graphs; everything
// is looked up by foreign key id within the current transaction.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByUPC normalizes upc to digits-only before matching, per spec §4.5(a).
func (r *ProductRepository) FindByUPC(upc string) (*models.Product, error) {
	norm := NormalizeUPC(upc)
	if norm == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var p models.Product
	if err := r.db.Where("upc = ?", norm).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByBrandModel matches case-insensitively and trimmed, per spec §4.5(b).
func (r *ProductRepository) FindByBrandModel(brand, model string) (*models.Product, error) {
	brand = strings.TrimSpace(brand)
	model = strings.TrimSpace(model)
	if brand == "" || model == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var p models.Product
	err := r.db.Where("lower(brand) = lower(?) AND lower(model_number) = lower(?)", brand, model).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Get(id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Create(p *models.Product) error {
	return r.db.Create(p).Error
}

// SearchByText matches canonical name, model number, and UPC by case-insensitive
// substring. Used by the query API's resolve_products operation (§4.9).
func (r *ProductRepository) SearchByText(query string, limit, offset int) ([]models.Product, int64, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.db.Model(&models.Product{}).Where(
		"lower(canonical_name) LIKE ? OR lower(model_number) LIKE ? OR lower(upc) LIKE ?",
		like, like, like,
	)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var products []models.Product
	if err := q.Order("canonical_name asc").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductRepository) List(limit, offset int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64
	if err := r.db.Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.Order("canonical_name asc").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindAliasExact looks up an exact alias match, preferring one scoped to
// vendorID, then a global (vendor-less) alias, per spec §4.5(c).
func (r *ProductRepository) FindAliasExact(aliasText string, vendorID uuid.UUID) (*models.ProductAlias, error) {
	aliasText = strings.TrimSpace(aliasText)
	if aliasText == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var scoped models.ProductAlias
	err := r.db.Where("lower(alias_text) = lower(?) AND source_vendor_id = ?", aliasText, vendorID).
		Order("updated_at desc").First(&scoped).Error
	if err == nil {
		return &scoped, nil
	}
	if !errorsIsNotFound(err) {
		return nil, err
	}

	var global models.ProductAlias
	err = r.db.Where("lower(alias_text) = lower(?) AND source_vendor_id IS NULL", aliasText).
		Order("updated_at desc").First(&global).Error
	if err != nil {
		return nil, err
	}
	return &global, nil
}

// FindAliasCandidates returns up to K aliases carrying an embedding, for the
// fuzzy-match step (§4.5(d)) and the query API's embedding augmentation.
func (r *ProductRepository) FindAliasCandidates(limit int) ([]models.ProductAlias, error) {
	var aliases []models.ProductAlias
	err := r.db.Where("embedding IS NOT NULL").Limit(limit).Find(&aliases).Error
	return aliases, err
}

// CreateAliasIfMissing inserts ProductAlias(alias_text, vendor) if the
// (product, alias_text, source_vendor) triple does not already exist.
func (r *ProductRepository) CreateAliasIfMissing(productID uuid.UUID, aliasText string, vendorID *uuid.UUID, embedding []float64) error {
	aliasText = strings.TrimSpace(aliasText)
	if aliasText == "" {
		return nil
	}

	q := r.db.Model(&models.ProductAlias{}).
		Where("product_id = ? AND lower(alias_text) = lower(?)", productID, aliasText)
	if vendorID != nil {
		q = q.Where("source_vendor_id = ?", *vendorID)
	} else {
		q = q.Where("source_vendor_id IS NULL")
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	alias := &models.ProductAlias{
		ProductID:      productID,
		AliasText:      aliasText,
		SourceVendorID: vendorID,
		Embedding:      embedding,
	}
	return r.db.Create(alias).Error
}

// NormalizeUPC strips everything but digits and rejects implausible lengths.
func NormalizeUPC(upc string) string {
	var b strings.Builder
	for _, r := range upc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	norm := b.String()
	if len(norm) < 6 || len(norm) > 14 {
		return ""
	}
	return norm
}
