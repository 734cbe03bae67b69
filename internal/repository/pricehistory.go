// internal/repository/pricehistory.go
package repository

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/models"
)

type PriceHistoryRepository struct {
	db *gorm.DB
}

func NewPriceHistoryRepository(db *gorm.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// SpansForPair returns every span for (productID, vendorID) ordered by
// ValidFrom ascending, as required by the price-history engine algorithm.
func (r *PriceHistoryRepository) SpansForPair(productID, vendorID uuid.UUID) ([]models.PriceHistorySpan, error) {
	var spans []models.PriceHistorySpan
	err := r.db.Where("product_id = ? AND vendor_id = ?", productID, vendorID).
		Order("valid_from asc").Find(&spans).Error
	return spans, err
}

func (r *PriceHistoryRepository) Create(s *models.PriceHistorySpan) error {
	return r.db.Create(s).Error
}

func (r *PriceHistoryRepository) Save(s *models.PriceHistorySpan) error {
	return r.db.Save(s).Error
}

func (r *PriceHistoryRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.PriceHistorySpan{}, "id = ?", id).Error
}

func (r *PriceHistoryRepository) ListByProduct(productID uuid.UUID, limit int) ([]models.PriceHistorySpan, error) {
	var spans []models.PriceHistorySpan
	q := r.db.Where("product_id = ?", productID).Order("valid_from desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return spans, q.Find(&spans).Error
}

func (r *PriceHistoryRepository) ListByVendor(vendorID uuid.UUID, limit int) ([]models.PriceHistorySpan, error) {
	var spans []models.PriceHistorySpan
	q := r.db.Where("vendor_id = ?", vendorID).Order("valid_from desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return spans, q.Find(&spans).Error
}

// LockPair takes a Postgres advisory transaction lock keyed by
// hash(product_id, vendor_id), serializing concurrent history mutations for
// the same pair across concurrent uploads/WhatsApp extractions, per spec §5.
// Must be called inside the same transaction that will mutate the spans.
func (r *PriceHistoryRepository) LockPair(productID, vendorID uuid.UUID) error {
	key := pairLockKey(productID, vendorID)
	return r.db.Exec("SELECT pg_advisory_xact_lock(?)", key).Error
}

func pairLockKey(productID, vendorID uuid.UUID) int64 {
	h := sha256.New()
	h.Write(productID[:])
	h.Write(vendorID[:])
	sum := h.Sum(nil)
	// Postgres advisory locks take a signed bigint; fold the top 8 bytes of
	// the digest into one, masking the sign bit off to avoid driver quirks
	// with negative bigint literals.
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}
