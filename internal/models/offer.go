// internal/models/offer.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer is a single observed price for a product from a vendor at a moment
// in time. price > 0 and currency non-empty are enforced by the offer
// ingestion service before insert, not by a database constraint, so a
// malformed row can be rejected with a row-level warning instead of
// aborting the whole batch.
type Offer struct {
	BaseModel
	ProductID             uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	VendorID              uuid.UUID  `json:"vendor_id" gorm:"type:uuid;not null;index"`
	SourceDocumentID      *uuid.UUID `json:"source_document_id,omitempty" gorm:"type:uuid;index"`
	SourceWhatsAppMessageID *uuid.UUID `json:"source_whatsapp_message_id,omitempty" gorm:"type:uuid;index"`
	CapturedAt            time.Time  `json:"captured_at" gorm:"not null;index"`
	Price                 float64    `json:"price" gorm:"type:decimal(14,2);not null"`
	Currency              string     `json:"currency" gorm:"size:8;not null"`
	Quantity              *int       `json:"quantity,omitempty"`
	Condition             *string    `json:"condition,omitempty" gorm:"size:64"`
	MinOrderQuantity      *int       `json:"min_order_quantity,omitempty"`
	Location              *string    `json:"location,omitempty" gorm:"size:255"`
	Notes                 *string    `json:"notes,omitempty" gorm:"type:text"`
	RawPayload            JSONMap    `json:"raw_payload,omitempty" gorm:"type:jsonb"`
}

func (Offer) TableName() string { return "offers" }

// PriceHistorySpan is a closed-open time interval for (product, vendor) at
// a fixed price. At most one span per pair has ValidTo == nil (the
// currently active span).
type PriceHistorySpan struct {
	BaseModel
	ProductID     uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index:idx_span_pair"`
	VendorID      uuid.UUID  `json:"vendor_id" gorm:"type:uuid;not null;index:idx_span_pair"`
	Price         float64    `json:"price" gorm:"type:decimal(14,2);not null"`
	Currency      string     `json:"currency" gorm:"size:8;not null"`
	ValidFrom     time.Time  `json:"valid_from" gorm:"not null;index"`
	ValidTo       *time.Time `json:"valid_to,omitempty" gorm:"index"`
	SourceOfferID uuid.UUID  `json:"source_offer_id" gorm:"type:uuid;not null"`
}

func (PriceHistorySpan) TableName() string { return "price_history_spans" }

// IsOpen reports whether this span has no end (it is the currently active
// price for the pair).
func (s PriceHistorySpan) IsOpen() bool { return s.ValidTo == nil }

// Contains reports whether t falls within [ValidFrom, ValidTo).
func (s PriceHistorySpan) Contains(t time.Time) bool {
	if t.Before(s.ValidFrom) {
		return false
	}
	return s.ValidTo == nil || t.Before(*s.ValidTo)
}
