// internal/models/product.go
package models

import "github.com/google/uuid"

// Product is the canonical catalog entry every Offer resolves to. UPC is
// unique when non-null; (brand, model_number) is a soft uniqueness rule the
// entity resolver enforces at match time rather than at the schema level,
// since either field may be absent.
type Product struct {
	BaseModel
	CanonicalName string     `json:"canonical_name" gorm:"size:500;not null;index"`
	Brand         *string    `json:"brand,omitempty" gorm:"size:255;index"`
	ModelNumber   *string    `json:"model_number,omitempty" gorm:"size:255;index"`
	UPC           *string    `json:"upc,omitempty" gorm:"size:64;uniqueIndex"`
	Category      *string    `json:"category,omitempty" gorm:"size:255;index"`
	Spec          JSONMap    `json:"spec,omitempty" gorm:"type:jsonb"`
	DefaultVendorID *uuid.UUID `json:"default_vendor_id,omitempty" gorm:"type:uuid"`
}

func (Product) TableName() string { return "products" }

// ProductAlias is a raw string observed for a product, optionally scoped to
// a vendor. Uniqueness is (product_id, alias_text, source_vendor_id); a
// given alias string may legitimately exist under multiple products.
type ProductAlias struct {
	BaseModel
	ProductID     uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	AliasText     string     `json:"alias_text" gorm:"size:500;not null;index"`
	SourceVendorID *uuid.UUID `json:"source_vendor_id,omitempty" gorm:"type:uuid;index"`
	Embedding     []float64  `json:"embedding,omitempty" gorm:"serializer:json"`
}

func (ProductAlias) TableName() string { return "product_aliases" }
