// internal/models/vendor.go
package models

// Vendor is unique by case-insensitive name; created lazily on first
// reference by the offer ingestion service or the WhatsApp chat resolver,
// never deleted automatically.
type Vendor struct {
	BaseModel
	Name        string  `json:"name" gorm:"size:255;not null;uniqueIndex:uq_vendor_name_lower,expression:lower(name)"`
	ContactInfo JSONMap `json:"contact_info,omitempty" gorm:"type:jsonb"`
	Extra       JSONMap `json:"extra,omitempty" gorm:"type:jsonb"`
}

func (Vendor) TableName() string { return "vendors" }
