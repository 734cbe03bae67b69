// internal/ingestion/headertokens.go
package ingestion

import "strings"

// HeaderField is a canonical spreadsheet column the spreadsheet processor
// recognizes, per spec §4.2 step 1.
type HeaderField string

const (
	HeaderBrand       HeaderField = "brand"
	HeaderModel       HeaderField = "model"
	HeaderDescription HeaderField = "description"
	HeaderPrice       HeaderField = "price"
	HeaderQuantity    HeaderField = "quantity"
	HeaderCondition   HeaderField = "condition"
	HeaderUPC         HeaderField = "upc"
	HeaderLocation    HeaderField = "location"
	HeaderVendor      HeaderField = "vendor"
	HeaderNotes       HeaderField = "notes"
)

// HeaderTokens is the case-insensitive dictionary of recognized header
// tokens per canonical field, published as spec §9's open-question
// resolution #2 and exercised by headertokens_test.go and the generated
// vendor-price template (GET /documents/templates/vendor-price).
var HeaderTokens = map[HeaderField][]string{
	HeaderBrand:       {"brand", "manufacturer", "make"},
	HeaderModel:       {"model", "sku", "mpn", "model/sku", "model number", "item number", "part number"},
	HeaderDescription: {"description", "item", "product", "item description", "product name", "title"},
	HeaderPrice:       {"price", "unit price", "cost", "unit cost", "sale price", "amount"},
	HeaderQuantity:    {"qty", "quantity", "stock", "stock qty", "available"},
	HeaderCondition:   {"condition", "grade"},
	HeaderUPC:         {"upc", "ean", "barcode", "gtin"},
	HeaderLocation:    {"warehouse", "location", "branch"},
	HeaderVendor:      {"vendor", "supplier", "seller"},
	HeaderNotes:       {"notes", "remarks", "comment", "comments"},
}

// fieldOrder fixes a deterministic iteration order over HeaderTokens so the
// generated template and the header-matching pass never depend on Go's
// randomized map iteration.
var fieldOrder = []HeaderField{
	HeaderBrand, HeaderModel, HeaderDescription, HeaderPrice, HeaderQuantity,
	HeaderCondition, HeaderUPC, HeaderLocation, HeaderVendor, HeaderNotes,
}

// matchHeaderCell returns the canonical field a single header cell maps to,
// or "" if the cell text is not a recognized token.
func matchHeaderCell(cell string) HeaderField {
	norm := strings.ToLower(strings.TrimSpace(cell))
	if norm == "" {
		return ""
	}
	for _, field := range fieldOrder {
		for _, token := range HeaderTokens[field] {
			if norm == token {
				return field
			}
		}
	}
	return ""
}

// detectHeaderRow scans a row's cells and returns the column->field mapping
// if at least 2 cells match recognized tokens, per spec §4.2 step 1.
func detectHeaderRow(cells []string) (map[int]HeaderField, bool) {
	mapping := make(map[int]HeaderField)
	for i, cell := range cells {
		if field := matchHeaderCell(cell); field != "" {
			mapping[i] = field
		}
	}
	if len(mapping) < 2 {
		return nil, false
	}
	return mapping, true
}
