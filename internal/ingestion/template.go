// internal/ingestion/template.go
package ingestion

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// templateFields lists the columns the generated template carries, in
// order. Vendor and notes are recognized by the parser but omitted from the
// template itself since they're rarely part of a vendor's own price list.
var templateFields = []HeaderField{
	HeaderBrand, HeaderModel, HeaderDescription, HeaderPrice,
	HeaderQuantity, HeaderCondition, HeaderUPC, HeaderLocation,
}

// GenerateVendorPriceTemplate builds the canonical spreadsheet template
// named in spec §6 (GET /documents/templates/vendor-price). The header row
// is generated from HeaderTokens' first (canonical) token per field so the
// template always matches what the parser recognizes — resolving spec §9's
// open question about publishing the header vocabulary.
func GenerateVendorPriceTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Vendor Price List"
	f.SetSheetName("Sheet1", sheetName)

	for col, field := range templateFields {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, strings.ToUpper(HeaderTokens[field][0]))
	}

	sample := [][]interface{}{
		{"Apple", "A1", "iPhone 11 64GB Black", 485.00, 150, "A/A-", "", ""},
		{"Apple", "A2", "iPhone 12 128GB", 600.00, 10, "New", "", ""},
	}
	for rowIdx, row := range sample {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
