// internal/ingestion/spreadsheet.go
package ingestion

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetProcessor reads tabular vendor price lists, per spec §4.2.
// CSV files are read with the standard library's csv reader — no example
// repo in the retrieval pack parses CSV through a third-party library, and
// encoding/csv is the universal Go idiom for it (see DESIGN.md).
type SpreadsheetProcessor struct{}

func NewSpreadsheetProcessor() *SpreadsheetProcessor { return &SpreadsheetProcessor{} }

func (p *SpreadsheetProcessor) Name() string { return "spreadsheet" }

func (p *SpreadsheetProcessor) Accepts(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls", ".csv":
		return true
	default:
		return false
	}
}

func (p *SpreadsheetProcessor) Process(path string, pc ProcessContext) (*ProcessorResult, error) {
	sheets, err := loadSheets(path)
	if err != nil {
		return nil, err
	}

	result := &ProcessorResult{}
	for _, sheet := range sheets {
		p.processSheet(sheet, pc, result)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// sheet is a generic grid of string cells, abstracting over csv.Reader and
// excelize's per-sheet rows so the header-detection and row-coercion logic
// below is format-agnostic.
type sheet [][]string

func loadSheets(path string) ([]sheet, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" {
		rows, err := loadCSV(path)
		if err != nil {
			return nil, err
		}
		return []sheet{rows}, nil
	}
	return loadExcel(path)
}

func loadCSV(path string) (sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func loadExcel(path string) ([]sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		sheets = append(sheets, sheet(rows))
	}
	return sheets, nil
}

func (p *SpreadsheetProcessor) processSheet(s sheet, pc ProcessContext, result *ProcessorResult) {
	if len(s) == 0 {
		return
	}

	headerRowIdx := -1
	var mapping map[int]HeaderField
	for i, row := range s {
		if i > 10 {
			break // header row is always near the top of a vendor list
		}
		if m, ok := detectHeaderRow(row); ok {
			headerRowIdx = i
			mapping = m
			break
		}
	}

	if headerRowIdx == -1 {
		p.processHeaderless(s, pc, result)
		return
	}

	for _, row := range s[headerRowIdx+1:] {
		if isBlankRow(row) {
			continue
		}
		raw, warn := coerceRow(row, mapping, pc.DefaultCurrency)
		if warn != "" {
			if pc.PreferLLM && pc.LLM != nil && pc.LLM.Enabled() {
				if llmRows, err := pc.LLM.ExtractRows(pc.Ctx, strings.Join(row, " | ")); err == nil && len(llmRows) > 0 {
					result.Rows = append(result.Rows, llmRows...)
					continue
				}
			}
			result.Warnings = append(result.Warnings, warn)
			continue
		}
		result.Rows = append(result.Rows, *raw)
	}
}

// processHeaderless implements spec §4.2 step 2: assume
// (description, price, quantity) by position when a numeric column sits
// adjacent to a text column.
func (p *SpreadsheetProcessor) processHeaderless(s sheet, pc ProcessContext, result *ProcessorResult) {
	descCol, priceCol, qtyCol := detectHeaderlessColumns(s)
	if descCol == -1 || priceCol == -1 {
		result.Warnings = append(result.Warnings, "headerless_sheet_no_numeric_text_pair")
		return
	}

	for _, row := range s {
		if isBlankRow(row) {
			continue
		}
		desc := cellAt(row, descCol)
		priceStr := cellAt(row, priceCol)
		price, ok := parseNumeric(priceStr)
		if desc == "" || !ok || price <= 0 {
			result.Warnings = append(result.Warnings, "row_warning: missing_price_or_description")
			continue
		}

		raw := RawOffer{
			Description: strings.TrimSpace(desc),
			Price:       price,
			Currency:    pc.DefaultCurrency,
			RawRow:      rowToMap(row),
		}
		if qtyCol != -1 {
			if qty, ok := parseNumeric(cellAt(row, qtyCol)); ok {
				q := int(qty)
				raw.Quantity = &q
			}
		}
		result.Rows = append(result.Rows, raw)
	}
}

// coerceRow implements spec §4.2 step 3: strip currency symbols/commas/
// whitespace, parse numerics, and skip rows where price or description is
// absent/invalid (returned as a non-fatal warning, never an error).
func coerceRow(row []string, mapping map[int]HeaderField, defaultCurrency string) (*RawOffer, string) {
	get := func(field HeaderField) string {
		for col, f := range mapping {
			if f == field {
				return cellAt(row, col)
			}
		}
		return ""
	}

	desc := strings.TrimSpace(get(HeaderDescription))
	priceStr := get(HeaderPrice)
	price, ok := parseNumeric(priceStr)
	if desc == "" {
		return nil, "row_warning: missing_description"
	}
	if !ok || price <= 0 {
		return nil, "row_warning: missing_or_invalid_price"
	}

	raw := &RawOffer{
		Description: desc,
		Price:       price,
		Currency:    defaultCurrency,
		Brand:       strings.TrimSpace(get(HeaderBrand)),
		Model:       strings.TrimSpace(get(HeaderModel)),
		UPC:         strings.TrimSpace(get(HeaderUPC)),
		Location:    strings.TrimSpace(get(HeaderLocation)),
		VendorHint:  strings.TrimSpace(get(HeaderVendor)),
		RawRow:      rowToMap(row),
	}

	if qty, ok := parseNumeric(get(HeaderQuantity)); ok {
		q := int(qty)
		raw.Quantity = &q
	}
	if cond := strings.TrimSpace(get(HeaderCondition)); cond != "" {
		raw.Condition = &cond
	}

	return raw, ""
}

func detectHeaderlessColumns(s sheet) (descCol, priceCol, qtyCol int) {
	descCol, priceCol, qtyCol = -1, -1, -1
	if len(s) == 0 {
		return
	}
	width := 0
	for _, row := range s {
		if len(row) > width {
			width = len(row)
		}
	}

	numericCols := make(map[int]bool)
	textCols := make(map[int]bool)
	for col := 0; col < width; col++ {
		numeric, text := 0, 0
		for _, row := range s {
			v := cellAt(row, col)
			if v == "" {
				continue
			}
			if _, ok := parseNumeric(v); ok {
				numeric++
			} else {
				text++
			}
		}
		if numeric > text {
			numericCols[col] = true
		} else if text > 0 {
			textCols[col] = true
		}
	}

	for col := 0; col < width; col++ {
		if !textCols[col] {
			continue
		}
		if numericCols[col+1] {
			descCol, priceCol = col, col+1
		} else if numericCols[col-1] {
			descCol, priceCol = col, col-1
		} else {
			continue
		}
		break
	}
	for col := priceCol + 1; priceCol != -1 && col < width; col++ {
		if numericCols[col] && col != descCol {
			qtyCol = col
			break
		}
	}
	return
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowToMap(row []string) map[string]interface{} {
	m := make(map[string]interface{}, len(row))
	for i, c := range row {
		m[fmt.Sprintf("col_%d", i)] = c
	}
	return m
}

// parseNumeric strips currency symbols, thousands separators, and
// whitespace before parsing, per spec §4.2 step 3.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
