// internal/ingestion/types.go
package ingestion

import "context"

// RawOffer is a single price observation extracted from a source artefact,
// before entity resolution. Every processor emits these; the offer
// ingestion service is the only consumer (spec §4.5).
type RawOffer struct {
	Description string
	Price       float64
	Currency    string
	Quantity    *int
	Condition   *string
	Brand       string
	Model       string
	UPC         string
	Location    string
	VendorHint  string
	RawRow      map[string]interface{}
}

// ProcessorResult is the uniform output of every processor (spec §4.1).
type ProcessorResult struct {
	Rows             []RawOffer
	DeclaredVendor   string
	CurrencyHint     string
	RowCount         int
	Warnings         []string
}

// ProcessContext carries request-scoped dependencies a processor may need:
// the configured default currency, and optional LLM/vision capabilities.
type ProcessContext struct {
	Ctx             context.Context
	DefaultCurrency string
	PreferLLM       bool
	LLM             LLMExtractor
	Vision          VisionExtractor
	MinEmbeddedTextChars int
}

// Processor is the closed sum type named in spec §9's design notes:
// Spreadsheet, Document, WhatsAppText all implement this uniform interface.
type Processor interface {
	Name() string
	Accepts(path string) bool
	Process(path string, pc ProcessContext) (*ProcessorResult, error)
}

// LLMExtractor is the capability interface behind the optional LLM-assisted
// row extraction fallback (spec §4.2 step 5, §9's "optional heavy
// dependencies" design note). A no-op implementation is always available.
type LLMExtractor interface {
	Enabled() bool
	ExtractRows(ctx context.Context, rawText string) ([]RawOffer, error)
}

// VisionExtractor is the capability interface behind the optional OCR
// fallback for image-only PDFs and raster images (spec §4.3 step 2).
type VisionExtractor interface {
	Enabled() bool
	ExtractText(ctx context.Context, fileBytes []byte, mimeType string) (string, error)
}
