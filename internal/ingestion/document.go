// internal/ingestion/document.go
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DocumentProcessor handles PDFs and raster images, per spec §4.3. It first
// attempts embedded-text extraction (for PDFs); when that text is too thin,
// or the file is a raster image, it falls back to the vision capability.
// Extracted text is then run through the same free-form line parser used
// for WhatsApp transcripts, since both are free-form price lines.
type DocumentProcessor struct{}

func NewDocumentProcessor() *DocumentProcessor { return &DocumentProcessor{} }

func (p *DocumentProcessor) Name() string { return "document_text" }

func (p *DocumentProcessor) Accepts(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".png", ".jpg", ".jpeg", ".webp", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

func (p *DocumentProcessor) Process(path string, pc ProcessContext) (*ProcessorResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	result := &ProcessorResult{}

	text, extractedEmbedded, err := extractText(path, ext, pc, result)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("text_extraction_failed: %v", err))
	}
	if extractedEmbedded {
		result.Warnings = append(result.Warnings, "extraction_path: embedded_pdf_text")
	}

	rows := ParseLines(text)
	for i := range rows {
		if rows[i].Currency == "" {
			rows[i].Currency = pc.DefaultCurrency
		}
	}
	result.Rows = rows
	result.RowCount = len(rows)
	return result, nil
}

// extractText implements spec §4.3 steps 1-2: embedded PDF text first (when
// it clears the configured character threshold), else the vision fallback.
func extractText(path, ext string, pc ProcessContext, result *ProcessorResult) (string, bool, error) {
	minChars := pc.MinEmbeddedTextChars
	if minChars <= 0 {
		minChars = 200
	}

	if ext == ".pdf" {
		embedded, err := extractEmbeddedPDFText(path)
		if err == nil && countPrintable(embedded) >= minChars {
			return embedded, true, nil
		}
	}

	if pc.Vision == nil || !pc.Vision.Enabled() {
		result.Warnings = append(result.Warnings, "dependency_unavailable: vision service disabled")
		return "", false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}

	mimeType := mimeTypeForExt(ext)
	text, err := pc.Vision.ExtractText(pc.Ctx, data, mimeType)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("dependency_unavailable: vision error: %v", err))
		return "", false, nil
	}
	result.Warnings = append(result.Warnings, "extraction_path: vision_ocr")
	return text, false, nil
}

func extractEmbeddedPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	totalPages := r.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func countPrintable(s string) int {
	n := 0
	for _, r := range s {
		if r > ' ' {
			n++
		}
	}
	return n
}

func mimeTypeForExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
