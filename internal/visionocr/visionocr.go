// internal/visionocr/visionocr.go
package visionocr

import (
	"context"

	"github.com/pricebot/pricebot/internal/ingestion"
)

// NoopExtractor is the vision capability's default — the document
// processor's embedded-text path still runs for PDFs; raster images and
// scanned PDFs simply produce no rows and a warning, per spec §4.3's
// failure mode and §9's "optional heavy dependencies" design note.
type NoopExtractor struct{}

func (NoopExtractor) Enabled() bool { return false }

func (NoopExtractor) ExtractText(ctx context.Context, fileBytes []byte, mimeType string) (string, error) {
	return "", nil
}

var _ ingestion.VisionExtractor = NoopExtractor{}
