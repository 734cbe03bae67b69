// internal/ingestion/whatsapptext.go
package ingestion

import (
	"os"
	"strings"
)

// WhatsAppTextProcessor handles .txt WhatsApp transcript exports, per spec
// §4.1's extension table and §4.4.
type WhatsAppTextProcessor struct{}

func NewWhatsAppTextProcessor() *WhatsAppTextProcessor { return &WhatsAppTextProcessor{} }

func (p *WhatsAppTextProcessor) Name() string { return "whatsapp_text" }

func (p *WhatsAppTextProcessor) Accepts(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".txt")
}

func (p *WhatsAppTextProcessor) Process(path string, pc ProcessContext) (*ProcessorResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rows := ParseLines(string(data))
	for i := range rows {
		if rows[i].Currency == "" {
			rows[i].Currency = pc.DefaultCurrency
		}
	}

	return &ProcessorResult{
		Rows:     rows,
		RowCount: len(rows),
	}, nil
}
