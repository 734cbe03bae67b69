// internal/llmextract/llmextract.go
package llmextract

import (
	"context"

	"github.com/pricebot/pricebot/internal/ingestion"
)

// NoopExtractor is the capability's default: Enabled reports false and
// ExtractRows is never actually invoked by callers that check Enabled
// first, per spec §9's "optional heavy dependencies" design note.
type NoopExtractor struct{}

func (NoopExtractor) Enabled() bool { return false }

func (NoopExtractor) ExtractRows(ctx context.Context, rawText string) ([]ingestion.RawOffer, error) {
	return nil, nil
}

var _ ingestion.LLMExtractor = NoopExtractor{}
