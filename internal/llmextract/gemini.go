// internal/llmextract/gemini.go
package llmextract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/pricebot/pricebot/internal/ingestion"
)

const extractionSystemInstruction = "You extract structured price-list rows from messy vendor text. " +
	"Given one raw row or line, respond with a JSON array of objects having keys " +
	"description, price, currency, quantity, condition, model, upc. " +
	"Omit keys you cannot determine. Never invent a price that is not present in the text."

// GeminiExtractor implements ingestion.LLMExtractor against Google's
// Generative AI API, grounded on the teacher's sibling-pack example
// (kiraleos-jedi-team-challenge/internal/core/llm_service.go) — the teacher
// itself has no LLM dependency, so this is adopted from the rest of the
// retrieval pack per the expansion's domain-stack wiring.
type GeminiExtractor struct {
	client  *genai.Client
	model   string
	enabled bool
	log     *logrus.Logger
}

func NewGeminiExtractor(ctx context.Context, apiKey, model string, log *logrus.Logger) (*GeminiExtractor, error) {
	if apiKey == "" {
		return &GeminiExtractor{enabled: false, log: log}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiExtractor{client: client, model: model, enabled: true, log: log}, nil
}

func (g *GeminiExtractor) Enabled() bool { return g != nil && g.enabled }

func (g *GeminiExtractor) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// ExtractRows submits rawText to Gemini and parses the JSON array response
// into RawOffer rows, per spec §4.2 step 5 and §4.3 step 2's dependency
// fallback. On any error here the spreadsheet processor, its caller, drops
// the LLM attempt and records the row's own parse warning; the error is
// never a fatal processor error.
func (g *GeminiExtractor) ExtractRows(ctx context.Context, rawText string) ([]ingestion.RawOffer, error) {
	if !g.Enabled() {
		return nil, nil
	}

	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(extractionSystemInstruction)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(rawText))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return parseExtractionJSON(text.String())
}

type extractedRow struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Quantity    *int    `json:"quantity"`
	Condition   *string `json:"condition"`
	Model       string  `json:"model"`
	UPC         string  `json:"upc"`
}

func parseExtractionJSON(text string) ([]ingestion.RawOffer, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var parsed []extractedRow
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	rows := make([]ingestion.RawOffer, 0, len(parsed))
	for _, p := range parsed {
		if p.Description == "" || p.Price <= 0 {
			continue
		}
		rows = append(rows, ingestion.RawOffer{
			Description: p.Description,
			Price:       p.Price,
			Currency:    p.Currency,
			Quantity:    p.Quantity,
			Condition:   p.Condition,
			Model:       p.Model,
			UPC:         p.UPC,
		})
	}
	return rows, nil
}
