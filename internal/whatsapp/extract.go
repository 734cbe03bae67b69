// internal/whatsapp/extract.go
package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pricebot/pricebot/internal/ingestion"
	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/repository"
)

// scheduleExtraction arms the per-chat debounce timer, per spec §4.8 step 6:
// a burst of messages in the same chat collapses into one extraction run
// once the chat has been quiet for the configured window.
func (s *Service) scheduleExtraction(chatID uuid.UUID) {
	s.debouncer.Schedule(chatID, func() {
		if _, err := s.ExtractChat(context.Background(), chatID); err != nil {
			s.log.WithError(err).WithField("chat_id", chatID).Warn("debounced whatsapp extraction failed")
			s.metrics.RecordFailure("processor_failure", err.Error(), chatID.String())
		}
	})
}

// ExtractChat parses every message observed since the chat's
// last_extracted_at watermark into RawOffer rows and runs them through the
// same offer-ingestion tail the upload path uses, per spec §4.8 step 6 and
// §4's shared-tail design. It is used both by the debounce timer and by the
// manual /extract and /extract-latest admin endpoints (SPEC_FULL.md
// supplemented feature 3).
func (s *Service) ExtractChat(ctx context.Context, chatID uuid.UUID) (*offeringestOutcome, error) {
	repo := repository.NewWhatsAppRepository(s.db)
	chat, err := repo.GetChat(chatID)
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}

	since := time.Time{}
	if chat.LastExtractedAt != nil {
		since = *chat.LastExtractedAt
	}
	messages, err := repo.RecentMessagesForChat(chatID, since)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if len(messages) == 0 {
		return &offeringestOutcome{}, nil
	}

	rows, transcript := buildRawOffers(chat.Title, messages)
	if len(rows) == 0 {
		return &offeringestOutcome{}, markExtracted(repo, chat, messages[len(messages)-1].ObservedAt)
	}

	if chat.VendorID == nil {
		if err := markExtracted(repo, chat, messages[len(messages)-1].ObservedAt); err != nil {
			return nil, err
		}
		return &offeringestOutcome{Warnings: []string{"unmapped_vendor"}}, nil
	}

	vendor, err := repository.NewVendorRepository(s.db).Get(*chat.VendorID)
	if err != nil {
		return nil, fmt.Errorf("load mapped vendor: %w", err)
	}

	startedAt := time.Now().UTC()
	doc := &models.SourceDocument{
		VendorID:        chat.VendorID,
		FileName:        chat.Title + ".whatsapp",
		FileType:        "whatsapp",
		StorageURI:      fmt.Sprintf("whatsapp://chat/%s", chatID),
		Status:          models.DocumentStatusProcessing,
		IngestStartedAt: &startedAt,
		Extra:           models.JSONMap{"chat_id": chatID.String(), "message_count": len(messages)},
	}
	docs := repository.NewSourceDocumentRepository(s.db)
	if err := docs.Create(doc); err != nil {
		return nil, fmt.Errorf("create source document: %w", err)
	}

	outcome, err := s.offers.IngestRows(ctx, rows, doc, vendor.Name)
	if err != nil {
		_ = docs.MarkStatus(doc.ID, models.DocumentStatusFailed, models.JSONMap{"error": err.Error()})
		s.metrics.IncDocumentFailed()
		return nil, fmt.Errorf("ingest extracted rows: %w", err)
	}

	status := models.DocumentStatusProcessed
	if len(outcome.Warnings) > 0 {
		status = models.DocumentStatusProcessedWithWarnings
	}
	_ = docs.MarkStatus(doc.ID, status, models.JSONMap{"transcript_lines": len(transcript)})

	s.metrics.IncDocumentProcessed()
	s.metrics.AddOffersIngested(outcome.OffersCreated)
	for i := range messages {
		s.metrics.IncWhatsApp(messages[i].ClientID, chatID.String(), "extracted")
	}

	if err := markExtracted(repo, chat, messages[len(messages)-1].ObservedAt); err != nil {
		return nil, err
	}
	return &offeringestOutcome{OffersCreated: outcome.OffersCreated, Warnings: outcome.Warnings}, nil
}

func markExtracted(repo *repository.WhatsAppRepository, chat *models.WhatsAppChat, watermark time.Time) error {
	chat.LastExtractedAt = &watermark
	return repo.SaveChat(chat)
}

// buildRawOffers reconstructs a WhatsApp-transcript-shaped text blob from
// the stored messages so the existing line parser (spec §4.4) can be reused
// unchanged for the live ingest path, rather than duplicating its price and
// quantity heuristics here.
func buildRawOffers(chatTitle string, messages []models.WhatsAppMessage) ([]ingestion.RawOffer, []string) {
	var lines []string
	for _, m := range messages {
		sender := "unknown"
		if m.SenderName != nil && *m.SenderName != "" {
			sender = *m.SenderName
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.ObservedAt.Format("1/2/06, 3:04:05 PM"), sender, m.Text))
	}
	text := strings.Join(lines, "\n")
	return ingestion.ParseLines(text), lines
}

// offeringestOutcome mirrors offeringest.Outcome's fields relevant to the
// extraction endpoints' response, without importing offeringest's internal
// OfferIDs bookkeeping the HTTP layer doesn't need.
type offeringestOutcome struct {
	OffersCreated int
	Warnings      []string
}
