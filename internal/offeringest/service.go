// internal/offeringest/service.go
package offeringest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/database"
	"github.com/pricebot/pricebot/internal/ingestion"
	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/pricehistory"
	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/resolver"
)

// Service canonicalizes RawOffer rows into persisted Offer records and
// drives the price-history engine, per spec §4.5. One call to IngestRows
// corresponds to one source artefact (upload or WhatsApp extraction) and
// runs as a single transaction, per spec §5's ordering guarantees.
type Service struct {
	db           *gorm.DB
	embeddings   resolver.EmbeddingService
	threshold    float64
	candidateCap int
	log          *logrus.Logger
}

func New(db *gorm.DB, embeddings resolver.EmbeddingService, threshold float64, candidateCap int, log *logrus.Logger) *Service {
	return &Service{db: db, embeddings: embeddings, threshold: threshold, candidateCap: candidateCap, log: log}
}

// Outcome summarizes what happened to one batch of RawOffer rows, for
// IngestionJob logs and the job status endpoint's summary.
type Outcome struct {
	OffersCreated int
	Warnings      []string
	OfferIDs      []uuid.UUID
}

// IngestRows persists one RawOffer per row inside a single transaction,
// attributing every offer to doc (and its declared vendor, if any), then
// updates the price-history spans for each resolved (product, vendor) pair.
// A mid-batch failure rolls back every persisted offer and history mutation
// for the whole batch, per spec §7's propagation rule.
func (s *Service) IngestRows(ctx context.Context, rows []ingestion.RawOffer, doc *models.SourceDocument, declaredVendor string) (*Outcome, error) {
	outcome := &Outcome{}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		res := resolver.New(tx, s.embeddings, s.threshold, s.candidateCap)
		offerRepo := repository.NewOfferRepository(tx)
		historyRepo := repository.NewPriceHistoryRepository(tx)
		engine := pricehistory.New(tx)

		capturedAt := time.Now().UTC()
		if doc.IngestStartedAt != nil {
			capturedAt = doc.IngestStartedAt.UTC()
		}

		for _, row := range rows {
			if err := s.ingestRow(ctx, tx, res, offerRepo, historyRepo, engine, row, doc, declaredVendor, capturedAt, outcome); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (s *Service) ingestRow(
	ctx context.Context,
	tx *gorm.DB,
	res *resolver.Resolver,
	offerRepo *repository.OfferRepository,
	historyRepo *repository.PriceHistoryRepository,
	engine *pricehistory.Engine,
	row ingestion.RawOffer,
	doc *models.SourceDocument,
	declaredVendor string,
	capturedAt time.Time,
	outcome *Outcome,
) error {
	vendor, err := res.ResolveVendor(declaredVendor, row.VendorHint, vendorFromDoc(doc))
	if err != nil {
		return err
	}
	if vendor == nil {
		outcome.Warnings = append(outcome.Warnings, "missing_vendor: "+row.Description)
		return nil
	}

	resolved, err := res.ResolveProduct(ctx, row, vendor.ID)
	if err != nil {
		return err
	}
	product := resolved.Product

	if !resolved.Created {
		var embedding []float64
		if s.embeddings != nil && s.embeddings.Enabled() {
			embedding, _ = s.embeddings.Embed(ctx, row.Description)
		}
		if err := res.MaybeInsertAlias(product, row.Description, vendor.ID, embedding); err != nil {
			return err
		}
	}

	currency := row.Currency
	if currency == "" {
		currency = "USD"
	}
	if row.Price <= 0 {
		outcome.Warnings = append(outcome.Warnings, "row_warning: non_positive_price: "+row.Description)
		return nil
	}

	offer := &models.Offer{
		ProductID:        product.ID,
		VendorID:         vendor.ID,
		SourceDocumentID: docIDPtr(doc),
		CapturedAt:       capturedAt,
		Price:            row.Price,
		Currency:         currency,
		Quantity:         row.Quantity,
		Condition:        row.Condition,
		Location:         locationPtr(row.Location),
		RawPayload:       row.RawRow,
	}
	if err := offerRepo.Create(offer); err != nil {
		return err
	}
	outcome.OffersCreated++
	outcome.OfferIDs = append(outcome.OfferIDs, offer.ID)

	if err := historyRepo.LockPair(product.ID, vendor.ID); err != nil {
		return err
	}
	if err := engine.Apply(product.ID, vendor.ID, offer.ID, capturedAt, row.Price, currency); err != nil {
		return err
	}

	return nil
}

func vendorFromDoc(doc *models.SourceDocument) string {
	if doc == nil || doc.Extra == nil {
		return ""
	}
	if v, ok := doc.Extra["declared_vendor"].(string); ok {
		return v
	}
	return ""
}

func docIDPtr(doc *models.SourceDocument) *uuid.UUID {
	if doc == nil {
		return nil
	}
	id := doc.ID
	return &id
}

func locationPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
