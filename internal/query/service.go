// internal/query/service.go
package query

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/resolver"
)

// Service backs the read paths consumed by chat tools, per spec §4.9. It
// holds no state beyond the database handle and the embedding capability
// used to augment substring search.
type Service struct {
	db         *gorm.DB
	embeddings resolver.EmbeddingService
	threshold  float64
	candidateCap int
}

func New(db *gorm.DB, embeddings resolver.EmbeddingService, threshold float64, candidateCap int) *Service {
	if embeddings == nil {
		embeddings = resolver.NoopEmbeddingService{}
	}
	if candidateCap <= 0 {
		candidateCap = 50
	}
	return &Service{db: db, embeddings: embeddings, threshold: threshold, candidateCap: candidateCap}
}

// ResolveProductsResult is the resolve_products response shape.
type ResolveProductsResult struct {
	Products   []models.Product `json:"products"`
	Total      int64            `json:"total"`
	NextOffset *int             `json:"next_offset,omitempty"`
}

// ResolveProducts implements spec §4.9's resolve_products: substring search
// over canonical name/model/UPC, augmented with the nearest alias-owning
// products by embedding similarity when fewer than 3 substring matches are
// found and embeddings are enabled.
func (s *Service) ResolveProducts(ctx context.Context, q string, limit, offset int) (*ResolveProductsResult, error) {
	products := repository.NewProductRepository(s.db)

	matches, total, err := products.SearchByText(q, limit, offset)
	if err != nil {
		return nil, err
	}

	if len(matches) < 3 && s.embeddings.Enabled() {
		matches, err = s.augmentWithEmbeddings(ctx, q, matches)
		if err != nil {
			return nil, err
		}
	}

	result := &ResolveProductsResult{Products: matches, Total: total}
	if int64(offset+len(matches)) < total {
		next := offset + limit
		result.NextOffset = &next
	}
	return result, nil
}

func (s *Service) augmentWithEmbeddings(ctx context.Context, q string, existing []models.Product) ([]models.Product, error) {
	products := repository.NewProductRepository(s.db)
	queryEmbedding, err := s.embeddings.Embed(ctx, q)
	if err != nil || len(queryEmbedding) == 0 {
		return existing, nil
	}

	candidates, err := products.FindAliasCandidates(s.candidateCap)
	if err != nil {
		return existing, err
	}

	seen := make(map[uuid.UUID]bool, len(existing))
	for _, p := range existing {
		seen[p.ID] = true
	}

	scored := make([]struct {
		alias models.ProductAlias
		score float64
	}, 0, len(candidates))
	for _, alias := range candidates {
		score := resolver.CosineSimilarity(queryEmbedding, alias.Embedding)
		if score >= s.threshold {
			scored = append(scored, struct {
				alias models.ProductAlias
				score float64
			}{alias, score})
		}
	}

	for _, sc := range scored {
		if seen[sc.alias.ProductID] {
			continue
		}
		p, err := products.Get(sc.alias.ProductID)
		if err != nil {
			continue
		}
		seen[p.ID] = true
		existing = append(existing, *p)
	}
	return existing, nil
}

// BestPriceResult is one entry in search_best_price's response list.
type BestPriceResult struct {
	Product         models.Product  `json:"product"`
	BestOffer       *models.Offer   `json:"best_offer,omitempty"`
	AlternateOffers []models.Offer  `json:"alternate_offers"`
}

// SearchBestPrice implements spec §4.9's search_best_price: resolve
// products, then per product return the lowest-price active offer plus up
// to limit-1 alternates.
func (s *Service) SearchBestPrice(ctx context.Context, q string, filter repository.OfferFilter, limit int) ([]BestPriceResult, error) {
	if limit <= 0 {
		limit = 5
	}
	resolved, err := s.ResolveProducts(ctx, q, 20, 0)
	if err != nil {
		return nil, err
	}

	offers := repository.NewOfferRepository(s.db)
	results := make([]BestPriceResult, 0, len(resolved.Products))
	for _, p := range resolved.Products {
		best, err := offers.BestOfferForProduct(p.ID, filter)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				results = append(results, BestPriceResult{Product: p})
				continue
			}
			return nil, err
		}
		alternates, err := offers.AlternateOffersForProduct(p.ID, best.ID, limit-1, filter)
		if err != nil {
			return nil, err
		}
		results = append(results, BestPriceResult{Product: p, BestOffer: best, AlternateOffers: alternates})
	}
	return results, nil
}

// PriceHistoryByProduct and PriceHistoryByVendor implement spec §4.9's
// price_history operation.
func (s *Service) PriceHistoryByProduct(productID uuid.UUID, limit int) ([]models.PriceHistorySpan, error) {
	return repository.NewPriceHistoryRepository(s.db).ListByProduct(productID, limit)
}

func (s *Service) PriceHistoryByVendor(vendorID uuid.UUID, limit int) ([]models.PriceHistorySpan, error) {
	return repository.NewPriceHistoryRepository(s.db).ListByVendor(vendorID, limit)
}
