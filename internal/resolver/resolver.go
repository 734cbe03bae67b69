// internal/resolver/resolver.go
package resolver

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/ingestion"
	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/repository"
)

// Resolver maps noisy raw strings onto canonical Vendor/Product rows, per
// spec §4.5 steps 1-2. It is constructed fresh per-transaction so every
// lookup and create runs against the same tx.
type Resolver struct {
	db         *gorm.DB
	vendors    *repository.VendorRepository
	products   *repository.ProductRepository
	embeddings EmbeddingService
	threshold  float64
	candidateCap int
}

func New(db *gorm.DB, embeddings EmbeddingService, threshold float64, candidateCap int) *Resolver {
	if embeddings == nil {
		embeddings = NoopEmbeddingService{}
	}
	if candidateCap <= 0 {
		candidateCap = 50
	}
	return &Resolver{
		db:           db,
		vendors:      repository.NewVendorRepository(db),
		products:     repository.NewProductRepository(db),
		embeddings:   embeddings,
		threshold:    threshold,
		candidateCap: candidateCap,
	}
}

// ResolveVendor implements spec §4.5 step 1: prefer declared vendor, else
// vendor_hint, else document metadata. An empty result signals
// missing_vendor to the caller.
func (r *Resolver) ResolveVendor(declaredVendor, vendorHint, docVendor string) (*models.Vendor, error) {
	name := firstNonEmpty(declaredVendor, vendorHint, docVendor)
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return r.vendors.GetOrCreateByName(name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ResolveProductResult captures both the resolved product and whether it was
// newly created, so the caller can decide on alias insertion.
type ResolveProductResult struct {
	Product *models.Product
	Created bool
	MatchedBy string
}

// ResolveProduct implements spec §4.5 step 2, trying each strategy in order
// and stopping at the first hit.
func (r *Resolver) ResolveProduct(ctx context.Context, row ingestion.RawOffer, vendorID uuid.UUID) (*ResolveProductResult, error) {
	if upc := repository.NormalizeUPC(row.UPC); upc != "" {
		if p, err := r.products.FindByUPC(upc); err == nil {
			return &ResolveProductResult{Product: p, MatchedBy: "upc"}, nil
		}
	}

	if row.Brand != "" && row.Model != "" {
		if p, err := r.products.FindByBrandModel(row.Brand, row.Model); err == nil {
			return &ResolveProductResult{Product: p, MatchedBy: "brand_model"}, nil
		}
	}

	if alias, err := r.products.FindAliasExact(row.Description, vendorID); err == nil {
		if p, err := r.products.Get(alias.ProductID); err == nil {
			return &ResolveProductResult{Product: p, MatchedBy: "alias_exact"}, nil
		}
	}

	if r.embeddings.Enabled() {
		queryEmbedding, err := r.embeddings.Embed(ctx, row.Description)
		if err == nil && len(queryEmbedding) > 0 {
			candidates, err := r.products.FindAliasCandidates(r.candidateCap)
			if err == nil {
				if alias, _, ok := NearestAlias(queryEmbedding, candidates, r.threshold); ok {
					if p, err := r.products.Get(alias.ProductID); err == nil {
						return &ResolveProductResult{Product: p, MatchedBy: "alias_fuzzy"}, nil
					}
				}
			}
		}
	}

	product := &models.Product{
		CanonicalName: strings.TrimSpace(row.Description),
	}
	if row.Brand != "" {
		b := row.Brand
		product.Brand = &b
	}
	if row.Model != "" {
		m := row.Model
		product.ModelNumber = &m
	}
	if upc := repository.NormalizeUPC(row.UPC); upc != "" {
		product.UPC = &upc
	}
	if err := r.products.Create(product); err != nil {
		return nil, err
	}
	return &ResolveProductResult{Product: product, Created: true, MatchedBy: "created"}, nil
}

// MaybeInsertAlias implements spec §4.5's closing rule: on a hit where the
// row's description differs from the matched product's canonical name,
// insert a ProductAlias if one does not already exist.
func (r *Resolver) MaybeInsertAlias(product *models.Product, description string, vendorID uuid.UUID, embedding []float64) error {
	description = strings.TrimSpace(description)
	if description == "" || strings.EqualFold(description, product.CanonicalName) {
		return nil
	}
	return r.products.CreateAliasIfMissing(product.ID, description, &vendorID, embedding)
}
