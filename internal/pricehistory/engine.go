// internal/pricehistory/engine.go
package pricehistory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/repository"
)

// Engine materializes non-overlapping PriceHistorySpan rows per
// (product, vendor) pair as new offers arrive, including out-of-order
// arrivals that split or merge existing spans (spec §4.6).
type Engine struct {
	repo *repository.PriceHistoryRepository
}

func New(db *gorm.DB) *Engine {
	return &Engine{repo: repository.NewPriceHistoryRepository(db)}
}

// Apply records a new observation of price p for (productID, vendorID) at
// time t, sourced from offerID. Callers must hold the pair's advisory lock
// (repository.PriceHistoryRepository.LockPair) for the duration of the
// surrounding transaction before calling Apply, per spec §5.
func (e *Engine) Apply(productID, vendorID, offerID uuid.UUID, t time.Time, price float64, currency string) error {
	spans, err := e.repo.SpansForPair(productID, vendorID)
	if err != nil {
		return err
	}

	if len(spans) == 0 {
		return e.repo.Create(&models.PriceHistorySpan{
			ProductID:     productID,
			VendorID:      vendorID,
			Price:         price,
			Currency:      currency,
			ValidFrom:     t,
			ValidTo:       nil,
			SourceOfferID: offerID,
		})
	}

	if afterEveryValidFrom(spans, t) {
		return e.appendOrReplaceOpenSpan(spans[len(spans)-1], productID, vendorID, offerID, t, price, currency)
	}

	return e.splitAndMerge(spans, productID, vendorID, offerID, t, price, currency)
}

func afterEveryValidFrom(spans []models.PriceHistorySpan, t time.Time) bool {
	for _, s := range spans {
		if !t.After(s.ValidFrom) {
			return false
		}
	}
	return true
}

// appendOrReplaceOpenSpan implements spec §4.6 step 3: t is after every
// existing span's ValidFrom, so it extends or replaces the currently open span.
func (e *Engine) appendOrReplaceOpenSpan(open models.PriceHistorySpan, productID, vendorID, offerID uuid.UUID, t time.Time, price float64, currency string) error {
	if samePrice(open.Price, price) && open.Currency == currency {
		// Same price continues; no-op per idempotence requirement.
		return nil
	}

	closedAt := t
	open.ValidTo = &closedAt
	if err := e.repo.Save(&open); err != nil {
		return err
	}

	return e.repo.Create(&models.PriceHistorySpan{
		ProductID:     productID,
		VendorID:      vendorID,
		Price:         price,
		Currency:      currency,
		ValidFrom:     t,
		ValidTo:       nil,
		SourceOfferID: offerID,
	})
}

// splitAndMerge implements spec §4.6 step 4: t falls inside or before
// existing spans. Finds the covering span, splits it at t if the price
// differs, then runs a merge pass over adjacent spans with equal
// (price, currency).
func (e *Engine) splitAndMerge(spans []models.PriceHistorySpan, productID, vendorID, offerID uuid.UUID, t time.Time, price float64, currency string) error {
	covering := findCoveringSpan(spans, t)
	if covering == nil {
		// t is before the very first span's ValidFrom with no covering span;
		// extend that span's start backward instead of leaving a gap, which
		// preserves "a history span exists that contains its captured_at".
		first := spans[0]
		if samePrice(first.Price, price) && first.Currency == currency {
			first.ValidFrom = t
			if err := e.repo.Save(&first); err != nil {
				return err
			}
			return e.mergePass(productID, vendorID)
		}
		if err := e.repo.Create(&models.PriceHistorySpan{
			ProductID:     productID,
			VendorID:      vendorID,
			Price:         price,
			Currency:      currency,
			ValidFrom:     t,
			ValidTo:       timePtr(first.ValidFrom),
			SourceOfferID: offerID,
		}); err != nil {
			return err
		}
		return e.mergePass(productID, vendorID)
	}

	if samePrice(covering.Price, price) && covering.Currency == currency {
		return nil
	}

	originalValidTo := covering.ValidTo
	covering.ValidTo = timePtr(t)
	if err := e.repo.Save(covering); err != nil {
		return err
	}

	if err := e.repo.Create(&models.PriceHistorySpan{
		ProductID:     productID,
		VendorID:      vendorID,
		Price:         price,
		Currency:      currency,
		ValidFrom:     t,
		ValidTo:       originalValidTo,
		SourceOfferID: offerID,
	}); err != nil {
		return err
	}

	return e.mergePass(productID, vendorID)
}

// mergePass collapses adjacent spans sharing (price, currency) after a
// split, per spec §4.6 step 4's "merge pass" requirement.
func (e *Engine) mergePass(productID, vendorID uuid.UUID) error {
	spans, err := e.repo.SpansForPair(productID, vendorID)
	if err != nil {
		return err
	}

	for i := 0; i < len(spans)-1; i++ {
		x, y := spans[i], spans[i+1]
		if x.ValidTo == nil || !x.ValidTo.Equal(y.ValidFrom) {
			continue
		}
		if !samePrice(x.Price, y.Price) || x.Currency != y.Currency {
			continue
		}
		x.ValidTo = y.ValidTo
		if err := e.repo.Save(&x); err != nil {
			return err
		}
		if err := e.repo.Delete(y.ID); err != nil {
			return err
		}
		// Restart the pass: deleting y shifts indices and may expose a new
		// adjacency (x merged, now bordering what was spans[i+2]).
		return e.mergePass(productID, vendorID)
	}
	return nil
}

func findCoveringSpan(spans []models.PriceHistorySpan, t time.Time) *models.PriceHistorySpan {
	for i := range spans {
		if spans[i].Contains(t) {
			return &spans[i]
		}
	}
	return nil
}

func samePrice(a, b float64) bool {
	const epsilon = 1e-6
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < epsilon
}

func timePtr(t time.Time) *time.Time { return &t }
