// Package reconcile matches freshly scraped listings against persisted state
// and classifies each as new, price-changed, or unchanged.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mwalkowiak/flatwatch/internal/model"
	"github.com/mwalkowiak/flatwatch/internal/store"
)

// Observed pairs a listing with its derived identity key.
type Observed struct {
	Key     string
	Listing model.Listing
}

// Outcome summarizes one reconciliation batch.
type Outcome struct {
	New       []Observed // inserted this batch, in arrival order
	Changed   []Observed // price moved on an existing row
	Unchanged int
	Rejected  int // zero price or outside criteria, never persisted
	Failed    int // store errors, skipped without aborting the batch
}

// Engine applies candidate listings to the store. It is the only component
// that touches listing rows; adapters stay pure functions of the page.
type Engine struct {
	store    store.Store
	criteria model.Criteria
	now      func() time.Time
}

// NewEngine creates a reconciliation engine enforcing the given criteria as
// the final authoritative price filter.
func NewEngine(st store.Store, criteria model.Criteria) *Engine {
	return &Engine{store: st, criteria: criteria, now: time.Now}
}

// Reconcile processes candidates in arrival order. Per-candidate failures are
// logged and counted; they never abort the rest of the batch, so the outcome
// is always a complete accounting of the input.
func (e *Engine) Reconcile(ctx context.Context, candidates []model.Listing) Outcome {
	log := zap.L().With(zap.String("component", "reconcile"))
	var out Outcome

	for _, cand := range candidates {
		// A zero or unparsed price is never a valid listing, and the
		// configured range applies here even if an adapter already filtered.
		if !e.criteria.PriceInRange(cand.Price) {
			out.Rejected++
			continue
		}

		key := Key(cand.Portal, cand.URL)
		now := e.now()

		existing, err := e.store.GetByKey(ctx, key)
		if err != nil {
			log.Warn("lookup failed, skipping candidate",
				zap.String("url", cand.URL), zap.Error(err))
			out.Failed++
			continue
		}

		// Keep the derived field consistent regardless of what the adapter set.
		cand.PricePerM2 = model.PricePerM2For(cand.Price, cand.Area)

		if existing == nil {
			if err := e.store.Insert(ctx, key, cand, now); err != nil {
				log.Warn("insert failed, skipping candidate",
					zap.String("url", cand.URL), zap.Error(err))
				out.Failed++
				continue
			}
			log.Info("new listing",
				zap.String("portal", string(cand.Portal)),
				zap.Int64("price", cand.Price),
				zap.String("url", cand.URL))
			out.New = append(out.New, Observed{Key: key, Listing: cand})
			continue
		}

		if existing.Listing.Price != cand.Price {
			if err := e.store.UpdatePrice(ctx, key, cand.Price, cand.PricePerM2, now); err != nil {
				log.Warn("price update failed, skipping candidate",
					zap.String("url", cand.URL), zap.Error(err))
				out.Failed++
				continue
			}
			log.Info("price changed",
				zap.String("portal", string(cand.Portal)),
				zap.Int64("old", existing.Listing.Price),
				zap.Int64("new", cand.Price),
				zap.String("url", cand.URL))
			out.Changed = append(out.Changed, Observed{Key: key, Listing: cand})
			continue
		}

		if err := e.store.Touch(ctx, key, now); err != nil {
			log.Warn("touch failed, skipping candidate",
				zap.String("url", cand.URL), zap.Error(err))
			out.Failed++
			continue
		}
		out.Unchanged++
	}

	return out
}
