package costindex

import (
	"context"
	"time"

	"touch_daily/internal/retry"
	"touch_daily/internal/touch"

	"github.com/rs/zerolog/log"
)

// PurchaseSource returns the purchase documents of one store for one day.
// *touch.Client satisfies it.
type PurchaseSource interface {
	GetPurchaseDocuments(ctx context.Context, storeID int, day time.Time) ([]touch.Document, error)
}

type Builder struct {
	source PurchaseSource
	retry  retry.Config
}

func NewBuilder(source PurchaseSource, retryConfig retry.Config) *Builder {
	return &Builder{source: source, retry: retryConfig}
}

// Build scans every day of the window and, for each day, every store in the
// given order. A failed (day, store) fetch is logged and skipped. Only a
// cancelled ctx stops the scan early; the index built so far is returned.
func (b *Builder) Build(ctx context.Context, storeIDs []int, window Window) Index {
	idx := make(Index, len(storeIDs))
	for _, id := range storeIDs {
		idx[id] = make(map[string]Entry)
	}

	log.Info().
		Str("window", window.String()).
		Ints("stores", storeIDs).
		Msg("Building cost index")
	start := time.Now()

	var failed, documents, observations int
	for _, day := range window.Days() {
		for _, storeID := range storeIDs {
			if ctx.Err() != nil {
				log.Warn().Err(ctx.Err()).Msg("Cost index build interrupted")
				return idx
			}

			docs, err := retry.WithRetry(ctx, b.retry, func(ctx context.Context) ([]touch.Document, error) {
				return b.source.GetPurchaseDocuments(ctx, storeID, day)
			})
			if err != nil {
				failed++
				log.Warn().
					Err(err).
					Str("day", day.Format("2006-01-02")).
					Int("store", storeID).
					Msg("Failed to fetch purchases; skipping")
				continue
			}

			log.Debug().
				Str("day", day.Format("2006-01-02")).
				Int("store", storeID).
				Int("documents", len(docs)).
				Msg("Fetched purchases")

			documents += len(docs)
			observations += b.fold(idx, storeID, docs)
		}
	}

	log.Info().
		Int("documents", documents).
		Int("observations", observations).
		Int("entries", idx.Len()).
		Int("failed_fetches", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Cost index built")
	return idx
}

func (b *Builder) fold(idx Index, storeID int, docs []touch.Document) int {
	observed := 0
	for _, raw := range docs {
		doc, err := DecodePurchase(storeID, raw)
		if err != nil {
			log.Debug().Err(err).Int("store", storeID).Msg("Skipping purchase document")
			continue
		}
		for _, line := range doc.Lines {
			unit, ok := UnitCost(line)
			if !ok {
				continue
			}
			idx.Observe(storeID, line.ProductRef, doc.Timestamp, unit)
			observed++
		}
	}
	return observed
}
