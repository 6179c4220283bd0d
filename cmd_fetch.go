package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"touch_daily/internal/app"
	"touch_daily/internal/costindex"
	"touch_daily/internal/processing"
	"touch_daily/internal/retry"
	"touch_daily/internal/touch"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type fetchResult struct {
	CSVPath string
	Stores  int
	Rows    int
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the day's sales priced with purchase cost into a CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := runFetch(cmd.Context(), cfg, time.Now())
			return err
		},
	}
}

func runFetch(ctx context.Context, cfg *app.Config, now time.Time) (*fetchResult, error) {
	client := cfg.NewTouchClient()
	return fetchSales(ctx, cfg, client, now)
}

// salesAPI is the part of the TouchExpress client the fetch step uses.
type salesAPI interface {
	GetStores(ctx context.Context, day time.Time) (map[int]touch.StoreInfo, error)
	costindex.PurchaseSource
	processing.SalesSource
}

func fetchSales(ctx context.Context, cfg *app.Config, api salesAPI, now time.Time) (*fetchResult, error) {
	start := time.Now()
	if counter, ok := api.(interface{ ResetAPICallCount() }); ok {
		counter.ResetAPICallCount()
	}

	stores, err := retry.WithRetry(ctx, cfg.Resilience.APIRequest, func(ctx context.Context) (map[int]touch.StoreInfo, error) {
		return api.GetStores(ctx, cfg.Date)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stores: %w", err)
	}

	storeIDs := selectStores(stores, cfg.Stores)
	if len(storeIDs) == 0 {
		return nil, errors.New("no stores available")
	}

	window := costindex.NewWindow(cfg.WindowAnchor, now, cfg.Date)
	log.Info().
		Str("window", window.String()).
		Ints("stores", storeIDs).
		Msg("Building cost index")

	index := costindex.NewBuilder(api, cfg.Resilience.APIRequest).Build(ctx, storeIDs, window)
	rows := processing.CollectSales(ctx, api, cfg.Resilience.APIRequest, stores, storeIDs, window, index)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch interrupted: %w", err)
	}

	path := cfg.CSVPath()
	if err := processing.WriteCSV(path, rows); err != nil {
		return nil, err
	}

	event := log.Info().
		Str("csv", path).
		Int("stores", len(storeIDs)).
		Int("rows", len(rows)).
		Int("cost_entries", index.Len()).
		Dur("elapsed", time.Since(start))
	if counter, ok := api.(interface{ GetAPICallCount() int64 }); ok {
		event = event.Int64("api_calls", counter.GetAPICallCount())
	}
	event.Msg("Fetch completed")

	return &fetchResult{CSVPath: path, Stores: len(storeIDs), Rows: len(rows)}, nil
}

// selectStores returns the requested ids in the given order, or every known
// store in ascending order when none were requested.
func selectStores(stores map[int]touch.StoreInfo, requested []int) []int {
	if len(requested) == 0 {
		return touch.SortedStoreIDs(stores)
	}
	ids := make([]int, 0, len(requested))
	seen := make(map[int]bool, len(requested))
	for _, id := range requested {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := stores[id]; !ok {
			log.Warn().Int("store", id).Msg("Requested store not listed by the API")
		}
		ids = append(ids, id)
	}
	return ids
}
