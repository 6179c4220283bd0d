package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// PushResult summarises one tab push.
type PushResult struct {
	Tab     string
	Created bool
	Rows    int
	Columns int
	Elapsed time.Duration
}

// PushValues replaces the content of tab with values. The tab is created
// when missing, cleared, resized to the data and written from A1.
func (c *Client) PushValues(ctx context.Context, spreadsheetID, tab string, values [][]interface{}) (*PushResult, error) {
	start := time.Now()
	rows, cols := len(values), 0
	for _, r := range values {
		cols = max(cols, len(r))
	}

	log.Info().
		Str("spreadsheet", spreadsheetID).
		Str("tab", tab).
		Int("rows", rows).
		Int("columns", cols).
		Msg("Pushing values to Google Sheets")

	result := &PushResult{Tab: tab, Rows: rows, Columns: cols}

	info, err := c.FindSheet(ctx, spreadsheetID, tab)
	if err != nil {
		return nil, err
	}
	if info == nil {
		info, err = c.AddSheet(ctx, spreadsheetID, tab, int64(max(1000, rows+10)), int64(max(26, cols+5)))
		if err != nil {
			return nil, err
		}
		result.Created = true
		log.Info().Str("tab", tab).Msg("Created destination tab")
	}

	if err := c.ClearRange(ctx, spreadsheetID, quoteTab(tab)); err != nil {
		return nil, err
	}

	if err := c.ResizeSheet(ctx, spreadsheetID, info.ID, int64(max(rows, 1)), int64(max(cols, 1))); err != nil {
		return nil, err
	}

	if rows > 0 {
		if err := c.UpdateRange(ctx, spreadsheetID, quoteTab(tab)+"!A1", values); err != nil {
			return nil, err
		}
	}

	result.Elapsed = time.Since(start)
	log.Info().
		Str("tab", tab).
		Int("rows", rows).
		Dur("elapsed", result.Elapsed).
		Msg("Google Sheet updated")
	return result, nil
}

// PushWorkbookTab reads sourceTab from the workbook at path and pushes it to
// tab of the spreadsheet.
func (c *Client) PushWorkbookTab(ctx context.Context, path, sourceTab, spreadsheetID, tab string) (*PushResult, error) {
	values, err := ReadWorkbookTab(path, sourceTab)
	if err != nil {
		return nil, err
	}
	res, err := c.PushValues(ctx, spreadsheetID, tab, values)
	if err != nil {
		return nil, fmt.Errorf("failed to push %s: %w", path, err)
	}
	return res, nil
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
