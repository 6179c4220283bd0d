package sheets

import (
	"context"
	"fmt"

	"touch_daily/internal/gauth"
	"touch_daily/internal/retry"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type Client struct {
	service *sheets.Service
	retry   retry.Config
}

func NewClient(ctx context.Context, retryConfig retry.Config, opts ...option.ClientOption) (*Client, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
		retry:   retryConfig,
	}, nil
}

// NewServiceAccountClient authenticates with the service account key at
// credentialsFile.
func NewServiceAccountClient(ctx context.Context, credentialsFile string, retryConfig retry.Config) (*Client, error) {
	creds, err := gauth.ServiceAccount(ctx, credentialsFile, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, retryConfig, creds)
}

// SheetInfo is the id and grid size of one tab.
type SheetInfo struct {
	ID      int64
	Title   string
	Rows    int64
	Columns int64
}

// FindSheet returns the tab named title, or nil when the spreadsheet has no
// such tab.
func (c *Client) FindSheet(ctx context.Context, spreadsheetID, title string) (*SheetInfo, error) {
	resp, err := retry.WithRetry(ctx, c.retry, func(ctx context.Context) (*sheets.Spreadsheet, error) {
		s, err := c.service.Spreadsheets.Get(spreadsheetID).
			Fields("sheets.properties").
			Context(ctx).
			Do()
		return s, gauth.Classify(err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	for _, s := range resp.Sheets {
		if s.Properties == nil || s.Properties.Title != title {
			continue
		}
		info := &SheetInfo{ID: s.Properties.SheetId, Title: s.Properties.Title}
		if g := s.Properties.GridProperties; g != nil {
			info.Rows = g.RowCount
			info.Columns = g.ColumnCount
		}
		return info, nil
	}
	return nil, nil
}

// AddSheet creates a tab with the given grid size.
func (c *Client) AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) (*SheetInfo, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: title,
					GridProperties: &sheets.GridProperties{
						RowCount:    rows,
						ColumnCount: cols,
					},
				},
			},
		}},
	}

	resp, err := c.batchUpdate(ctx, spreadsheetID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet %q: %w", title, err)
	}

	info := &SheetInfo{Title: title, Rows: rows, Columns: cols}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		info.ID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	return info, nil
}

// ResizeSheet sets the grid size of a tab.
func (c *Client) ResizeSheet(ctx context.Context, spreadsheetID string, sheetID, rows, cols int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						RowCount:    rows,
						ColumnCount: cols,
					},
					// the first tab has id 0
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "gridProperties.rowCount,gridProperties.columnCount",
			},
		}},
	}
	if _, err := c.batchUpdate(ctx, spreadsheetID, req); err != nil {
		return fmt.Errorf("failed to resize sheet: %w", err)
	}
	return nil
}

func (c *Client) ClearRange(ctx context.Context, spreadsheetID, range_ string) error {
	_, err := retry.WithRetry(ctx, c.retry, func(ctx context.Context) (*sheets.ClearValuesResponse, error) {
		resp, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, range_, &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		return resp, gauth.Classify(err)
	})
	if err != nil {
		return fmt.Errorf("failed to clear range: %w", err)
	}
	return nil
}

// UpdateRange writes values starting at range_ without interpreting them.
func (c *Client) UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := retry.WithRetry(ctx, c.retry, func(ctx context.Context) (*sheets.UpdateValuesResponse, error) {
		resp, err := c.service.Spreadsheets.Values.Update(spreadsheetID, range_, valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return resp, gauth.Classify(err)
	})
	if err != nil {
		return fmt.Errorf("failed to update range: %w", err)
	}

	return nil
}

func (c *Client) batchUpdate(ctx context.Context, spreadsheetID string, req *sheets.BatchUpdateSpreadsheetRequest) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	return retry.WithRetry(ctx, c.retry, func(ctx context.Context) (*sheets.BatchUpdateSpreadsheetResponse, error) {
		resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
		return resp, gauth.Classify(err)
	})
}
