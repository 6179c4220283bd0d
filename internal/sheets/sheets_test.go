package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"touch_daily/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
)

type recordedCall struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeSheetsAPI struct {
	mu       sync.Mutex
	calls    []recordedCall
	existing bool
}

func (f *fakeSheetsAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
		existing := f.existing
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			sheets := []any{map[string]any{"properties": map[string]any{"sheetId": 1, "title": "Other"}}}
			if existing {
				sheets = append(sheets, map[string]any{"properties": map[string]any{
					"sheetId": 7, "title": "Daily",
					"gridProperties": map[string]any{"rowCount": 1000, "columnCount": 26},
				}})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
		case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
			if strings.Contains(string(body), "addSheet") {
				_ = json.NewEncoder(w).Encode(map[string]any{"replies": []any{
					map[string]any{"addSheet": map[string]any{"properties": map[string]any{"sheetId": 42, "title": "Daily"}}},
				}})
				return
			}
			_, _ = w.Write([]byte(`{"replies":[{}]}`))
		case strings.HasSuffix(r.URL.Path, ":clear"):
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodPut:
			_, _ = w.Write([]byte(`{"updatedRows":2}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	c, err := NewClient(context.Background(), retry.Config{},
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestPushValuesCreatesMissingTab(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api)

	values := [][]interface{}{{"SERIE", "COSTE"}, {"007", 5.0}}
	res, err := c.PushValues(context.Background(), "sheet-id", "Daily", values)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 2, res.Columns)

	require.Len(t, api.calls, 5)
	assert.Equal(t, http.MethodGet, api.calls[0].Method)

	add := api.calls[1]
	assert.Contains(t, add.Body, `"addSheet"`)
	assert.Contains(t, add.Body, `"rowCount":1000`)
	assert.Contains(t, add.Body, `"columnCount":26`)

	assert.True(t, strings.HasSuffix(api.calls[2].Path, ":clear"))

	resize := api.calls[3]
	assert.Contains(t, resize.Body, `"sheetId":42`)
	assert.Contains(t, resize.Body, `"rowCount":2`)

	update := api.calls[4]
	assert.Equal(t, http.MethodPut, update.Method)
	assert.Contains(t, update.Path, "'Daily'!A1")
	assert.Contains(t, update.Query, "valueInputOption=RAW")
	assert.Contains(t, update.Body, `["007",5]`)
}

func TestPushValuesReusesExistingTab(t *testing.T) {
	api := &fakeSheetsAPI{existing: true}
	c := newTestClient(t, api)

	res, err := c.PushValues(context.Background(), "sheet-id", "Daily", [][]interface{}{{"A"}})
	require.NoError(t, err)
	assert.False(t, res.Created)

	require.Len(t, api.calls, 4)
	assert.NotContains(t, api.calls[1].Body, "addSheet")
	assert.Contains(t, api.calls[2].Body, `"sheetId":7`)
}

func TestReadWorkbookTab(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", DefaultTab))
	require.NoError(t, f.SetSheetRow(DefaultTab, "A1", &[]interface{}{"SERIE", "COSTE", "NOTA"}))
	require.NoError(t, f.SetCellStr(DefaultTab, "A2", "007"))
	require.NoError(t, f.SetCellFloat(DefaultTab, "B2", 5.25, -1, 64))
	require.NoError(t, f.SetCellStr(DefaultTab, "A3", "008"))
	path := filepath.Join(t.TempDir(), "Daily.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	values, err := ReadWorkbookTab(path, DefaultTab)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, []interface{}{"SERIE", "COSTE", "NOTA"}, values[0])
	assert.Equal(t, []interface{}{"007", 5.25, ""}, values[1])
	assert.Equal(t, []interface{}{"008", "", ""}, values[2])

	_, err = ReadWorkbookTab(path, "Missing")
	assert.Error(t, err)
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'Daily'", quoteTab("Daily"))
	assert.Equal(t, "'O''Brien'", quoteTab("O'Brien"))
}
