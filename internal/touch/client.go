package touch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"touch_daily/internal/numeric"
	"touch_daily/internal/retry"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://touchm.net/interfacestouchm/public-api/v1/TE_Interfaces"

	endpointStores    = "MPTiendas"
	endpointSales     = "MPVentasMesa"
	endpointPurchases = "MPCompras"

	envelopeKey = "TouchExpress_IF"
)

type Client struct {
	baseURL      string
	user         string
	password     string
	client       *http.Client
	apiCallCount int64
	apiCallMutex sync.Mutex
}

// StoreInfo describes one store ("tienda") as returned by MPTiendas.
type StoreInfo struct {
	Code   int
	Name   string
	Group  string
	Social string
	NIF    string
}

// APIError is a non-200 answer from the API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func NewClient(baseURL, user, password string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		user:     user,
		password: password,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero
func (c *Client) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

// GetStores returns the stores known to the API on the given day, keyed by
// store code. Entries whose code is not an integer are skipped.
func (c *Client) GetStores(ctx context.Context, day time.Time) (map[int]StoreInfo, error) {
	resp, err := c.post(ctx, endpointStores, 1, day)
	if err != nil {
		return nil, err
	}

	raw, _ := envelope(resp)["Tiendas"].([]any)
	stores := make(map[int]StoreInfo, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t := Document(m)
		code, ok := storeCode(t["codigo"])
		if !ok {
			log.Debug().Interface("codigo", t["codigo"]).Msg("Skipping store with invalid code")
			continue
		}
		stores[code] = StoreInfo{
			Code:   code,
			Name:   t.String("nombre"),
			Group:  t.String("grupo"),
			Social: t.String("social"),
			NIF:    t.String("nif"),
		}
	}

	log.Debug().Int("stores", len(stores)).Msg("Retrieved store list")
	return stores, nil
}

// GetSalesDocuments returns the sales documents of one store for one day.
func (c *Client) GetSalesDocuments(ctx context.Context, storeID int, day time.Time) ([]Document, error) {
	return c.documents(ctx, endpointSales, storeID, day)
}

// GetPurchaseDocuments returns the purchase documents of one store for one day.
func (c *Client) GetPurchaseDocuments(ctx context.Context, storeID int, day time.Time) ([]Document, error) {
	return c.documents(ctx, endpointPurchases, storeID, day)
}

func (c *Client) documents(ctx context.Context, endpoint string, storeID int, day time.Time) ([]Document, error) {
	resp, err := c.post(ctx, endpoint, storeID, day)
	if err != nil {
		return nil, err
	}

	raw, ok := envelope(resp)["Documentos"].([]any)
	if !ok {
		return nil, nil
	}
	docs := make([]Document, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			docs = append(docs, Document(m))
		}
	}
	return docs, nil
}

func (c *Client) post(ctx context.Context, endpoint string, storeID int, day time.Time) (any, error) {
	payload := map[string]any{
		envelopeKey: map[string]any{
			"Tienda": storeID,
			"Fecha":  day.Format("2006-01-02"),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	url := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.user, c.password)

	c.IncrementAPICall()

	log.Debug().
		Str("endpoint", endpoint).
		Int("store", storeID).
		Str("day", day.Format("2006-01-02")).
		Msg("Calling TouchExpress API")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(raw)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(apiErr)
		}
		return nil, apiErr
	}

	decoded, err := decodeBody(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return decoded, nil
}

// decodeBody accepts plain JSON, JSON encoded inside a JSON string, and a
// quoted string with escapes that is not itself valid JSON.
func decodeBody(raw []byte) (any, error) {
	var outer any
	if err := json.Unmarshal(raw, &outer); err != nil {
		s := strings.TrimSpace(string(raw))
		if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
			unquoted, uerr := strconv.Unquote(s)
			if uerr != nil {
				return nil, err
			}
			var inner any
			if ierr := json.Unmarshal([]byte(unquoted), &inner); ierr != nil {
				return nil, ierr
			}
			return inner, nil
		}
		return nil, err
	}

	if s, ok := outer.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return outer, nil
}

func envelope(resp any) map[string]any {
	m, ok := resp.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	inner, ok := m[envelopeKey].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return inner
}

func storeCode(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x != float64(int(x)) {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		f, ok := numeric.Parse(v)
		if !ok || f != float64(int(f)) {
			return 0, false
		}
		return int(f), true
	}
}

// SortedStoreIDs returns the keys of stores in ascending order.
func SortedStoreIDs(stores map[int]StoreInfo) []int {
	ids := make([]int, 0, len(stores))
	for id := range stores {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
