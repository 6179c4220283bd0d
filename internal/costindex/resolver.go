// Package costindex builds the month-to-date unit cost of every product per
// store from TouchExpress purchase documents.
package costindex

import (
	"fmt"
	"time"

	"touch_daily/internal/numeric"
	"touch_daily/internal/touch"
)

// PurchaseLine is one product line of a purchase document. Quantity and
// Amount are nil when the payload did not carry a usable number.
type PurchaseLine struct {
	ProductRef string
	Quantity   *float64
	Amount     *float64
}

// PurchaseDocument is a purchase ("compra") received by a store.
type PurchaseDocument struct {
	StoreID   int
	Timestamp time.Time
	Lines     []PurchaseLine
}

// Entry is the winning observation for one (store, product) key.
type Entry struct {
	Timestamp time.Time
	UnitCost  float64
}

// Index maps store id to product reference to the most recent unit cost.
type Index map[int]map[string]Entry

// UnitCost derives amount/quantity for a line. It reports false when the
// quantity is missing or zero or the amount is missing.
func UnitCost(line PurchaseLine) (float64, bool) {
	if line.Quantity == nil || *line.Quantity == 0 || line.Amount == nil {
		return 0, false
	}
	return *line.Amount / *line.Quantity, true
}

// Observe folds one observation into the index. The stored entry is replaced
// when ts is not older than it, so among equal timestamps the last one
// observed wins.
func (idx Index) Observe(storeID int, ref string, ts time.Time, unitCost float64) {
	products, ok := idx[storeID]
	if !ok {
		products = make(map[string]Entry)
		idx[storeID] = products
	}
	prev, ok := products[ref]
	if !ok || !ts.Before(prev.Timestamp) {
		products[ref] = Entry{Timestamp: ts, UnitCost: unitCost}
	}
}

// Lookup returns the entry for a store and product reference.
func (idx Index) Lookup(storeID int, ref string) (Entry, bool) {
	e, ok := idx[storeID][ref]
	return e, ok
}

// ForStore returns the product map of one store; it is never nil.
func (idx Index) ForStore(storeID int) map[string]Entry {
	if products, ok := idx[storeID]; ok {
		return products
	}
	return map[string]Entry{}
}

// Len returns the number of (store, product) entries.
func (idx Index) Len() int {
	n := 0
	for _, products := range idx {
		n += len(products)
	}
	return n
}

// DecodePurchase converts a raw API document into a PurchaseDocument. Lines
// without a product reference are dropped here; lines with unusable numbers
// are kept and rejected later by UnitCost.
func DecodePurchase(storeID int, doc touch.Document) (PurchaseDocument, error) {
	ts, err := doc.Timestamp()
	if err != nil {
		return PurchaseDocument{}, fmt.Errorf("purchase document: %w", err)
	}

	out := PurchaseDocument{StoreID: storeID, Timestamp: ts}
	for _, p := range doc.Lines() {
		ref := p.String("referencia")
		if ref == "" {
			continue
		}
		out.Lines = append(out.Lines, PurchaseLine{
			ProductRef: ref,
			Quantity:   floatPtr(numeric.Parse(p.Pick(touch.QuantityKeys...))),
			Amount:     floatPtr(p.Float("importe")),
		})
	}
	return out, nil
}

func floatPtr(f float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &f
}
