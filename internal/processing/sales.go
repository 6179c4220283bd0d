package processing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"touch_daily/internal/costindex"
	"touch_daily/internal/numeric"
	"touch_daily/internal/retry"
	"touch_daily/internal/touch"
	"touch_daily/internal/workbook"

	"github.com/rs/zerolog/log"
)

// SheetRow is one output line keyed by column name.
type SheetRow = workbook.Row

// SalesSource returns the sales documents of one store for one day.
// *touch.Client satisfies it.
type SalesSource interface {
	GetSalesDocuments(ctx context.Context, storeID int, day time.Time) ([]touch.Document, error)
}

// CollectSales fetches every (day, store) pair of the window sequentially and
// turns each sales line into a SheetRow annotated with the store's unit cost.
// A failed pair is logged and skipped.
func CollectSales(ctx context.Context, source SalesSource, retryConfig retry.Config, stores map[int]touch.StoreInfo, storeIDs []int, window costindex.Window, costs costindex.Index) []SheetRow {
	var rows []SheetRow
	for _, day := range window.Days() {
		log.Info().Str("day", day.Format("2006-01-02")).Msg("Processing sales")

		for _, storeID := range storeIDs {
			if ctx.Err() != nil {
				log.Warn().Err(ctx.Err()).Msg("Sales collection interrupted")
				return rows
			}

			docs, err := retry.WithRetry(ctx, retryConfig, func(ctx context.Context) ([]touch.Document, error) {
				return source.GetSalesDocuments(ctx, storeID, day)
			})
			if err != nil {
				log.Warn().
					Err(err).
					Str("day", day.Format("2006-01-02")).
					Int("store", storeID).
					Msg("Failed to fetch sales; skipping")
				continue
			}

			log.Debug().
				Int("store", storeID).
				Int("documents", len(docs)).
				Msg("Fetched sales")

			storeCosts := costs.ForStore(storeID)
			for _, doc := range docs {
				rows = append(rows, RowsFromSale(doc, storeID, stores[storeID], storeCosts)...)
			}
		}
	}

	log.Info().Int("rows", len(rows)).Msg("Sales rows generated")
	logDayDistribution(rows)
	return rows
}

// RowsFromSale expands one sales document into one row per product line.
// Documents without a parseable timestamp produce no rows.
func RowsFromSale(doc touch.Document, storeID int, store touch.StoreInfo, costs map[string]costindex.Entry) []SheetRow {
	ts, err := doc.Timestamp()
	if err != nil {
		log.Debug().Err(err).Int("store", storeID).Msg("Skipping sales document")
		return nil
	}

	series := doc.PickString(touch.SeriesKeys...)
	ticket := doc.PickString(touch.TicketKeys...)
	section := doc.Object("seccion")
	service := doc.Object("servicio")
	customer := doc.Object("cliente")
	totals := doc.Object("totales")

	var rows []SheetRow
	for _, p := range doc.Lines() {
		ref := p.String("referencia")

		quantity, hasQuantity := numeric.Parse(p.Pick(touch.QuantityKeys...))
		price, hasPrice := p.Float("precio")
		vat, hasVAT := p.Float("iva")
		discount, hasDiscount := p.Float("descuento")
		amount, hasAmount := p.Float("importe")

		var net, discounted, discountedNet any = "", "", ""
		if hasAmount && hasVAT {
			net = numeric.Round(amount/(1+vat/100), 6)
		}
		if hasAmount && hasDiscount {
			d := numeric.Round(amount-discount, 6)
			discounted = d
			if hasVAT {
				discountedNet = numeric.Round(d/(1+vat/100), 6)
			}
		}

		var cost any = ""
		if ref != "" {
			if e, ok := costs[ref]; ok {
				cost = numeric.Round(e.UnitCost, 6)
			}
		}

		row := SheetRow{
			"SERIE":                  series,
			"NUMTIKET":               ticket,
			"NUMBARRA":               section.String("codigo"),
			"NNUMBARRA":              section.String("nombre"),
			"FECHA":                  FormatFecha(ts),
			"JORNADA":                FormatJornada(ts),
			"NUMCLIE":                customer.String("codigo"),
			"SERVICIO":               service.String("codigo"),
			"NSERVICIO":              service.String("nombre"),
			"CABIMPORTE":             optional(totals.Float("total")),
			"CABNETO":                optional(totals.Float("baseImponible")),
			"NGRUPO":                 p.String("grupo"),
			"PRODUCTO":               ref,
			"NPRODUCTO":              p.String("descripcion"),
			"CANTIDAD":               optional(quantity, hasQuantity),
			"PRECIO":                 optional(price, hasPrice),
			"IVA":                    optional(vat, hasVAT),
			"IMPORTE":                optional(amount, hasAmount),
			"IMPORTESINIVA":          net,
			"DESCUENTO":              optional(discount, hasDiscount),
			"IMPORTEDESCUENTO":       discounted,
			"IMPORTESINIVADESCUENTO": discountedNet,
			"TIENDA":                 storeID,
			"ESTABLECIMIENTO":        store.Name,
			"NIFCLIENTE":             customer.String("nif"),
			"NOMBRECLIENTE":          customer.String("nombre"),
			"COSTE":                  cost,
		}
		for _, col := range Columns {
			if _, ok := row[col]; !ok {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// FormatFecha renders a timestamp as d/m/yyyy HH:MM without zero padding on
// day and month.
func FormatFecha(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d %02d:%02d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
}

// FormatJornada renders the business day as d/m/yyyy.
func FormatJornada(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

func optional(v float64, ok bool) any {
	if !ok {
		return ""
	}
	return v
}

func logDayDistribution(rows []SheetRow) {
	if len(rows) == 0 {
		return
	}
	counts := make(map[string]int)
	for _, r := range rows {
		j, _ := r["JORNADA"].(string)
		counts[j]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		log.Info().Str("jornada", d).Int("lines", counts[d]).Msg("Sales lines per day")
	}
}
