package workbook

// ColumnType decides how a column's values are coerced before they are
// written to the sheet.
type ColumnType int

const (
	// TypeUntyped values are written unmodified.
	TypeUntyped ColumnType = iota
	// TypeText values are always written as text, keeping leading zeros.
	TypeText
	TypeNumeric
	TypeDateTime
	TypeDate
)

func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeNumeric:
		return "numeric"
	case TypeDateTime:
		return "datetime"
	case TypeDate:
		return "date"
	default:
		return "untyped"
	}
}

const (
	DateTimeFormat = "dd/mm/yyyy hh:mm"
	DateFormat     = "dd/mm/yyyy"
)

// Policy maps column names to their ColumnType. Columns not listed are
// untyped.
type Policy struct {
	types          map[string]ColumnType
	DateTimeColumn string
	DateColumn     string
}

var numericColumns = []string{
	"CABIMPORTE", "CABDESCUENTO", "CABNETO", "CANTIDAD", "PRECIO", "IVA",
	"IMPORTE", "IMPORTESINIVA", "DESCUENTO", "IMPORTEDESCUENTO", "IMPORTESINIVADESCUENTO",
	"TIENDA", "COMENSALES", "COSTE",
}

var textColumns = []string{
	"IDTRANS", "NSERIE", "SERIE", "NUMTIKET", "NUMBARRA", "NNUMBARRA",
	"NUMCLIE", "PUNTOVENTA", "NPUNTOVENTA", "NUMCUEN", "NNUMCUEN",
	"SERVICIO", "NSERVICIO", "ALMACEN", "NALMACEN",
	"CAMARERO", "NCAMARERO", "MACROGRUPO", "NMACROGRUPO", "GRUPO", "NGRUPO",
	"FAMILIA", "NFAMILIA", "TIPOPRODUCTO", "NTIPOPRODUCTO",
	"PRODUCTO", "NPRODUCTO", "ANULADA", "FORMATO", "NFORMATO", "ESTABLECIMIENTO",
	"CTACONTABLE", "CECO", "NIFCLIENTE", "NOMBRECLIENTE", "VENCIMIENTO", "PROMOCION",
	"OBSERVACIONES", "Turno", "Denominacion 2", "Factura", "Motivo",
}

// DefaultPolicy is the column policy of the daily sales sheet: FECHA holds a
// date and time, JORNADA the business day.
func DefaultPolicy() *Policy {
	p := &Policy{
		types:          make(map[string]ColumnType, len(numericColumns)+len(textColumns)+2),
		DateTimeColumn: "FECHA",
		DateColumn:     "JORNADA",
	}
	for _, c := range numericColumns {
		p.types[c] = TypeNumeric
	}
	for _, c := range textColumns {
		p.types[c] = TypeText
	}
	p.types[p.DateTimeColumn] = TypeDateTime
	p.types[p.DateColumn] = TypeDate
	return p
}

// TypeOf returns the type of column, TypeUntyped when unknown.
func (p *Policy) TypeOf(column string) ColumnType {
	return p.types[column]
}
