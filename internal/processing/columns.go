package processing

// Columns is the fixed column list of the sales export, in output order. The
// CSV intermediate and the workbook template header both use these names.
var Columns = []string{
	"IDTRANS", "NSERIE", "SERIE", "NUMTIKET", "NUMBARRA", "NNUMBARRA", "FECHA", "JORNADA",
	"CREDITO", "NCREDITO", "NUMCLIE", "PUNTOVENTA", "NPUNTOVENTA", "NUMCUEN", "NNUMCUEN",
	"SERVICIO", "NSERVICIO", "ALMACEN", "NALMACEN", "CABIMPORTE", "CABDESCUENTO", "CABNETO",
	"CAMARERO", "NCAMARERO", "MACROGRUPO", "NMACROGRUPO", "GRUPO", "NGRUPO", "FAMILIA", "NFAMILIA",
	"TIPOPRODUCTO", "NTIPOPRODUCTO", "PRODUCTO", "NPRODUCTO", "CANTIDAD", "PRECIO", "IVA",
	"IMPORTE", "IMPORTESINIVA", "DESCUENTO", "IMPORTEDESCUENTO", "IMPORTESINIVADESCUENTO",
	"ANULADA", "FORMATO", "NFORMATO", "TIENDA", "ESTABLECIMIENTO", "CTACONTABLE", "CECO",
	"NIFCLIENTE", "NOMBRECLIENTE", "VENCIMIENTO", "PROMOCION", "COMENSALES", "COSTE",
	"OBSERVACIONES", "Turno", "Denominacion 2", "Factura", "Motivo",
}

var knownColumns = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Columns))
	for _, c := range Columns {
		m[c] = struct{}{}
	}
	return m
}()

// IsKnownColumn reports whether name is part of Columns.
func IsKnownColumn(name string) bool {
	_, ok := knownColumns[name]
	return ok
}
