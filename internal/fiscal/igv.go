// Package fiscal implements the pure tax arithmetic shared by ventas and
// compras: IGV decomposition of tax-included prices, cart-level aggregation
// with rounding reconciliation, effective-rate resolution, and comprobante
// type classification. No state, no I/O.
package fiscal

import "github.com/shopspring/decimal"

// Precision of each field in a persisted desglose. The base keeps four
// fractional digits so that re-deriving the gross from base×(1+tasa) stays
// within half a cent; impuesto and total are currency amounts.
const (
	basePrecision     = 4
	currencyPrecision = 2
)

var cien = decimal.NewFromInt(100)

// Desglose is the fiscal snapshot of one unit: tax-exclusive base, tax
// amount, and the tax-included total it was derived from.
type Desglose struct {
	Base     decimal.Decimal // valor unitario sin IGV, 4 decimals
	Impuesto decimal.Decimal // IGV unitario, 2 decimals
	Total    decimal.Decimal // precio unitario con IGV, 2 decimals
}

// Desglosar splits a tax-included unit amount into base + impuesto for the
// given rate (percent). A zero rate yields base == total, impuesto == 0.
// Callers reject negative inputs before invoking.
func Desglosar(precioUnitario, tasaPct decimal.Decimal) Desglose {
	total := precioUnitario.Round(currencyPrecision)
	if tasaPct.IsZero() {
		return Desglose{
			Base:     total.Round(basePrecision),
			Impuesto: decimal.Zero.Round(currencyPrecision),
			Total:    total,
		}
	}
	divisor := decimal.NewFromInt(1).Add(tasaPct.Div(cien))
	base := precioUnitario.DivRound(divisor, basePrecision)
	impuesto := total.Sub(base).Round(currencyPrecision)
	return Desglose{Base: base, Impuesto: impuesto, Total: total}
}

// LineaDesglose is one cart line: a per-unit desglose and its quantity.
type LineaDesglose struct {
	Desglose Desglose
	Cantidad int64
}

// Totales are the document-level amounts persisted on a venta or compra.
// Invariant: Total == SubtotalBase + Impuesto, exactly.
type Totales struct {
	SubtotalBase decimal.Decimal
	Impuesto     decimal.Decimal
	Total        decimal.Decimal
}

// Maximum rounding drift tolerated per unit sold before the aggregation is
// considered inconsistent rather than a rounding artifact. The drift of a
// line grows with its cantidad — each unit contributes up to half a cent of
// impuesto rounding — so the tolerance scales with units, not with lines.
var epsilonPorUnidad = decimal.NewFromFloat(0.05)

// Agregar sums the lines of a document. The authoritative Total is the
// independent sum of gross×cantidad: it is never re-derived from the rounded
// base and impuesto sums, which would compound per-line rounding error.
// Any residual between Total and SubtotalBase+Impuesto within the per-unit
// epsilon tolerance is absorbed into Impuesto so the persisted record satisfies
// Total == SubtotalBase + Impuesto without adjusting any line snapshot.
func Agregar(lineas []LineaDesglose) Totales {
	subtotal := decimal.Zero
	impuesto := decimal.Zero
	total := decimal.Zero
	var unidades int64
	for _, l := range lineas {
		qty := decimal.NewFromInt(l.Cantidad)
		subtotal = subtotal.Add(l.Desglose.Base.Mul(qty))
		impuesto = impuesto.Add(l.Desglose.Impuesto.Mul(qty))
		total = total.Add(l.Desglose.Total.Mul(qty))
		unidades += l.Cantidad
	}
	subtotal = subtotal.Round(currencyPrecision)
	impuesto = impuesto.Round(currencyPrecision)
	total = total.Round(currencyPrecision)

	residuo := total.Sub(subtotal.Add(impuesto))
	tolerancia := epsilonPorUnidad.Mul(decimal.NewFromInt(unidades))
	if !residuo.IsZero() && residuo.Abs().LessThanOrEqual(tolerancia) {
		impuesto = impuesto.Add(residuo)
	}
	return Totales{SubtotalBase: subtotal, Impuesto: impuesto, Total: total}
}
