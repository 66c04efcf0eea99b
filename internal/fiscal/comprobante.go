package fiscal

import "github.com/shopspring/decimal"

// AfectacionIGV classifies a product for sales-tax purposes.
type AfectacionIGV string

const (
	AfectacionGravado   AfectacionIGV = "gravado"
	AfectacionExonerado AfectacionIGV = "exonerado"
	AfectacionInafecto  AfectacionIGV = "inafecto"
)

// TipoComprobante are the national fiscal document categories.
// A factura requires the buyer's RUC; a boleta does not. Nota de venta is the
// internal non-fiscal fallback used by compras ingest.
type TipoComprobante string

const (
	ComprobanteFactura   TipoComprobante = "factura"
	ComprobanteBoleta    TipoComprobante = "boleta"
	ComprobanteNotaVenta TipoComprobante = "nota_venta"
)

// ConfigEmpresa is the tenant-level fiscal configuration the resolver reads.
// Mutated only by tenant administration, read-only here.
type ConfigEmpresa struct {
	TasaIGV         decimal.Decimal // percent, e.g. 18
	ExoneradaRegion bool            // regional exemption (Amazonía) overrides everything
	AgenteRetencion bool
}

// TasaEfectiva resolves the rate applied to one line.
// Hierarchy: regional exemption → 0; non-gravado item → 0; else tenant rate.
func TasaEfectiva(cfg ConfigEmpresa, afectacion AfectacionIGV) decimal.Decimal {
	if cfg.ExoneradaRegion {
		return decimal.Zero
	}
	if afectacion != AfectacionGravado {
		return decimal.Zero
	}
	return cfg.TasaIGV
}

// DatosCliente are the client attributes that drive document-type resolution.
// A nil receiver stands for an anonymous walk-in sale.
type DatosCliente struct {
	RUC             string // empty when the client has none
	NumeroDocumento string // DNI or other identity document
}

// TieneRUC reports whether the client carries a usable RUC: either the
// dedicated field or an 11-digit identity number registered as the document.
func (c *DatosCliente) TieneRUC() bool {
	if c == nil {
		return false
	}
	if len(c.RUC) == 11 {
		return true
	}
	return len(c.NumeroDocumento) == 11
}

// RUCEfectivo returns the RUC a factura would be issued against.
func (c *DatosCliente) RUCEfectivo() string {
	if c == nil {
		return ""
	}
	if len(c.RUC) == 11 {
		return c.RUC
	}
	if len(c.NumeroDocumento) == 11 {
		return c.NumeroDocumento
	}
	return ""
}

// ResolverTipoComprobante classifies the document once per sale; the result
// is fixed input to the rest of the pipeline and never re-derived mid-flight.
// An explicit override wins; otherwise a client with a RUC gets a factura
// and everything else a boleta.
func ResolverTipoComprobante(override TipoComprobante, cliente *DatosCliente) TipoComprobante {
	if override != "" {
		return override
	}
	if cliente.TieneRUC() {
		return ComprobanteFactura
	}
	return ComprobanteBoleta
}
