package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from the query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha  string `form:"fecha"`                  // YYYY-MM-DD; empty = today
	Estado string `form:"estado,default=emitida"` // emitida | anulada | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
	// PrecioUnitario is the tax-included unit price charged at the register.
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required,gt=0"`
}

type RegistrarVentaRequest struct {
	SesionCajaID string             `json:"sesion_caja_id" validate:"required,uuid"`
	ClienteID    *string            `json:"cliente_id"     validate:"omitempty,uuid"`
	Items        []ItemVentaRequest `json:"items"          validate:"required,min=1,dive"`
	MetodoPago   string             `json:"metodo_pago"    validate:"required,oneof=efectivo tarjeta transferencia yape"`
	// TipoComprobante overrides the client-driven resolution when present.
	TipoComprobante string `json:"tipo_comprobante" validate:"omitempty,oneof=factura boleta nota_venta"`
}

type ActualizarMetodoPagoRequest struct {
	MetodoPago string `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta transferencia yape"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	ValorUnitario  decimal.Decimal `json:"valor_unitario"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Impuesto       decimal.Decimal `json:"impuesto"`
	TasaAplicada   decimal.Decimal `json:"tasa_aplicada"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID              string `json:"id"`
	TipoComprobante string `json:"tipo_comprobante"`
	Serie           string `json:"serie"`
	Correlativo     int64  `json:"correlativo"`
	// Numero is the printed identifier, e.g. "F001-00000042".
	Numero       string              `json:"numero"`
	SesionCajaID string              `json:"sesion_caja_id"`
	ClienteID    *string             `json:"cliente_id,omitempty"`
	Items        []ItemVentaResponse `json:"items"`
	SubtotalBase decimal.Decimal     `json:"subtotal_base"`
	Impuesto     decimal.Decimal     `json:"impuesto"`
	Total        decimal.Decimal     `json:"total"`
	MetodoPago   string              `json:"metodo_pago"`
	Estado       string              `json:"estado"`
	CreatedAt    string              `json:"created_at"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
