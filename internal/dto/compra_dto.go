package dto

import "github.com/shopspring/decimal"

type ItemCompraRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
	// PrecioUnitario is the tax-included unit cost on the supplier document.
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required,gt=0"`
}

type RegistrarCompraRequest struct {
	ProveedorID string `json:"proveedor_id" validate:"required,uuid"`
	// The supplier's document identity — duplicates are rejected.
	TipoComprobante string              `json:"tipo_comprobante" validate:"required,oneof=factura boleta nota_venta"`
	Serie           string              `json:"serie"            validate:"required,len=4"`
	Numero          string              `json:"numero"           validate:"required"`
	Items           []ItemCompraRequest `json:"items"            validate:"required,min=1,dive"`
}

type ItemCompraResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	ValorUnitario  decimal.Decimal `json:"valor_unitario"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Impuesto       decimal.Decimal `json:"impuesto"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type CompraResponse struct {
	ID              string               `json:"id"`
	ProveedorID     string               `json:"proveedor_id"`
	TipoComprobante string               `json:"tipo_comprobante"`
	Serie           string               `json:"serie"`
	Numero          string               `json:"numero"`
	Items           []ItemCompraResponse `json:"items"`
	SubtotalBase    decimal.Decimal      `json:"subtotal_base"`
	Impuesto        decimal.Decimal      `json:"impuesto"`
	Total           decimal.Decimal      `json:"total"`
	CreatedAt       string               `json:"created_at"`
}
