package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Compra is a purchase receipt ingested from a supplier comprobante. It
// shares the tax decomposition and the atomic stock mechanics with ventas,
// but the document number comes from the supplier, so reconciliation must
// reject duplicates instead of allocating.
type Compra struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProveedorID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_compra_comprobante"`
	// TipoComprobante/Serie/Numero transcribe the supplier's document.
	TipoComprobante string `gorm:"type:varchar(20);not null;uniqueIndex:idx_compra_comprobante"`
	Serie           string `gorm:"type:varchar(4);not null;uniqueIndex:idx_compra_comprobante"`
	Numero          string `gorm:"type:varchar(20);not null;uniqueIndex:idx_compra_comprobante"`
	UsuarioID       *uuid.UUID      `gorm:"type:uuid"`
	SubtotalBase    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Impuesto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Proveedor *Proveedor      `gorm:"foreignKey:ProveedorID"`
	Detalles  []DetalleCompra `gorm:"foreignKey:CompraID"`
}

// DetalleCompra mirrors DetalleVenta's fiscal snapshot for received goods.
type DetalleCompra struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompraID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Cantidad       int             `gorm:"not null"`
	ValorUnitario  decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ImpuestoLinea  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TasaAplicada   decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization.
func (DetalleCompra) TableName() string { return "detalles_compra" }
