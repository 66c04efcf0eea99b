package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
)

// Venta is a legally numbered sale document. Immutable once created, except
// for the narrow payment-method correction. Estado: "emitida" | "anulada".
type Venta struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Tipo + SerieID + Correlativo identify the fiscal document. The pair
	// (serie, correlativo) is unique: the allocator guarantees it.
	Tipo         fiscal.TipoComprobante `gorm:"type:varchar(20);not null"`
	SerieID      uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_serie_correlativo"`
	SerieCodigo  string                 `gorm:"type:varchar(4);not null"`
	Correlativo  int64                  `gorm:"not null;uniqueIndex:idx_serie_correlativo"`
	SesionCajaID uuid.UUID              `gorm:"type:uuid;not null;index"`
	UsuarioID    *uuid.UUID             `gorm:"type:uuid"`
	ClienteID    *uuid.UUID             `gorm:"type:uuid;index"`
	// Totals carry the aggregate invariant: Total == SubtotalBase + Impuesto.
	SubtotalBase decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Impuesto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago   string          `gorm:"type:varchar(20);not null;default:'efectivo'"`
	Estado       string          `gorm:"type:varchar(20);not null;default:'emitida'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Cliente  *Cliente       `gorm:"foreignKey:ClienteID"`
	Usuario  *Usuario       `gorm:"foreignKey:UsuarioID"`
	Detalles []DetalleVenta `gorm:"foreignKey:VentaID"`
}

// DetalleVenta is one line with its fiscal snapshot: valor (base), impuesto
// and tasa are frozen at creation time and never recomputed from current
// product or tenant configuration. Historical documents must not drift.
type DetalleVenta struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Cantidad   int       `gorm:"not null"`
	// ValorUnitario is the tax-exclusive unit value, kept at 4 decimals.
	ValorUnitario decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	// PrecioUnitario is the tax-included unit price the client paid.
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ImpuestoLinea is the tax for the whole line (unit tax × cantidad).
	ImpuestoLinea decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TasaAplicada  decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization.
func (DetalleVenta) TableName() string { return "detalles_venta" }
