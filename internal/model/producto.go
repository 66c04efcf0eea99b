package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
)

// Producto is a stock-bearing catalog entry. The transaction core's only
// writes to it are the guarded stock decrement (venta) and increment
// (compra / ajuste); catalog CRUD lives outside this core.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CodigoBarras string    `gorm:"index;not null"`
	Nombre       string    `gorm:"index;not null"`
	Descripcion  *string
	PrecioCosto  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// PrecioVenta is tax-included; the fiscal snapshot decomposes it at sale time.
	PrecioVenta decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockActual int             `gorm:"not null;default:0"`
	StockMinimo int             `gorm:"not null;default:5"`
	// Afectacion: "gravado" | "exonerado" | "inafecto"
	Afectacion   fiscal.AfectacionIGV `gorm:"type:varchar(10);not null;default:'gravado'"`
	UnidadMedida string               `gorm:"not null;default:'unidad'"`
	ProveedorID  *uuid.UUID           `gorm:"type:uuid;index"`
	Activo       bool                 `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Proveedor *Proveedor `gorm:"foreignKey:ProveedorID"`
}
