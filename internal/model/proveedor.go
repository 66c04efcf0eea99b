package model

import (
	"time"

	"github.com/google/uuid"
)

// Proveedor is referenced by compras for duplicate-comprobante detection.
// Supplier CRUD is managed outside the transaction core.
type Proveedor struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID   uuid.UUID `gorm:"type:uuid;not null;index"`
	RazonSocial string    `gorm:"not null"`
	RUC         string    `gorm:"type:varchar(11);index;not null"`
	Telefono    *string
	Email       *string
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's default pluralization (proveedors → proveedores).
func (Proveedor) TableName() string { return "proveedores" }
