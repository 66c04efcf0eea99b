package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
)

// Cliente is the optional buyer on a venta. TipoDocumento: "dni" | "ruc" |
// "carnet_extranjeria". Its document fields drive comprobante-type
// resolution; the orchestrator reads the row once, inside the transaction.
type Cliente struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre          string    `gorm:"not null"`
	TipoDocumento   string    `gorm:"type:varchar(20);not null;default:'dni'"`
	NumeroDocumento string    `gorm:"index;not null"`
	RUC             *string   `gorm:"type:varchar(11)"`
	Direccion       *string
	Email           *string
	Activo          bool `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DatosFiscales projects the row into the pure resolver's client view.
func (c *Cliente) DatosFiscales() *fiscal.DatosCliente {
	if c == nil {
		return nil
	}
	datos := &fiscal.DatosCliente{NumeroDocumento: c.NumeroDocumento}
	if c.RUC != nil {
		datos.RUC = *c.RUC
	}
	return datos
}
