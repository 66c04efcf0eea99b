package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Caja is a physical cash point. At most one open SesionCaja may reference
// it at any time; CajaService enforces that inside the open transaction.
type Caja struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre    string    `gorm:"not null"`
	Activo    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SesionCaja represents the lifecycle of a cash register session.
// Estado: "abierta" | "cerrada" (terminal). Created on open; mutated only
// by the close, normal or administrative.
type SesionCaja struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CajaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	MontoApertura decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaApertura time.Time       `gorm:"not null"`
	// Closing fields stay nil while the session is open and are written
	// together in one update.
	MontoCierre  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	FechaCierre  *time.Time
	TotalVentas  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalEgresos *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Diferencia = MontoCierre - (apertura + ventas + ingresos - egresos)
	Diferencia *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado     string           `gorm:"type:varchar(20);not null;default:'abierta'"`
	// CerradaPor and MotivoCierre are set only on administrative close.
	CerradaPor   *uuid.UUID `gorm:"type:uuid"`
	MotivoCierre *string

	Caja        *Caja            `gorm:"foreignKey:CajaID"`
	Usuario     *Usuario         `gorm:"foreignKey:UsuarioID"`
	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

// TableName overrides GORM's default pluralization (sesion_cajas → sesiones_caja).
func (SesionCaja) TableName() string { return "sesiones_caja" }

// MovimientoCaja is an immutable manual cash event inside a session.
// Tipo: "ingreso" | "egreso". Sales are NOT recorded here — their totals are
// summed from ventas at close, so nothing is counted twice.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo         string          `gorm:"type:varchar(10);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string          `gorm:"not null"`
	CreatedAt    time.Time
}

// TableName overrides GORM's default pluralization.
func (MovimientoCaja) TableName() string { return "movimientos_caja" }
