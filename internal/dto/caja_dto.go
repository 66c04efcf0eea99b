package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	CajaID        string          `json:"caja_id"        validate:"required,uuid"`
	MontoApertura decimal.Decimal `json:"monto_apertura" validate:"min=0"`
}

type CerrarCajaRequest struct {
	MontoCierre decimal.Decimal `json:"monto_cierre" validate:"min=0"`
}

// CierreAdminRequest closes any open session of the tenant, bypassing the
// ownership rule. The motivo is mandatory and audited.
type CierreAdminRequest struct {
	MontoCierre decimal.Decimal `json:"monto_cierre" validate:"min=0"`
	Motivo      string          `json:"motivo"       validate:"required,min=10"`
}

type MovimientoManualRequest struct {
	SesionCajaID string          `json:"sesion_caja_id" validate:"required,uuid"`
	Tipo         string          `json:"tipo"           validate:"required,oneof=ingreso egreso"`
	Monto        decimal.Decimal `json:"monto"          validate:"required,gt=0"`
	Descripcion  string          `json:"descripcion"    validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoCajaResponse struct {
	ID          string          `json:"id"`
	Tipo        string          `json:"tipo"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion string          `json:"descripcion"`
	CreatedAt   string          `json:"created_at"`
}

type SesionCajaResponse struct {
	ID            string           `json:"id"`
	CajaID        string           `json:"caja_id"`
	UsuarioID     string           `json:"usuario_id"`
	MontoApertura decimal.Decimal  `json:"monto_apertura"`
	FechaApertura string           `json:"fecha_apertura"`
	MontoCierre   *decimal.Decimal `json:"monto_cierre,omitempty"`
	FechaCierre   *string          `json:"fecha_cierre,omitempty"`
	TotalVentas   *decimal.Decimal `json:"total_ventas,omitempty"`
	TotalEgresos  *decimal.Decimal `json:"total_egresos,omitempty"`
	Diferencia    *decimal.Decimal `json:"diferencia,omitempty"`
	Estado        string           `json:"estado"`
	MotivoCierre  *string          `json:"motivo_cierre,omitempty"`

	Movimientos []MovimientoCajaResponse `json:"movimientos,omitempty"`
}
