package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
)

// Empresa is the tenant. Its fiscal configuration is read-only for the
// transaction core; tenant administration mutates it elsewhere.
type Empresa struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RazonSocial string    `gorm:"not null"`
	RUC         string    `gorm:"type:varchar(11);uniqueIndex;not null"`
	// NombreImpuesto is printed on comprobantes ("IGV").
	NombreImpuesto string          `gorm:"type:varchar(20);not null;default:'IGV'"`
	TasaImpuesto   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:18"`
	// ExoneradaRegion marks tenants under a regional exemption regime:
	// every sale is issued at 0% regardless of product affectation.
	ExoneradaRegion bool `gorm:"not null;default:false"`
	AgenteRetencion bool `gorm:"not null;default:false"`
	Activo          bool `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ConfigFiscal projects the tenant row into the pure resolver's input.
func (e *Empresa) ConfigFiscal() fiscal.ConfigEmpresa {
	return fiscal.ConfigEmpresa{
		TasaIGV:         e.TasaImpuesto,
		ExoneradaRegion: e.ExoneradaRegion,
		AgenteRetencion: e.AgenteRetencion,
	}
}
