package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
)

// SerieComprobante is a fiscal numbering series. CorrelativoActual is the
// last issued number; it only moves through SerieRepository's atomic
// increment inside a sale transaction — no other code path writes it.
// Issued values never repeat; gaps from aborted sales are legal.
type SerieComprobante struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID uuid.UUID `gorm:"type:uuid;not null;index"`
	// CajaID binds the serie to one register; nil means any register of the
	// empresa may draw from it.
	CajaID *uuid.UUID             `gorm:"type:uuid;index"`
	Tipo   fiscal.TipoComprobante `gorm:"type:varchar(20);not null"`
	// Codigo is the 4-character printed prefix, e.g. "F001", "B001".
	Codigo            string `gorm:"type:varchar(4);not null"`
	CorrelativoActual int64  `gorm:"not null;default:0"`
	Activo            bool   `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName overrides GORM's default pluralization.
func (SerieComprobante) TableName() string { return "series_comprobante" }
