package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComprobanteElectronico tracks the asynchronous SUNAT emission of an
// already-numbered venta. The sale is legally valid the moment it commits;
// this record only follows the electronic submission that happens after.
// Estado: "pendiente" | "emitido" | "rechazado" | "error"
type ComprobanteElectronico struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID   uuid.UUID `gorm:"type:uuid;not null;index"`
	VentaID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo        string    `gorm:"type:varchar(20);not null"`
	Serie       string    `gorm:"type:varchar(4);not null"`
	Correlativo int64     `gorm:"not null"`
	// HashCPE and TicketSUNAT come back from the emission sidecar.
	HashCPE     *string         `gorm:"type:varchar(64)"`
	TicketSUNAT *string         `gorm:"type:varchar(40)"`
	MontoBase   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoIGV    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:monto_igv"`
	MontoTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado      string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	// PDFPath is relative to PDF_STORAGE_PATH env var
	PDFPath       *string `gorm:"column:pdf_path"`
	Observaciones *string
	// Retry fields — used by retry_cron to re-attempt failed SUNAT calls
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's default pluralization.
func (ComprobanteElectronico) TableName() string { return "comprobantes_electronicos" }
