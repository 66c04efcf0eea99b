package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (partial unique indexes enforcing the open-session
// invariants at the storage layer).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique violations come back as gorm.ErrDuplicatedKey; the services
		// turn the ones the partial indexes arbitrate into Conflict errors.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates the schema and applies constraint patches.
// Shared with integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Empresa{},
		&model.Usuario{},
		&model.Caja{},
		&model.SerieComprobante{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.Producto{},
		&model.Cliente{},
		&model.Proveedor{},
		&model.Venta{},
		&model.DetalleVenta{},
		&model.Compra{},
		&model.DetalleCompra{},
		&model.MovimientoStock{},
		&model.ComprobanteElectronico{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL the models cannot declare.
// The two partial unique indexes are the storage-level backstop for the
// session invariants: at most one open session per caja, and per usuario.
// The service checks them inside the open transaction; these indexes make a
// lost race a constraint violation instead of silent corruption.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_sesion_abierta_por_caja
		     ON sesiones_caja (empresa_id, caja_id)
		     WHERE estado = 'abierta'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_sesion_abierta_por_usuario
		     ON sesiones_caja (empresa_id, usuario_id)
		     WHERE estado = 'abierta'`,
		// Retry cron scans only actionable pendientes.
		`CREATE INDEX IF NOT EXISTS idx_comprobantes_pending_retry
		     ON comprobantes_electronicos (next_retry_at)
		     WHERE estado = 'pendiente' AND next_retry_at IS NOT NULL`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
