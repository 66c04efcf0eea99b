package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

// CajaRepository persists registers, sessions and manual cash movements.
type CajaRepository interface {
	FindCaja(ctx context.Context, empresaID, id uuid.UUID) (*model.Caja, error)
	CreateCaja(ctx context.Context, c *model.Caja) error

	// Session lookups used by the open guards run inside the open
	// transaction via the Tx variants, so check + insert are atomic.
	FindSesionAbiertaPorCajaTx(tx *gorm.DB, empresaID, cajaID uuid.UUID) (*model.SesionCaja, error)
	FindSesionAbiertaPorUsuarioTx(tx *gorm.DB, empresaID, usuarioID uuid.UUID) (*model.SesionCaja, error)
	CreateSesionTx(tx *gorm.DB, s *model.SesionCaja) error

	FindSesionByID(ctx context.Context, empresaID, id uuid.UUID) (*model.SesionCaja, error)
	// FindSesionByIDTx reads the session inside the closing transaction so
	// the ownership check and the close update cannot interleave.
	FindSesionByIDTx(tx *gorm.DB, empresaID, id uuid.UUID) (*model.SesionCaja, error)
	FindSesionAbiertaPorUsuario(ctx context.Context, empresaID, usuarioID uuid.UUID) (*model.SesionCaja, error)
	// UpdateSesionTx writes all closing fields in one update.
	UpdateSesionTx(tx *gorm.DB, s *model.SesionCaja) error

	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	// CreateMovimientoTx inserts inside the caller's transaction so the
	// session-open check and the insert cannot interleave with a close.
	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error)
	// SumMovimientosTx returns (ingresos, egresos) totals for a session.
	SumMovimientosTx(tx *gorm.DB, sesionID uuid.UUID) (decimal.Decimal, decimal.Decimal, error)
	// SumVentasTx totals emitted sales of the session.
	SumVentasTx(tx *gorm.DB, sesionID uuid.UUID) (decimal.Decimal, error)

	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) FindCaja(ctx context.Context, empresaID, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Where("empresa_id = ?", empresaID).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) CreateCaja(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindSesionAbiertaPorCajaTx(tx *gorm.DB, empresaID, cajaID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := tx.Preload("Usuario").
		Where("empresa_id = ? AND caja_id = ? AND estado = 'abierta'", empresaID, cajaID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionAbiertaPorUsuarioTx(tx *gorm.DB, empresaID, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := tx.Where("empresa_id = ? AND usuario_id = ? AND estado = 'abierta'", empresaID, usuarioID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) CreateSesionTx(tx *gorm.DB, s *model.SesionCaja) error {
	return tx.Create(s).Error
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, empresaID, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Preload("Movimientos").
		Where("empresa_id = ?", empresaID).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionByIDTx(tx *gorm.DB, empresaID, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := tx.Where("empresa_id = ?", empresaID).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionAbiertaPorUsuario(ctx context.Context, empresaID, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND usuario_id = ? AND estado = 'abierta'", empresaID, usuarioID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) UpdateSesionTx(tx *gorm.DB, s *model.SesionCaja) error {
	return tx.Save(s).Error
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cajaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error {
	return tx.Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).Where("sesion_caja_id = ?", sesionID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) SumMovimientosTx(tx *gorm.DB, sesionID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	type sumRow struct {
		Tipo  string
		Total decimal.Decimal
	}
	var rows []sumRow
	err := tx.Model(&model.MovimientoCaja{}).
		Select("tipo, COALESCE(SUM(monto), 0) AS total").
		Where("sesion_caja_id = ?", sesionID).
		Group("tipo").Scan(&rows).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	ingresos, egresos := decimal.Zero, decimal.Zero
	for _, row := range rows {
		switch row.Tipo {
		case "ingreso":
			ingresos = row.Total
		case "egreso":
			egresos = row.Total
		}
	}
	return ingresos, egresos, nil
}

func (r *cajaRepo) SumVentasTx(tx *gorm.DB, sesionID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&model.Venta{}).
		Select("COALESCE(SUM(total), 0)").
		Where("sesion_caja_id = ? AND estado = 'emitida'", sesionID).
		Scan(&total).Error
	return total, err
}
