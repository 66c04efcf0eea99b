package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

// SerieRepository owns the numbering series rows. SiguienteCorrelativoTx is
// the ONLY writer of correlativo_actual in the whole codebase.
type SerieRepository interface {
	// FindActivaTx resolves the active serie for (empresa, tipo, caja) inside
	// the caller's transaction. A serie bound to the caja wins over an
	// unbound one. gorm.ErrRecordNotFound when none is configured.
	FindActivaTx(tx *gorm.DB, empresaID uuid.UUID, tipo fiscal.TipoComprobante, cajaID uuid.UUID) (*model.SerieComprobante, error)
	// SiguienteCorrelativoTx increments and returns the serie's counter in a
	// single conflict-checked statement. It must run inside the same
	// transaction as the sale it numbers: concurrent sales against one serie
	// serialize on this row, and an abort after allocation leaves a legal
	// gap, never a duplicate.
	SiguienteCorrelativoTx(tx *gorm.DB, serieID uuid.UUID) (int64, error)
	Create(ctx context.Context, s *model.SerieComprobante) error
	ListByEmpresa(ctx context.Context, empresaID uuid.UUID) ([]model.SerieComprobante, error)
}

type serieRepo struct{ db *gorm.DB }

func NewSerieRepository(db *gorm.DB) SerieRepository { return &serieRepo{db: db} }

func (r *serieRepo) FindActivaTx(tx *gorm.DB, empresaID uuid.UUID, tipo fiscal.TipoComprobante, cajaID uuid.UUID) (*model.SerieComprobante, error) {
	var s model.SerieComprobante
	err := tx.
		Where("empresa_id = ? AND tipo = ? AND activo = true AND (caja_id = ? OR caja_id IS NULL)", empresaID, tipo, cajaID).
		Order("caja_id ASC NULLS LAST").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serieRepo) SiguienteCorrelativoTx(tx *gorm.DB, serieID uuid.UUID) (int64, error) {
	// Read-modify-write collapsed into one UPDATE … RETURNING: the row lock
	// it takes is held until the surrounding transaction commits or aborts.
	var next int64
	err := tx.Raw(
		`UPDATE series_comprobante
		    SET correlativo_actual = correlativo_actual + 1, updated_at = NOW()
		  WHERE id = ?
		  RETURNING correlativo_actual`, serieID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	if next == 0 {
		return 0, errors.New("serie no encontrada al asignar correlativo")
	}
	return next, nil
}

func (r *serieRepo) Create(ctx context.Context, s *model.SerieComprobante) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *serieRepo) ListByEmpresa(ctx context.Context, empresaID uuid.UUID) ([]model.SerieComprobante, error) {
	var series []model.SerieComprobante
	err := r.db.WithContext(ctx).Where("empresa_id = ?", empresaID).Order("codigo ASC").Find(&series).Error
	return series, err
}
