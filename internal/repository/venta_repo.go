package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

// VentaFilter narrows ListVentas. Empty Fecha means today.
type VentaFilter struct {
	Fecha  string
	Estado string
	Page   int
	Limit  int
}

type VentaRepository interface {
	CreateTx(tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Venta, error)
	// UpdateMetodoPago is the single mutation allowed on an emitted venta.
	// Returns the number of rows touched: 0 means the venta is missing,
	// belongs to another empresa, or is anulada.
	UpdateMetodoPago(ctx context.Context, empresaID, id uuid.UUID, metodo string) (int64, error)
	List(ctx context.Context, empresaID uuid.UUID, filter VentaFilter) ([]model.Venta, int64, error)
	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Detalles.Producto").Preload("Cliente").
		Where("empresa_id = ?", empresaID).First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) UpdateMetodoPago(ctx context.Context, empresaID, id uuid.UUID, metodo string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("id = ? AND empresa_id = ? AND estado = 'emitida'", id, empresaID).
		Update("metodo_pago", metodo)
	return res.RowsAffected, res.Error
}

func (r *ventaRepo) List(ctx context.Context, empresaID uuid.UUID, filter VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Venta{}).Where("empresa_id = ?", empresaID)

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Fecha != "" {
		q = q.Where("DATE(created_at) = ?", filter.Fecha)
	} else {
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Detalles.Producto").Preload("Cliente").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}
