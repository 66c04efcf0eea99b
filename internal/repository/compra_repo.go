package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

type CompraRepository interface {
	CreateTx(tx *gorm.DB, c *model.Compra) error
	// FindByComprobanteTx detects a duplicate supplier document inside the
	// receipt transaction.
	FindByComprobanteTx(tx *gorm.DB, empresaID, proveedorID uuid.UUID, tipo, serie, numero string) (*model.Compra, error)
	FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Compra, error)
	DB() *gorm.DB
}

type compraRepo struct{ db *gorm.DB }

func NewCompraRepository(db *gorm.DB) CompraRepository { return &compraRepo{db: db} }

func (r *compraRepo) DB() *gorm.DB { return r.db }

func (r *compraRepo) CreateTx(tx *gorm.DB, c *model.Compra) error {
	return tx.Create(c).Error
}

func (r *compraRepo) FindByComprobanteTx(tx *gorm.DB, empresaID, proveedorID uuid.UUID, tipo, serie, numero string) (*model.Compra, error) {
	var c model.Compra
	err := tx.
		Where("empresa_id = ? AND proveedor_id = ? AND tipo_comprobante = ? AND serie = ? AND numero = ?",
			empresaID, proveedorID, tipo, serie, numero).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *compraRepo) FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Compra, error) {
	var c model.Compra
	err := r.db.WithContext(ctx).
		Preload("Detalles.Producto").Preload("Proveedor").
		Where("empresa_id = ?", empresaID).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
