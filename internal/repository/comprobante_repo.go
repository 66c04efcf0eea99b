package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

// ComprobanteRepository persists SUNAT emission state. Written only by the
// async workers — never inside a sale transaction.
type ComprobanteRepository interface {
	Create(ctx context.Context, c *model.ComprobanteElectronico) error
	Update(ctx context.Context, c *model.ComprobanteElectronico) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ComprobanteElectronico, error)
	FindByVentaID(ctx context.Context, ventaID uuid.UUID) (*model.ComprobanteElectronico, error)
	// ListPendingRetries returns pendientes whose next_retry_at has passed.
	ListPendingRetries(ctx context.Context, before time.Time, limit int) ([]model.ComprobanteElectronico, error)
}

type comprobanteRepo struct{ db *gorm.DB }

func NewComprobanteRepository(db *gorm.DB) ComprobanteRepository { return &comprobanteRepo{db: db} }

func (r *comprobanteRepo) Create(ctx context.Context, c *model.ComprobanteElectronico) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *comprobanteRepo) Update(ctx context.Context, c *model.ComprobanteElectronico) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *comprobanteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ComprobanteElectronico, error) {
	var c model.ComprobanteElectronico
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *comprobanteRepo) FindByVentaID(ctx context.Context, ventaID uuid.UUID) (*model.ComprobanteElectronico, error) {
	var c model.ComprobanteElectronico
	if err := r.db.WithContext(ctx).Where("venta_id = ?", ventaID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *comprobanteRepo) ListPendingRetries(ctx context.Context, before time.Time, limit int) ([]model.ComprobanteElectronico, error) {
	var comps []model.ComprobanteElectronico
	err := r.db.WithContext(ctx).
		Where("estado = 'pendiente' AND next_retry_at IS NOT NULL AND next_retry_at <= ?", before).
		Order("next_retry_at ASC").Limit(limit).
		Find(&comps).Error
	return comps, err
}
