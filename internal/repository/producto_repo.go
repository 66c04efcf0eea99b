package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

// ProductoRepository is the data access contract for products and their
// stock ledger. Services depend on this interface, not on the concrete GORM
// implementation, enabling unit testing via in-memory stubs.
//
// Stock mutations go exclusively through the guarded Tx methods so a
// concurrent decrement can never drive stock negative.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Producto, error)
	// FindByIDTx reads inside the caller's transaction so the stock the
	// orchestrator validates is the stock the decrement sees.
	FindByIDTx(tx *gorm.DB, empresaID, id uuid.UUID) (*model.Producto, error)
	// DescontarStockTx applies `stock_actual = stock_actual - cantidad` only
	// when stock_actual >= cantidad, in one statement, and returns the
	// resulting stock. ok=false when the guard rejects the decrement. The
	// returned value is what the UPDATE committed against, so ledger rows
	// derived from it stay correct under concurrent decrements — the read
	// the caller validated with may already be stale by then.
	DescontarStockTx(tx *gorm.DB, empresaID, id uuid.UUID, cantidad int) (int, bool, error)
	// IncrementarStockTx adds cantidad (compras, adjustments upward) and
	// returns the resulting stock.
	IncrementarStockTx(tx *gorm.DB, empresaID, id uuid.UUID, cantidad int) (int, error)
	CrearMovimientoTx(tx *gorm.DB, m *model.MovimientoStock) error
	ListMovimientos(ctx context.Context, empresaID, productoID uuid.UUID) ([]model.MovimientoStock, error)
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("empresa_id = ?", empresaID).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) FindByIDTx(tx *gorm.DB, empresaID, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := tx.Where("empresa_id = ?", empresaID).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) DescontarStockTx(tx *gorm.DB, empresaID, id uuid.UUID, cantidad int) (int, bool, error) {
	// Check-then-decrement inside one statement: the WHERE guard and the
	// UPDATE share the row lock, so no interleaving can overspend stock.
	// RETURNING hands back the committed value for the ledger row.
	var nuevo int
	res := tx.Raw(
		`UPDATE productos
		    SET stock_actual = stock_actual - ?, updated_at = NOW()
		  WHERE id = ? AND empresa_id = ? AND stock_actual >= ?
		  RETURNING stock_actual`, cantidad, id, empresaID, cantidad,
	).Scan(&nuevo)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return nuevo, true, nil
}

func (r *productoRepo) IncrementarStockTx(tx *gorm.DB, empresaID, id uuid.UUID, cantidad int) (int, error) {
	var nuevo int
	res := tx.Raw(
		`UPDATE productos
		    SET stock_actual = stock_actual + ?, updated_at = NOW()
		  WHERE id = ? AND empresa_id = ?
		  RETURNING stock_actual`, cantidad, id, empresaID,
	).Scan(&nuevo)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return nuevo, nil
}

func (r *productoRepo) CrearMovimientoTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Create(m).Error
}

func (r *productoRepo) ListMovimientos(ctx context.Context, empresaID, productoID uuid.UUID) ([]model.MovimientoStock, error) {
	var movs []model.MovimientoStock
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND producto_id = ?", empresaID, productoID).
		Order("created_at DESC").Find(&movs).Error
	return movs, err
}
